package planner

// Stage is a progress checkpoint reported during generation.
type Stage string

const (
	StagePreparing Stage = "preparing"
	StageFallback  Stage = "model slow, using fallback"
	StageReady     Stage = "plan ready"
)

// ProgressFunc receives progress checkpoints. It is called synchronously and
// must not block.
type ProgressFunc func(Stage)

func (f ProgressFunc) report(s Stage) {
	if f != nil {
		f(s)
	}
}
