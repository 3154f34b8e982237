package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RepairStrategy names the strategy that recovered a JSON object.
type RepairStrategy string

const (
	StrategyDirect RepairStrategy = "direct"
	StrategyFenced RepairStrategy = "fenced"
	StrategyBraces RepairStrategy = "braces"
)

// RepairResult is the JSON object recovered from raw model output.
type RepairResult struct {
	Raw      json.RawMessage
	Object   map[string]any
	Strategy RepairStrategy
}

type repairFunc func(text string) (json.RawMessage, error)

type repairStep struct {
	strategy RepairStrategy
	fn       repairFunc
}

var repairSteps = []repairStep{
	{StrategyDirect, parseDirect},
	{StrategyFenced, parseFenced},
	{StrategyBraces, parseBraces},
}

var fencePattern = regexp.MustCompile("(?s)```(?i:json\\w*)?\\s*\\n?(.*?)```")

var errNoCandidate = errors.New("no candidate found")

// Repair tries each strategy in order and returns the first that yields a
// JSON object.
func Repair(text string) (RepairResult, error) {
	var failures []string
	for _, step := range repairSteps {
		raw, err := step.fn(text)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", step.strategy, err))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			failures = append(failures, fmt.Sprintf("%s: not a JSON object", step.strategy))
			continue
		}
		return RepairResult{Raw: raw, Object: obj, Strategy: step.strategy}, nil
	}
	return RepairResult{}, fmt.Errorf("%w (%s)", ErrUnrecoverableParse, strings.Join(failures, "; "))
}

func parseDirect(text string) (json.RawMessage, error) {
	return validJSON(strings.TrimSpace(text))
}

func parseFenced(text string) (json.RawMessage, error) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, errNoCandidate
	}
	return validJSON(strings.TrimSpace(m[1]))
}

func parseBraces(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errNoCandidate
	}
	return validJSON(text[start : end+1])
}

func validJSON(s string) (json.RawMessage, error) {
	if s == "" {
		return nil, errNoCandidate
	}
	if !json.Valid([]byte(s)) {
		return nil, errors.New("invalid JSON")
	}
	return json.RawMessage(s), nil
}
