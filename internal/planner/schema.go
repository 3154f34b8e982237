package planner

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed plan_schema.json
var planSchema []byte

// SchemaValidator checks repaired model output against the plan schema and
// normalizes accepted plans.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidator compiles the embedded plan schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(planSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate accepts or rejects raw as a whole. An accepted plan is truncated
// to len(dayNames) days, renamed to the canonical day names, has its meals in
// meal-type order and carries the dailyKcal floor.
func (v *SchemaValidator) Validate(raw []byte, dayNames []string) (*MealPlan, error) {
	if err := v.validateDocument(raw); err != nil {
		return nil, err
	}

	var plan MealPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	if len(plan.Days) < len(dayNames) {
		return nil, fmt.Errorf("%w: got %d days, need %d", ErrInvalidSchema, len(plan.Days), len(dayNames))
	}
	plan.Days = plan.Days[:len(dayNames)]

	for i := range plan.Days {
		if err := checkMealTypes(plan.Days[i]); err != nil {
			return nil, fmt.Errorf("%w: day %d: %v", ErrInvalidSchema, i+1, err)
		}
	}

	normalize(&plan, dayNames)
	return &plan, nil
}

// Check validates an already constructed plan without normalizing it. The
// plan must have exactly len(dayNames) days carrying those names.
func (v *SchemaValidator) Check(plan *MealPlan, dayNames []string) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := v.validateDocument(raw); err != nil {
		return err
	}
	if len(plan.Days) != len(dayNames) {
		return fmt.Errorf("%w: got %d days, want %d", ErrInvalidSchema, len(plan.Days), len(dayNames))
	}
	for i, day := range plan.Days {
		if day.DayName != dayNames[i] {
			return fmt.Errorf("%w: day %d is named %q, want %q", ErrInvalidSchema, i+1, day.DayName, dayNames[i])
		}
		if err := checkMealTypes(day); err != nil {
			return fmt.Errorf("%w: day %d: %v", ErrInvalidSchema, i+1, err)
		}
		if day.DailyKcal < day.MealKcalSum() {
			return fmt.Errorf("%w: day %d dailyKcal %.0f below meal sum %.0f", ErrInvalidSchema, i+1, day.DailyKcal, day.MealKcalSum())
		}
	}
	return nil
}

func (v *SchemaValidator) validateDocument(raw []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(problems, "; "))
	}
	return nil
}

func checkMealTypes(day Day) error {
	seen := make(map[MealType]int, len(MealTypes))
	for _, m := range day.Meals {
		seen[m.MealType]++
	}
	for _, t := range MealTypes {
		if seen[t] != 1 {
			return fmt.Errorf("expected exactly one %s meal, found %d", t, seen[t])
		}
	}
	return nil
}

func normalize(plan *MealPlan, dayNames []string) {
	for i := range plan.Days {
		day := &plan.Days[i]
		day.DayName = dayNames[i]
		sort.SliceStable(day.Meals, func(a, b int) bool {
			return day.Meals[a].MealType.order() < day.Meals[b].MealType.order()
		})
		day.applyKcalFloor()
	}
}

// SchemaText returns the plan schema as embedded in the system prompt.
func SchemaText() string {
	return string(planSchema)
}
