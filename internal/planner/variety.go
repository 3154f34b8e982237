package planner

import "sort"

// Repetition is a meal served more often than its allowance.
type Repetition struct {
	MealType MealType `json:"mealType"`
	Name     string   `json:"name"`
	// ExtraDays are the days past the allowance on which the meal repeats.
	ExtraDays []string `json:"extraDays"`
}

// VarietyReport lists over-repeated meals. It is diagnostic only.
type VarietyReport struct {
	Repetitions []Repetition `json:"repetitions"`
}

// OK reports whether no meal exceeded its allowance.
func (r VarietyReport) OK() bool {
	return len(r.Repetitions) == 0
}

func repetitionAllowance(t MealType) int {
	if t == MealSnack {
		return 2
	}
	return 1
}

// AuditVariety groups meals by type and normalized name and reports every
// occurrence beyond the allowance. Types in exempt are skipped.
func AuditVariety(plan *MealPlan, exempt []MealType) VarietyReport {
	skip := make(map[MealType]bool, len(exempt))
	for _, t := range exempt {
		skip[t] = true
	}

	type key struct {
		t    MealType
		name string
	}
	var order []key
	days := make(map[key][]string)
	names := make(map[key]string)

	for _, day := range plan.Days {
		for _, m := range day.Meals {
			if skip[m.MealType] {
				continue
			}
			k := key{m.MealType, normalizeText(m.Name)}
			if _, seen := days[k]; !seen {
				order = append(order, k)
				names[k] = m.Name
			}
			days[k] = append(days[k], day.DayName)
		}
	}

	var report VarietyReport
	for _, k := range order {
		allowed := repetitionAllowance(k.t)
		if len(days[k]) <= allowed {
			continue
		}
		report.Repetitions = append(report.Repetitions, Repetition{
			MealType:  k.t,
			Name:      names[k],
			ExtraDays: days[k][allowed:],
		})
	}
	sort.SliceStable(report.Repetitions, func(i, j int) bool {
		return report.Repetitions[i].MealType.order() < report.Repetitions[j].MealType.order()
	})
	return report
}
