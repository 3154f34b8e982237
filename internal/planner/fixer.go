package planner

// FixMealTypes copies day 1's meal of every listed type onto all other days
// and re-applies the dailyKcal floor. An empty list leaves the plan as is.
func FixMealTypes(plan *MealPlan, fixed []MealType) {
	if len(fixed) == 0 || len(plan.Days) == 0 {
		return
	}

	templates := make(map[MealType]Meal, len(fixed))
	for _, t := range fixed {
		if m, ok := plan.Days[0].Meal(t); ok {
			templates[t] = m
		}
	}

	for d := range plan.Days {
		day := &plan.Days[d]
		if d > 0 {
			for i := range day.Meals {
				if tmpl, ok := templates[day.Meals[i].MealType]; ok {
					day.Meals[i] = tmpl.clone()
				}
			}
		}
		day.applyKcalFloor()
	}
}
