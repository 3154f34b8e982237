package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testMeal builds a schema-valid meal whose name is unique per day.
func testMeal(t MealType, day int, kcal float64) Meal {
	name := fmt.Sprintf("%s Gericht %d", t, day+1)
	steps := []string{
		"Zutaten abmessen: 100 g Kartoffeln, 150 g Möhren und 1 EL Rapsöl bereitstellen",
		"Die Kartoffeln schälen, in gleich große Stücke schneiden und in Salzwasser garen",
		"Die Möhren in Scheiben schneiden und im Rapsöl bei mittlerer Hitze andünsten",
		"Alles vermengen, mild würzen und auf einem vorgewärmten Teller anrichten",
		"Tipp: Das Gemüse lieber etwas länger garen, damit es weich und gut zu kauen ist",
	}
	return Meal{
		MealType:    t,
		Name:        name,
		Description: "Einfaches Gericht zum Testen.",
		Recipe:      strings.Join(steps, " | "),
		Kcal:        kcal,
		Protein:     20,
		Carbs:       60,
		Fat:         15,
		Ingredients: []Ingredient{
			{Name: "Kartoffeln", Amount: 100, Unit: UnitGram, Category: CategoryStarch},
			{Name: "Möhren", Amount: 150, Unit: UnitGram, Category: CategoryProduce},
			{Name: "Rapsöl", Amount: 1, Unit: UnitTablespoon, Category: CategoryOther},
		},
	}
}

// testPlan builds an n-day plan in the shape a well-behaved model returns.
func testPlan(n int) *MealPlan {
	plan := &MealPlan{}
	for d := 0; d < n; d++ {
		plan.Days = append(plan.Days, Day{
			DayName: fmt.Sprintf("Day %d", d+1),
			Meals: []Meal{
				testMeal(MealBreakfast, d, 500),
				testMeal(MealLunch, d, 700),
				testMeal(MealDinner, d, 600),
				testMeal(MealSnack, d, 200),
			},
			DailyKcal: 2000,
		})
	}
	return plan
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func lastStep(recipe string) string {
	steps := strings.Split(recipe, RecipeDelimiter)
	return strings.TrimSpace(steps[len(steps)-1])
}
