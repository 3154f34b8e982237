package planner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFallbackPlan(t *testing.T) {
	v := newValidator(t)

	for n := MinDays; n <= MaxDays; n++ {
		names := DayNames(n)
		plan := BuildFallbackPlan(names)
		require.NoError(t, v.Check(plan, names), "n=%d", n)
		require.Len(t, plan.Days, n)

		for i, day := range plan.Days {
			assert.Equal(t, names[i], day.DayName)
			assert.Equal(t, 1870.0, day.DailyKcal)
			assert.GreaterOrEqual(t, day.DailyKcal, float64(MinDailyKcal))
			for _, meal := range day.Meals {
				assert.True(t, strings.HasPrefix(lastStep(meal.Recipe), TipMarker), meal.Name)
				assert.Len(t, meal.Ingredients, 4)
			}
		}
	}
}

func TestBuildFallbackPlan_Deterministic(t *testing.T) {
	names := DayNames(14)
	first, err := json.Marshal(BuildFallbackPlan(names))
	require.NoError(t, err)
	second, err := json.Marshal(BuildFallbackPlan(names))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildFallbackPlan_CyclesCatalog(t *testing.T) {
	plan := BuildFallbackPlan(DayNames(9))
	for _, i := range []int{0, 4, 8} {
		b, _ := plan.Days[i].Meal(MealBreakfast)
		assert.Equal(t, "Haferbrei mit Apfel und Zimt", b.Name)
	}
	lunch1, _ := plan.Days[1].Meal(MealLunch)
	lunch5, _ := plan.Days[5].Meal(MealLunch)
	assert.Equal(t, lunch1, lunch5)

	lunch0, _ := plan.Days[0].Meal(MealLunch)
	assert.NotEqual(t, lunch0.Name, lunch1.Name)
}

func TestFallbackMeal_Macros(t *testing.T) {
	plan := BuildFallbackPlan(DayNames(1))
	lunch, ok := plan.Days[0].Meal(MealLunch)
	require.True(t, ok)

	assert.Equal(t, 620.0, lunch.Kcal)
	assert.Equal(t, 31.0, lunch.Protein)
	assert.Equal(t, 77.5, lunch.Carbs)
	assert.Equal(t, 20.7, lunch.Fat)

	// Quantities listed in the ingredients reappear in the recipe text.
	assert.Contains(t, lunch.Recipe, "100 g Vollkornnudeln")
	assert.Contains(t, lunch.Recipe, "200 ml Passierte Tomaten")
}
