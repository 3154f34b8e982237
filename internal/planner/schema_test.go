package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator()
	require.NoError(t, err)
	return v
}

func TestSchemaValidator_Validate(t *testing.T) {
	v := newValidator(t)

	t.Run("NormalizesAcceptedPlan", func(t *testing.T) {
		plan := testPlan(9)
		plan.Days[0].DailyKcal = 100 // below meal sum
		// Model returned the meals out of order.
		plan.Days[1].Meals[0], plan.Days[1].Meals[3] = plan.Days[1].Meals[3], plan.Days[1].Meals[0]

		got, err := v.Validate([]byte(mustJSON(t, plan)), DayNames(7))
		require.NoError(t, err)

		require.Len(t, got.Days, 7)
		for i, name := range DayNames(7) {
			assert.Equal(t, name, got.Days[i].DayName)
			for j, meal := range got.Days[i].Meals {
				assert.Equal(t, MealTypes[j], meal.MealType)
			}
		}
		assert.Equal(t, 2000.0, got.Days[0].DailyKcal)
		assert.Equal(t, 2000.0, got.Days[1].DailyKcal)
	})

	t.Run("KeepsHigherModelKcal", func(t *testing.T) {
		plan := testPlan(1)
		plan.Days[0].DailyKcal = 2500
		got, err := v.Validate([]byte(mustJSON(t, plan)), DayNames(1))
		require.NoError(t, err)
		assert.Equal(t, 2500.0, got.Days[0].DailyKcal)
	})

	rejects := map[string]func(p *MealPlan){
		"TooFewDays": func(p *MealPlan) {
			p.Days = p.Days[:2]
		},
		"ThreeMeals": func(p *MealPlan) {
			p.Days[0].Meals = p.Days[0].Meals[:3]
		},
		"DuplicateMealType": func(p *MealPlan) {
			p.Days[0].Meals[1].MealType = MealBreakfast
		},
		"UnknownMealType": func(p *MealPlan) {
			p.Days[0].Meals[0].MealType = "brunch"
		},
		"UnknownUnit": func(p *MealPlan) {
			p.Days[0].Meals[0].Ingredients[0].Unit = "Prise"
		},
		"UnknownCategory": func(p *MealPlan) {
			p.Days[0].Meals[0].Ingredients[0].Category = "sweets"
		},
		"ZeroAmount": func(p *MealPlan) {
			p.Days[0].Meals[0].Ingredients[0].Amount = 0
		},
		"NegativeKcal": func(p *MealPlan) {
			p.Days[0].Meals[0].Kcal = -10
		},
		"NoIngredients": func(p *MealPlan) {
			p.Days[0].Meals[0].Ingredients = []Ingredient{}
		},
		"RecipeTooShort": func(p *MealPlan) {
			p.Days[0].Meals[0].Recipe = "Kochen | Tipp: Warm essen"
		},
		"RecipeTooLong": func(p *MealPlan) {
			p.Days[0].Meals[0].Recipe = strings.Repeat("Umrühren. ", 200)
		},
	}
	for name, mutate := range rejects {
		t.Run("Rejects"+name, func(t *testing.T) {
			plan := testPlan(3)
			mutate(plan)
			_, err := v.Validate([]byte(mustJSON(t, plan)), DayNames(3))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSchema), err.Error())
		})
	}

	t.Run("RejectsMissingField", func(t *testing.T) {
		raw := strings.Replace(mustJSON(t, testPlan(1)), `"kcal":500,`, "", 1)
		_, err := v.Validate([]byte(raw), DayNames(1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSchema))
		assert.Contains(t, err.Error(), "kcal")
	})

	t.Run("RejectsStringNumber", func(t *testing.T) {
		raw := strings.Replace(mustJSON(t, testPlan(1)), `"dailyKcal":2000`, `"dailyKcal":"2000"`, 1)
		_, err := v.Validate([]byte(raw), DayNames(1))
		assert.True(t, errors.Is(err, ErrInvalidSchema))
	})

	t.Run("RejectsMissingDays", func(t *testing.T) {
		_, err := v.Validate([]byte(`{"plan": []}`), DayNames(1))
		assert.True(t, errors.Is(err, ErrInvalidSchema))
	})
}

func TestSchemaValidator_Check(t *testing.T) {
	v := newValidator(t)
	names := DayNames(2)

	plan := BuildFallbackPlan(names)
	require.NoError(t, v.Check(plan, names))

	plan.Days[1].DayName = "Freitag"
	assert.True(t, errors.Is(v.Check(plan, names), ErrInvalidSchema))

	plan = BuildFallbackPlan(names)
	plan.Days[0].DailyKcal = 10
	assert.True(t, errors.Is(v.Check(plan, names), ErrInvalidSchema))

	assert.True(t, errors.Is(v.Check(BuildFallbackPlan(names), DayNames(3)), ErrInvalidSchema))

	plan = BuildFallbackPlan(names)
	meal := &plan.Days[0].Meals[0]
	meal.Recipe = longRecipe(1590) + " " + RecipeDelimiter + " " + TipFor(meal.Name, meal.Ingredients)
	err := v.Check(plan, names)
	assert.True(t, errors.Is(err, ErrInvalidSchema))
	assert.Contains(t, err.Error(), "recipe")
}
