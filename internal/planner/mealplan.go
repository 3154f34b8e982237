package planner

// MealType identifies one of the four daily meals.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists the meal types in the order they appear within a day.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid reports whether t is one of the known meal types.
func (t MealType) Valid() bool {
	for _, known := range MealTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t MealType) order() int {
	for i, known := range MealTypes {
		if t == known {
			return i
		}
	}
	return len(MealTypes)
}

// Unit is the measuring unit of an ingredient amount.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "Stk"
	UnitTablespoon Unit = "EL"
	UnitTeaspoon   Unit = "TL"
)

// Category groups ingredients for shopping and variety purposes.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryProtein Category = "protein"
	CategoryDairy   Category = "dairy"
	CategoryStarch  Category = "starch"
	CategoryOther   Category = "other"
)

// Ingredient is a single ingredient line of a meal.
type Ingredient struct {
	Name     string   `json:"name"`
	Amount   float64  `json:"amount"`
	Unit     Unit     `json:"unit"`
	Category Category `json:"category"`
}

// Meal is one meal of a day. Recipe holds the ordered steps separated by
// RecipeDelimiter; the last step starts with TipMarker.
type Meal struct {
	MealType    MealType     `json:"mealType"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Recipe      string       `json:"recipe"`
	Kcal        float64      `json:"kcal"`
	Protein     float64      `json:"protein"`
	Carbs       float64      `json:"carbs"`
	Fat         float64      `json:"fat"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Day is a single day of a plan. DailyKcal is never below the sum of its meals.
type Day struct {
	DayName   string  `json:"dayName"`
	Meals     []Meal  `json:"meals"`
	DailyKcal float64 `json:"dailyKcal"`
}

// MealPlan is an ordered list of days.
type MealPlan struct {
	Days []Day `json:"days"`
}

const (
	// RecipeDelimiter separates recipe steps.
	RecipeDelimiter = "|"
	// TipMarker starts the final recipe step.
	TipMarker = "Tipp:"

	MinDays     = 1
	MaxDays     = 14
	DefaultDays = 7

	// MinDailyKcal is requested from the model; the fallback catalog meets it.
	MinDailyKcal = 1800
)

// MealKcalSum returns the summed kcal of all meals of the day.
func (d Day) MealKcalSum() float64 {
	var sum float64
	for _, m := range d.Meals {
		sum += m.Kcal
	}
	return sum
}

// applyKcalFloor raises DailyKcal to the meal sum when it is lower.
func (d *Day) applyKcalFloor() {
	if sum := d.MealKcalSum(); d.DailyKcal < sum {
		d.DailyKcal = sum
	}
}

// Meal returns the meal of the given type and whether it exists.
func (d Day) Meal(t MealType) (Meal, bool) {
	for _, m := range d.Meals {
		if m.MealType == t {
			return m, true
		}
	}
	return Meal{}, false
}

func (m Meal) clone() Meal {
	out := m
	out.Ingredients = append([]Ingredient(nil), m.Ingredients...)
	return out
}

// PatientContext is what the patient context provider supplies about a resident.
type PatientContext struct {
	BirthYear       int      `json:"birthYear"`
	CurrentWeightKg float64  `json:"currentWeightKg"`
	TargetWeightKg  float64  `json:"targetWeightKg"`
	Allergies       []string `json:"allergies"`
	Autonomy        string   `json:"autonomy,omitempty"`
	CareNotes       string   `json:"careNotes,omitempty"`
}
