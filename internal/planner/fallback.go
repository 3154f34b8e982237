package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fixed calorie value per meal type of the fallback catalog. The day total
// is 1870 kcal.
var fallbackKcal = map[MealType]float64{
	MealBreakfast: 480,
	MealLunch:     620,
	MealDinner:    560,
	MealSnack:     210,
}

type catalogMeal struct {
	name        string
	description string
	ingredients []Ingredient
	steps       []string
}

func ing(name string, amount float64, unit Unit, cat Category) Ingredient {
	return Ingredient{Name: name, Amount: amount, Unit: unit, Category: cat}
}

var fallbackCatalog = map[MealType][]catalogMeal{
	MealBreakfast: {
		{
			name:        "Haferbrei mit Apfel und Zimt",
			description: "Warmer, weicher Haferbrei mit geriebenem Apfel, gut verträglich am Morgen.",
			ingredients: []Ingredient{
				ing("Haferflocken", 60, UnitGram, CategoryStarch),
				ing("Milch", 250, UnitMilliliter, CategoryDairy),
				ing("Apfel", 1, UnitPiece, CategoryProduce),
				ing("Zimt", 1, UnitTeaspoon, CategoryOther),
			},
			steps: []string{
				"Die Milch in einem kleinen Topf langsam erwärmen und die Haferflocken einrühren",
				"Bei kleiner Hitze etwa 5 Minuten quellen lassen und dabei regelmäßig umrühren",
				"Den Apfel waschen, entkernen, fein reiben und zusammen mit dem Zimt unterheben",
			},
		},
		{
			name:        "Vollkornbrot mit Frischkäse und Gurke",
			description: "Zwei Scheiben Vollkornbrot mit Frischkäse, frischer Gurke und Schnittlauch.",
			ingredients: []Ingredient{
				ing("Vollkornbrot", 100, UnitGram, CategoryStarch),
				ing("Frischkäse", 40, UnitGram, CategoryDairy),
				ing("Salatgurke", 80, UnitGram, CategoryProduce),
				ing("Schnittlauch", 1, UnitTablespoon, CategoryProduce),
			},
			steps: []string{
				"Das Vollkornbrot in zwei Scheiben schneiden und gleichmäßig mit dem Frischkäse bestreichen",
				"Die Gurke waschen, in dünne Scheiben schneiden und auf dem Brot verteilen",
				"Den Schnittlauch fein schneiden und darüberstreuen",
			},
		},
		{
			name:        "Rührei mit Tomate und Brötchen",
			description: "Locker gestocktes Rührei mit gewürfelter Tomate und einem Brötchen.",
			ingredients: []Ingredient{
				ing("Eier", 2, UnitPiece, CategoryProtein),
				ing("Tomate", 1, UnitPiece, CategoryProduce),
				ing("Brötchen", 1, UnitPiece, CategoryStarch),
				ing("Butter", 1, UnitTeaspoon, CategoryDairy),
			},
			steps: []string{
				"Die Eier in einer Schüssel verquirlen und leicht salzen",
				"Die Butter in einer Pfanne schmelzen, die Eier hineingeben und unter Rühren stocken lassen",
				"Die Tomate würfeln, kurz mitdünsten und das Rührei mit dem aufgeschnittenen Brötchen servieren",
			},
		},
		{
			name:        "Joghurt mit Beeren und Haferflocken",
			description: "Cremiger Naturjoghurt mit Beeren, Haferflocken und etwas Honig.",
			ingredients: []Ingredient{
				ing("Naturjoghurt", 200, UnitGram, CategoryDairy),
				ing("Beeren", 100, UnitGram, CategoryProduce),
				ing("Haferflocken", 30, UnitGram, CategoryStarch),
				ing("Honig", 1, UnitTeaspoon, CategoryOther),
			},
			steps: []string{
				"Den Joghurt in eine Schale geben und mit dem Honig glatt rühren",
				"Die Beeren verlesen, waschen und größere Früchte halbieren",
				"Beeren und Haferflocken auf den Joghurt geben und kurz ziehen lassen",
			},
		},
	},
	MealLunch: {
		{
			name:        "Nudeln mit Tomaten-Gemüse-Sauce",
			description: "Vollkornnudeln in einer milden Tomatensauce mit Zucchini und Parmesan.",
			ingredients: []Ingredient{
				ing("Vollkornnudeln", 100, UnitGram, CategoryStarch),
				ing("Passierte Tomaten", 200, UnitMilliliter, CategoryProduce),
				ing("Zucchini", 100, UnitGram, CategoryProduce),
				ing("Parmesan", 20, UnitGram, CategoryDairy),
			},
			steps: []string{
				"Die Nudeln in reichlich Salzwasser nach Packungsangabe weich garen",
				"Die Zucchini fein würfeln und in einem Topf kurz andünsten",
				"Die passierten Tomaten zugeben, 10 Minuten köcheln lassen und mit den Nudeln mischen",
				"Mit dem geriebenen Parmesan bestreuen",
			},
		},
		{
			name:        "Hähnchenbrust mit Kartoffeln und Möhren",
			description: "Zartes Hähnchen mit Salzkartoffeln und gedünsteten Möhren.",
			ingredients: []Ingredient{
				ing("Hähnchenbrust", 120, UnitGram, CategoryProtein),
				ing("Kartoffeln", 200, UnitGram, CategoryStarch),
				ing("Möhren", 150, UnitGram, CategoryProduce),
				ing("Rapsöl", 1, UnitTablespoon, CategoryOther),
			},
			steps: []string{
				"Die Kartoffeln schälen, vierteln und in Salzwasser etwa 20 Minuten garen",
				"Die Möhren in Scheiben schneiden und mit wenig Wasser weich dünsten",
				"Die Hähnchenbrust im Rapsöl von beiden Seiten je 6 Minuten braten, bis sie durchgegart ist",
			},
		},
		{
			name:        "Gemüsereis mit Erbsen und Pute",
			description: "Lockerer Reis mit Erbsen, Paprika und Putenstreifen.",
			ingredients: []Ingredient{
				ing("Reis", 80, UnitGram, CategoryStarch),
				ing("Erbsen", 100, UnitGram, CategoryProduce),
				ing("Paprika", 1, UnitPiece, CategoryProduce),
				ing("Putenstreifen", 100, UnitGram, CategoryProtein),
			},
			steps: []string{
				"Den Reis in der doppelten Menge Wasser aufkochen und zugedeckt 15 Minuten garen",
				"Die Paprika fein würfeln und mit den Putenstreifen in einer Pfanne anbraten",
				"Die Erbsen zugeben, 5 Minuten mitgaren und alles mit dem Reis vermengen",
			},
		},
		{
			name:        "Fischfilet mit Kartoffelpüree und Spinat",
			description: "Gedünstetes Seelachsfilet mit cremigem Püree und Blattspinat.",
			ingredients: []Ingredient{
				ing("Seelachsfilet", 130, UnitGram, CategoryProtein),
				ing("Kartoffeln", 200, UnitGram, CategoryStarch),
				ing("Blattspinat", 150, UnitGram, CategoryProduce),
				ing("Milch", 50, UnitMilliliter, CategoryDairy),
			},
			steps: []string{
				"Die Kartoffeln schälen, weich kochen und mit der warmen Milch zu Püree stampfen",
				"Den Spinat waschen und in einem Topf zusammenfallen lassen",
				"Das Seelachsfilet in wenig Wasser bei kleiner Hitze 8 Minuten gar ziehen lassen",
			},
		},
	},
	MealDinner: {
		{
			name:        "Linsencurry mit Reis",
			description: "Mildes Curry aus roten Linsen und Möhren mit Kokosmilch und Reis.",
			ingredients: []Ingredient{
				ing("Rote Linsen", 70, UnitGram, CategoryProtein),
				ing("Reis", 60, UnitGram, CategoryStarch),
				ing("Kokosmilch", 100, UnitMilliliter, CategoryOther),
				ing("Möhren", 100, UnitGram, CategoryProduce),
			},
			steps: []string{
				"Den Reis mit der doppelten Menge Wasser zugedeckt 15 Minuten garen",
				"Die Möhren fein würfeln und mit den Linsen in 250 ml Wasser 12 Minuten köcheln lassen",
				"Die Kokosmilch einrühren, mild würzen und das Curry mit dem Reis anrichten",
			},
		},
		{
			name:        "Käsebrot mit Tomatensalat",
			description: "Vollkornbrot mit Gouda und einem frischen Tomatensalat.",
			ingredients: []Ingredient{
				ing("Vollkornbrot", 100, UnitGram, CategoryStarch),
				ing("Gouda", 40, UnitGram, CategoryDairy),
				ing("Tomaten", 150, UnitGram, CategoryProduce),
				ing("Olivenöl", 1, UnitTablespoon, CategoryOther),
			},
			steps: []string{
				"Das Brot in Scheiben schneiden und mit dem Gouda belegen",
				"Die Tomaten in Scheiben schneiden und auf einem Teller auslegen",
				"Die Tomaten mit dem Olivenöl beträufeln, leicht salzen und zum Brot reichen",
			},
		},
		{
			name:        "Kartoffelsuppe mit Geflügelwürstchen",
			description: "Sämige Kartoffelsuppe mit Suppengemüse und einem Würstchen.",
			ingredients: []Ingredient{
				ing("Kartoffeln", 250, UnitGram, CategoryStarch),
				ing("Suppengemüse", 150, UnitGram, CategoryProduce),
				ing("Geflügelwürstchen", 1, UnitPiece, CategoryProtein),
				ing("Gemüsebrühe", 400, UnitMilliliter, CategoryOther),
			},
			steps: []string{
				"Kartoffeln und Suppengemüse schälen, würfeln und in der Gemüsebrühe 20 Minuten weich kochen",
				"Die Suppe mit dem Stabmixer teilweise pürieren, sodass noch kleine Stücke bleiben",
				"Das Würstchen in Scheiben schneiden und 5 Minuten in der Suppe erwärmen",
			},
		},
		{
			name:        "Gemüse-Omelett mit Vollkornbrot",
			description: "Saftiges Omelett mit Paprika und einer Scheibe Vollkornbrot.",
			ingredients: []Ingredient{
				ing("Eier", 2, UnitPiece, CategoryProtein),
				ing("Paprika", 1, UnitPiece, CategoryProduce),
				ing("Vollkornbrot", 60, UnitGram, CategoryStarch),
				ing("Milch", 50, UnitMilliliter, CategoryDairy),
			},
			steps: []string{
				"Die Eier mit der Milch verquirlen und leicht würzen",
				"Die Paprika fein würfeln und in einer beschichteten Pfanne 3 Minuten andünsten",
				"Die Eiermasse darübergießen und bei mittlerer Hitze zugedeckt stocken lassen",
			},
		},
	},
	MealSnack: {
		{
			name:        "Apfel mit Nussmus",
			description: "Apfelspalten zum Dippen in Nussmus.",
			ingredients: []Ingredient{
				ing("Apfel", 1, UnitPiece, CategoryProduce),
				ing("Nussmus", 1, UnitTablespoon, CategoryOther),
				ing("Zimt", 1, UnitTeaspoon, CategoryOther),
				ing("Leinsamen", 1, UnitTeaspoon, CategoryOther),
			},
			steps: []string{
				"Den Apfel waschen, vierteln, entkernen und in dünne Spalten schneiden",
				"Das Nussmus mit dem Zimt in einem kleinen Schälchen verrühren",
				"Die Leinsamen über die Apfelspalten streuen und mit dem Nussmus servieren",
			},
		},
		{
			name:        "Quark mit Banane",
			description: "Leichter Magerquark mit zerdrückter Banane.",
			ingredients: []Ingredient{
				ing("Magerquark", 125, UnitGram, CategoryDairy),
				ing("Banane", 1, UnitPiece, CategoryProduce),
				ing("Milch", 30, UnitMilliliter, CategoryDairy),
				ing("Honig", 1, UnitTeaspoon, CategoryOther),
			},
			steps: []string{
				"Den Quark mit der Milch cremig rühren",
				"Die Banane mit einer Gabel zerdrücken und unter den Quark heben",
				"Mit dem Honig süßen und in einer kleinen Schale servieren",
			},
		},
		{
			name:        "Buttermilch-Beeren-Shake",
			description: "Erfrischender Shake aus Buttermilch und Beeren.",
			ingredients: []Ingredient{
				ing("Buttermilch", 200, UnitMilliliter, CategoryDairy),
				ing("Beeren", 80, UnitGram, CategoryProduce),
				ing("Haferflocken", 10, UnitGram, CategoryStarch),
				ing("Honig", 1, UnitTeaspoon, CategoryOther),
			},
			steps: []string{
				"Die Beeren verlesen und waschen, gefrorene Beeren kurz antauen lassen",
				"Beeren, Buttermilch, Haferflocken und Honig in einem Mixer fein pürieren",
				"Den Shake in ein Glas füllen und mit einem Trinkhalm servieren",
			},
		},
		{
			name:        "Vollkornkekse mit Birne",
			description: "Ein paar Vollkornkekse mit reifer Birne und Walnüssen.",
			ingredients: []Ingredient{
				ing("Vollkornkekse", 30, UnitGram, CategoryStarch),
				ing("Birne", 1, UnitPiece, CategoryProduce),
				ing("Walnüsse", 10, UnitGram, CategoryOther),
				ing("Kräutertee", 200, UnitMilliliter, CategoryOther),
			},
			steps: []string{
				"Die Birne waschen, entkernen und in mundgerechte Stücke schneiden",
				"Die Walnüsse grob hacken und über die Birne streuen",
				"Die Kekse dazulegen und mit einer Tasse Kräutertee reichen",
			},
		},
	},
}

// BuildFallbackPlan synthesizes a complete plan from the built-in catalog.
// Day i uses catalog entry i mod 4 of every meal type, so the same day names
// always produce the same plan.
func BuildFallbackPlan(dayNames []string) *MealPlan {
	plan := &MealPlan{Days: make([]Day, 0, len(dayNames))}
	for i, name := range dayNames {
		day := Day{DayName: name, Meals: make([]Meal, 0, len(MealTypes))}
		for _, t := range MealTypes {
			entries := fallbackCatalog[t]
			day.Meals = append(day.Meals, fallbackMeal(t, entries[i%len(entries)]))
		}
		day.applyKcalFloor()
		plan.Days = append(plan.Days, day)
	}
	return plan
}

func fallbackMeal(t MealType, c catalogMeal) Meal {
	kcal := fallbackKcal[t]
	meal := Meal{
		MealType:    t,
		Name:        c.name,
		Description: c.description,
		Kcal:        kcal,
		Protein:     round1(kcal * 0.20 / 4),
		Carbs:       round1(kcal * 0.50 / 4),
		Fat:         round1(kcal * 0.30 / 9),
		Ingredients: append([]Ingredient(nil), c.ingredients...),
	}
	meal.Recipe = fallbackRecipe(meal, c.steps)
	meal.Recipe = InjectTip(meal)
	return meal
}

func fallbackRecipe(meal Meal, steps []string) string {
	quantities := make([]string, len(meal.Ingredients))
	for i, in := range meal.Ingredients {
		quantities[i] = fmt.Sprintf("%s %s %s", formatAmount(in.Amount), in.Unit, in.Name)
	}

	all := make([]string, 0, len(steps)+2)
	all = append(all, "Zutaten abmessen: "+strings.Join(quantities, ", "))
	all = append(all, steps...)
	all = append(all, fmt.Sprintf("Die Portion mit rund %.0f kcal auf einem Teller anrichten und zeitnah servieren", meal.Kcal))
	return strings.Join(all, " "+RecipeDelimiter+" ")
}

func formatAmount(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
