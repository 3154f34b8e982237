package planner

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tip bodies shorter than minTipBody are placeholders. Short bodies up to
// maxGenericTipBody are placeholders too when they contain a generic phrase.
const (
	minTipBody        = 25
	maxGenericTipBody = 60
)

// substrs match anywhere, tokens match whole words and stems match the
// start or end of a word unless the word is listed in except.
type tipFamily struct {
	name    string
	substrs []string
	tokens  []string
	stems   []string
	except  []string
	tip     string
}

// Ordered; the first family whose keywords appear in the meal name or
// ingredient names wins.
var tipFamilies = []tipFamily{
	{
		name:    "oats",
		substrs: []string{"hafer", "overnight", "porridge", "musli", "muesli"},
		tip:     "Tipp: Haferflocken am Vorabend mit der Flüssigkeit ansetzen, dann werden sie weich und leicht zu schlucken; morgens bei Bedarf mit etwas warmer Milch auflockern.",
	},
	{
		name:    "yogurt",
		substrs: []string{"joghurt", "quark", "skyr", "kefir"},
		tip:     "Tipp: Joghurt oder Quark erst kurz vor dem Servieren mit dem Obst mischen und mit 1 EL Milch glatt rühren, so bleibt die Creme fest und wird nicht wässrig.",
	},
	{
		name:    "pasta",
		substrs: []string{"nudel", "pasta", "spaghetti", "penne", "makkaroni", "lasagne", "spatzle", "tortellini"},
		tip:     "Tipp: Nudeln 1 bis 2 Minuten länger als angegeben garen, damit sie gut zu kauen sind, und eine Tasse Kochwasser aufheben, um die Sauce sämig zu binden.",
	},
	{
		name:    "rice",
		substrs: []string{"risotto"},
		stems:   []string{"reis"},
		except:  []string{"preis", "kreis", "greis", "reise", "reisen"},
		tip:     "Tipp: Reis vor dem Kochen in einem Sieb waschen und nach dem Garen 5 Minuten zugedeckt quellen lassen; Reste gekühlt lagern und am nächsten Tag verbrauchen.",
	},
	{
		name:    "curry",
		substrs: []string{"curry", "masala"},
		tokens:  []string{"dal"},
		tip:     "Tipp: Currypulver kurz im heißen Öl anrösten, damit sich das Aroma entfaltet, und die Schärfe bei Bedarf mit einem Schuss Kokosmilch oder 1 EL Joghurt mildern.",
	},
	{
		name:    "egg",
		substrs: []string{"ruhrei", "omelett", "spiegelei", "frittata", "eier"},
		tokens:  []string{"ei"},
		tip:     "Tipp: Eier bei mittlerer Hitze langsam stocken lassen und vollständig durchgaren; so bleiben sie saftig und sind für ältere Menschen hygienisch unbedenklich.",
	},
	{
		name:    "wrap",
		substrs: []string{"wrap", "tortilla", "fladen"},
		tip:     "Tipp: Tortillas kurz in einer trockenen Pfanne erwärmen, dann reißen sie beim Rollen nicht; fest einrollen und halbieren, damit sie gut zu greifen sind.",
	},
	{
		name:    "salad",
		substrs: []string{"salat", "bowl", "rohkost"},
		tip:     "Tipp: Dressing erst direkt vor dem Servieren unterheben und harte Zutaten fein schneiden oder raspeln, damit der Salat frisch bleibt und leicht zu kauen ist.",
	},
	{
		name:    "bread",
		substrs: []string{"brot", "toast", "sandwich", "stulle", "baguette"},
		tip:     "Tipp: Brot bei Kaubeschwerden ohne Rinde verwenden oder kurz antoasten und in Streifen schneiden; den Belag bis an den Rand verteilen, damit jeder Bissen gleich schmeckt.",
	},
	{
		name:    "snack",
		substrs: []string{"nuss", "nusse", "apfel", "banane", "obst", "riegel", "cracker", "smoothie", "birne", "beeren"},
		tip:     "Tipp: Den Snack mundgerecht vorbereiten und gut sichtbar bereitstellen; Nüsse bei Schluckbeschwerden als Mus anbieten und Obst bei Bedarf kurz dünsten.",
	},
}

// Normalized tip bodies that are replaced even though they carry the marker.
var genericTipPhrases = []string{
	"guten appetit",
	"nach belieben",
	"nach geschmack",
	"frisch servieren",
	"warm servieren",
	"kein tipp",
	"keiner",
	"tbd",
	"todo",
	"lorem ipsum",
	"enjoy",
	"viel spass",
}

var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText lower-cases s, strips diacritics and folds ß to ss.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "ß", "ss")
	s = strings.ReplaceAll(s, "ẞ", "ss")
	out, _, err := transform.String(diacritics, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TipFor returns the kitchen tip for a dish with the given name and ingredients.
func TipFor(name string, ingredients []Ingredient) string {
	if fam, ok := matchTipFamily(name, ingredients); ok {
		return fam.tip
	}
	dish := strings.TrimSpace(name)
	if dish == "" {
		dish = "Das Gericht"
	}
	return fmt.Sprintf("Tipp: %s frisch zubereiten, auf einem hellen Teller ansprechend anrichten und vor dem Servieren prüfen, ob Temperatur und Konsistenz für den Bewohner passen.", dish)
}

func matchTipFamily(name string, ingredients []Ingredient) (tipFamily, bool) {
	parts := []string{name}
	for _, ing := range ingredients {
		parts = append(parts, ing.Name)
	}
	haystack := normalizeText(strings.Join(parts, " "))
	tokens := make(map[string]bool)
	for _, tok := range tokenize(haystack) {
		tokens[tok] = true
	}

	for _, fam := range tipFamilies {
		for _, s := range fam.substrs {
			if strings.Contains(haystack, s) {
				return fam, true
			}
		}
		for _, tok := range fam.tokens {
			if tokens[tok] {
				return fam, true
			}
		}
		if fam.matchStem(tokens) {
			return fam, true
		}
	}
	return tipFamily{}, false
}

func (f tipFamily) matchStem(tokens map[string]bool) bool {
	for tok := range tokens {
		if slices.Contains(f.except, tok) {
			continue
		}
		for _, stem := range f.stems {
			if strings.HasPrefix(tok, stem) || strings.HasSuffix(tok, stem) {
				return true
			}
		}
	}
	return false
}

// InjectTip returns recipe with a dish-specific tip as its final step. An
// existing specific tip is kept; a missing or generic one is replaced.
func InjectTip(meal Meal) string {
	steps := splitSteps(meal.Recipe)
	tip := TipFor(meal.Name, meal.Ingredients)

	if n := len(steps); n > 0 && strings.HasPrefix(steps[n-1], TipMarker) {
		if !isGenericTip(steps[n-1]) {
			return strings.Join(steps, " "+RecipeDelimiter+" ")
		}
		steps[n-1] = tip
	} else {
		steps = append(steps, tip)
	}
	return strings.Join(steps, " "+RecipeDelimiter+" ")
}

// ApplyTips runs InjectTip on every meal of the plan.
func ApplyTips(plan *MealPlan) {
	for d := range plan.Days {
		for m := range plan.Days[d].Meals {
			meal := &plan.Days[d].Meals[m]
			meal.Recipe = InjectTip(*meal)
		}
	}
}

func splitSteps(recipe string) []string {
	var steps []string
	for _, s := range strings.Split(recipe, RecipeDelimiter) {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func isGenericTip(step string) bool {
	body := strings.TrimSpace(strings.TrimPrefix(step, TipMarker))
	n := utf8.RuneCountInString(body)
	if n < minTipBody {
		return true
	}
	if n > maxGenericTipBody {
		return false
	}
	text := normalizeText(body)
	for _, phrase := range genericTipPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
