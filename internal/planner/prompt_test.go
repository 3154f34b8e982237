package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder(fixedClock)
	patient := PatientContext{
		BirthYear:       1940,
		CurrentWeightKg: 61.5,
		TargetWeightKg:  64,
		Allergies:       []string{"Erdnüsse", " ", "Laktose"},
		Autonomy:        "isst selbstständig",
		CareNotes:       "Schluckbeschwerden,\nweiche Kost",
	}

	p, err := b.Build(patient, "mag keinen Fisch", DayNames(8), []MealType{MealBreakfast, MealSnack})
	require.NoError(t, err)

	t.Run("SystemPrompt", func(t *testing.T) {
		assert.Contains(t, p.System, `"$schema": "http://json-schema.org/draft-07/schema#"`)
		assert.Contains(t, p.System, "genau 8 Tage")
		assert.Contains(t, p.System, "Montag, Dienstag, Mittwoch, Donnerstag, Freitag, Samstag, Sonntag, Montag (Woche 2)")
		assert.Contains(t, p.System, "mindestens 1800 kcal")
		assert.Contains(t, p.System, `beginnt mit "Tipp:"`)
		assert.Contains(t, p.System, "jedem Tag identisch")
		assert.Contains(t, p.System, "breakfast, snack")
	})

	t.Run("UserPrompt", func(t *testing.T) {
		assert.Contains(t, p.User, "Alter: 86")
		assert.Contains(t, p.User, "Aktuelles Gewicht: 61,5 kg")
		assert.Contains(t, p.User, "Allergien: Erdnüsse, Laktose")
		assert.Contains(t, p.User, "mag keinen Fisch")
	})

	t.Run("Summary", func(t *testing.T) {
		assert.Equal(t,
			"Alter: 86 | Allergien: Erdnüsse, Laktose | Hinweise: Schluckbeschwerden, weiche Kost; mag keinen Fisch | Fixe Mahlzeiten: breakfast, snack | Selbstständigkeit: isst selbstständig",
			p.Summary)
		assert.NotContains(t, p.Summary, "\n")
	})
}

func TestPromptBuilder_Defaults(t *testing.T) {
	p, err := NewPromptBuilder(fixedClock).Build(PatientContext{}, "", DayNames(1), nil)
	require.NoError(t, err)

	assert.Equal(t, "Alter: unbekannt | Allergien: keine | Hinweise: keine | Fixe Mahlzeiten: keine | Selbstständigkeit: keine Angabe", p.Summary)
	assert.NotContains(t, p.System, "jedem Tag identisch")
	assert.Contains(t, p.User, "Aktuelles Gewicht: unbekannt")
	assert.True(t, strings.HasPrefix(p.System, "Du bist"))
}
