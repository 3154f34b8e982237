package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

//go:embed system_prompt.md
var systemPrompt string

//go:embed user_prompt.md
var userPrompt string

var (
	systemTmpl = template.Must(template.New("system").Parse(systemPrompt))
	userTmpl   = template.Must(template.New("user").Parse(userPrompt))
)

const none = "keine"

// Prompt is the rendered model input for one generation plus the summary of
// the inputs it was built from.
type Prompt struct {
	System  string
	User    string
	Summary string
}

type promptData struct {
	Schema         string
	NumDays        int
	DayNameList    string
	MinDailyKcal   int
	Delimiter      string
	TipMarker      string
	FixedMealTypes string

	Age           string
	CurrentWeight string
	TargetWeight  string
	Allergies     string
	Autonomy      string
	Notes         string
}

// PromptBuilder renders prompts. It has no side effects; the clock is only
// read to derive the patient's age.
type PromptBuilder struct {
	now func() time.Time
}

// NewPromptBuilder returns a builder using now as its clock. A nil now uses
// time.Now.
func NewPromptBuilder(now func() time.Time) *PromptBuilder {
	if now == nil {
		now = time.Now
	}
	return &PromptBuilder{now: now}
}

// Build renders the system and user instruction for the given patient.
func (b *PromptBuilder) Build(patient PatientContext, additionalNotes string, dayNames []string, fixed []MealType) (Prompt, error) {
	data := promptData{
		Schema:         SchemaText(),
		NumDays:        len(dayNames),
		DayNameList:    strings.Join(dayNames, ", "),
		MinDailyKcal:   MinDailyKcal,
		Delimiter:      RecipeDelimiter,
		TipMarker:      TipMarker,
		FixedMealTypes: fixedText(fixed),
		Age:            b.ageText(patient.BirthYear),
		CurrentWeight:  weightText(patient.CurrentWeightKg),
		TargetWeight:   weightText(patient.TargetWeightKg),
		Allergies:      allergyText(patient.Allergies),
		Autonomy:       orDefault(patient.Autonomy, "keine Angabe"),
		Notes:          notesText(patient.CareNotes, additionalNotes),
	}
	if len(fixed) == 0 {
		data.FixedMealTypes = ""
	}

	var sys, usr bytes.Buffer
	if err := systemTmpl.Execute(&sys, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := userTmpl.Execute(&usr, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render user prompt: %w", err)
	}

	summary := fmt.Sprintf("Alter: %s | Allergien: %s | Hinweise: %s | Fixe Mahlzeiten: %s | Selbstständigkeit: %s",
		data.Age, data.Allergies, data.Notes, fixedText(fixed), data.Autonomy)

	return Prompt{
		System:  sys.String(),
		User:    usr.String(),
		Summary: singleLine(summary),
	}, nil
}

func (b *PromptBuilder) ageText(birthYear int) string {
	if birthYear <= 0 {
		return "unbekannt"
	}
	age := b.now().Year() - birthYear
	if age < 0 {
		return "unbekannt"
	}
	return strconv.Itoa(age)
}

func weightText(kg float64) string {
	if kg <= 0 {
		return "unbekannt"
	}
	return strings.Replace(strconv.FormatFloat(kg, 'f', -1, 64), ".", ",", 1) + " kg"
}

func allergyText(allergies []string) string {
	var clean []string
	for _, a := range allergies {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		return none
	}
	return strings.Join(clean, ", ")
}

func notesText(careNotes, additional string) string {
	var parts []string
	for _, n := range []string{careNotes, additional} {
		if n = strings.TrimSpace(n); n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return none
	}
	return strings.Join(parts, "; ")
}

func fixedText(fixed []MealType) string {
	if len(fixed) == 0 {
		return none
	}
	parts := make([]string, len(fixed))
	for i, t := range fixed {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
