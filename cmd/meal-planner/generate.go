package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"care-meal-planner/internal/app"
	"care-meal-planner/internal/planner"

	"github.com/spf13/cobra"
)

type generateFlags struct {
	userID    string
	patientID string
	days      int
	fixed     []string
	fast      bool
	notes     string
	timeout   time.Duration
	out       string

	birthYear    int
	weight       float64
	targetWeight float64
	allergies    []string
	autonomy     string
	careNotes    string
}

// inlinePatient returns the patient described by flags, or nil when no
// patient flag was given and the ID must be looked up.
func (f *generateFlags) inlinePatient(cmd *cobra.Command) *planner.PatientContext {
	inline := false
	for _, name := range []string{"birth-year", "weight", "target-weight", "allergies", "autonomy", "care-notes"} {
		if cmd.Flags().Changed(name) {
			inline = true
		}
	}
	if !inline {
		return nil
	}
	return &planner.PatientContext{
		BirthYear:       f.birthYear,
		CurrentWeightKg: f.weight,
		TargetWeightKg:  f.targetWeight,
		Allergies:       f.allergies,
		Autonomy:        f.autonomy,
		CareNotes:       f.careNotes,
	}
}

func (f *generateFlags) request(cmd *cobra.Command) (app.GenerateRequest, error) {
	pc := f.inlinePatient(cmd)
	patientID := f.patientID
	if patientID == "" {
		if pc == nil {
			return app.GenerateRequest{}, fmt.Errorf("either --patient-id or inline patient flags are required")
		}
		patientID = "inline"
	}
	fixed := make([]planner.MealType, 0, len(f.fixed))
	for _, t := range f.fixed {
		fixed = append(fixed, planner.MealType(strings.ToLower(strings.TrimSpace(t))))
	}
	return app.GenerateRequest{
		UserID:         f.userID,
		PatientID:      patientID,
		Patient:        pc,
		Notes:          f.notes,
		NumDays:        f.days,
		FixedMealTypes: fixed,
		Fast:           f.fast,
		Timeout:        f.timeout,
	}, nil
}

func newGenerateCmd(e *env) *cobra.Command {
	return generateCmd(e, &generateFlags{})
}

func generateCmd(e *env, f *generateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a meal plan for a resident",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Generating %d-day meal plan for %s...\n", req.NumDays, req.PatientID)
			resp, err := a.Service.GenerateForPatient(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to generate plan: %w", err)
			}

			printPlan(cmd.OutOrStdout(), resp)

			if f.out != "" {
				if err := writePlanFile(f.out, resp.Plan); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Plan written to %s\n", f.out)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.userID, "user", "cli", "User ID recorded with the plan")
	fl.StringVar(&f.patientID, "patient-id", "", "Resident ID to load from the database")
	fl.IntVar(&f.days, "days", planner.DefaultDays, "Number of days (1-14)")
	fl.StringSliceVar(&f.fixed, "fixed", nil, "Meal types that stay the same every day (breakfast,lunch,dinner,snack)")
	fl.BoolVar(&f.fast, "fast", false, "Use the fast mode with the larger time budget")
	fl.StringVar(&f.notes, "notes", "", "Additional notes for this plan")
	fl.DurationVar(&f.timeout, "timeout", 0, "Override the model timeout")
	fl.StringVar(&f.out, "out", "", "Write the plan JSON to this file")

	fl.IntVar(&f.birthYear, "birth-year", 0, "Inline patient: birth year")
	fl.Float64Var(&f.weight, "weight", 0, "Inline patient: current weight in kg")
	fl.Float64Var(&f.targetWeight, "target-weight", 0, "Inline patient: target weight in kg")
	fl.StringSliceVar(&f.allergies, "allergies", nil, "Inline patient: allergies")
	fl.StringVar(&f.autonomy, "autonomy", "", "Inline patient: eating autonomy")
	fl.StringVar(&f.careNotes, "care-notes", "", "Inline patient: care notes")
	return cmd
}

func printPlan(w io.Writer, resp *app.GenerateResponse) {
	fmt.Fprintf(w, "\n=== MEAL PLAN #%d (%s) ===\n", resp.PlanID, resp.Source)
	fmt.Fprintf(w, "%s\n", resp.PromptSummary)
	for _, day := range resp.Plan.Days {
		fmt.Fprintf(w, "\n%s (%.0f kcal)\n", day.DayName, day.DailyKcal)
		for _, meal := range day.Meals {
			fmt.Fprintf(w, "  %-10s %s (%.0f kcal)\n", meal.MealType+":", meal.Name, meal.Kcal)
		}
	}

	if !resp.Variety.OK() {
		fmt.Fprintln(w, "\n=== REPEATED MEALS ===")
		for _, r := range resp.Variety.Repetitions {
			fmt.Fprintf(w, "- %s (%s): %s\n", r.Name, r.MealType, strings.Join(r.ExtraDays, ", "))
		}
	}
}

func writePlanFile(path string, plan *planner.MealPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
