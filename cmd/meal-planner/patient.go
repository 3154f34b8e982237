package main

import (
	"fmt"

	"care-meal-planner/internal/patient"
	"care-meal-planner/internal/planner"

	"github.com/spf13/cobra"
)

func newPatientCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage resident records",
	}
	cmd.AddCommand(newPatientAddCmd(e), newPatientListCmd(e))
	return cmd
}

func newPatientAddCmd(e *env) *cobra.Command {
	var pc planner.PatientContext
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Create or update a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := patient.NewRepository(db.SQL).Save(cmd.Context(), args[0], pc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved patient %s.\n", args[0])
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&pc.BirthYear, "birth-year", 0, "Birth year")
	fl.Float64Var(&pc.CurrentWeightKg, "weight", 0, "Current weight in kg")
	fl.Float64Var(&pc.TargetWeightKg, "target-weight", 0, "Target weight in kg")
	fl.StringSliceVar(&pc.Allergies, "allergies", nil, "Allergies and intolerances")
	fl.StringVar(&pc.Autonomy, "autonomy", "", "Eating autonomy")
	fl.StringVar(&pc.CareNotes, "care-notes", "", "Care notes relevant to nutrition")
	return cmd
}

func newPatientListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resident IDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ids, err := patient.NewRepository(db.SQL).List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
