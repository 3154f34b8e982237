// Package patient stores the resident data the meal planner reads.
package patient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"care-meal-planner/internal/database"
	"care-meal-planner/internal/planner"
)

// ErrNotFound is returned for unknown patient IDs.
var ErrNotFound = errors.New("patient not found")

// Patient is a resident and the context used for planning.
type Patient struct {
	ID        string
	Context   planner.PatientContext
	UpdatedAt time.Time
}

// Repository provides access to patient persistence operations.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Save inserts or replaces a patient.
func (r *Repository) Save(ctx context.Context, id string, pc planner.PatientContext) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("patient id must not be empty")
	}
	allergies := pc.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	data, err := json.Marshal(allergies)
	if err != nil {
		return fmt.Errorf("failed to encode allergies: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO patients (id, birth_year, current_weight_kg, target_weight_kg, allergies, autonomy, care_notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   birth_year = excluded.birth_year,
		   current_weight_kg = excluded.current_weight_kg,
		   target_weight_kg = excluded.target_weight_kg,
		   allergies = excluded.allergies,
		   autonomy = excluded.autonomy,
		   care_notes = excluded.care_notes,
		   updated_at = excluded.updated_at`,
		id, pc.BirthYear, pc.CurrentWeightKg, pc.TargetWeightKg, string(data), pc.Autonomy, pc.CareNotes,
		database.FormatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save patient %s: %w", id, err)
	}
	return nil
}

// Get returns the planning context of a patient.
func (r *Repository) Get(ctx context.Context, id string) (planner.PatientContext, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return planner.PatientContext{}, err
	}
	return p.Context, nil
}

// Find returns the full patient record.
func (r *Repository) Find(ctx context.Context, id string) (*Patient, error) {
	var (
		p         Patient
		allergies string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, birth_year, current_weight_kg, target_weight_kg, allergies, autonomy, care_notes, updated_at
		 FROM patients WHERE id = ?`, id,
	).Scan(&p.ID, &p.Context.BirthYear, &p.Context.CurrentWeightKg, &p.Context.TargetWeightKg,
		&allergies, &p.Context.Autonomy, &p.Context.CareNotes, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(allergies), &p.Context.Allergies); err != nil {
		return nil, fmt.Errorf("invalid allergies for patient %s: %w", id, err)
	}
	if p.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at for patient %s: %w", id, err)
	}
	return &p, nil
}

// List returns all patients ordered by ID.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
