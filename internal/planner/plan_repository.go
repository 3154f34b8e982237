package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"care-meal-planner/internal/database"
)

// PlanRecord is what the persistence sink receives for one generation.
type PlanRecord struct {
	UserID        string
	PatientID     string
	Source        PlanSource
	PromptSummary string
	Plan          *MealPlan
}

// PlanSink stores a finished plan verbatim and returns its ID.
type PlanSink interface {
	Save(ctx context.Context, rec PlanRecord) (int64, error)
}

// StoredPlan represents a stored meal plan.
type StoredPlan struct {
	ID            int64
	UserID        string
	PatientID     string
	Source        PlanSource
	PromptSummary string
	PlanData      []byte // Raw JSON of the meal plan
	CreatedAt     time.Time
}

// Decode unmarshals the stored plan JSON.
func (s StoredPlan) Decode() (*MealPlan, error) {
	var plan MealPlan
	if err := json.Unmarshal(s.PlanData, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode stored plan %d: %w", s.ID, err)
	}
	return &plan, nil
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d, now: time.Now}
}

// Save inserts a new meal plan into the database.
func (r *PlanRepository) Save(ctx context.Context, rec PlanRecord) (int64, error) {
	if rec.Plan == nil {
		return 0, fmt.Errorf("no plan to save for patient %s", rec.PatientID)
	}
	data, err := json.Marshal(rec.Plan)
	if err != nil {
		return 0, fmt.Errorf("failed to encode meal plan: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, patient_id, source, prompt_summary, plan_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.PatientID, string(rec.Source), rec.PromptSummary, string(data), database.FormatTime(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan for patient %s: %w", rec.PatientID, err)
	}
	return res.LastInsertId()
}

// Get returns the plan with the given ID.
func (r *PlanRepository) Get(ctx context.Context, id int64) (StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, patient_id, source, prompt_summary, plan_data, created_at
		 FROM meal_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("failed to load meal plan %d: %w", id, err)
	}
	return p, nil
}

// ListRecentByPatient retrieves the N most recent meal plans for a patient.
func (r *PlanRepository) ListRecentByPatient(ctx context.Context, patientID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, patient_id, source, prompt_summary, plan_data, created_at
		 FROM meal_plans WHERE patient_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for patient %s: %w", patientID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (StoredPlan, error) {
	var (
		p         StoredPlan
		source    string
		data      string
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.PatientID, &source, &p.PromptSummary, &data, &createdAt); err != nil {
		return StoredPlan{}, err
	}
	ts, err := database.ParseTime(createdAt)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	p.Source = PlanSource(source)
	p.PlanData = []byte(data)
	p.CreatedAt = ts
	return p, nil
}
