package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"care-meal-planner/internal/planner"
)

const versionLayout = "20060102T150405Z"

// ArchivedPlan is the file representation of a generated plan.
type ArchivedPlan struct {
	PatientID     string             `json:"patientId"`
	PlanID        int64              `json:"planId,omitempty"`
	Source        planner.PlanSource `json:"source"`
	PromptSummary string             `json:"promptSummary"`
	CreatedAt     time.Time          `json:"createdAt"`
	Plan          *planner.MealPlan  `json:"plan"`
}

// PlanStore provides a file-based archive of generated plans, one versioned
// JSON file per generation.
type PlanStore struct {
	basePath string
}

// NewPlanStore creates a new PlanStore and ensures the base directory exists.
func NewPlanStore(basePath string) (*PlanStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &PlanStore{basePath: basePath}, nil
}

// sanitizeID makes a patient ID safe for filenames.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '_', '*', '?', '.':
			return '-'
		}
		return r
	}, id)
}

func (s *PlanStore) versionedPath(patientID string, createdAt time.Time) string {
	filename := fmt.Sprintf("%s_%s.json", sanitizeID(patientID), createdAt.UTC().Format(versionLayout))
	return filepath.Join(s.basePath, filename)
}

// Save writes the plan to a versioned file and returns its path.
func (s *PlanStore) Save(p ArchivedPlan) (string, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	filePath := s.versionedPath(p.PatientID, p.CreatedAt)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan file: %w", err)
	}
	return filePath, nil
}

// Load reads the plan archived for the patient at createdAt.
func (s *PlanStore) Load(patientID string, createdAt time.Time) (*ArchivedPlan, error) {
	return readArchived(s.versionedPath(patientID, createdAt))
}

// Exists checks if a specific version of a patient's plan exists.
func (s *PlanStore) Exists(patientID string, createdAt time.Time) bool {
	_, err := os.Stat(s.versionedPath(patientID, createdAt))
	return !os.IsNotExist(err)
}

// Versions returns the archived file paths for a patient, newest first.
func (s *PlanStore) Versions(patientID string) ([]string, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", sanitizeID(patientID)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob plan files: %w", err)
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Latest loads the newest archived plan of a patient.
func (s *PlanStore) Latest(patientID string) (*ArchivedPlan, error) {
	versions, err := s.Versions(patientID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no archived plan for patient %s: %w", patientID, os.ErrNotExist)
	}
	return readArchived(versions[0])
}

// RemoveStaleVersions deletes all but the newest keep files of a patient.
func (s *PlanStore) RemoveStaleVersions(patientID string, keep int) error {
	versions, err := s.Versions(patientID)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for i := keep; i < len(versions); i++ {
		if err := os.Remove(versions[i]); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", versions[i], err)
		}
	}
	return nil
}

func readArchived(path string) (*ArchivedPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var p ArchivedPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &p, nil
}
