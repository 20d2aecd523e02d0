package models

import (
	"time"

	"github.com/google/uuid"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // preprocess.queued, preprocess.completed, preprocess.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Preprocessing jobs
type PreprocessJob struct {
	ID           uuid.UUID              `json:"id"`
	Config       map[string]interface{} `json:"config"`
	Status       string                 `json:"status"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
	OutputDir    string                 `json:"output_dir,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// Feature Store
type Feature struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type FeatureSet struct {
	PatientID string             `json:"patient_id"`
	Features  map[string]Feature `json:"features"`
	Version   int                `json:"version"`
}
