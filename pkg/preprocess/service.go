package preprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vitalis-ai/preprocess/pkg/common/logger"
	"github.com/vitalis-ai/preprocess/pkg/common/models"
	"github.com/vitalis-ai/preprocess/pkg/impute"
	"github.com/vitalis-ai/preprocess/pkg/observability/metrics"
	"github.com/vitalis-ai/preprocess/pkg/pipeline"
	"github.com/vitalis-ai/preprocess/pkg/storage"
	"gorm.io/datatypes"
)

// EventPublisher is satisfied by the Kafka producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	repo           *Repository
	store          *storage.FeatureStore
	events         EventPublisher
	imputeCfg      impute.Config
	outputDir      string
	rowsPerPatient int
	workerSem      chan struct{}
}

func NewService(repo *Repository, store *storage.FeatureStore, events EventPublisher, imputeCfg impute.Config, outputDir string, rowsPerPatient, maxWorkers int) (*Service, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	return &Service{
		repo:           repo,
		store:          store,
		events:         events,
		imputeCfg:      imputeCfg,
		outputDir:      outputDir,
		rowsPerPatient: rowsPerPatient,
		workerSem:      make(chan struct{}, maxWorkers),
	}, nil
}

func (s *Service) Create(ctx context.Context, input CreateJobInput) (models.PreprocessJob, error) {
	if input.TrainFeatures == "" || input.TrainLabels == "" || input.TestFeatures == "" {
		return models.PreprocessJob{}, errors.New("train_features, train_labels and test_features are required")
	}

	jobID := uuid.New()
	job := &JobModel{
		ID: jobID,
		Config: datatypes.JSONMap{
			"train_features": input.TrainFeatures,
			"train_labels":   input.TrainLabels,
			"test_features":  input.TestFeatures,
			"patients":       input.Patients,
		},
		Status:    StatusQueued,
		OutputDir: filepath.Join(s.outputDir, jobID.String()),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return models.PreprocessJob{}, err
	}
	metrics.JobQueued()
	go s.run(jobID, job.OutputDir, input)
	return toDomain(job), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.PreprocessJob, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.PreprocessJob{}, err
	}
	return toDomain(job), nil
}

func (s *Service) List(ctx context.Context, limit int) ([]models.PreprocessJob, error) {
	jobs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	results := make([]models.PreprocessJob, 0, len(jobs))
	for i := range jobs {
		results = append(results, toDomain(&jobs[i]))
	}
	return results, nil
}

func (s *Service) run(jobID uuid.UUID, outputDir string, input CreateJobInput) {
	s.workerSem <- struct{}{}
	defer func() { <-s.workerSem }()

	ctx := context.Background()
	metrics.JobStarted()
	start := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, jobID, StatusRunning, nil, ""); err != nil {
		logger.Log.WithError(err).Error("failed to mark job running")
	}
	if err := s.repo.SetTimestamps(ctx, jobID, &start, nil); err != nil {
		logger.Log.WithError(err).Error("failed to set start timestamp")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		s.failJob(ctx, jobID, err)
		return
	}

	result, err := pipeline.Run(pipeline.Options{
		TrainFeatures:           input.TrainFeatures,
		TrainLabels:             input.TrainLabels,
		TestFeatures:            input.TestFeatures,
		PreprocessedTrain:       filepath.Join(outputDir, "preprocessed_train.csv"),
		PreprocessedTrainLabels: filepath.Join(outputDir, "preprocessed_train_labels.csv"),
		PreprocessedTest:        filepath.Join(outputDir, "preprocessed_test.csv"),
		Patients:                input.Patients,
		RowsPerPatient:          s.rowsPerPatient,
		Imputer:                 s.imputeCfg,
	})
	if err != nil {
		s.failJob(ctx, jobID, fmt.Errorf("pipeline failed: %w", err))
		return
	}

	patientColumn := "pid"
	if len(s.imputeCfg.Identifiers) > 0 {
		patientColumn = s.imputeCfg.Identifiers[0]
	}
	if err := s.store.Materialize(ctx, result.TrainSummary, patientColumn); err != nil {
		logger.Log.WithError(err).Warn("failed to materialize train features")
	}
	if err := s.store.Materialize(ctx, result.TestSummary, patientColumn); err != nil {
		logger.Log.WithError(err).Warn("failed to materialize test features")
	}

	jobMetrics := map[string]interface{}{
		"train_patients":   result.TrainPatients,
		"test_patients":    result.TestPatients,
		"trend_columns":    len(result.TrendColumns),
		"average_columns":  len(result.AverageColumns),
		"duration_seconds": result.Duration.Seconds(),
	}
	if err := s.repo.UpdateStatus(ctx, jobID, StatusCompleted, jobMetrics, ""); err != nil {
		logger.Log.WithError(err).Error("failed to mark job complete")
	}
	completed := time.Now().UTC()
	if err := s.repo.SetTimestamps(ctx, jobID, nil, &completed); err != nil {
		logger.Log.WithError(err).Error("failed to set completion timestamp")
	}
	metrics.JobCompleted(result.TrainPatients+result.TestPatients, result.Duration.Seconds())

	if s.events != nil {
		data := map[string]interface{}{"job_id": jobID.String()}
		for k, v := range jobMetrics {
			data[k] = v
		}
		if err := s.events.PublishEvent(ctx, "preprocess.completed", "preprocess-service", data); err != nil {
			logger.Log.WithError(err).Error("failed to publish completion event")
		}
	}
}

func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, err error) {
	logger.Log.WithError(err).Error("preprocess job failed")
	metrics.JobFailed()
	_ = s.repo.UpdateStatus(ctx, jobID, StatusFailed, nil, err.Error())
	completed := time.Now().UTC()
	_ = s.repo.SetTimestamps(ctx, jobID, nil, &completed)
	if s.events != nil {
		_ = s.events.PublishEvent(ctx, "preprocess.failed", "preprocess-service", map[string]interface{}{
			"job_id": jobID.String(),
			"error":  err.Error(),
		})
	}
}

func toDomain(job *JobModel) models.PreprocessJob {
	result := models.PreprocessJob{
		ID:           job.ID,
		Status:       job.Status,
		OutputDir:    job.OutputDir,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
	if job.Config != nil {
		result.Config = map[string]interface{}(job.Config)
	}
	if job.Metrics != nil {
		result.Metrics = map[string]interface{}(job.Metrics)
	}
	return result
}
