package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitalis-ai/preprocess/pkg/common/logger"
	"github.com/vitalis-ai/preprocess/pkg/common/models"
	"github.com/vitalis-ai/preprocess/pkg/dataset"
)

var ErrFeaturesNotFound = errors.New("features not found")

// FeatureStore materializes imputed per-patient rows to Redis so downstream
// model services can read them without re-running the pipeline.
type FeatureStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFeatureStore(client *redis.Client, ttl time.Duration) *FeatureStore {
	return &FeatureStore{client: client, ttl: ttl}
}

// Materialize writes one FeatureSet per summary row under features:<pid>.
func (s *FeatureStore) Materialize(ctx context.Context, summary *dataset.Frame, patientColumn string) error {
	pids := summary.Column(patientColumn)
	if pids == nil {
		return fmt.Errorf("summary missing %s column", patientColumn)
	}

	now := time.Now().UTC()
	for row := 0; row < summary.Len(); row++ {
		patientID := formatPID(pids[row])
		features := make(map[string]models.Feature, len(summary.Columns())-1)
		for _, column := range summary.Columns() {
			if column == patientColumn {
				continue
			}
			features[column] = models.Feature{
				Name:      column,
				Value:     summary.Value(column, row),
				Timestamp: now,
			}
		}
		set := models.FeatureSet{PatientID: patientID, Features: features, Version: 1}

		payload, err := json.Marshal(set)
		if err != nil {
			return err
		}
		key := featureKey(patientID)
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			return fmt.Errorf("cache %s: %w", key, err)
		}
	}

	logger.Log.WithField("patients", summary.Len()).Debug("Materialized feature sets")
	return nil
}

func (s *FeatureStore) Get(ctx context.Context, patientID string) (models.FeatureSet, error) {
	payload, err := s.client.Get(ctx, featureKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.FeatureSet{}, ErrFeaturesNotFound
	}
	if err != nil {
		return models.FeatureSet{}, err
	}
	var set models.FeatureSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return models.FeatureSet{}, err
	}
	return set, nil
}

func featureKey(patientID string) string {
	return fmt.Sprintf("features:%s", patientID)
}

func formatPID(pid float64) string {
	return strconv.FormatFloat(pid, 'f', -1, 64)
}
