package pipeline

import (
	"fmt"
	"time"

	"github.com/vitalis-ai/preprocess/pkg/common/logger"
	"github.com/vitalis-ai/preprocess/pkg/dataset"
	"github.com/vitalis-ai/preprocess/pkg/impute"
	"github.com/vitalis-ai/preprocess/pkg/labels"
)

// Options names the input CSVs, the export targets, and the imputation
// configuration for one preprocessing run.
type Options struct {
	TrainFeatures string
	TrainLabels   string
	TestFeatures  string

	PreprocessedTrain       string
	PreprocessedTrainLabels string
	PreprocessedTest        string

	// Patients caps how many patients are loaded from each input; 0 loads
	// everything. Inputs carry RowsPerPatient rows per patient.
	Patients       int
	RowsPerPatient int

	Imputer impute.Config
}

type Result struct {
	TrainPatients  int
	TestPatients   int
	TrendColumns   []string
	AverageColumns []string
	TrainSummary   *dataset.Frame
	TestSummary    *dataset.Frame
	Duration       time.Duration
}

// Run executes the full preprocessing pass: load, impute train and test,
// align labels, export.
func Run(opts Options) (Result, error) {
	start := time.Now()

	rowsPerPatient := opts.RowsPerPatient
	if rowsPerPatient <= 0 {
		rowsPerPatient = 12
	}
	maxRows := 0
	if opts.Patients > 0 {
		maxRows = opts.Patients * rowsPerPatient
	}

	logger.Log.WithFields(map[string]interface{}{
		"train_features": opts.TrainFeatures,
		"test_features":  opts.TestFeatures,
		"max_rows":       maxRows,
	}).Info("Loading observation tables")

	trainFrame, err := dataset.ReadCSV(opts.TrainFeatures, maxRows)
	if err != nil {
		return Result{}, fmt.Errorf("load train features: %w", err)
	}
	labelFrame, err := dataset.ReadCSV(opts.TrainLabels, maxRows)
	if err != nil {
		return Result{}, fmt.Errorf("load train labels: %w", err)
	}
	testFrame, err := dataset.ReadCSV(opts.TestFeatures, maxRows)
	if err != nil {
		return Result{}, fmt.Errorf("load test features: %w", err)
	}

	imputer := impute.New(opts.Imputer)
	patientColumn := patientColumnOf(opts.Imputer)

	logger.Log.Info("Imputing training set")
	trainSummary, trainStats, err := imputer.Impute(trainFrame)
	if err != nil {
		return Result{}, fmt.Errorf("impute train: %w", err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"patients":      trainStats.Patients,
		"trend_columns": trainStats.TrendColumns,
	}).Info("Training set imputed")

	trainLabels, err := labels.Prepare(labelFrame, trainSummary, patientColumn)
	if err != nil {
		return Result{}, fmt.Errorf("prepare labels: %w", err)
	}

	logger.Log.Info("Imputing test set")
	testSummary, testStats, err := imputer.Impute(testFrame)
	if err != nil {
		return Result{}, fmt.Errorf("impute test: %w", err)
	}

	logger.Log.Info("Exporting preprocessed tables")
	if err := dataset.WriteCSV(opts.PreprocessedTrain, trainSummary, patientColumn); err != nil {
		return Result{}, fmt.Errorf("export train: %w", err)
	}
	labelInts := append([]string{patientColumn}, labels.Columns()...)
	if err := dataset.WriteCSV(opts.PreprocessedTrainLabels, trainLabels, labelInts...); err != nil {
		return Result{}, fmt.Errorf("export train labels: %w", err)
	}
	if err := dataset.WriteCSV(opts.PreprocessedTest, testSummary, patientColumn); err != nil {
		return Result{}, fmt.Errorf("export test: %w", err)
	}

	return Result{
		TrainPatients:  trainStats.Patients,
		TestPatients:   testStats.Patients,
		TrendColumns:   trainStats.TrendColumns,
		AverageColumns: trainStats.AverageColumns,
		TrainSummary:   trainSummary,
		TestSummary:    testSummary,
		Duration:       time.Since(start),
	}, nil
}

func patientColumnOf(cfg impute.Config) string {
	if len(cfg.Identifiers) > 0 {
		return cfg.Identifiers[0]
	}
	return "pid"
}
