package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/vitalis-ai/preprocess/pkg/common/config"
	"github.com/vitalis-ai/preprocess/pkg/common/database"
	"github.com/vitalis-ai/preprocess/pkg/common/kafka"
	"github.com/vitalis-ai/preprocess/pkg/common/logger"
	"github.com/vitalis-ai/preprocess/pkg/impute"
	"github.com/vitalis-ai/preprocess/pkg/observability/metrics"
	"github.com/vitalis-ai/preprocess/pkg/preprocess"
	"github.com/vitalis-ai/preprocess/pkg/storage"
)

type preprocessServer struct {
	service *preprocess.Service
	store   *storage.FeatureStore
}

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}
	repo := preprocess.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate job table")
	}

	store := storage.NewFeatureStore(database.GetRedis(), cfg.FeatureStoreCacheTTL)
	producer := kafka.NewProducer(cfg.KafkaEventsTopic)
	defer producer.Close()

	typicalValues, err := impute.LoadTypicalValues(cfg.TypicalValuesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to built-in typical values")
		typicalValues = impute.DefaultTypicalValues()
	}
	imputeCfg := impute.DefaultConfig()
	imputeCfg.TypicalValues = typicalValues
	imputeCfg.Workers = cfg.ImputerWorkers

	service, err := preprocess.NewService(repo, store, producer, imputeCfg, cfg.OutputDir, cfg.RowsPerPatient, cfg.JobWorkers)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize preprocess service")
	}

	srv := &preprocessServer{service: service, store: store}

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods("GET")
	router.HandleFunc("/api/v1/preprocess/jobs", srv.handleCreateJob).Methods("POST")
	router.HandleFunc("/api/v1/preprocess/jobs", srv.handleListJobs).Methods("GET")
	router.HandleFunc("/api/v1/preprocess/jobs/{id}", srv.handleGetJob).Methods("GET")
	router.HandleFunc("/api/v1/features/{pid}", srv.handleGetFeatures).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Preprocess Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Preprocess Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	database.ClosePostgres()
	database.CloseRedis()

	logger.Log.Info("Preprocess Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *preprocessServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrainFeatures string `json:"train_features"`
		TrainLabels   string `json:"train_labels"`
		TestFeatures  string `json:"test_features"`
		Patients      int    `json:"patients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	job, err := s.service.Create(r.Context(), preprocess.CreateJobInput{
		TrainFeatures: req.TrainFeatures,
		TrainLabels:   req.TrainLabels,
		TestFeatures:  req.TestFeatures,
		Patients:      req.Patients,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (s *preprocessServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	jobs, err := s.service.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func (s *preprocessServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	job, err := s.service.Get(r.Context(), id)
	if errors.Is(err, preprocess.ErrJobNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (s *preprocessServer) handleGetFeatures(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["pid"]

	features, err := s.store.Get(r.Context(), pid)
	if errors.Is(err, storage.ErrFeaturesNotFound) {
		http.Error(w, "Features not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch features", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(features)
}
