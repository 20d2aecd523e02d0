package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	jobsQueued      atomic.Int64
	jobsRunning     atomic.Int64
	jobsCompleted   atomic.Int64
	jobsFailed      atomic.Int64
	patientsImputed atomic.Int64
	lastRunMillis   atomic.Int64
)

func Init() {}

func JobQueued() {
	jobsQueued.Add(1)
}

func JobStarted() {
	jobsQueued.Add(-1)
	jobsRunning.Add(1)
}

func JobCompleted(patients int, seconds float64) {
	jobsRunning.Add(-1)
	jobsCompleted.Add(1)
	patientsImputed.Add(int64(patients))
	lastRunMillis.Store(int64(seconds * 1000))
}

func JobFailed() {
	jobsRunning.Add(-1)
	jobsFailed.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP vitalis_preprocess_jobs_queued Number of queued preprocessing jobs.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_jobs_queued gauge\n")
	fmt.Fprintf(w, "vitalis_preprocess_jobs_queued %d\n", jobsQueued.Load())

	fmt.Fprintf(w, "# HELP vitalis_preprocess_jobs_running Number of running preprocessing jobs.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_jobs_running gauge\n")
	fmt.Fprintf(w, "vitalis_preprocess_jobs_running %d\n", jobsRunning.Load())

	fmt.Fprintf(w, "# HELP vitalis_preprocess_jobs_completed_total Number of preprocessing jobs completed since start.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_jobs_completed_total counter\n")
	fmt.Fprintf(w, "vitalis_preprocess_jobs_completed_total %d\n", jobsCompleted.Load())

	fmt.Fprintf(w, "# HELP vitalis_preprocess_jobs_failed_total Number of preprocessing jobs failed since start.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_jobs_failed_total counter\n")
	fmt.Fprintf(w, "vitalis_preprocess_jobs_failed_total %d\n", jobsFailed.Load())

	fmt.Fprintf(w, "# HELP vitalis_preprocess_patients_imputed_total Number of patient rows produced since start.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_patients_imputed_total counter\n")
	fmt.Fprintf(w, "vitalis_preprocess_patients_imputed_total %d\n", patientsImputed.Load())

	fmt.Fprintf(w, "# HELP vitalis_preprocess_last_run_milliseconds Wall-clock duration of the most recent completed run.\n")
	fmt.Fprintf(w, "# TYPE vitalis_preprocess_last_run_milliseconds gauge\n")
	fmt.Fprintf(w, "vitalis_preprocess_last_run_milliseconds %d\n", lastRunMillis.Load())
}
