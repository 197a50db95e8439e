package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/testinfra/modrun/types"
)

const (
	MetricsNamespace = "modrun"
)

var (
	Debug                bool = true
	validResults              = []types.ModuleStatus{types.ModuleStatusPass, types.ModuleStatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	moduleRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "module_runs_total",
		Help:      "Count of module executions",
	}, []string{
		"run_id",
		"module",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of orchestrator runs",
	}, []string{
		"run_id",
		"result",
	})

	runModulesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_modules_total",
		Help:      "Total number of modules in a run",
	}, []string{
		"run_id",
	})

	runModulesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_modules_passed",
		Help:      "Number of passed modules in a run",
	}, []string{
		"run_id",
	})

	runModulesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_modules_failed",
		Help:      "Number of failed modules in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of orchestrator runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		zap.S().Debugw("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordModule(runID string, moduleID string, result types.ModuleStatus) {
	if !isValidResult(result) {
		zap.S().Errorw("RecordModule - invalid result", "result", result)
		return
	}
	if Debug {
		zap.S().Debugw("metric inc",
			"m", "module_runs_total",
			"run_id", runID,
			"module", moduleID,
			"result", result)
	}
	moduleRunsTotal.WithLabelValues(runID, moduleID, string(result)).Inc()
}

func RecordRun(
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runModulesTotal.WithLabelValues(runID).Add(float64(total))
	runModulesPassed.WithLabelValues(runID).Add(float64(passed))
	runModulesFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.ModuleStatus) bool {
	return slices.Contains(validResults, result)
}
