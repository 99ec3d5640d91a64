package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	schedulesBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wintertoo_schedules_built_total",
			Help: "Total number of schedules built from ToO requests.",
		},
	)

	scheduleRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wintertoo_schedule_rows_total",
			Help: "Total number of exposure rows emitted by the schedule builder.",
		},
	)

	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wintertoo_validation_failures_total",
			Help: "Total number of schedule validation failures by check.",
		},
		[]string{"check"},
	)

	programLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wintertoo_program_lookups_total",
			Help: "Total number of program credential lookups by result.",
		},
		[]string{"result"},
	)

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wintertoo_exports_total",
			Help: "Total number of schedule exports by sink.",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(schedulesBuiltTotal)
	prometheus.MustRegister(scheduleRowsTotal)
	prometheus.MustRegister(validationFailuresTotal)
	prometheus.MustRegister(programLookupsTotal)
	prometheus.MustRegister(exportsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ScheduleBuilt records a successfully built schedule and its row count.
func ScheduleBuilt(rows int) {
	schedulesBuiltTotal.Inc()
	scheduleRowsTotal.Add(float64(rows))
}

// ValidationFailure records a failed validation check by name.
func ValidationFailure(check string) {
	validationFailuresTotal.WithLabelValues(check).Inc()
}

// ProgramLookup records the outcome of a program credential lookup.
// Result is one of "hit", "miss", "ambiguous", "error".
func ProgramLookup(result string) {
	programLookupsTotal.WithLabelValues(result).Inc()
}

// ExportCompleted records a completed export to the named sink ("sqlite",
// "csv", "minio").
func ExportCompleted(sink string) {
	exportsTotal.WithLabelValues(sink).Inc()
}
