package scoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// selectionDuration tracks per-item selection time.
	selectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_selection_duration_seconds",
		Help:    "Time taken to select the best alternative for one item",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	// candidateCount tracks how many alternatives survive the hard filters.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_candidates_count",
		Help:    "Number of candidate alternatives per item after hard filters",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// noCandidateTotal counts items that ended with no price available.
	noCandidateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_no_candidate_total",
		Help: "Total number of items with zero surviving candidates",
	})

	// compositeScore tracks the winning composite scores.
	compositeScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_winning_composite_score",
		Help:    "Composite score of the selected alternative",
		Buckets: []float64{10, 25, 50, 60, 70, 80, 90, 95, 100},
	})

	// listSize tracks the distribution of optimized list sizes.
	listSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_list_items_count",
		Help:    "Number of items in list optimization requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// partialCoordinatesTotal counts stores found with corrupt paired
	// coordinates (exactly one of latitude/longitude set).
	partialCoordinatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_partial_coordinates_total",
		Help: "Total number of stores seen with partial coordinates",
	})
)

// MetricsRecorder provides methods to record scoring metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordSelectionDuration records the duration of a per-item selection.
func (m *MetricsRecorder) RecordSelectionDuration(d time.Duration) {
	selectionDuration.Observe(d.Seconds())
}

// RecordCandidateCount records how many candidates survived filtering.
func (m *MetricsRecorder) RecordCandidateCount(count int) {
	candidateCount.Observe(float64(count))
}

// RecordNoCandidate records an item with no price available.
func (m *MetricsRecorder) RecordNoCandidate() {
	noCandidateTotal.Inc()
}

// RecordCompositeScore records the winning composite score for an item.
func (m *MetricsRecorder) RecordCompositeScore(score float64) {
	compositeScore.Observe(score)
}

// RecordListSize records the size of an optimized list.
func (m *MetricsRecorder) RecordListSize(size int) {
	listSize.Observe(float64(size))
}

// RecordPartialCoordinates records a corrupt paired-coordinates sighting.
func (m *MetricsRecorder) RecordPartialCoordinates() {
	partialCoordinatesTotal.Inc()
}
