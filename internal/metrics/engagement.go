package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngagementMetrics holds Prometheus metrics for the engagement write and
// read paths.
type EngagementMetrics struct {
	VotesProcessed     *prometheus.CounterVec
	VoteDuration       prometheus.Histogram
	ReactionsToggled   *prometheus.CounterVec
	FlagsCreated       prometheus.Counter
	FlagsReviewed      *prometheus.CounterVec
	NotificationsSent  *prometheus.CounterVec
	FeedRequests       *prometheus.CounterVec
	UnreadCacheLookups *prometheus.CounterVec
}

// NewEngagementMetrics creates and registers engagement metrics on the given registry.
func NewEngagementMetrics(reg prometheus.Registerer) *EngagementMetrics {
	m := &EngagementMetrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of vote toggles processed, by resulting action.",
		}, []string{"action"}),
		VoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_processing_duration_seconds",
			Help:      "Duration of vote toggle transactions in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		ReactionsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_toggled_total",
			Help:      "Total number of reaction toggles, by direction.",
		}, []string{"direction"}),
		FlagsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_flags_created_total",
			Help:      "Total number of moderation flags created or updated.",
		}),
		FlagsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_flags_reviewed_total",
			Help:      "Total number of flag reviews, by action.",
		}, []string{"action"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Total number of notification dispatch attempts, by result.",
		}, []string{"result"}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Total number of feed page requests, by sort.",
		}, []string{"sort"}),
		UnreadCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unread_cache_lookups_total",
			Help:      "Total number of unread-count cache lookups, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.VotesProcessed, m.VoteDuration, m.ReactionsToggled,
		m.FlagsCreated, m.FlagsReviewed, m.NotificationsSent,
		m.FeedRequests, m.UnreadCacheLookups,
	)
	return m
}
