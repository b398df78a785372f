package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the harvester.
type Metrics struct {
	SongsProcessed   prometheus.Counter
	SongsSkipped     prometheus.Counter
	SongsMalformed   prometheus.Counter
	StepErrors       prometheus.Counter
	CommentsStored   prometheus.Counter
	AudioUnavailable prometheus.Counter
	DownloadedBytes  prometheus.Counter
	SongDuration     prometheus.Histogram
}

// NewMetrics registers the harvester metrics on reg. Tests pass a fresh
// registry so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SongsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_songs_processed_total",
			Help: "The total number of songs run through the enrichment pipeline",
		}),
		SongsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_songs_skipped_total",
			Help: "The total number of songs skipped by the resumability gate",
		}),
		SongsMalformed: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_songs_malformed_total",
			Help: "The total number of list entries dropped for missing mandatory fields",
		}),
		StepErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_step_errors_total",
			Help: "The total number of enrichment step failures",
		}),
		CommentsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_comments_stored_total",
			Help: "The total number of new comment rows inserted",
		}),
		AudioUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_audio_unavailable_total",
			Help: "The total number of songs marked permanently unavailable",
		}),
		DownloadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "qqharvest_downloaded_bytes_total",
			Help: "The total number of audio and cover bytes downloaded",
		}),
		SongDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qqharvest_song_duration_seconds",
			Help:    "The duration of per-song pipeline processing in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
