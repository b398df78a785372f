// Package harvest drives the incremental, resumable crawl: artists in, a
// populated song/comment store out. Processing is strictly sequential; the
// politeness delays between calls are the rate-control mechanism.
package harvest

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"qqharvest.com/m/internal/config"
	"qqharvest.com/m/internal/qqmusic"
	"qqharvest.com/m/internal/store"
	"qqharvest.com/m/internal/tasks"
)

// MusicAPI is the slice of the upstream client the harvester needs. Tests
// substitute a scripted fake.
type MusicAPI interface {
	ArtistSongs(ctx context.Context, artistMid string) (*qqmusic.ArtistCatalog, error)
	TrackDetail(ctx context.Context, songMid string) (*qqmusic.TrackInfo, error)
	Lyrics(ctx context.Context, songMid string) (string, error)
	StreamURL(ctx context.Context, songMid string) (string, error)
	CommentsPage(ctx context.Context, songNumericID int64, page, pageSize int) ([]qqmusic.Comment, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, string, error)
}

// Harvester is the crawl orchestrator.
type Harvester struct {
	cfg     *config.Config
	store   *store.Store
	api     MusicAPI
	metrics *Metrics
	logger  *zap.Logger
}

// New creates a harvester. reg receives the Prometheus metrics; pass
// prometheus.DefaultRegisterer in production.
func New(cfg *config.Config, st *store.Store, api MusicAPI, reg prometheus.Registerer, logger *zap.Logger) *Harvester {
	return &Harvester{
		cfg:     cfg,
		store:   st,
		api:     api,
		metrics: NewMetrics(reg),
		logger:  logger,
	}
}

// Run processes every artist task in order. Per-artist and per-song failures
// are logged and skipped; Run only returns early when ctx is cancelled.
func (h *Harvester) Run(ctx context.Context, artistTasks []tasks.ArtistTask) error {
	h.logger.Info("Starting harvest run", zap.Int("artists", len(artistTasks)))

	for _, task := range artistTasks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.processArtist(ctx, task)
	}

	h.logger.Info("Harvest run complete")
	return nil
}

// processArtist fetches one artist's catalog, applies the weight as a
// prefix-sampling ratio and pushes each selected song through the pipeline.
func (h *Harvester) processArtist(ctx context.Context, task tasks.ArtistTask) {
	catalog, err := h.api.ArtistSongs(ctx, task.SingerMid)
	if err != nil {
		h.logger.Warn("Skipping artist, song list unavailable",
			zap.String("artist_mid", task.SingerMid), zap.Error(err))
		return
	}
	if catalog == nil || len(catalog.Songs) == 0 {
		h.logger.Warn("Skipping artist with no songs",
			zap.String("artist_mid", task.SingerMid))
		return
	}

	// The first ceil(n*weight) songs in upstream order. Deterministic by
	// contract: downstream result comparisons depend on the exact prefix.
	selected := catalog.Songs
	if n := int(math.Ceil(float64(len(catalog.Songs)) * task.Weight)); n < len(selected) {
		selected = selected[:n]
	}

	h.logger.Info("Processing artist",
		zap.String("artist_mid", task.SingerMid),
		zap.String("artist_name", catalog.ArtistName),
		zap.Int("catalog_songs", len(catalog.Songs)),
		zap.Int("selected_songs", len(selected)),
		zap.Float64("weight", task.Weight))

	for i, info := range selected {
		if ctx.Err() != nil {
			return
		}

		if info == nil || info.Mid == "" || info.Name == "" {
			h.metrics.SongsMalformed.Inc()
			h.logger.Warn("Skipping song entry missing mandatory fields",
				zap.String("artist_mid", task.SingerMid),
				zap.Int("position", i))
			continue
		}

		skip, err := h.alreadyComplete(ctx, info.Mid)
		if err != nil {
			h.logger.Error("Resumability check failed, skipping song",
				zap.String("song_id", info.Mid), zap.Error(err))
			continue
		}
		if skip {
			h.metrics.SongsSkipped.Inc()
			h.logger.Debug("Song already processed",
				zap.String("song_id", info.Mid),
				zap.String("name", info.Name))
			continue
		}

		h.logger.Info("Processing song",
			zap.String("artist_name", catalog.ArtistName),
			zap.String("song_id", info.Mid),
			zap.String("name", info.Name),
			zap.Int("position", i+1),
			zap.Int("total", len(selected)))

		start := time.Now()
		h.enrichSong(ctx, info)
		h.metrics.SongsProcessed.Inc()
		h.metrics.SongDuration.Observe(time.Since(start).Seconds())

		h.wait(ctx, h.cfg.SongDelay)
	}
}

// alreadyComplete is the resumability gate. With the audio step enabled, a
// song is complete once file_path holds a real path; the unavailable
// sentinel does not count, so such songs can still fill in null metadata
// fields. Without the audio step, an identity row is completion.
func (h *Harvester) alreadyComplete(ctx context.Context, songMid string) (bool, error) {
	if !h.cfg.DownloadAudio {
		return h.store.HasSong(ctx, songMid)
	}

	filePath, err := h.store.FilePath(ctx, songMid)
	if err != nil {
		return false, err
	}
	return filePath != "" && filePath != store.AudioUnavailable, nil
}

// wait pauses for d unless ctx is cancelled first.
func (h *Harvester) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
