package config

import (
	"path/filepath"
	"time"
)

// Config holds all tunables for a harvesting run. It is built once in main
// and passed by reference into each component's constructor; nothing mutates
// it after startup.
type Config struct {
	// Storage
	DBPath     string
	StorageDir string

	// Upstream endpoints. Overridable so tests can point at a fake server.
	APIBaseURL     string
	CommentBaseURL string

	// Request identity
	UserAgent string
	Referer   string

	// Paging
	PageSize           int // songs per artist-list page
	CommentsPerPage    int
	MaxCommentsPerSong int

	// Politeness delays. These are deliberate backoff against upstream
	// throttling, not performance knobs.
	RequestInterval time.Duration // minimum gap between any two upstream calls
	PageDelay       time.Duration // between artist-list pages
	StepDelay       time.Duration // between enrichment steps
	SongDelay       time.Duration // between songs of one artist

	// Timeouts
	MetadataTimeout time.Duration
	DownloadTimeout time.Duration

	// Behavior switches
	DownloadAudio   bool // resolve and download audio (the full-featured variant)
	RefetchComments bool // re-crawl comments even when some are already stored

	// Monitoring
	MetricsPort string
}

// Default returns the standard crawl configuration.
func Default() *Config {
	return &Config{
		DBPath:     "qq_music_library.db",
		StorageDir: "qq_music_library",

		APIBaseURL:     "https://u.y.qq.com/cgi-bin/musicu.fcg",
		CommentBaseURL: "https://c.y.qq.com/base/fcgi-bin/fcg_global_comment_h5.fcg",

		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		Referer:   "https://y.qq.com/",

		PageSize:           80, // empirically the largest page the list endpoint serves reliably
		CommentsPerPage:    25,
		MaxCommentsPerSong: 200,

		RequestInterval: 500 * time.Millisecond,
		PageDelay:       1 * time.Second,
		StepDelay:       500 * time.Millisecond,
		SongDelay:       3 * time.Second,

		MetadataTimeout: 20 * time.Second,
		DownloadTimeout: 60 * time.Second,

		DownloadAudio:   true,
		RefetchComments: false,

		MetricsPort: "9090",
	}
}

// CoverDir is the subdirectory of StorageDir holding downloaded cover images.
func (c *Config) CoverDir() string {
	return filepath.Join(c.StorageDir, "covers")
}
