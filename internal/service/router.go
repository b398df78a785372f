// Package service exposes the harvested store over a read-only HTTP API for
// downstream consumers.
package service

import (
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qqharvest.com/m/internal/store"
)

const defaultTopComments = 10

// Server holds the handlers' dependencies.
type Server struct {
	store  *store.Store
	logger *zap.Logger
}

// NewRouter builds the gin engine with logging, recovery and all routes.
func NewRouter(st *store.Store, logger *zap.Logger) *gin.Engine {
	s := &Server{store: st, logger: logger}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/songs/:id", s.songHandler)
		api.GET("/songs/:id/comments/top", s.topCommentsHandler)
		api.GET("/artists/:name/songs", s.artistSongsHandler)
	}

	return router
}

func (s *Server) songHandler(c *gin.Context) {
	song, err := s.store.GetSong(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("Song lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if song == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
		return
	}
	c.JSON(http.StatusOK, song)
}

func (s *Server) topCommentsHandler(c *gin.Context) {
	n := defaultTopComments
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	comments, err := s.store.TopComments(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		s.logger.Error("Top comments lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"song_id":  c.Param("id"),
		"comments": comments,
	})
}

func (s *Server) artistSongsHandler(c *gin.Context) {
	songs, err := s.store.SongsByArtist(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.logger.Error("Artist songs lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"artist": c.Param("name"),
		"songs":  songs,
	})
}
