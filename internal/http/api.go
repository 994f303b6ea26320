package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"remux-tracker/internal/ingest"
	"remux-tracker/internal/repository"
	"remux-tracker/internal/service"
)

// Scraper runs the manual year scrape.
type Scraper interface {
	ScrapeYear(ctx context.Context, year int) (ingest.ScrapeReport, error)
}

// Launcher runs fn in the background and returns its run id.
type Launcher interface {
	Go(name string, fn func(ctx context.Context) error) string
}

// Handler wires HTTP routes to the catalog and the scrape trigger.
type Handler struct {
	catalog  service.CatalogService
	scraper  Scraper
	launcher Launcher
	apiKey   string
	logger   *logrus.Logger
}

func NewHandler(catalog service.CatalogService, scraper Scraper, launcher Launcher, apiKey string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		catalog:  catalog,
		scraper:  scraper,
		launcher: launcher,
		apiKey:   apiKey,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/movies", h.listMovies)
		api.GET("/movies/:id", h.getMovie)
		api.GET("/calendar/upcoming", h.listUpcoming)
		api.POST("/scrape/year/:year", h.requireAPIKey(), h.scrapeYear)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAPIKey is a no-op when no key is configured.
func (h *Handler) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.apiKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func (h *Handler) listMovies(c *gin.Context) {
	movies, err := h.catalog.ListMovies(c.Request.Context())
	if err != nil {
		h.internalError(c, "list movies", err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (h *Handler) getMovie(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movie id"})
		return
	}

	detail, err := h.catalog.GetMovie(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
		return
	}
	if err != nil {
		h.internalError(c, "get movie", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) listUpcoming(c *gin.Context) {
	movies, err := h.catalog.ListUpcoming(c.Request.Context())
	if err != nil {
		h.internalError(c, "list upcoming", err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

// scrapeYear validates the year and starts the scrape in the background; the
// scrape outlives the request.
func (h *Handler) scrapeYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err == nil {
		err = ingest.ValidateYear(year)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	runID := h.launcher.Go("scrape-year", func(ctx context.Context) error {
		report, err := h.scraper.ScrapeYear(ctx, year)
		h.logger.WithFields(logrus.Fields{
			"year":       report.Year,
			"discovered": report.Discovered,
			"inserted":   report.Search.Inserted,
			"updated":    report.Search.Updated,
		}).Info("year scrape finished")
		return err
	})

	c.JSON(http.StatusAccepted, gin.H{
		"message": "started scraping for year " + strconv.Itoa(year),
		"run_id":  runID,
	})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.WithField("path", c.FullPath()).Errorf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
