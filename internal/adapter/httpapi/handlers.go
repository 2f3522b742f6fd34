package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/job"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// ReadingStore is the persistence surface the handlers need.
type ReadingStore interface {
	CreateReading(ctx context.Context, reading *domain.SensorReading) error
	LatestReading(ctx context.Context) (*domain.SensorReading, error)
	LatestPrediction(ctx context.Context) (*domain.DailyPrediction, error)
}

// JobTrigger runs the daily job for an explicit date. Implemented by
// job.Runner; the manual trigger is the same code path as scheduled runs.
type JobTrigger interface {
	Run(ctx context.Context, date time.Time) (job.Result, error)
}

// Handlers contains the HTTP handlers for the sensor API.
type Handlers struct {
	store   ReadingStore
	trigger JobTrigger
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandlers creates handlers over the given collaborators.
func NewHandlers(store ReadingStore, trigger JobTrigger, logger *slog.Logger, metrics *observability.Metrics) *Handlers {
	return &Handlers{store: store, trigger: trigger, logger: logger, metrics: metrics}
}

// readingRequest is the ingestion payload. Pointer fields distinguish a
// missing parameter from a legitimate zero value.
type readingRequest struct {
	PH          *float64 `json:"ph" binding:"required,gte=0,lte=14"`
	TDS         *float64 `json:"tds" binding:"required,gte=0"`
	Turbidity   *float64 `json:"turbidity" binding:"required,gte=0"`
	Temperature *float64 `json:"temperature" binding:"required,gte=-50,lte=100"`
}

// CreateReading handles POST /api/readings: one probe observation, validated
// at the boundary so malformed input never reaches aggregation.
func (h *Handlers) CreateReading(c *gin.Context) {
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.IngestErrors.WithLabelValues("http").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reading: " + err.Error()})
		return
	}

	reading := &domain.SensorReading{
		PH:          *req.PH,
		TDS:         *req.TDS,
		Turbidity:   *req.Turbidity,
		Temperature: *req.Temperature,
	}
	if err := h.store.CreateReading(c.Request.Context(), reading); err != nil {
		h.metrics.IngestErrors.WithLabelValues("http").Inc()
		h.logger.Error("failed to store reading", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save sensor reading"})
		return
	}

	h.metrics.ReadingsIngested.WithLabelValues("http").Inc()
	h.logger.Debug("reading ingested", "id", reading.ID, "timestamp", reading.Timestamp)
	c.JSON(http.StatusCreated, reading)
}

// LatestReading handles GET /api/readings/latest.
func (h *Handlers) LatestReading(c *gin.Context) {
	reading, err := h.store.LatestReading(c.Request.Context())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sensor readings found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to query latest reading", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query latest reading"})
		return
	}
	c.JSON(http.StatusOK, reading)
}

// LatestPrediction handles GET /api/predictions/latest.
func (h *Handlers) LatestPrediction(c *gin.Context) {
	pred, err := h.store.LatestPrediction(c.Request.Context())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no predictions found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to query latest prediction", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query latest prediction"})
		return
	}
	c.JSON(http.StatusOK, pred)
}

// dashboardResponse bundles both latest projections for a single fetch.
type dashboardResponse struct {
	LatestReading    *domain.SensorReading   `json:"latest_reading"`
	LatestPrediction *domain.DailyPrediction `json:"latest_prediction"`
}

// Dashboard handles GET /api/dashboard. Absent rows come back as nulls, not
// errors: a fresh deployment has neither readings nor predictions yet.
func (h *Handlers) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var resp dashboardResponse

	reading, err := h.store.LatestReading(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("failed to query latest reading", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	resp.LatestReading = reading

	pred, err := h.store.LatestPrediction(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("failed to query latest prediction", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	resp.LatestPrediction = pred

	c.JSON(http.StatusOK, resp)
}

// triggerRequest optionally names the target date; default is yesterday UTC.
type triggerRequest struct {
	Date string `json:"date"`
}

// triggerResponse reports how the run ended. Coalesced means the trigger
// attached to a run already in flight for the same date.
type triggerResponse struct {
	Date       string                  `json:"date"`
	Status     string                  `json:"status"`
	Coalesced  bool                    `json:"coalesced"`
	Prediction *domain.DailyPrediction `json:"prediction,omitempty"`
}

// TriggerPrediction handles POST /api/predictions/trigger: a manual or
// backfill run through the exact same job path the scheduler uses. Safe to
// call at any time; a scheduled run for the same date coalesces with it.
func (h *Handlers) TriggerPrediction(c *gin.Context) {
	// An empty body means "yesterday"; a present but malformed one is an error.
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trigger request: " + err.Error()})
			return
		}
	}

	target := domain.Yesterday(domain.Now())
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		target = parsed
	}

	res, err := h.trigger.Run(c.Request.Context(), target)
	resp := triggerResponse{
		Date:       res.Date.Format("2006-01-02"),
		Status:     string(res.Status),
		Coalesced:  res.Coalesced,
		Prediction: res.Prediction,
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
