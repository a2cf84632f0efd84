package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/vesselops/beacon/pkg/feed"
	"github.com/vesselops/beacon/pkg/matching"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/tracing"
)

// SignalHandler handles signal API endpoints
type SignalHandler struct {
	service *matching.Service
	signals matching.SignalStore
	logger  ectologger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(service *matching.Service, signals matching.SignalStore, logger ectologger.Logger) *SignalHandler {
	return &SignalHandler{
		service: service,
		signals: signals,
		logger:  logger,
	}
}

// LinkRequest represents the manual link request body
type LinkRequest struct {
	RequestID int64 `json:"requestId" validate:"required,gt=0"`
	Override  bool  `json:"override"`
}

// Register registers signal routes
func (h *SignalHandler) Register(g *echo.Group) {
	g.GET("/unmatched", h.Unmatched)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.POST("/:id/link", h.Link)
}

// Unmatched returns the paginated feed of signals awaiting reconciliation
func (h *SignalHandler) Unmatched(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SignalHandler.Unmatched")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var params feed.Params
	if err := c.Bind(&params); err != nil {
		return BadRequest("invalid query parameters")
	}

	result, err := h.service.UnmatchedFeed(ctx, params)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build unmatched feed")
		return err
	}

	return SuccessResponse(c, result)
}

// Get returns a single signal by id
func (h *SignalHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SignalHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	signal, err := h.signals.Get(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, signal)
}

// Create ingests a new signal and immediately attempts reconciliation
func (h *SignalHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SignalHandler.Create")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.CreateSignalRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	signal, err := h.service.Ingest(ctx, &req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to ingest signal")
		return err
	}

	return CreatedResponse(c, signal)
}

// Link links a signal to a request on operator request
func (h *SignalHandler) Link(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SignalHandler.Link")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	var req LinkRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.ManualLink(ctx, id, req.RequestID, req.Override)
	if err != nil {
		return err
	}

	return CreatedResponse(c, result)
}
