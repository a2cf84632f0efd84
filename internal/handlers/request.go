package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/tracing"
)

// RequestRepo is the request persistence surface the handler needs.
type RequestRepo interface {
	Create(ctx context.Context, req *models.CreateRequestRequest) (*models.Request, error)
	Get(ctx context.Context, id int64) (*models.Request, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Request, error)
}

// RequestHandler handles test request API endpoints
type RequestHandler struct {
	repo   RequestRepo
	logger ectologger.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(repo RequestRepo, logger ectologger.Logger) *RequestHandler {
	return &RequestHandler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers request routes
func (h *RequestHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
}

type listRequestsParams struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// List returns test requests, optionally filtered by status
func (h *RequestHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RequestHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var params listRequestsParams
	if err := c.Bind(&params); err != nil {
		return BadRequest("invalid query parameters")
	}

	requests, err := h.repo.List(ctx, params.Status, params.Limit, params.Offset)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list requests")
		return err
	}

	return SuccessResponse(c, requests)
}

// Create files a new test request
func (h *RequestHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RequestHandler.Create")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.CreateRequestRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	request, err := h.repo.Create(ctx, &req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to create request")
		return err
	}

	return CreatedResponse(c, request)
}

// Get returns a single test request by id
func (h *RequestHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RequestHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	request, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, request)
}
