// Package request persists scheduled SSAS test requests.
package request

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/vesselops/beacon/pkg/database"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/tracing"
)

var requestColumns = []string{"id", "vessel_name", "ssas_number", "mmsi", "imo_number", "planned_test_date", "test_date", "status", "signal_id", "created_at", "updated_at"}

// Repository handles test request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new request repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new test request in the pending state.
func (r *Repository) Create(ctx context.Context, req *models.CreateRequestRequest) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	request := &models.Request{
		VesselName:      req.VesselName,
		SSASNumber:      req.SSASNumber,
		MMSI:            req.MMSI,
		IMONumber:       req.IMONumber,
		PlannedTestDate: req.PlannedTestDate,
		Status:          models.RequestStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("requests")
	sb.Cols("vessel_name", "ssas_number", "mmsi", "imo_number", "planned_test_date", "status", "created_at", "updated_at")
	sb.Values(request.VesselName, request.SSASNumber, request.MMSI, request.IMONumber, request.PlannedTestDate, request.Status, request.CreatedAt, request.UpdatedAt)
	sb.Returning("id")

	query, args := sb.Build()
	if err := r.db.GetContext(ctx, &request.ID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create request")
	}

	return request, nil
}

// Get returns one request by id.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "request %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": id}).Error("Failed to get request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get request")
	}

	return &request, nil
}

// ListOpen returns every request still able to receive a signal, oldest
// first.
func (r *Repository) ListOpen(ctx context.Context) ([]models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.ListOpen")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	sb.Where(sb.In("status", models.RequestStatusPending, models.RequestStatusApproved))
	sb.OrderBy("id").Asc()

	query, args := sb.Build()
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list open requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list open requests")
	}

	return requests, nil
}

// List returns requests, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.List")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("id").Desc()
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list requests")
	}

	return requests, nil
}
