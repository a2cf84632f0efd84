// Package signal persists received SSAS signals.
package signal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/vesselops/beacon/pkg/database"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/tracing"
)

var signalColumns = []string{"id", "terminal_number", "mmsi", "vessel_name", "signal_type", "received_at", "latitude", "longitude", "metadata", "link_state", "request_id", "created_at", "updated_at"}

// Repository handles signal persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new signal repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new signal in the unmatched state.
func (r *Repository) Create(ctx context.Context, req *models.CreateSignalRequest) (*models.Signal, error) {
	ctx, span := tracing.StartSpan(ctx, "signal.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	receivedAt := now
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}
	signalType := req.SignalType
	if signalType == "" {
		signalType = models.SignalTypeUnplanned
	}

	signal := &models.Signal{
		TerminalNumber: req.TerminalNumber,
		MMSI:           req.MMSI,
		VesselName:     req.VesselName,
		SignalType:     signalType,
		ReceivedAt:     receivedAt,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Metadata:       req.Metadata,
		LinkState:      models.LinkStateUnmatched,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("signals")
	sb.Cols("terminal_number", "mmsi", "vessel_name", "signal_type", "received_at", "latitude", "longitude", "metadata", "link_state", "created_at", "updated_at")
	sb.Values(signal.TerminalNumber, signal.MMSI, signal.VesselName, signal.SignalType, signal.ReceivedAt, signal.Latitude, signal.Longitude, metadataValue(signal.Metadata), signal.LinkState, signal.CreatedAt, signal.UpdatedAt)
	sb.Returning("id")

	query, args := sb.Build()
	if err := r.db.GetContext(ctx, &signal.ID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create signal")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create signal")
	}

	return signal, nil
}

// Get returns one signal by id.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Signal, error) {
	ctx, span := tracing.StartSpan(ctx, "signal.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(signalColumns...)
	sb.From("signals")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var signal models.Signal
	if err := r.db.GetContext(ctx, &signal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "signal %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"signal_id": id}).Error("Failed to get signal")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get signal")
	}

	return &signal, nil
}

// ListUnmatched returns every signal still awaiting reconciliation, newest
// first.
func (r *Repository) ListUnmatched(ctx context.Context) ([]models.Signal, error) {
	ctx, span := tracing.StartSpan(ctx, "signal.Repository.ListUnmatched")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(signalColumns...)
	sb.From("signals")
	sb.Where(sb.Equal("link_state", models.LinkStateUnmatched))
	sb.OrderBy("received_at").Desc()

	query, args := sb.Build()
	var signals []models.Signal
	if err := r.db.SelectContext(ctx, &signals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list unmatched signals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list unmatched signals")
	}

	return signals, nil
}

// Link marks the signal linked and its request completed in one
// transaction. The signal update is conditional on the row still being
// unmatched, so two concurrent links can never both succeed.
func (r *Repository) Link(ctx context.Context, signalID, requestID int64) error {
	ctx, span := tracing.StartSpan(ctx, "signal.Repository.Link")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin link transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("signals")
	ub.Set(
		ub.Assign("request_id", requestID),
		ub.Assign("link_state", models.LinkStateLinked),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", signalID), ub.Equal("link_state", models.LinkStateUnmatched))

	query, args := ub.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"signal_id": signalID, "request_id": requestID}).Error("Failed to link signal")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link signal")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read link result")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link signal")
	}
	if rows == 0 {
		// either the signal does not exist or someone linked it first
		if _, err := r.getInTx(txCtx, tx, signalID); err != nil {
			return err
		}
		return models.NewConflictError(models.ConflictAlreadyLinked, fmt.Sprintf("signal %d is already linked", signalID))
	}

	rub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	rub.Update("requests")
	rub.Set(
		rub.Assign("status", models.RequestStatusCompleted),
		rub.Assign("signal_id", signalID),
		rub.Assign("updated_at", now),
	)
	rub.Where(rub.Equal("id", requestID))

	query, args = rub.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": requestID}).Error("Failed to mark request completed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link signal")
	}

	if err := tx.Commit(txCtx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit link")
	}
	return nil
}

func (r *Repository) getInTx(ctx context.Context, tx database.Tx, id int64) (*models.Signal, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(signalColumns...)
	sb.From("signals")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var signal models.Signal
	if err := tx.GetContext(ctx, &signal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "signal %d not found", id)
		}
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get signal")
	}
	return &signal, nil
}

// metadataValue keeps NULL out of the jsonb column when no metadata came in.
func metadataValue(md []byte) any {
	if len(md) == 0 {
		return []byte("{}")
	}
	return md
}
