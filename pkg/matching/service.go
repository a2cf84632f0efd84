// Package matching reconciles received SSAS signals with scheduled test
// requests. Automatic linking requires strict terminal equality; everything
// weaker only produces ranked suggestions for an operator.
package matching

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/vesselops/beacon/pkg/extractor"
	"github.com/vesselops/beacon/pkg/feed"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/parsers"
	"github.com/vesselops/beacon/pkg/tracing"
)

// SignalStore is the signal persistence surface the service needs.
type SignalStore interface {
	Create(ctx context.Context, req *models.CreateSignalRequest) (*models.Signal, error)
	Get(ctx context.Context, id int64) (*models.Signal, error)
	ListUnmatched(ctx context.Context) ([]models.Signal, error)
	// Link marks the signal linked and the request completed in one
	// transaction. The signal row update is conditional on it still being
	// unmatched; losing that race returns a ConflictError with kind
	// already_linked.
	Link(ctx context.Context, signalID, requestID int64) error
}

// RequestStore is the test request persistence surface the service needs.
type RequestStore interface {
	Get(ctx context.Context, id int64) (*models.Request, error)
	ListOpen(ctx context.Context) ([]models.Request, error)
}

// EventSink receives reconciliation notifications. Implementations must not
// block and must not fail the calling operation.
type EventSink interface {
	SignalReceived(ctx context.Context, signalID int64)
	SignalLinked(ctx context.Context, result *models.LinkResult, auto bool)
}

// Config contains configuration for the reconciliation service.
type Config struct {
	SuggestionLimit int  // maximum suggestions per unmatched signal (default: 5)
	AutoLink        bool // link strict matches found during feed assembly
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SuggestionLimit: DefaultSuggestionLimit,
		AutoLink:        true,
	}
}

// Service drives reconciliation: it links strict matches automatically,
// builds the unmatched feed with suggestions, and arbitrates manual links.
type Service struct {
	log      ectologger.Logger
	signals  SignalStore
	requests RequestStore
	scorer   *Scorer
	events   EventSink
	cfg      Config
}

// NewService creates a new reconciliation service. events may be nil.
func NewService(log ectologger.Logger, signals SignalStore, requests RequestStore, events EventSink, cfg Config) *Service {
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = DefaultSuggestionLimit
	}
	return &Service{
		log:      log,
		signals:  signals,
		requests: requests,
		scorer:   NewScorer(),
		events:   events,
		cfg:      cfg,
	}
}

// Ingest stores a new signal and immediately tries to reconcile it. The
// signal is returned in its post-reconciliation state; a failed
// reconciliation attempt leaves it unmatched rather than failing the ingest.
func (s *Service) Ingest(ctx context.Context, req *models.CreateSignalRequest) (*models.Signal, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.Ingest")
	defer span.End()

	parsers.EnrichReport(req)

	signal, err := s.signals.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.SignalReceived(ctx, signal.ID)
	}

	result, err := s.Reconcile(ctx, signal)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{"signal_id": signal.ID}).Error("Failed to reconcile ingested signal")
		return signal, nil
	}
	if result != nil {
		signal.LinkState = models.LinkStateLinked
		signal.RequestID = &result.RequestID
	}

	return signal, nil
}

// HandleReport ingests a signal report delivered over the message bus. The
// error return drives redelivery, so only storage failures surface.
func (s *Service) HandleReport(ctx context.Context, report *models.CreateSignalRequest) error {
	_, err := s.Ingest(ctx, report)
	return err
}

// Reconcile attempts to link a single signal against the open requests.
// It returns the link result when strict matching succeeds, nil when the
// signal stays unmatched. Called on ingest, before the signal ever reaches
// the operator feed.
func (s *Service) Reconcile(ctx context.Context, signal *models.Signal) (*models.LinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.Reconcile")
	defer span.End()

	if signal.IsLinked() {
		return nil, nil
	}

	candidates, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	ids := extractor.ExtractSignalIdentifiers(signal)
	res := SelectBestMatchStrictByTerminal(ids, candidates)
	if res.Ambiguous {
		s.log.WithContext(ctx).WithFields(map[string]any{"signal_id": signal.ID, "terminal": ids.IMN}).Warn("Multiple open requests share terminal, skipping auto link")
		return nil, nil
	}
	if res.Match == nil {
		return nil, nil
	}

	return s.link(ctx, signal.ID, res.Match.ID, false, true)
}

// UnmatchedFeed assembles the operator feed: every unmatched signal that
// cannot be linked automatically, with scored suggestions and an
// explanation. Signals that strict-match exactly one open request are
// linked on the spot and never shown.
func (s *Service) UnmatchedFeed(ctx context.Context, params feed.Params) (*models.UnmatchedFeed, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.UnmatchedFeed")
	defer span.End()

	signals, err := s.signals.ListUnmatched(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.UnmatchedSignal, 0, len(signals))
	for i := range signals {
		signal := &signals[i]
		ids := extractor.ExtractSignalIdentifiers(signal)

		res := SelectBestMatchStrictByTerminal(ids, candidates)
		if res.Match != nil {
			if !s.cfg.AutoLink {
				// strict match exists but auto link is disabled; still
				// excluded from the unmatched feed
				continue
			}
			_, err := s.link(ctx, signal.ID, res.Match.ID, false, true)
			if err == nil {
				continue
			}
			var conflict *models.ConflictError
			if errors.As(err, &conflict) {
				// lost the race; the signal is linked, not unmatched
				continue
			}
			// storage failure: the signal is still unmatched, keep it in
			// front of the operator instead of hiding it for this response
			s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{"signal_id": signal.ID, "request_id": res.Match.ID}).Error("Failed to auto link strict match")
		}

		suggestions := s.scorer.BuildSuggestions(ids, candidates, s.cfg.SuggestionLimit)
		item := models.UnmatchedSignal{
			Signal:           *signal,
			Suggestions:      suggestions,
			OperatorMessages: BuildOperatorMessages(ids, suggestions, res.Ambiguous),
		}
		if len(suggestions) > 0 {
			top := suggestions[0].Score
			item.TopScore = &top
		}
		items = append(items, item)
	}

	return feed.Present(items, params), nil
}

// ManualLink links a signal to a request on an operator's say-so. Terminal
// numbers that disagree block the link unless override is set; a signal that
// is already linked can never be relinked.
func (s *Service) ManualLink(ctx context.Context, signalID, requestID int64, override bool) (*models.LinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.ManualLink")
	defer span.End()

	signal, err := s.signals.Get(ctx, signalID)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if signal.IsLinked() {
		return nil, models.NewConflictError(models.ConflictAlreadyLinked, fmt.Sprintf("signal %d is already linked", signalID))
	}
	if !request.IsOpen() {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "request %d is not open", requestID)
	}

	if !override {
		ids := extractor.ExtractSignalIdentifiers(signal)
		if kind := linkConflict(ids, request); kind != "" {
			return nil, models.NewConflictError(kind, fmt.Sprintf("signal %d terminal does not match request %d; set override to link anyway", signalID, requestID))
		}
	}

	return s.link(ctx, signalID, requestID, override, false)
}

// linkConflict reports why a manual link is blocked, or "" when it is safe.
// Only a definite disagreement blocks; a side with no terminal at all is the
// operator's call.
func linkConflict(ids extractor.SignalIdentifiers, request *models.Request) string {
	reqIMN := normalizedRequestIMN(request)
	if ids.IMN != "" && reqIMN != "" && ids.IMN != reqIMN {
		return models.ConflictIMNMismatch
	}
	return ""
}

func (s *Service) link(ctx context.Context, signalID, requestID int64, override, auto bool) (*models.LinkResult, error) {
	if err := s.signals.Link(ctx, signalID, requestID); err != nil {
		return nil, err
	}

	result := &models.LinkResult{
		OK:        true,
		SignalID:  signalID,
		RequestID: requestID,
		Override:  override,
	}

	s.log.WithContext(ctx).WithFields(map[string]any{
		"signal_id":  signalID,
		"request_id": requestID,
		"override":   override,
		"auto":       auto,
	}).Info("Linked signal to request")

	if s.events != nil {
		s.events.SignalLinked(ctx, result, auto)
	}
	return result, nil
}
