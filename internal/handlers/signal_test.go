package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vesselops/beacon/pkg/matching"
	"github.com/vesselops/beacon/pkg/middleware"
	"github.com/vesselops/beacon/pkg/models"
)

func testLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func strPtr(s string) *string { return &s }

type memorySignalStore struct {
	signals map[int64]*models.Signal
	nextID  int64
}

func newMemorySignalStore(signals ...*models.Signal) *memorySignalStore {
	store := &memorySignalStore{signals: make(map[int64]*models.Signal), nextID: 1}
	for _, s := range signals {
		store.signals[s.ID] = s
		if s.ID >= store.nextID {
			store.nextID = s.ID + 1
		}
	}
	return store
}

func (m *memorySignalStore) Create(ctx context.Context, req *models.CreateSignalRequest) (*models.Signal, error) {
	signal := &models.Signal{
		ID:             m.nextID,
		TerminalNumber: req.TerminalNumber,
		MMSI:           req.MMSI,
		VesselName:     req.VesselName,
		SignalType:     req.SignalType,
		ReceivedAt:     time.Now().UTC(),
		Metadata:       req.Metadata,
		LinkState:      models.LinkStateUnmatched,
	}
	if req.ReceivedAt != nil {
		signal.ReceivedAt = *req.ReceivedAt
	}
	m.nextID++
	m.signals[signal.ID] = signal
	return signal, nil
}

func (m *memorySignalStore) Get(ctx context.Context, id int64) (*models.Signal, error) {
	signal, ok := m.signals[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "signal %d not found", id)
	}
	copied := *signal
	return &copied, nil
}

func (m *memorySignalStore) ListUnmatched(ctx context.Context) ([]models.Signal, error) {
	var out []models.Signal
	for _, s := range m.signals {
		if !s.IsLinked() {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memorySignalStore) Link(ctx context.Context, signalID, requestID int64) error {
	signal, ok := m.signals[signalID]
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "signal %d not found", signalID)
	}
	if signal.IsLinked() {
		return models.NewConflictError(models.ConflictAlreadyLinked, fmt.Sprintf("signal %d is already linked", signalID))
	}
	signal.LinkState = models.LinkStateLinked
	signal.RequestID = &requestID
	return nil
}

type memoryRequestStore struct {
	requests map[int64]*models.Request
}

func newMemoryRequestStore(requests ...*models.Request) *memoryRequestStore {
	store := &memoryRequestStore{requests: make(map[int64]*models.Request)}
	for _, r := range requests {
		store.requests[r.ID] = r
	}
	return store
}

func (m *memoryRequestStore) Get(ctx context.Context, id int64) (*models.Request, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "request %d not found", id)
	}
	copied := *request
	return &copied, nil
}

func (m *memoryRequestStore) ListOpen(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	for _, r := range m.requests {
		if r.IsOpen() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func newTestServer(signals *memorySignalStore, requests *memoryRequestStore) *echo.Echo {
	logger := testLogger()
	service := matching.NewService(logger, signals, requests, nil, matching.DefaultConfig())

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewSignalHandler(service, signals, logger).Register(e.Group("/api/v1/signals"))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func unmatchedTestSignal(id int64, mmsi string) *models.Signal {
	signal := &models.Signal{
		ID:         id,
		SignalType: models.SignalTypeTest,
		ReceivedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		LinkState:  models.LinkStateUnmatched,
	}
	if mmsi != "" {
		signal.MMSI = &mmsi
	}
	return signal
}

func TestSignalHandler_Unmatched(t *testing.T) {
	signals := newMemorySignalStore(unmatchedTestSignal(1, "273456789"))
	requests := newMemoryRequestStore(&models.Request{ID: 10, VesselName: "AURORA", MMSI: strPtr("273456789"), Status: models.RequestStatusPending})
	e := newTestServer(signals, requests)

	rec, body := doJSON(t, e, http.MethodGet, "/api/v1/signals/unmatched", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(1), body["count"])
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	assert.Equal(t, float64(1), item["id"])
	suggestions := item["suggestions"].([]any)
	require.Len(t, suggestions, 1)
	suggestion := suggestions[0].(map[string]any)
	assert.Equal(t, float64(10), suggestion["requestId"])
	assert.Equal(t, float64(40), suggestion["score"])
	assert.Equal(t, float64(40), item["topScore"])
	assert.NotEmpty(t, item["operator_messages"])
}

func TestSignalHandler_Link(t *testing.T) {
	t.Run("links and returns the confirmation", func(t *testing.T) {
		signals := newMemorySignalStore(unmatchedTestSignal(1, ""))
		requests := newMemoryRequestStore(&models.Request{ID: 10, VesselName: "AURORA", Status: models.RequestStatusPending})
		e := newTestServer(signals, requests)

		rec, body := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{"requestId": 10}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, float64(1), body["signalId"])
		assert.Equal(t, float64(10), body["requestId"])
		assert.Equal(t, false, body["override"])
	})

	t.Run("terminal mismatch yields 409 with conflict kind", func(t *testing.T) {
		signal := unmatchedTestSignal(1, "")
		signal.TerminalNumber = strPtr("111111111")
		signals := newMemorySignalStore(signal)
		requests := newMemoryRequestStore(&models.Request{ID: 10, SSASNumber: strPtr("427315936"), Status: models.RequestStatusPending})
		e := newTestServer(signals, requests)

		rec, body := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{"requestId": 10}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		meta := body["meta"].(map[string]any)
		assert.Equal(t, "imn_mismatch", meta["conflict"])
	})

	t.Run("override pushes a mismatched link through", func(t *testing.T) {
		signal := unmatchedTestSignal(1, "")
		signal.TerminalNumber = strPtr("111111111")
		signals := newMemorySignalStore(signal)
		requests := newMemoryRequestStore(&models.Request{ID: 10, SSASNumber: strPtr("427315936"), Status: models.RequestStatusPending})
		e := newTestServer(signals, requests)

		rec, body := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{"requestId": 10, "override": true}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, true, body["override"])
	})

	t.Run("already linked signal yields 409", func(t *testing.T) {
		signal := unmatchedTestSignal(1, "")
		signal.LinkState = models.LinkStateLinked
		signals := newMemorySignalStore(signal)
		requests := newMemoryRequestStore(&models.Request{ID: 10, Status: models.RequestStatusPending})
		e := newTestServer(signals, requests)

		rec, body := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{"requestId": 10}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		meta := body["meta"].(map[string]any)
		assert.Equal(t, "already_linked", meta["conflict"])
	})

	t.Run("unknown signal yields 404", func(t *testing.T) {
		e := newTestServer(newMemorySignalStore(), newMemoryRequestStore(&models.Request{ID: 10, Status: models.RequestStatusPending}))
		rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/signals/99/link", `{"requestId": 10}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown request yields 404", func(t *testing.T) {
		e := newTestServer(newMemorySignalStore(unmatchedTestSignal(1, "")), newMemoryRequestStore())
		rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{"requestId": 99}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id yields 400", func(t *testing.T) {
		e := newTestServer(newMemorySignalStore(), newMemoryRequestStore())
		rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/signals/abc/link", `{"requestId": 10}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing requestId yields 400", func(t *testing.T) {
		e := newTestServer(newMemorySignalStore(unmatchedTestSignal(1, "")), newMemoryRequestStore())
		rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/signals/1/link", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignalHandler_Create(t *testing.T) {
	t.Run("ingests and auto links a strict match", func(t *testing.T) {
		signals := newMemorySignalStore()
		requests := newMemoryRequestStore(&models.Request{ID: 10, SSASNumber: strPtr("427315936"), Status: models.RequestStatusPending})
		e := newTestServer(signals, requests)

		rec, body := doJSON(t, e, http.MethodPost, "/api/v1/signals", `{"terminalNumber": "427315936", "signalType": "TEST"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, models.LinkStateLinked, body["link_state"])
		assert.Equal(t, float64(10), body["request_id"])
	})

	t.Run("rejects an unknown signal type", func(t *testing.T) {
		e := newTestServer(newMemorySignalStore(), newMemoryRequestStore())
		rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/signals", `{"signalType": "WHATEVER"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignalHandler_Get(t *testing.T) {
	signals := newMemorySignalStore(unmatchedTestSignal(1, "273456789"))
	e := newTestServer(signals, newMemoryRequestStore())

	rec, body := doJSON(t, e, http.MethodGet, "/api/v1/signals/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "273456789", body["mmsi"])

	rec, _ = doJSON(t, e, http.MethodGet, "/api/v1/signals/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
