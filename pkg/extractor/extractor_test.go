package extractor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vesselops/beacon/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestExtractSignalIdentifiers_StructuredColumns(t *testing.T) {
	received := time.Date(2025, 10, 5, 10, 0, 0, 0, time.UTC)
	sig := &models.Signal{
		ID:             1,
		TerminalNumber: strPtr(" 427-315-936 "),
		MMSI:           strPtr("273345000"),
		VesselName:     strPtr("  ВИТУС БЕРИНГ "),
		SignalType:     models.SignalTypeTest,
		ReceivedAt:     received,
	}

	ids := ExtractSignalIdentifiers(sig)

	assert.Equal(t, "427315936", ids.IMN)
	assert.Equal(t, "273345000", ids.MMSI)
	assert.Equal(t, "ВИТУС БЕРИНГ", ids.VesselName)
	assert.Equal(t, received, ids.ReceivedAt)
	assert.True(t, ids.IsTest)
}

func TestExtractSignalIdentifiers_MetadataFallback(t *testing.T) {
	md, _ := json.Marshal(map[string]any{
		"mobile_terminal_no": "427315936",
		"MMSI":               "273345000",
		"imo_number":         "IMO 9123456",
		"ship_name":          "Vitus Bering",
		"subject":            "SSAS TEST message",
	})
	sig := &models.Signal{ID: 2, Metadata: md, ReceivedAt: time.Now()}

	ids := ExtractSignalIdentifiers(sig)

	assert.Equal(t, "427315936", ids.IMN)
	assert.Equal(t, "273345000", ids.MMSI)
	assert.Equal(t, "9123456", ids.IMO)
	assert.Equal(t, "Vitus Bering", ids.VesselName)
	assert.True(t, ids.IsTest)
}

func TestExtractSignalIdentifiers_AbsentFieldsNormalizeToEmpty(t *testing.T) {
	sig := &models.Signal{ID: 3, ReceivedAt: time.Now()}

	ids := ExtractSignalIdentifiers(sig)

	assert.Empty(t, ids.IMN)
	assert.Empty(t, ids.MMSI)
	assert.Empty(t, ids.IMO)
	assert.Empty(t, ids.VesselName)
	assert.False(t, ids.IsTest)
}

func TestExtractSignalIdentifiers_InvalidMMSIDropped(t *testing.T) {
	sig := &models.Signal{ID: 4, MMSI: strPtr("12345"), ReceivedAt: time.Now()}

	ids := ExtractSignalIdentifiers(sig)

	assert.Empty(t, ids.MMSI, "MMSI must be exactly 9 digits after normalization")
}

func TestExtractSignalIdentifiers_ZeroReceivedAtDefaultsToNow(t *testing.T) {
	sig := &models.Signal{ID: 5}

	before := time.Now().UTC()
	ids := ExtractSignalIdentifiers(sig)
	after := time.Now().UTC()

	assert.False(t, ids.ReceivedAt.Before(before))
	assert.False(t, ids.ReceivedAt.After(after))
}

func TestExtractSignalIdentifiers_CyrillicTestMarker(t *testing.T) {
	md, _ := json.Marshal(map[string]any{"body": "учебная тревога"})
	sig := &models.Signal{ID: 6, Metadata: md, ReceivedAt: time.Now()}

	ids := ExtractSignalIdentifiers(sig)

	assert.True(t, ids.IsTest)
}

func TestExtractSignalIdentifiers_NumericMetadataValues(t *testing.T) {
	md, _ := json.Marshal(map[string]any{"mmsi": 273345000})
	sig := &models.Signal{ID: 7, Metadata: md, ReceivedAt: time.Now()}

	ids := ExtractSignalIdentifiers(sig)

	assert.Equal(t, "273345000", ids.MMSI)
}
