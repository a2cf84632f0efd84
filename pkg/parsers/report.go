package parsers

import (
	"encoding/json"

	"github.com/vesselops/beacon/pkg/models"
)

// raw text fields a provider report may arrive under
var reportTextKeys = []string{"body", "text", "subject"}

// EnrichReport fills gaps in an ingest payload from free text carried in its
// metadata. Structured fields already present always win; only missing ones
// are parsed out of the report body.
func EnrichReport(req *models.CreateSignalRequest) {
	text := reportText(req.Metadata)
	if text == "" {
		return
	}

	if req.TerminalNumber == nil {
		if terminal, ok := ExtractTerminal(text); ok {
			req.TerminalNumber = &terminal
		}
	}
	if req.MMSI == nil {
		if mmsi, ok := ExtractMMSI(text); ok {
			req.MMSI = &mmsi
		}
	}
	if req.Latitude == nil || req.Longitude == nil {
		if pos, ok := ParsePosition(text); ok {
			req.Latitude = &pos.Latitude
			req.Longitude = &pos.Longitude
		}
	}
}

func reportText(md json.RawMessage) string {
	if len(md) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(md, &m); err != nil {
		return ""
	}
	for _, key := range reportTextKeys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
