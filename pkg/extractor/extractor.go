// Package extractor normalizes raw signal records into canonical,
// comparable identifier sets. Extraction is a pure function of its input:
// absent or malformed fields become empty values, never errors.
package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/normalizers"
)

// SignalIdentifiers is the canonical identifier set extracted from a signal.
// Empty string means the identifier was absent or unusable.
type SignalIdentifiers struct {
	IMN        string // normalized terminal number (SSAS/IMN/Iridium)
	MMSI       string
	IMO        string
	VesselName string // trimmed, case preserved; normalization happens at comparison time
	ReceivedAt time.Time
	IsTest     bool
}

// metadata keys probed, in order, when the structured column is empty.
// Feeds and mail gateways disagree on naming, so the list is wide.
var (
	terminalKeys = []string{"terminal_number", "terminalNumber", "ssas_number", "SSAS", "inmarsat_number", "iridium_number", "imn", "IMN", "mobile_terminal_no"}
	mmsiKeys     = []string{"mmsi", "MMSI"}
	imoKeys      = []string{"imo", "IMO", "imo_number"}
	nameKeys     = []string{"vessel_name", "vesselName", "ship_name", "shipName"}
	textKeys     = []string{"classification", "signal_type", "subject", "body", "text"}
)

var testMarker = regexp.MustCompile(`TEST|DRILL|УЧЕБ`)

// ExtractSignalIdentifiers produces the canonical identifier set for a
// signal, falling back to its raw metadata for any field the structured
// columns do not carry.
func ExtractSignalIdentifiers(signal *models.Signal) SignalIdentifiers {
	md := parseMetadata(signal.Metadata)

	terminal := stringOrEmpty(signal.TerminalNumber)
	if strings.TrimSpace(terminal) == "" {
		terminal = pick(md, terminalKeys)
	}

	mmsi := stringOrEmpty(signal.MMSI)
	if strings.TrimSpace(mmsi) == "" {
		mmsi = pick(md, mmsiKeys)
	}

	name := stringOrEmpty(signal.VesselName)
	if strings.TrimSpace(name) == "" {
		name = pick(md, nameKeys)
	}

	receivedAt := signal.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	return SignalIdentifiers{
		IMN:        normalizers.Terminal(terminal),
		MMSI:       validMMSI(normalizers.Identifier(mmsi)),
		IMO:        normalizers.Identifier(pick(md, imoKeys)),
		VesselName: strings.TrimSpace(name),
		ReceivedAt: receivedAt,
		IsTest:     detectTest(signal, md),
	}
}

// detectTest scans the classification-bearing metadata fields plus the
// signal's own type for test markers.
func detectTest(signal *models.Signal, md map[string]any) bool {
	parts := make([]string, 0, len(textKeys)+1)
	for _, k := range textKeys {
		if v, ok := md[k]; ok && v != nil {
			parts = append(parts, toString(v))
		}
	}
	if signal.SignalType != "" {
		parts = append(parts, string(signal.SignalType))
	}
	return testMarker.MatchString(strings.ToUpper(strings.Join(parts, " ")))
}

// validMMSI accepts only proper 9-digit MMSI strings; anything else is
// treated as absent rather than used for false-positive matches.
func validMMSI(s string) string {
	if len(s) == 9 {
		return s
	}
	return ""
}

func parseMetadata(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var md map[string]any
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil
	}
	return md
}

// pick returns the first non-blank value among the given metadata keys.
func pick(md map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := md[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(toString(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode to float64; identifiers are whole numbers
		return strings.TrimSuffix(fmt.Sprintf("%.0f", t), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}
