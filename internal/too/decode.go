package too

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/winter-telescope/wintertoo/internal/fieldcat"
)

// DecodeRequests parses one request object or an array of request objects
// from JSON. Fields absent from the input keep the schema defaults for the
// request's grid; every decoded request is validated.
func DecodeRequests(data []byte) ([]Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty request document")
	}

	var raws []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("decoding request array: %w", err)
		}
	} else {
		raws = []json.RawMessage{trimmed}
	}

	reqs := make([]Request, 0, len(raws))
	for i, raw := range raws {
		var probe struct {
			Grid         fieldcat.Grid `json:"grid"`
			FieldID      *int          `json:"field_id"`
			UseFieldGrid *bool         `json:"use_field_grid"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}

		req := Defaults(probe.Grid)
		// The snap default belongs to the coordinate form only; a
		// field request does not carry the flag.
		if probe.FieldID != nil && probe.UseFieldGrid == nil {
			req.UseFieldGrid = false
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
