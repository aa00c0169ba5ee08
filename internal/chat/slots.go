package chat

import (
	"strings"
	"time"
)

// PendingRequest is one in-progress slot-filling conversation. The intent is
// fixed when the request is created; Fields accumulates values turn by turn.
type PendingRequest struct {
	Intent Intent            `json:"intent"`
	Fields map[string]string `json:"fields"`
}

// NewPendingRequest creates an empty request for the given intent.
func NewPendingRequest(intent Intent) *PendingRequest {
	return &PendingRequest{
		Intent: intent,
		Fields: make(map[string]string),
	}
}

// MissingFields returns the required fields of the request's intent whose
// value is still absent, in canonical prompting order. Date and time fields
// stay in the missing set until their value normalized cleanly, so a turn
// that supplied an unparseable date re-prompts instead of proceeding.
func (p *PendingRequest) MissingFields() []string {
	var missing []string
	for _, field := range RequiredFields(p.Intent) {
		v := strings.TrimSpace(p.Fields[field])
		switch {
		case v == "":
			missing = append(missing, field)
		case isDateField(field) && !IsCanonicalDate(v):
			missing = append(missing, field)
		case isTimeField(field) && !IsCanonicalTime(v):
			missing = append(missing, field)
		}
	}
	return missing
}

// Complete reports whether every required field has been collected.
func (p *PendingRequest) Complete() bool {
	return len(p.MissingFields()) == 0
}

// ApplyUpdate records one field value. Date-named fields are routed through
// NormalizeDate and time-named fields through NormalizeTime; everything else
// is stored verbatim. Applying the same field/value pair twice leaves the
// request unchanged. Returns the recomputed missing-field set.
func (p *PendingRequest) ApplyUpdate(field, value string, now time.Time) []string {
	if p.Fields == nil {
		p.Fields = make(map[string]string)
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return p.MissingFields()
	}

	switch {
	case isDateField(field):
		normalized, _ := NormalizeDate(value, now)
		p.Fields[field] = normalized
	case isTimeField(field):
		normalized, _ := NormalizeTime(value)
		p.Fields[field] = normalized
	default:
		p.Fields[field] = strings.TrimSpace(value)
	}

	return p.MissingFields()
}

func isDateField(field string) bool {
	return strings.Contains(field, "date")
}

func isTimeField(field string) bool {
	return strings.Contains(field, "time")
}
