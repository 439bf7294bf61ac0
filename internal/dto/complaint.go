package dto

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/campusdesk/complaint-console/internal/models"
)

// RawComplaint is a loosely typed complaint payload as received from the
// transport. The service emits snake_case fields with unstable value types
// (numeric ids, 0/1 booleans); a payload that already uses the in-memory
// camelCase convention is accepted as well so that Normalize is idempotent.
type RawComplaint map[string]any

// HasMandatoryFields reports whether the payload carries the fields without
// which a record cannot be keyed or rendered. Callers drop such records
// before they reach Normalize.
func (r RawComplaint) HasMandatoryFields() bool {
	return stringField(r, "id") != "" &&
		stringField(r, "heading") != "" &&
		stringField(r, "status") != ""
}

// Normalize maps a raw transport payload onto the canonical record. It is
// pure and total: missing updated_at falls back to created_at, truthy wire
// values are coerced to booleans and numeric identifiers are stringified so
// identifier equality is always string based. It never fails.
func Normalize(raw RawComplaint) models.Complaint {
	created := timeField(raw, "created_at", "createdAt")
	updated := timeField(raw, "updated_at", "updatedAt")
	if updated.IsZero() {
		updated = created
	}

	return models.Complaint{
		ID:          stringField(raw, "id"),
		Heading:     stringField(raw, "heading"),
		Description: stringField(raw, "description"),
		Status:      models.Status(stringField(raw, "status")),
		IsAnonymous: boolField(raw, "anonymous", "isAnonymous"),
		IsPublic:    boolField(raw, "public", "isPublic"),
		StudentID:   stringField(raw, "student_id", "studentId"),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

// NormalizeAll maps every payload carrying the mandatory fields and drops the
// rest. The returned count is the number of dropped records.
func NormalizeAll(raws []RawComplaint) ([]models.Complaint, int) {
	complaints := make([]models.Complaint, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		if !raw.HasMandatoryFields() {
			dropped++
			continue
		}
		complaints = append(complaints, Normalize(raw))
	}
	return complaints, dropped
}

func stringField(raw RawComplaint, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case json.Number:
			return val.String()
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			return strconv.Itoa(val)
		case int64:
			return strconv.FormatInt(val, 10)
		}
	}
	return ""
}

func boolField(raw RawComplaint, keys ...string) bool {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val
		case float64:
			return val != 0
		case json.Number:
			f, err := val.Float64()
			return err == nil && f != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(val)) {
			case "true", "t", "1", "yes":
				return true
			default:
				return false
			}
		}
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func timeField(raw RawComplaint, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
