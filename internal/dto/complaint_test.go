package dto

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-console/internal/models"
)

func TestNormalize_MapsSnakeCaseTransportFields(t *testing.T) {
	raw := RawComplaint{
		"id":          json.Number("42"),
		"heading":     "Leaky roof",
		"description": "Water drips into the lecture hall",
		"status":      "pending",
		"anonymous":   float64(1),
		"public":      true,
		"student_id":  json.Number("7"),
		"created_at":  "2024-03-01T10:00:00Z",
		"updated_at":  "2024-03-02T09:30:00Z",
	}

	c := Normalize(raw)

	assert.Equal(t, "42", c.ID)
	assert.Equal(t, "Leaky roof", c.Heading)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.True(t, c.IsAnonymous)
	assert.True(t, c.IsPublic)
	assert.Equal(t, "7", c.StudentID)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), c.CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), c.UpdatedAt)
}

func TestNormalize_MissingUpdatedAtFallsBackToCreatedAt(t *testing.T) {
	raw := RawComplaint{
		"id":         "c-1",
		"heading":    "Broken chair",
		"status":     "pending",
		"created_at": "2024-03-01T10:00:00Z",
	}

	c := Normalize(raw)

	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestNormalize_CoercesTruthyWireValues(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"number one", float64(1), true},
		{"number zero", float64(0), false},
		{"string true", "true", true},
		{"string one", "1", true},
		{"string false", "false", false},
		{"string empty", "", false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := RawComplaint{"id": "x", "heading": "h", "status": "pending", "anonymous": tc.value}
			assert.Equal(t, tc.want, Normalize(raw).IsAnonymous)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := RawComplaint{
		"id":         json.Number("9001"),
		"heading":    "Cafeteria queue",
		"status":     "in_progress",
		"anonymous":  float64(1),
		"public":     float64(0),
		"student_id": json.Number("12"),
		"created_at": "2024-04-05T08:00:00Z",
	}

	once := Normalize(raw)

	// Round-trip the normalized record through its own JSON shape and
	// normalize again: the result must not change.
	encoded, err := json.Marshal(once)
	require.NoError(t, err)
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var again RawComplaint
	require.NoError(t, dec.Decode(&again))

	twice := Normalize(again)
	assert.Equal(t, once, twice)
}

func TestNormalizeAll_DropsRecordsMissingMandatoryFields(t *testing.T) {
	raws := []RawComplaint{
		{"id": "1", "heading": "ok", "status": "pending"},
		{"heading": "no id", "status": "pending"},
		{"id": "3", "status": "resolved"},
		{"id": "4", "heading": "no status"},
	}

	complaints, dropped := NormalizeAll(raws)

	require.Len(t, complaints, 1)
	assert.Equal(t, "1", complaints[0].ID)
	assert.Equal(t, 3, dropped)
}
