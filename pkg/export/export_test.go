package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporter_RendersHeadersAndRows(t *testing.T) {
	raw, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ID", "Heading", "Status"},
		Rows: [][]string{
			{"c-1", "Broken AC", "pending"},
			{"c-2", "Leaking tap, block B", "resolved"},
		},
	})
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "ID,Heading,Status\n")
	assert.Contains(t, content, "c-1,Broken AC,pending\n")
	// Values containing the delimiter are quoted.
	assert.Contains(t, content, `"Leaking tap, block B"`)
}

func TestCSVExporter_PadsShortRows(t *testing.T) {
	raw, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ID", "Heading", "Status"},
		Rows:    [][]string{{"c-1"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "c-1,,\n")
}

func TestCSVExporter_RequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporter_ProducesDocument(t *testing.T) {
	raw, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"ID", "Status"},
		Rows:    [][]string{{"c-1", "pending"}},
	}, "Complaint Overview")
	require.NoError(t, err)
	require.Greater(t, len(raw), 4)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestPDFExporter_RequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
