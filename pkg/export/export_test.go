package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Cover sheet",
		Subtitle: "Monday 2025-01-06",
		Headers:  []string{"Absent", "Period", "Class", "Cover"},
		GroupBy:  "Absent",
		Rows: []map[string]string{
			{"Absent": "Adi", "Period": "1", "Class": "10A", "Cover": "Budi"},
			{"Absent": "Adi", "Period": "3", "Class": "10A", "Cover": "assistant"},
			{"Absent": "Eko", "Period": "5", "Class": "10B"},
		},
	}
}

func TestCSVExporterWritesHeaderAndRows(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Absent,Period,Class,Cover\nAdi,1,10A,Budi\nAdi,3,10A,assistant\nEko,5,10B,\n"
	assert.Equal(t, expected, string(out))
}

func TestExportersRejectBadDatasets(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	ds := sampleDataset()
	ds.GroupBy = "Teacher"
	_, err = NewPDFExporter().Render(ds)
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset())
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, pageWidth, sum, 0.001)
}
