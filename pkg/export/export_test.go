package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"student_id", "student_name", "status"},
		Rows: [][]string{
			{"s-1", "Ana Conceição", "ATRASADO"},
			{"s-2", "Bruno, Jr.", "INCOMPLETO"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "student_id,student_name,status\ns-1,Ana Conceição,ATRASADO\ns-2,\"Bruno, Jr.\",INCOMPLETO\n", string(out))
}

func TestCSVExporterHeadersOnly(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(out))
}

func TestCSVExporterRejectsInvalidDatasets(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only-one"}}})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	data := sampleDataset()
	for i := 0; i < 60; i++ {
		data.Rows = append(data.Rows, []string{"s-x", "Estudante de Teste", "EM_DIA"})
	}

	out, err := exporter.Render(data, "Pending doses")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "abcdefgh...", truncate("abcdefghijklmnopqrstuvwxyz", 20))
}
