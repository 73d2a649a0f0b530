package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/hypolog/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHypotheses() []schema.Hypothesis {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	concluded := created.Add(30 * 24 * time.Hour)
	return []schema.Hypothesis{
		{
			ID:        "h1",
			Question:  "does omega-3 improve my focus",
			Status:    schema.ConcludedStatus,
			CreatedAt: created,
			Parsed: &schema.ParsedHypothesis{
				Intervention: "omega-3",
				Outcome:      "focus",
				Category:     schema.CognitiveCategory,
				Confidence:   1.0,
			},
			Baseline: &schema.BaselinePhase{StartDate: created, EndDate: created.Add(7 * 24 * time.Hour)},
			Variables: []schema.Variable{
				{ID: "v1", Name: "Omega-3", Type: schema.BinaryVariable, HypothesisID: "h1"},
				{ID: "v2", Name: "Focus", Type: schema.ScaleVariable, HypothesisID: "h1"},
			},
			Conclusion: &schema.Conclusion{
				Verdict:      schema.SupportedVerdict,
				Correlation:  0.82,
				PairedPoints: 12,
				ConcludedAt:  concluded,
			},
		},
		{
			ID:        "h2",
			Question:  "hello",
			Status:    schema.ActiveStatus,
			CreatedAt: created.Add(time.Hour),
		},
	}
}

func TestHypothesisStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(Hypothesis))
	require.NotNil(t, s)

	expectedColumns := []string{
		"hypothesis_id", "question", "status", "created_at", "intervention", "outcome",
		"category", "confidence", "baseline_start", "baseline_end", "intervention_start",
		"verdict", "correlation", "paired_points", "concluded_at",
	}
	for _, colName := range expectedColumns {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestDataPointStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(DataPoint))
	require.NotNil(t, s)

	for _, colName := range []string{"data_point_id", "variable_id", "value", "timestamp", "note", "source", "activity"} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestConvertHypotheses(t *testing.T) {
	rows := ConvertHypotheses(sampleHypotheses())
	require.Len(t, rows, 2)

	full := rows[0]
	require.NotNil(t, full.Intervention)
	assert.Equal(t, "omega-3", *full.Intervention)
	require.NotNil(t, full.Verdict)
	assert.Equal(t, "supported", *full.Verdict)
	require.NotNil(t, full.PairedPoints)
	assert.Equal(t, int32(12), *full.PairedPoints)
	require.NotNil(t, full.BaselineEnd)

	bare := rows[1]
	assert.Nil(t, bare.Intervention)
	assert.Nil(t, bare.Verdict)
	assert.Nil(t, bare.BaselineStart)
	assert.Equal(t, "active", bare.Status)
}

func TestConvertVariablesAndDataPoints(t *testing.T) {
	vars := ConvertVariables(sampleHypotheses())
	require.Len(t, vars, 2)
	assert.Equal(t, "h1", vars[0].HypothesisID)
	assert.Equal(t, "binary", vars[0].Type)

	points := ConvertDataPoints([]schema.DataPoint{
		{ID: "d1", VariableID: "v1", Value: 1, Timestamp: "2026-03-02"},
		{ID: "d2", VariableID: "v2", Value: 7, Timestamp: "2026-03-02", Note: "good day",
			Metadata: &schema.DataPointMetadata{Source: "manual"}},
	})
	require.Len(t, points, 2)
	assert.Nil(t, points[0].Note)
	assert.Nil(t, points[0].Source)
	require.NotNil(t, points[1].Note)
	assert.Equal(t, "good day", *points[1].Note)
	require.NotNil(t, points[1].Source)
	assert.Equal(t, "manual", *points[1].Source)
	assert.Nil(t, points[1].Activity)
}

func TestWriteHypothesesParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "hypotheses.parquet")
	data := ConvertHypotheses(sampleHypotheses())

	require.NoError(t, WriteHypothesesParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[Hypothesis](file)
	defer func() { _ = reader.Close() }()

	readData := make([]Hypothesis, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	require.Equal(t, len(data), n, "Should read all records")

	for i := range data {
		assert.Equal(t, data[i].HypothesisID, readData[i].HypothesisID)
		assert.Equal(t, data[i].Question, readData[i].Question)
		assert.WithinDuration(t, data[i].CreatedAt, readData[i].CreatedAt, time.Nanosecond)
		if data[i].Correlation == nil {
			assert.Nil(t, readData[i].Correlation)
		} else {
			require.NotNil(t, readData[i].Correlation)
			assert.InDelta(t, *data[i].Correlation, *readData[i].Correlation, 0.0001)
		}
	}
}

func TestWriteDataPointsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "points.parquet")
	data := ConvertDataPoints([]schema.DataPoint{
		{ID: "d1", VariableID: "v1", Value: 4, Timestamp: "2026-03-02T08:00:00Z"},
		{ID: "d2", VariableID: "v1", Value: 6.5, Timestamp: "2026-03-03T08:00:00Z", Note: "late"},
	})
	require.NoError(t, WriteDataPointsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[DataPoint](file)
	defer func() { _ = reader.Close() }()

	readData := make([]DataPoint, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)
	assert.Equal(t, "2026-03-03T08:00:00Z", readData[1].Timestamp)
	assert.InDelta(t, 6.5, readData[1].Value, 0.0001)
	require.NotNil(t, readData[1].Note)
	assert.Equal(t, "late", *readData[1].Note)
}

func TestWriteVariablesParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty_variables.parquet")
	require.NoError(t, WriteVariablesParquet([]Variable{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Parquet file should have header even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteDataPointsParquet(nil, filepath.Join(t.TempDir(), "missing", "dir", "points.parquet"))
	assert.Error(t, err)
}
