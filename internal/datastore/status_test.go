package datastore

import (
	"bytes"
	"testing"
	"time"

	"github.com/huangsam/hypolog/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrintStoreStatus(t *testing.T) {
	t.Run("disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintStoreStatus(&buf, schema.StoreStatus{Backend: "mysql"})
		assert.Equal(t, "Backend: mysql\nConnected: false\n", buf.String())
	})

	t.Run("empty store", func(t *testing.T) {
		var buf bytes.Buffer
		PrintStoreStatus(&buf, schema.StoreStatus{
			Backend:    "sqlite",
			Connected:  true,
			TableSizes: map[string]int64{hypothesesTable: 0},
		})
		out := buf.String()
		assert.Contains(t, out, "Total Hypotheses: 0")
		assert.NotContains(t, out, "Last Created")
		assert.Contains(t, out, "  hypolog_hypotheses: 0 rows")
	})

	t.Run("populated store sorts tables", func(t *testing.T) {
		var buf bytes.Buffer
		PrintStoreStatus(&buf, schema.StoreStatus{
			Backend:         "memory",
			Connected:       true,
			TotalHypotheses: 2,
			ActiveCount:     1,
			LastCreatedTime: time.Now(),
			TableSizes: map[string]int64{
				variablesTable:  6,
				dataPointsTable: 10,
				hypothesesTable: 2,
			},
		})
		out := buf.String()
		assert.Contains(t, out, "Active Hypotheses: 1")
		assert.Contains(t, out, "Last Created:")
		dp := bytes.Index(buf.Bytes(), []byte(dataPointsTable))
		hy := bytes.Index(buf.Bytes(), []byte(hypothesesTable))
		va := bytes.Index(buf.Bytes(), []byte(variablesTable))
		assert.True(t, dp < hy && hy < va, "tables should be listed alphabetically")
	})
}
