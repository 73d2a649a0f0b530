package datastore

import (
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Hypotheses: %d\n", status.TotalHypotheses)
	if status.TotalHypotheses > 0 {
		_, _ = fmt.Fprintf(w, "Active Hypotheses: %d\n", status.ActiveCount)
		_, _ = fmt.Fprintf(w, "Last Created: %s\n", status.LastCreatedTime.Local().Format(contract.DateTimeFormat))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
