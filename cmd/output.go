package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/brewery-sync/internal/model"
)

// writeSummary prints the run counts as an aligned table.
func writeSummary(out io.Writer, s model.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TOTAL\tSUCCEEDED\tCREATED\tUPDATED\tENRICHED\tSKIPPED\tFAILED")
	_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
		s.Total, s.Succeeded, s.Created, s.Updated, s.Enriched, s.Skipped, s.Failed)
	_ = w.Flush()
}
