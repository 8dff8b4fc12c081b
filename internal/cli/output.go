// Package cli renders query results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/pkg/utils"
)

// OutputFormat selects how query results are rendered.
type OutputFormat string

const (
	// OutputText is a human-readable table (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteResults writes resp to w in the given format.
func WriteResults(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeResultsText(w, resp)
		return nil
	}
}

func writeResultsText(w io.Writer, resp *models.QueryResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No matching results found")
		return
	}
	fmt.Fprintf(w, "Results obtained in %dms\n", resp.QueryTime)
	if len(resp.Expanded) > 0 {
		fmt.Fprintf(w, "Expanded with: %s\n", strings.Join(resp.Expanded, ", "))
	}
	dash := strings.Repeat("-", 110)
	fmt.Fprintln(w, dash)
	fmt.Fprintf(w, "%-6s%-12s%-80s%10s\n", "Rank", "ID", "Title", "Score")
	fmt.Fprintln(w, dash)
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%-6d%-12s%-80s%10.5f\n",
			r.Rank, utils.Truncate(r.DocID, 10), utils.Truncate(r.Name, 78), r.Score)
	}
}
