package selection

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
)

// printCandidate writes the per-model block shown after each candidate is
// evaluated.
func printCandidate(w io.Writer, sc Scored) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s Performance:\n", sc.Name)
	fmt.Fprintf(w, "R2: %.4f\n", sc.Metrics.R2)
	fmt.Fprintf(w, "RMSE: %.2f\n", sc.Metrics.RMSE)
	fmt.Fprintf(w, "MAE: %.2f\n", sc.Metrics.MAE)
	fmt.Fprintf(w, "Accuracy (±10%%): %.2f%%\n", sc.Metrics.Accuracy*100)
	fmt.Fprintln(w)
}

// printSummary writes the ranking table. ranked[0] is the winner.
func printSummary(w io.Writer, ranked []Scored) {
	color.New(color.Bold).Fprintln(w, "Model ranking (by R2 on held-out data):")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tR2\tRMSE\tMAE\tACCURACY")
	fmt.Fprintln(tw, "----\t-----\t--\t----\t---\t--------")
	for i, sc := range ranked {
		marker := ""
		if i == 0 {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%.4f\t%.2f\t%.2f\t%.2f%%\n",
			i+1, sc.Name, marker, sc.Metrics.R2, sc.Metrics.RMSE, sc.Metrics.MAE, sc.Metrics.Accuracy*100)
	}
	tw.Flush()
	color.New(color.FgGreen).Fprintf(w, "Best model: %s (R2 %.4f)\n", ranked[0].Name, ranked[0].Metrics.R2)
}
