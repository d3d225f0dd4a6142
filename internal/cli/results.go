package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-interview/internal/result"
	"github.com/mind-engage/mindengage-interview/internal/scoring"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored session results",
	RunE:  runResults,
}

var (
	resultsLimit int
	resultsUser  string
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 20, "Number of results to show")
	resultsCmd.Flags().StringVar(&resultsUser, "user", "", "Only results of this user id")
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()
	dbh, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbh.Close()

	list, err := result.NewSQLStore(dbh).List(ctx, result.ListOpts{UserID: resultsUser, Limit: resultsLimit})
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}
	renderResults(cmd.OutOrStdout(), list)
	return nil
}

func renderResults(w io.Writer, list []result.Result) {
	if len(list) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No results yet")
		return
	}
	color.New(color.FgCyan).Fprintf(w, "\n%d result(s)\n", len(list))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Session", "User", "Submitted", "Answered"})
	for _, r := range list {
		table.Append([]string{
			r.SessionID,
			r.UserID,
			time.Unix(r.SubmittedAt, 0).UTC().Format(time.RFC3339),
			answered(r),
		})
	}
	table.Render()
}

// answered reads a local completion summary; other payloads show "-".
func answered(r result.Result) string {
	sum, ok := scoring.ParseSummary(r.Payload)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d/%d", sum.Answered, sum.Total)
}
