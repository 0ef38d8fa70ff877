/*
main.go - pointsd entry point

PURPOSE:
  Command-line front end for the points engine.

COMMANDS:
  pointsd spend FILE POINTS   Spend against a CSV or JSON feed, print totals
  pointsd serve               Run the HTTP API

EXAMPLES:
  # Spend 5000 points from a feed
  ./pointsd spend transactions.csv 5000

  # Serve with an in-memory store on port 3000
  ./pointsd serve --db=":memory:" --port=3000

SEE ALSO:
  - spend.go: One-shot spend
  - serve.go: HTTP server with graceful shutdown
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pointsd",
	Short: "Spend reward points oldest first",
	Long: `pointsd tracks reward points granted by payers and spends them
oldest first across every payer. A payer's total may end up negative
when its own reversals outweigh what is left; only the overall amount
has to be covered.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// reportedError marks an error whose message was already written for the
// user, so main only sets the exit code.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		os.Exit(1)
	}
}
