package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/client"
	"github.com/autopec/garage/internal/logger"
)

const defaultAPIURL = "http://localhost:5000"

var (
	apiURL  string
	timeout time.Duration
	verbose bool
)

// AddGlobalFlags registers the flags every subcommand shares.
func AddGlobalFlags(root *cobra.Command) {
	def := os.Getenv("AUTOPEC_API_URL")
	if def == "" {
		def = defaultAPIURL
	}

	root.PersistentFlags().StringVar(&apiURL, "api", def, "API base URL (env AUTOPEC_API_URL)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and failures to stderr")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelError + 4
		if verbose {
			level = slog.LevelDebug
		}
		logger.Init(logger.Options{
			Development: true,
			Output:      os.Stderr,
			Level:       level,
		})
	}
}

// PrintError writes a failed command's error to stderr.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
}

func newClient() *client.Client {
	return client.New(apiURL)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
