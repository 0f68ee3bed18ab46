package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/autopec/garage/cmd/repairctl/cmd"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "repairctl",
		Short:         "Submit and manage Autopec repair requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cmd.SubmitCmd())
	rootCmd.AddCommand(cmd.ListCmd())
	rootCmd.AddCommand(cmd.WatchCmd())
	rootCmd.AddCommand(cmd.TrackCmd())
	rootCmd.AddCommand(cmd.StatusCmd())
	rootCmd.AddCommand(cmd.NotesCmd())
	rootCmd.AddCommand(cmd.DeleteCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}
