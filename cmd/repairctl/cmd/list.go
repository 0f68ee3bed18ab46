package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/client"
	"github.com/autopec/garage/internal/dashboard"
	"github.com/autopec/garage/internal/model"
)

func ListCmd() *cobra.Command {
	var filter dashboard.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List repair requests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			c := newClient()
			var repairs []model.RepairRequest
			var err error
			if filter.Status == "" || filter.Status == dashboard.StatusAll {
				repairs, err = c.ListRepairs(ctx)
			} else {
				repairs, err = c.ListByStatus(ctx, model.Status(filter.Status))
			}
			if err != nil {
				return err
			}

			printRepairs(cmd.OutOrStdout(), dashboard.Apply(repairs, filter))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter.Status, "status", "s", dashboard.StatusAll, "status to show: all, submitted, in_garage, in_progress, completed")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "search registration, car, customer, phone, problem and notes")
	return cmd
}

func TrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track REGISTRATION",
		Short: "Show the most recent repair request for a registration number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			repair, err := newClient().Track(ctx, args[0])
			if client.IsNotFound(err) {
				return fmt.Errorf("no repair request found for %s", args[0])
			}
			if err != nil {
				return err
			}

			printRepair(cmd.OutOrStdout(), repair)
			return nil
		},
	}
}
