package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/dashboard"
	"github.com/autopec/garage/internal/model"
)

// loadedDashboard returns a dashboard holding the current list, which the
// mutations need to resend a repair's other field.
func loadedDashboard(cmd *cobra.Command) (*dashboard.Dashboard, error) {
	d := dashboard.New(newClient(), dashboard.Options{})

	ctx, cancel := requestContext(cmd)
	defer cancel()

	err := d.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repairs: %w", err)
	}
	return d, nil
}

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status ID STATUS",
		Short:     "Move a repair request to another status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"submitted", "in_garage", "in_progress", "completed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := model.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("invalid status %q", args[1])
			}

			d, err := loadedDashboard(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			err = d.UpdateStatus(ctx, args[0], status)
			if err != nil {
				return mutationFailure(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], statusLabel(status))
			return nil
		},
	}
}

func NotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes ID NOTES",
		Short: "Replace the mechanic notes on a repair request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadedDashboard(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			err = d.SaveNotes(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return mutationFailure(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Notes saved."))
			return nil
		},
	}
}

func DeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a repair request and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Are you sure you want to delete this repair request? This action cannot be undone. [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			d := dashboard.New(newClient(), dashboard.Options{})

			ctx, cancel := requestContext(cmd)
			defer cancel()

			err := d.Delete(ctx, args[0])
			if err != nil {
				return mutationFailure(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Repair request deleted."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// mutationFailure shows the generic notice, with the cause when verbose.
func mutationFailure(err error) error {
	var me *dashboard.MutationError
	if errors.As(err, &me) && verbose {
		return fmt.Errorf("%s (%w)", me.Notice, me.Err)
	}
	return err
}
