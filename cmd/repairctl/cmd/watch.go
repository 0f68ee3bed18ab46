package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autopec/garage/internal/dashboard"
	"github.com/autopec/garage/internal/model"
)

func WatchCmd() *cobra.Command {
	var (
		filter   dashboard.Filter
		interval time.Duration
		manual   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live mechanic dashboard that refreshes on an interval",
		Long: `Live mechanic dashboard. Type a command and press enter:
  r  refresh now
  a  toggle auto refresh
  q  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := dashboard.New(newClient(), dashboard.Options{
				Interval:    interval,
				AutoRefresh: !manual,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return d.Run(ctx)
			})

			commands := readCommands(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			g.Go(func() error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-d.Updates():
						renderDashboard(out, d, filter, interval)
					case c, ok := <-commands:
						if !ok {
							commands = nil
							continue
						}
						switch c {
						case "q", "quit":
							cancel()
							return nil
						case "r", "refresh":
							g.Go(func() error {
								_ = d.Refresh(ctx)
								return nil
							})
						case "a", "auto":
							d.SetAutoRefresh(!d.AutoRefresh())
							renderDashboard(out, d, filter, interval)
						}
					}
				}
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&filter.Status, "status", "s", dashboard.StatusAll, "status to show")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "search term")
	cmd.Flags().DurationVar(&interval, "interval", dashboard.DefaultInterval, "auto refresh interval")
	cmd.Flags().BoolVar(&manual, "manual", false, "start with auto refresh off")
	return cmd
}

// readCommands forwards trimmed input lines until r is exhausted. The reader
// goroutine is left blocked on exit since stdin cannot be interrupted.
func readCommands(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- strings.ToLower(strings.TrimSpace(sc.Text()))
		}
	}()
	return ch
}

func renderDashboard(w io.Writer, d *dashboard.Dashboard, filter dashboard.Filter, interval time.Duration) {
	snap := d.Snapshot()
	repairs := dashboard.Apply(snap.Repairs, filter)

	fmt.Fprint(w, "\033[H\033[2J")
	fmt.Fprintln(w, bold("Mechanic Dashboard"))

	auto := gray("auto refresh off")
	if snap.AutoRefresh {
		auto = color.GreenString("auto refresh every %s", interval)
	}
	updated := "never"
	if !snap.LastUpdated.IsZero() {
		updated = snap.LastUpdated.Format("15:04:05")
	}
	fmt.Fprintf(w, "%s | last updated %s | refreshes %d\n", auto, updated, snap.RefreshCount)

	counts := make(map[model.Status]int, len(model.Statuses))
	for _, r := range snap.Repairs {
		counts[r.Status]++
	}
	parts := make([]string, 0, len(model.Statuses)+1)
	parts = append(parts, fmt.Sprintf("Total %d", len(snap.Repairs)))
	for _, s := range model.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", statusLabel(s), counts[s]))
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))

	if filter.Search != "" || (filter.Status != "" && filter.Status != dashboard.StatusAll) {
		fmt.Fprintf(w, "%s showing %d of %d\n", gray("filtered:"), len(repairs), len(snap.Repairs))
	}
	if snap.Err != nil {
		fmt.Fprintln(w, color.RedString("Failed to fetch repairs: %v", snap.Err))
	}
	fmt.Fprintln(w)

	if snap.Loading {
		fmt.Fprintln(w, gray("Loading..."))
		return
	}
	printRepairs(w, repairs)
	fmt.Fprintln(w, gray("\n[r] refresh  [a] toggle auto refresh  [q] quit"))
}
