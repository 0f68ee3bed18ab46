package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/autopec/garage/internal/model"
)

var (
	bold = color.New(color.Bold).SprintFunc()
	gray = color.New(color.FgHiBlack).SprintFunc()

	statusColors = map[model.Status]*color.Color{
		model.StatusSubmitted:  color.New(color.FgYellow),
		model.StatusInGarage:   color.New(color.FgBlue),
		model.StatusInProgress: color.New(color.FgCyan),
		model.StatusCompleted:  color.New(color.FgGreen),
	}
)

func statusLabel(s model.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return s.Label()
	}
	return c.Sprint(s.Label())
}

func printRepairs(w io.Writer, repairs []model.RepairRequest) {
	if len(repairs) == 0 {
		fmt.Fprintln(w, gray("No repair requests found."))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("REGISTRATION")+"\t"+bold("STATUS")+"\t"+bold("CAR")+"\t"+bold("CUSTOMER")+"\t"+bold("FILES")+"\t"+bold("CREATED")+"\t"+bold("ID"))
	for _, r := range repairs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RegistrationNumber,
			statusLabel(r.Status),
			orDefault(r.CarModel, "No model"),
			orDefault(r.CustomerName, "Anonymous"),
			len(r.Multimedia),
			humanize.Time(r.CreatedAt),
			gray(r.ID),
		)
	}
	_ = tw.Flush()
}

func printRepair(w io.Writer, r *model.RepairRequest) {
	fmt.Fprintf(w, "%s  %s\n", bold(r.RegistrationNumber), statusLabel(r.Status))
	fmt.Fprintf(w, "  %s %s\n", gray("id:      "), r.ID)
	fmt.Fprintf(w, "  %s %s\n", gray("car:     "), orDefault(r.CarModel, "No model"))
	fmt.Fprintf(w, "  %s %s\n", gray("customer:"), orDefault(r.CustomerName, "Anonymous"))
	if r.PhoneNumber != "" {
		fmt.Fprintf(w, "  %s %s\n", gray("phone:   "), r.PhoneNumber)
	}
	fmt.Fprintf(w, "  %s %s\n", gray("problem: "), r.ProblemDescription)
	if notes := strings.TrimSpace(r.MechanicNotes); notes != "" {
		fmt.Fprintf(w, "  %s %s\n", gray("notes:   "), notes)
	}
	fmt.Fprintf(w, "  %s %s (updated %s)\n", gray("created: "),
		r.CreatedAt.Local().Format("2006-01-02 15:04"), humanize.Time(r.UpdatedAt))

	for i, a := range r.Multimedia {
		fmt.Fprintf(w, "  %s %s %s %s\n", gray(fmt.Sprintf("[%d]", i+1)), a.Type, a.Filename, gray(a.URL))
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
