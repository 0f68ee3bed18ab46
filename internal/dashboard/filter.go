package dashboard

import (
	"strings"

	"github.com/autopec/garage/internal/model"
)

// StatusAll disables the status filter.
const StatusAll = "all"

type Filter struct {
	Search string
	Status string // a model.Status value or StatusAll; empty means all
}

// Apply narrows repairs by search term and status, keeping the input order.
// The search term matches case-insensitively against registration, car model,
// customer name, problem description and mechanic notes. Phone numbers are
// compared without case folding.
func Apply(repairs []model.RepairRequest, f Filter) []model.RepairRequest {
	term := strings.ToLower(f.Search)
	status := f.Status

	out := make([]model.RepairRequest, 0, len(repairs))
	for _, r := range repairs {
		if term != "" && !matches(r, term) {
			continue
		}
		if status != "" && status != StatusAll && string(r.Status) != status {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r model.RepairRequest, term string) bool {
	return contains(r.RegistrationNumber, term) ||
		contains(r.CarModel, term) ||
		contains(r.CustomerName, term) ||
		(r.PhoneNumber != "" && strings.Contains(r.PhoneNumber, term)) ||
		contains(r.ProblemDescription, term) ||
		contains(r.MechanicNotes, term)
}

func contains(field, term string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), term)
}
