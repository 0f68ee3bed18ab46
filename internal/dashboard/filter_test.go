package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autopec/garage/internal/model"
)

func ids(repairs []model.RepairRequest) []string {
	out := []string{}
	for _, r := range repairs {
		out = append(out, r.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	repairs := []model.RepairRequest{
		{ID: "1", RegistrationNumber: "KCA 123A", CarModel: "Toyota Demio", Status: model.StatusSubmitted, ProblemDescription: "Brake noise"},
		{ID: "2", RegistrationNumber: "KDB 456B", CustomerName: "Jane Wanjiku", PhoneNumber: "+254712345678", Status: model.StatusInGarage, ProblemDescription: "Overheating"},
		{ID: "3", RegistrationNumber: "KCC 789C", Status: model.StatusCompleted, ProblemDescription: "Service", MechanicNotes: "Replaced BRAKE pads"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3"}},
		{"all status", Filter{Status: StatusAll}, []string{"1", "2", "3"}},
		{"registration case insensitive", Filter{Search: "kdb"}, []string{"2"}},
		{"car model", Filter{Search: "demio"}, []string{"1"}},
		{"customer name", Filter{Search: "WANJIKU"}, []string{"2"}},
		{"phone", Filter{Search: "0712"}, []string{}},
		{"phone digits", Filter{Search: "712345"}, []string{"2"}},
		{"problem and notes", Filter{Search: "brake"}, []string{"1", "3"}},
		{"status only", Filter{Status: string(model.StatusCompleted)}, []string{"3"}},
		{"search and status", Filter{Search: "brake", Status: string(model.StatusSubmitted)}, []string{"1"}},
		{"no match", Filter{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(repairs, tt.filter)))
		})
	}
}
