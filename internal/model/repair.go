package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInGarage   Status = "in_garage"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusSubmitted, StatusInGarage, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInGarage, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label is the display form of a status: "in_garage" becomes "In Garage".
func (s Status) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// ParseStatus returns the status named by v or false when v is not one of the four values.
func ParseStatus(v string) (Status, bool) {
	s := Status(v)
	return s, s.Valid()
}

type RepairRequest struct {
	ID                 string      `db:"id" json:"id"`
	RegistrationNumber string      `db:"registration_number" json:"registrationNumber"`
	ProblemDescription string      `db:"problem_description" json:"problemDescription"`
	CustomerName       string      `db:"customer_name" json:"customerName"`
	PhoneNumber        string      `db:"phone_number" json:"phoneNumber"`
	CarModel           string      `db:"car_model" json:"carModel"`
	Status             Status      `db:"status" json:"status"`
	MechanicNotes      string      `db:"mechanic_notes" json:"mechanicNotes"`
	Multimedia         Attachments `db:"multimedia" json:"multimedia"`
	CreatedAt          time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updatedAt"`
}

type Attachment struct {
	Type       MediaKind `json:"type"`
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Attachments is stored as a JSON array in a single column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attachments) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported multimedia column type %T", src)
	}
	if len(raw) == 0 {
		*a = Attachments{}
		return nil
	}
	var out Attachments
	if err := json.Unmarshal(raw, &out); err != nil {
		return errors.Join(errors.New("invalid multimedia column"), err)
	}
	if out == nil {
		out = Attachments{}
	}
	*a = out
	return nil
}
