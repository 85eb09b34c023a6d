// Package booking implements the contact page's appointment request form:
// field state, validation, and draft restore/save/clear around submission.
package booking

import (
	"fmt"
	"strings"
)

// FormID identifies the appointment form's draft.
const FormID = "appointmentForm"

type ServiceType string

const (
	Individual ServiceType = "Individual"
	Couple     ServiceType = "Couple"
	Family     ServiceType = "Family"
	Adolescent ServiceType = "Adolescent"
)

func (s ServiceType) Valid() bool {
	switch s {
	case Individual, Couple, Family, Adolescent:
		return true
	}
	return false
}

type Mode string

const (
	InPerson Mode = "In-Person"
	Virtual  Mode = "Virtual"
)

func (m Mode) Valid() bool {
	return m == InPerson || m == Virtual
}

// Form is the appointment request as typed by the visitor.
type Form struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Schedule    string      `json:"schedule"`
	Message     string      `json:"message"`
	ServiceType ServiceType `json:"serviceType"`
	Mode        Mode        `json:"mode"`
}

// Initial returns the form as first rendered.
func Initial() Form {
	return Form{ServiceType: Individual, Mode: Virtual}
}

// Validate checks the stored shape of a draft. It does not enforce required
// fields; a draft is by definition incomplete.
func (f Form) Validate() error {
	if !f.ServiceType.Valid() {
		return fmt.Errorf("invalid service type %q", f.ServiceType)
	}
	if !f.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", f.Mode)
	}
	return nil
}

// Problems returns the messages shown to the visitor for a submission
// attempt. An empty result means the form can be sent.
func (f Form) Problems() []string {
	var out []string
	if strings.TrimSpace(f.Name) == "" {
		out = append(out, "Name is required.")
	}
	if strings.TrimSpace(f.Email) == "" {
		out = append(out, "Email is required.")
	}
	if strings.TrimSpace(f.Phone) == "" {
		out = append(out, "Phone number is required.")
	}
	if strings.TrimSpace(f.Schedule) == "" {
		out = append(out, "Please share your schedule preferences.")
	}
	return out
}

// Set assigns one field by its input name.
func (f *Form) Set(field, value string) error {
	switch field {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "phone":
		f.Phone = value
	case "schedule":
		f.Schedule = value
	case "message":
		f.Message = value
	case "serviceType":
		st := ServiceType(value)
		if !st.Valid() {
			return fmt.Errorf("invalid service type %q", value)
		}
		f.ServiceType = st
	case "mode":
		m := Mode(value)
		if !m.Valid() {
			return fmt.Errorf("invalid mode %q", value)
		}
		f.Mode = m
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}
