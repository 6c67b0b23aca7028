// internal/models/booking.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BookingKind discriminates the two booking shapes the backend serves.
type BookingKind string

const (
	// KindService is a booking against a named service (/api/bookings).
	KindService BookingKind = "service"
	// KindClass is a booking against a schedule with an instructor (/api/book-class).
	KindClass BookingKind = "class"
)

type ClientDetails struct {
	Name        string
	Email       string
	Phone       string
	SMSReminder bool
}

// Booking is a client's reservation of a service or a scheduled class.
// Instructor and Schedule are only set for KindClass.
type Booking struct {
	ID         string
	Kind       BookingKind
	Client     ClientDetails
	Service    Ref
	Instructor Ref
	Schedule   Ref
	Date       string
	Time       string
	StartTime  string
	EndTime    string
	Timezone   string
	Status     Status
}

func (b Booking) Key() string {
	return b.ID
}

// TimeLabel is the single time for service bookings and the start-end range for classes.
func (b Booking) TimeLabel() string {
	if b.Kind == KindClass {
		if b.StartTime == "" && b.EndTime == "" {
			return b.Time
		}
		return strings.TrimSpace(fmt.Sprintf("%s - %s", b.StartTime, b.EndTime))
	}
	return b.Time
}

func (b Booking) ServiceName() string {
	return b.Service.DisplayName("No Service")
}

type serviceBookingWire struct {
	ID          string `json:"_id,omitempty"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      Status `json:"status,omitempty"`
	Service     Ref    `json:"service"`
}

type clientDetailsWire struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SMSReminder bool   `json:"smsReminder"`
}

type scheduleWire struct {
	ID         string `json:"_id,omitempty"`
	Date       string `json:"date,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	Service    *Ref   `json:"service,omitempty"`
	Instructor *Ref   `json:"instructor,omitempty"`
}

func (s *scheduleWire) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = scheduleWire{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*s = scheduleWire{ID: id}
		return nil
	}
	type alias scheduleWire
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode schedule: %w", err)
	}
	*s = scheduleWire(a)
	return nil
}

type classBookingWire struct {
	ID            string            `json:"_id,omitempty"`
	ClientDetails clientDetailsWire `json:"clientDetails"`
	Schedule      scheduleWire      `json:"schedule"`
	Status        Status            `json:"status,omitempty"`
}

// DecodeServiceBooking decodes the flat /api/bookings shape.
func DecodeServiceBooking(raw json.RawMessage) (Booking, error) {
	var w serviceBookingWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Booking{}, fmt.Errorf("decode booking: %w", err)
	}
	return Booking{
		ID:   w.ID,
		Kind: KindService,
		Client: ClientDetails{
			Name:  w.ClientName,
			Email: w.ClientEmail,
			Phone: w.ClientPhone,
		},
		Service: w.Service,
		Date:    NormalizeDate(w.Date),
		Time:    w.Time,
		Status:  w.Status,
	}, nil
}

// DecodeClassBooking decodes the nested /api/book-class shape.
func DecodeClassBooking(raw json.RawMessage) (Booking, error) {
	var w classBookingWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Booking{}, fmt.Errorf("decode class booking: %w", err)
	}
	b := Booking{
		ID:   w.ID,
		Kind: KindClass,
		Client: ClientDetails{
			Name:        w.ClientDetails.Name,
			Email:       w.ClientDetails.Email,
			Phone:       w.ClientDetails.Phone,
			SMSReminder: w.ClientDetails.SMSReminder,
		},
		Schedule:  Ref{ID: w.Schedule.ID},
		Date:      NormalizeDate(w.Schedule.Date),
		StartTime: w.Schedule.StartTime,
		EndTime:   w.Schedule.EndTime,
		Timezone:  w.Schedule.Timezone,
		Status:    w.Status,
	}
	if w.Schedule.Service != nil {
		b.Service = *w.Schedule.Service
	}
	if w.Schedule.Instructor != nil {
		b.Instructor = *w.Schedule.Instructor
	}
	return b, nil
}

// EncodeBooking produces the wire body for the booking's own variant.
func EncodeBooking(b Booking) (any, error) {
	switch b.Kind {
	case KindService, "":
		return serviceBookingWire{
			ClientName:  b.Client.Name,
			ClientEmail: b.Client.Email,
			ClientPhone: b.Client.Phone,
			Date:        b.Date,
			Time:        b.Time,
			Status:      b.Status,
			Service:     b.Service,
		}, nil
	case KindClass:
		w := classBookingWire{
			ClientDetails: clientDetailsWire{
				Name:        b.Client.Name,
				Email:       b.Client.Email,
				Phone:       b.Client.Phone,
				SMSReminder: b.Client.SMSReminder,
			},
			Schedule: scheduleWire{
				ID:        b.Schedule.ID,
				Date:      b.Date,
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
				Timezone:  b.Timezone,
			},
			Status: b.Status,
		}
		if !b.Service.IsZero() {
			svc := b.Service
			w.Schedule.Service = &svc
		}
		if !b.Instructor.IsZero() {
			ins := b.Instructor
			w.Schedule.Instructor = &ins
		}
		return w, nil
	}
	return nil, fmt.Errorf("unknown booking kind: %q", b.Kind)
}
