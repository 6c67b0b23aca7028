package dashboards

import (
	"context"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/resource"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/projection"
	"github.com/codr1/yogadesk/internal/studioapi"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

func bookingStatus(b models.Booking) string {
	return string(b.Status.OrPending())
}

func clientName(b models.Booking) string  { return b.Client.Name }
func clientEmail(b models.Booking) string { return b.Client.Email }
func clientPhone(b models.Booking) string { return b.Client.Phone }
func bookingDate(b models.Booking) string { return displayDate(b.Date) }
func bookingTime(b models.Booking) string { return b.TimeLabel() }

// BookingDashboard: service bookings from /api/bookings.
func (r *Registry) bookingDefinition() resource.Definition[models.Booking] {
	service := func(b models.Booking) string { return r.lookup.Name(b.Service) }
	return resource.Definition[models.Booking]{
		Key:      KeyBookings,
		Slug:     "bookings",
		Title:    "Bookings",
		Singular: "Booking",
		Entity:   "bookings",
		Schema: projection.Schema[models.Booking]{
			Fields: []projection.Field[models.Booking]{
				{Name: "client", Label: "Client Name", Get: clientName},
				{Name: "email", Label: "Email", Get: clientEmail},
				{Name: "phone", Label: "Phone", Get: clientPhone},
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: bookingDate},
				{Name: "time", Label: "Time", Get: bookingTime},
				{Name: "status", Label: "Status", Get: bookingStatus},
				{Name: "service", Label: "Service", Get: service},
			},
			Search:      []string{"client", "email", "phone", "service"},
			Filter:      "status",
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Desc,
		},
		Columns: []resource.Column[models.Booking]{
			{Header: "Client Name", Field: "client", Value: clientName},
			{Header: "Email", Field: "email", Value: clientEmail},
			{Header: "Phone", Value: clientPhone},
			{Header: "Date", Field: "date", Value: bookingDate},
			{Header: "Time", Field: "time", Value: bookingTime},
			{Header: "Status", Field: "status", Value: bookingStatus, Status: true},
			{Header: "Service", Field: "service", Value: service},
		},
		FilterLabel: "Status",
		Filters:     statusFilters(),
		SearchLabel: "Search by client, email or service",
		CanEdit:     true,
		Fields: func(ctx context.Context, b models.Booking, errs apiutil.FieldErrors) []resourcetempl.FormField {
			services := options(ctx, r.services, func(s models.Service) string { return s.Name }, b.Service.ID)
			return []resourcetempl.FormField{
				input("text", "client_name", "Client Name", b.Client.Name, true, errs),
				input("email", "client_email", "Email", b.Client.Email, true, errs),
				input("tel", "client_phone", "Phone", b.Client.Phone, false, errs),
				input("date", "date", "Date", displayDate(b.Date), true, errs),
				input("time", "time", "Time", b.Time, true, errs),
				selectField("service", "Service", services, true, errs),
				statusField(r.deps.Policy, b.Status, errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, b models.Booking) (models.Booking, []studioapi.File, error) {
			f := in.Form
			b.Kind = models.KindService
			b.Client.Name = f.Required("client_name")
			b.Client.Email = f.Email("client_email", true)
			b.Client.Phone = f.Phone("client_phone", false)
			b.Date = f.Date("date", true)
			b.Time = f.Time("time", true)
			if id := f.Required("service"); id != b.Service.ID {
				b.Service = models.Ref{ID: id}
			}
			b.Status = statusInput(f, r.deps.Policy, b.Status)
			return b, nil, f.Err()
		},
		Describe: func(b models.Booking) string {
			return "the booking for " + b.Client.Name
		},
	}
}

// CreateDashboard: class bookings from /api/book-class.
func (r *Registry) classBookingDefinition() resource.Definition[models.Booking] {
	service := func(b models.Booking) string { return r.lookup.Name(b.Service) }
	instructor := func(b models.Booking) string { return b.Instructor.DisplayName("Unassigned") }
	return resource.Definition[models.Booking]{
		Key:      KeyClassBookings,
		Slug:     "class-bookings",
		Title:    "Class Bookings",
		Singular: "Class booking",
		Entity:   "class_bookings",
		Schema: projection.Schema[models.Booking]{
			Fields: []projection.Field[models.Booking]{
				{Name: "client", Label: "Client Name", Get: clientName},
				{Name: "email", Label: "Email", Get: clientEmail},
				{Name: "service", Label: "Service", Get: service},
				{Name: "instructor", Label: "Instructor", Get: instructor},
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: bookingDate},
				{Name: "time", Label: "Time", Get: bookingTime},
				{Name: "status", Label: "Status", Get: bookingStatus},
			},
			Search:      []string{"client", "email"},
			Filter:      "status",
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Desc,
		},
		Columns: []resource.Column[models.Booking]{
			{Header: "Client Name", Field: "client", Value: clientName},
			{Header: "Email", Field: "email", Value: clientEmail},
			{Header: "Phone", Value: clientPhone},
			{Header: "Service", Field: "service", Value: service},
			{Header: "Instructor", Field: "instructor", Value: instructor},
			{Header: "Date", Field: "date", Value: bookingDate},
			{Header: "Time", Field: "time", Value: bookingTime},
			{Header: "Status", Field: "status", Value: bookingStatus, Status: true},
		},
		FilterLabel:      "Status",
		Filters:          statusFilters(),
		Windows:          true,
		SearchLabel:      "Search by client name or email",
		RemoteSearch:     true,
		RemoteSearchName: "name",
		CanEdit:          true,
		Fields: func(_ context.Context, b models.Booking, errs apiutil.FieldErrors) []resourcetempl.FormField {
			return []resourcetempl.FormField{
				input("text", "client_name", "Client Name", b.Client.Name, true, errs),
				input("email", "client_email", "Email", b.Client.Email, true, errs),
				input("tel", "client_phone", "Phone", b.Client.Phone, false, errs),
				checkbox("sms_reminder", "SMS reminder", b.Client.SMSReminder),
				input("date", "date", "Date", displayDate(b.Date), true, errs),
				input("time", "start_time", "Start Time", b.StartTime, true, errs),
				input("time", "end_time", "End Time", b.EndTime, true, errs),
				statusField(r.deps.Policy, b.Status, errs),
			}
		},
		// Instructor, service and the schedule reference are kept as loaded.
		Parse: func(_ context.Context, in resource.Input, b models.Booking) (models.Booking, []studioapi.File, error) {
			f := in.Form
			b.Kind = models.KindClass
			b.Client.Name = f.Required("client_name")
			b.Client.Email = f.Email("client_email", true)
			b.Client.Phone = f.Phone("client_phone", false)
			b.Client.SMSReminder = f.Bool("sms_reminder")
			b.Date = f.Date("date", true)
			b.StartTime = f.Time("start_time", true)
			b.EndTime = f.Time("end_time", true)
			if b.StartTime != "" && b.EndTime != "" && b.EndTime <= b.StartTime {
				f.Fail("end_time", "must be after the start time")
			}
			b.Status = statusInput(f, r.deps.Policy, b.Status)
			return b, nil, f.Err()
		},
		Describe: func(b models.Booking) string {
			return "the class booking for " + b.Client.Name
		},
	}
}
