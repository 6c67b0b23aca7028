// Package dashboards declares the admin dashboards: one definition per
// backend collection, wired to a controller and the generic resource
// handler.
package dashboards

import (
	"context"
	"net/http"
	"time"

	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/api/resource"
	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/email"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/studioapi"
)

// Menu keys. They match the keys persisted by the navigation shell.
const (
	KeyOverview      = "dashboard"
	KeyServices      = "service"
	KeyInstructors   = "yoga-instructors"
	KeySchedules     = "yoga-schedule"
	KeyTimeSlots     = "Time-Slot"
	KeyClassBookings = "CreateDashboard"
	KeyBookings      = "BookingDashboard"
	KeyEvents        = "Events"
	KeyRegistrations = "Registration"
	KeyPosts         = "Post"
	KeyContacts      = "Contact"
	KeyUsers         = "users"
	KeySettings      = "settings"
)

// Page is a mounted dashboard.
type Page interface {
	Key() string
	Title() string
	Path() string
	Entity() string
	Register(mux *http.ServeMux)
	HandlePage(w http.ResponseWriter, r *http.Request)
}

// Deps are the collaborators shared by every dashboard.
type Deps struct {
	Client   *studioapi.Client
	Journal  dashboard.Journal
	Policy   models.TransitionPolicy
	Notifier *email.Notifier
	Shell    resource.Shell
	Location *time.Location
	Now      func() time.Time
}

// Registry holds the dashboards in menu order.
type Registry struct {
	deps  Deps
	pages []Page

	// Bookings and ClassBookings feed the overview.
	Bookings      *studioapi.Resource[models.Booking]
	ClassBookings *studioapi.Resource[models.Booking]

	services    *dashboard.Controller[models.Service]
	instructors *dashboard.Controller[models.Instructor]
	events      *dashboard.Controller[models.Event]
	lookup      *serviceLookup
}

func New(deps Deps) *Registry {
	if deps.Policy == nil {
		deps.Policy = models.PermissivePolicy
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := &Registry{deps: deps}

	r.Bookings = studioapi.NewResource(deps.Client, "/api/bookings", studioapi.Codec[models.Booking]{
		Decode: models.DecodeServiceBooking,
		Encode: models.EncodeBooking,
	})
	r.ClassBookings = studioapi.NewResource(deps.Client, "/api/book-class", studioapi.Codec[models.Booking]{
		Decode: models.DecodeClassBooking,
		Encode: models.EncodeBooking,
	}).WithSearch("/api/book-class/search")

	// Lookup sources are created first; the booking and schedule forms read them.
	r.services = mount(r, r.serviceDefinition(), studioapi.NewResource(deps.Client, "/api/services", serviceCodec()), dashboard.Options[models.Service]{})
	r.lookup = newServiceLookup(r.services)
	r.instructors = mount(r, r.instructorDefinition(), studioapi.NewResource(deps.Client, "/api/instructors", instructorCodec()), dashboard.Options[models.Instructor]{})
	mount(r, r.scheduleDefinition(), studioapi.NewResource(deps.Client, "/api/schedules", studioapi.JSONCodec[models.Schedule]()), dashboard.Options[models.Schedule]{})
	mount(r, r.timeSlotDefinition(), studioapi.NewResource(deps.Client, "/api/timeslots", studioapi.JSONCodec[models.TimeSlot]()), dashboard.Options[models.TimeSlot]{})
	mount(r, r.classBookingDefinition(), r.ClassBookings, r.bookingOptions())
	mount(r, r.bookingDefinition(), r.Bookings, r.bookingOptions())
	r.events = mount(r, r.eventDefinition(), studioapi.NewResource(deps.Client, "/api/events", eventCodec()), dashboard.Options[models.Event]{})
	mount(r, r.registrationDefinition(), studioapi.NewResource(deps.Client, "/api/registrations", studioapi.JSONCodec[models.Registration]()), dashboard.Options[models.Registration]{})
	mount(r, r.postDefinition(), studioapi.NewResource(deps.Client, "/api/posts", studioapi.JSONCodec[models.Post]()), dashboard.Options[models.Post]{})
	mount(r, r.contactDefinition(), studioapi.NewResource(deps.Client, "/api/submit", studioapi.JSONCodec[models.Contact]()), dashboard.Options[models.Contact]{})
	mount(r, r.userDefinition(), studioapi.NewResource(deps.Client, "/api/users", studioapi.JSONCodec[models.User]()), dashboard.Options[models.User]{})

	return r
}

func mount[T dashboard.Record](r *Registry, def resource.Definition[T], backend dashboard.Backend[T], opts dashboard.Options[T]) *dashboard.Controller[T] {
	opts.Journal = r.deps.Journal
	opts.Operator = authz.OperatorName
	opts.Now = r.deps.Now
	if opts.StatusOf != nil {
		opts.Policy = r.deps.Policy
	}
	ctrl := dashboard.NewController(def.Entity, backend, opts)
	r.pages = append(r.pages, resource.New(def, ctrl, resource.Options{
		Shell:    r.deps.Shell,
		Location: r.deps.Location,
		Now:      r.deps.Now,
	}))
	return ctrl
}

// Pages lists the dashboards in menu order.
func (r *Registry) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}

func (r *Registry) Page(key string) (Page, bool) {
	for _, p := range r.pages {
		if p.Key() == key {
			return p, true
		}
	}
	return nil, false
}

// Register mounts every dashboard on mux.
func (r *Registry) Register(mux *http.ServeMux) {
	for _, p := range r.pages {
		p.Register(mux)
	}
}

// ServiceName resolves a booking's service reference to a display name.
func (r *Registry) ServiceName(ref models.Ref) string {
	return r.lookup.Name(ref)
}

func (r *Registry) bookingOptions() dashboard.Options[models.Booking] {
	return dashboard.Options[models.Booking]{
		StatusOf: func(b models.Booking) models.Status { return b.Status },
		OnStatusChange: r.StatusChanged,
	}
}

// StatusChanged emails the client about an accepted booking status change.
func (r *Registry) StatusChanged(ctx context.Context, change dashboard.StatusChange[models.Booking]) {
	booking := change.Record
	booking.Service.Name = r.lookup.Name(booking.Service)
	r.deps.Notifier.NotifyStatusChange(ctx, booking, change.To)
}

