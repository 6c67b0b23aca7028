package dashboards

import (
	"context"
	"fmt"
	"strings"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/resource"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/projection"
	"github.com/codr1/yogadesk/internal/studioapi"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

var (
	experienceLevels = []string{"Beginner", "Intermediate", "Advanced", "Expert"}
	weekdays         = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	slotTimezones    = []string{"IST", "BST"}
)

// Multipart writes send list fields as JSON array text.
func serviceCodec() studioapi.Codec[models.Service] {
	codec := studioapi.JSONCodec[models.Service]()
	codec.Form = func(s models.Service) map[string]string {
		return map[string]string{
			"service_name":   s.Name,
			"description":    s.Description,
			"what_to_expect": s.WhatToExpect.Encoded(),
			"benefits":       s.Benefits.Encoded(),
			"suitable_for":   s.SuitableFor.Encoded(),
		}
	}
	return codec
}

func instructorCodec() studioapi.Codec[models.Instructor] {
	codec := studioapi.JSONCodec[models.Instructor]()
	codec.Form = func(i models.Instructor) map[string]string {
		return map[string]string{
			"name":            i.Name,
			"bio":             i.Bio,
			"experienceLevel": i.ExperienceLevel,
			"specialties":     i.Specialties.Encoded(),
			"contactEmail":    i.ContactEmail,
			"contactPhone":    i.ContactPhone,
		}
	}
	return codec
}

func uploaded(in resource.Input, field string) []studioapi.File {
	if f, ok := in.File(field); ok {
		return []studioapi.File{f}
	}
	return nil
}

func (r *Registry) serviceDefinition() resource.Definition[models.Service] {
	name := func(s models.Service) string { return s.Name }
	description := func(s models.Service) string { return s.Description }
	return resource.Definition[models.Service]{
		Key:      KeyServices,
		Slug:     "services",
		Title:    "Services",
		Singular: "Service",
		Entity:   "services",
		Schema: projection.Schema[models.Service]{
			Fields: []projection.Field[models.Service]{
				{Name: "name", Label: "Service", Get: name},
				{Name: "description", Label: "Description", Get: description},
			},
			Search:      []string{"name", "description"},
			DefaultSort: "name",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.Service]{
			{Header: "Image", Value: func(s models.Service) string { return r.deps.Client.ResolveAsset(s.Image) }, Image: true, TableOnly: true},
			{Header: "Service", Field: "name", Value: name},
			{Header: "Description", Value: func(s models.Service) string { return truncate(s.Description, 120) }},
			{Header: "What to Expect", Value: func(s models.Service) string { return s.WhatToExpect.Join() }},
			{Header: "Benefits", Value: func(s models.Service) string { return s.Benefits.Join() }},
			{Header: "Suitable For", Value: func(s models.Service) string { return s.SuitableFor.Join() }},
		},
		SearchLabel: "Search services",
		CanCreate:   true,
		CanEdit:     true,
		FileFields:  []string{"image"},
		Fields: func(_ context.Context, s models.Service, errs apiutil.FieldErrors) []resourcetempl.FormField {
			expect := input("textarea", "what_to_expect", "What to Expect", listText(s.WhatToExpect), false, errs)
			expect.Help = "One item per line."
			return []resourcetempl.FormField{
				input("text", "service_name", "Service Name", s.Name, true, errs),
				input("textarea", "description", "Description", s.Description, true, errs),
				fileField("image", "Image", r.deps.Client.ResolveAsset(s.Image), errs),
				expect,
				input("textarea", "benefits", "Benefits", listText(s.Benefits), false, errs),
				input("textarea", "suitable_for", "Suitable For", listText(s.SuitableFor), false, errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, s models.Service) (models.Service, []studioapi.File, error) {
			f := in.Form
			s.Name = f.Required("service_name")
			s.Description = f.Required("description")
			s.WhatToExpect = listInput(f.Optional("what_to_expect"))
			s.Benefits = listInput(f.Optional("benefits"))
			s.SuitableFor = listInput(f.Optional("suitable_for"))
			return s, uploaded(in, "image"), f.Err()
		},
		Describe: func(s models.Service) string { return s.Name },
	}
}

func (r *Registry) instructorDefinition() resource.Definition[models.Instructor] {
	name := func(i models.Instructor) string { return i.Name }
	level := func(i models.Instructor) string { return i.ExperienceLevel }
	specialties := func(i models.Instructor) string { return i.Specialties.Join() }
	return resource.Definition[models.Instructor]{
		Key:      KeyInstructors,
		Slug:     "instructors",
		Title:    "Instructors",
		Singular: "Instructor",
		Entity:   "instructors",
		Schema: projection.Schema[models.Instructor]{
			Fields: []projection.Field[models.Instructor]{
				{Name: "name", Label: "Name", Get: name},
				{Name: "level", Label: "Experience", Get: level},
				{Name: "specialties", Label: "Specialties", Get: specialties},
				{Name: "email", Label: "Email", Get: func(i models.Instructor) string { return i.ContactEmail }},
			},
			Search:      []string{"name", "specialties", "email"},
			Filter:      "level",
			DefaultSort: "name",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.Instructor]{
			{Header: "Photo", Value: func(i models.Instructor) string { return r.deps.Client.ResolveAsset(i.Photo) }, Image: true, TableOnly: true},
			{Header: "Name", Field: "name", Value: name},
			{Header: "Experience", Field: "level", Value: level},
			{Header: "Specialties", Value: specialties},
			{Header: "Email", Field: "email", Value: func(i models.Instructor) string { return i.ContactEmail }},
			{Header: "Phone", Value: func(i models.Instructor) string { return i.ContactPhone }},
		},
		FilterLabel: "Experience",
		Filters: append([]resourcetempl.Option{{Value: projection.FilterAll, Label: "All levels"}},
			choices("", experienceLevels...)...),
		SearchLabel: "Search instructors",
		CanCreate:   true,
		CanEdit:     true,
		FileFields:  []string{"photo"},
		Fields: func(_ context.Context, i models.Instructor, errs apiutil.FieldErrors) []resourcetempl.FormField {
			specialtiesField := input("textarea", "specialties", "Specialties", listText(i.Specialties), false, errs)
			specialtiesField.Help = "One specialty per line."
			return []resourcetempl.FormField{
				input("text", "name", "Name", i.Name, true, errs),
				input("textarea", "bio", "Bio", i.Bio, false, errs),
				selectField("experienceLevel", "Experience Level", choices(i.ExperienceLevel, experienceLevels...), true, errs),
				specialtiesField,
				input("email", "contactEmail", "Contact Email", i.ContactEmail, true, errs),
				input("tel", "contactPhone", "Contact Phone", i.ContactPhone, false, errs),
				fileField("photo", "Photo", r.deps.Client.ResolveAsset(i.Photo), errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, i models.Instructor) (models.Instructor, []studioapi.File, error) {
			f := in.Form
			i.Name = f.Required("name")
			i.Bio = f.Optional("bio")
			i.ExperienceLevel = f.Required("experienceLevel")
			i.Specialties = listInput(f.Optional("specialties"))
			i.ContactEmail = f.Email("contactEmail", true)
			i.ContactPhone = f.Phone("contactPhone", false)
			return i, uploaded(in, "photo"), f.Err()
		},
		Describe: func(i models.Instructor) string { return i.Name },
	}
}

func (r *Registry) scheduleDefinition() resource.Definition[models.Schedule] {
	date := func(s models.Schedule) string { return displayDate(s.Date) }
	day := func(s models.Schedule) string { return s.Day }
	timeRange := func(s models.Schedule) string {
		return strings.TrimSpace(fmt.Sprintf("%s - %s %s", s.StartTime, s.EndTime, s.Timezone))
	}
	service := func(s models.Schedule) string { return r.lookup.Name(s.Service) }
	instructor := func(s models.Schedule) string { return r.instructorName(s.Instructor) }
	return resource.Definition[models.Schedule]{
		Key:      KeySchedules,
		Slug:     "schedules",
		Title:    "Schedule",
		Singular: "Schedule",
		Entity:   "schedules",
		Schema: projection.Schema[models.Schedule]{
			Fields: []projection.Field[models.Schedule]{
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: date},
				{Name: "day", Label: "Day", Get: day},
				{Name: "start", Label: "Time", Get: func(s models.Schedule) string { return s.StartTime }},
				{Name: "service", Label: "Service", Get: service},
				{Name: "instructor", Label: "Instructor", Get: instructor},
			},
			Search:      []string{"day", "service", "instructor"},
			Filter:      "day",
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.Schedule]{
			{Header: "Date", Field: "date", Value: date},
			{Header: "Day", Field: "day", Value: day},
			{Header: "Time", Field: "start", Value: timeRange},
			{Header: "Service", Field: "service", Value: service},
			{Header: "Instructor", Field: "instructor", Value: instructor},
		},
		FilterLabel: "Day",
		Filters: append([]resourcetempl.Option{{Value: projection.FilterAll, Label: "Every day"}},
			choices("", weekdays...)...),
		Windows:     true,
		SearchLabel: "Search by day, service or instructor",
		CanCreate:   true,
		CanEdit:     true,
		Fields: func(ctx context.Context, s models.Schedule, errs apiutil.FieldErrors) []resourcetempl.FormField {
			services := options(ctx, r.services, func(svc models.Service) string { return svc.Name }, s.Service.ID)
			instructors := options(ctx, r.instructors, func(i models.Instructor) string { return i.Name }, s.Instructor.ID)
			timezone := s.Timezone
			if timezone == "" {
				timezone = "UTC"
			}
			return []resourcetempl.FormField{
				input("date", "date", "Date", displayDate(s.Date), false, errs),
				selectField("day", "Day", choices(s.Day, weekdays...), true, errs),
				input("time", "start_time", "Start Time", s.StartTime, true, errs),
				input("time", "end_time", "End Time", s.EndTime, true, errs),
				input("text", "timezone", "Timezone", timezone, true, errs),
				selectField("service", "Service", services, true, errs),
				selectField("instructor", "Instructor", instructors, true, errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, s models.Schedule) (models.Schedule, []studioapi.File, error) {
			f := in.Form
			s.Date = f.Date("date", false)
			s.Day = f.Required("day")
			s.StartTime = f.Time("start_time", true)
			s.EndTime = f.Time("end_time", true)
			s.Timezone = f.Required("timezone")
			s.Service = models.Ref{ID: f.Required("service")}
			s.Instructor = models.Ref{ID: f.Required("instructor")}
			if s.StartTime != "" && s.EndTime != "" && s.EndTime <= s.StartTime {
				return s, nil, append(apiutil.FieldErrors{{Field: "end_time", Reason: "must be after the start time"}}, fieldErrors(f.Err())...)
			}
			return s, nil, f.Err()
		},
		Describe: func(s models.Schedule) string {
			return fmt.Sprintf("the %s %s class", s.Day, s.StartTime)
		},
	}
}

// TimeSlot dashboard. Date and timezone are backend filters; "ALL" sends neither.
func (r *Registry) timeSlotDefinition() resource.Definition[models.TimeSlot] {
	date := func(t models.TimeSlot) string { return displayDate(t.Date) }
	slotTime := func(t models.TimeSlot) string { return t.Time }
	timezone := func(t models.TimeSlot) string { return t.Timezone }
	availability := func(t models.TimeSlot) string { return t.AvailabilityLabel() }

	timezones := []resourcetempl.Option{{Value: resource.AllValue, Label: "All Timezones"}}
	timezones = append(timezones, choices("", slotTimezones...)...)

	return resource.Definition[models.TimeSlot]{
		Key:      KeyTimeSlots,
		Slug:     "timeslots",
		Title:    "Time Slots",
		Singular: "Time slot",
		Entity:   "timeslots",
		Schema: projection.Schema[models.TimeSlot]{
			Fields: []projection.Field[models.TimeSlot]{
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: date},
				{Name: "time", Label: "Time", Get: slotTime},
				{Name: "timezone", Label: "Timezone", Get: timezone},
				{Name: "availability", Label: "Availability", Get: availability},
			},
			Search:      []string{"time", "timezone"},
			Filter:      "availability",
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.TimeSlot]{
			{Header: "Date", Field: "date", Value: date},
			{Header: "Time", Field: "time", Value: slotTime},
			{Header: "Timezone", Field: "timezone", Value: timezone},
			{Header: "Availability", Field: "availability", Value: availability},
		},
		FilterLabel: "Availability",
		Filters: []resourcetempl.Option{
			{Value: projection.FilterAll, Label: "All"},
			{Value: "Available", Label: "Available"},
			{Value: "Unavailable", Label: "Unavailable"},
		},
		Backend: []resource.BackendParam{
			{Name: "date", Label: "Date", Type: "date"},
			{Name: "timezone", Label: "Timezone", Options: timezones, Default: func() string { return resource.AllValue }},
		},
		CanCreate: true,
		CanEdit:   true,
		Fields: func(_ context.Context, t models.TimeSlot, errs apiutil.FieldErrors) []resourcetempl.FormField {
			available := t.IsAvailable
			zone := t.Timezone
			if t.ID == "" && t.Date == "" && t.Time == "" {
				available = true
				zone = slotTimezones[0]
			}
			return []resourcetempl.FormField{
				input("date", "date", "Date", displayDate(t.Date), true, errs),
				input("time", "time", "Time", t.Time, true, errs),
				selectField("timezone", "Timezone", choices(zone, slotTimezones...), true, errs),
				checkbox("isAvailable", "Available", available),
			}
		},
		Parse: func(_ context.Context, in resource.Input, t models.TimeSlot) (models.TimeSlot, []studioapi.File, error) {
			f := in.Form
			t.Date = f.Date("date", true)
			t.Time = f.Time("time", true)
			t.Timezone = f.Required("timezone")
			t.IsAvailable = f.Bool("isAvailable")
			return t, nil, f.Err()
		},
		Toggle: &resource.Toggle[models.TimeSlot]{
			Label: func(t models.TimeSlot) string {
				if t.IsAvailable {
					return "Mark unavailable"
				}
				return "Mark available"
			},
			Fields: func(t models.TimeSlot) map[string]any {
				return map[string]any{"isAvailable": !t.IsAvailable}
			},
		},
		Describe: func(t models.TimeSlot) string {
			return fmt.Sprintf("the %s %s slot", displayDate(t.Date), t.Time)
		},
	}
}

func (r *Registry) instructorName(ref models.Ref) string {
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	if ref.ID == "" {
		return "Unassigned"
	}
	if i, ok := r.instructors.Find(ref.ID); ok {
		return i.Name
	}
	return "Unknown Instructor"
}

// fieldErrors unwraps the FieldErrors returned by FormReader.Err.
func fieldErrors(err error) apiutil.FieldErrors {
	if errs, ok := err.(apiutil.FieldErrors); ok {
		return errs
	}
	return nil
}
