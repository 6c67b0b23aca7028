package dashboards

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/resource"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/projection"
	"github.com/codr1/yogadesk/internal/studioapi"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

var postImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

func eventCodec() studioapi.Codec[models.Event] {
	codec := studioapi.JSONCodec[models.Event]()
	codec.Form = func(e models.Event) map[string]string {
		return map[string]string{
			"title":       e.Title,
			"description": e.Description,
			"date":        e.Date,
			"time":        e.Time,
			"location":    e.Location,
		}
	}
	return codec
}

func (r *Registry) eventDefinition() resource.Definition[models.Event] {
	title := func(e models.Event) string { return e.Title }
	date := func(e models.Event) string { return displayDate(e.Date) }
	location := func(e models.Event) string { return e.Location }
	return resource.Definition[models.Event]{
		Key:      KeyEvents,
		Slug:     "events",
		Title:    "Events",
		Singular: "Event",
		Entity:   "events",
		Schema: projection.Schema[models.Event]{
			Fields: []projection.Field[models.Event]{
				{Name: "title", Label: "Title", Get: title},
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: date},
				{Name: "time", Label: "Time", Get: func(e models.Event) string { return e.Time }},
				{Name: "location", Label: "Location", Get: location},
				{Name: "registrations", Label: "Registrations", Kind: projection.KindNumber, Get: func(e models.Event) string {
					return fmt.Sprint(e.Registrations)
				}},
			},
			Search:      []string{"title", "location"},
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.Event]{
			{Header: "Image", Value: func(e models.Event) string { return r.deps.Client.ResolveAsset(e.Image) }, Image: true, TableOnly: true},
			{Header: "Title", Field: "title", Value: title},
			{Header: "Description", Value: func(e models.Event) string { return truncate(e.Description, 120) }},
			{Header: "Date", Field: "date", Value: date},
			{Header: "Time", Field: "time", Value: func(e models.Event) string { return e.Time }},
			{Header: "Location", Field: "location", Value: location},
		},
		Backend: []resource.BackendParam{
			{
				Name:    "view",
				Label:   "Show",
				Options: []resourcetempl.Option{{Value: "upcoming", Label: "Upcoming"}, {Value: "past", Label: "Past"}},
				Default: func() string { return "upcoming" },
			},
		},
		SearchLabel: "Search by title or location",
		CanCreate:   true,
		CanEdit:     true,
		FileFields:  []string{"image"},
		Fields: func(_ context.Context, e models.Event, errs apiutil.FieldErrors) []resourcetempl.FormField {
			return []resourcetempl.FormField{
				input("text", "title", "Title", e.Title, true, errs),
				input("textarea", "description", "Description", e.Description, true, errs),
				input("date", "date", "Date", displayDate(e.Date), true, errs),
				input("time", "time", "Time", e.Time, true, errs),
				input("text", "location", "Location", e.Location, true, errs),
				fileField("image", "Image", r.deps.Client.ResolveAsset(e.Image), errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, e models.Event) (models.Event, []studioapi.File, error) {
			f := in.Form
			e.Title = f.Required("title")
			e.Description = f.Required("description")
			e.Date = f.Date("date", true)
			e.Time = f.Time("time", true)
			e.Location = f.Required("location")
			return e, uploaded(in, "image"), f.Err()
		},
		Describe: func(e models.Event) string { return e.Title },
	}
}

func (r *Registry) registrationDefinition() resource.Definition[models.Registration] {
	name := func(g models.Registration) string { return g.Name }
	event := func(g models.Registration) string {
		if g.Title != "" {
			return g.Title
		}
		return g.Event.DisplayName("Unknown Event")
	}
	date := func(g models.Registration) string { return displayDate(g.Date) }
	when := func(g models.Registration) string {
		return strings.TrimSpace(displayDate(g.Date) + " " + g.Time)
	}
	contact := func(g models.Registration) string {
		if g.Phone == "" {
			return g.Email
		}
		return g.Email + " / " + g.Phone
	}
	return resource.Definition[models.Registration]{
		Key:      KeyRegistrations,
		Slug:     "registrations",
		Title:    "Registrations",
		Singular: "Registration",
		Entity:   "registrations",
		Schema: projection.Schema[models.Registration]{
			Fields: []projection.Field[models.Registration]{
				{Name: "name", Label: "Name", Get: name},
				{Name: "email", Label: "Email", Get: func(g models.Registration) string { return g.Email }},
				{Name: "title", Label: "Event", Get: event},
				{Name: "date", Label: "Date", Kind: projection.KindDate, Get: date},
				{Name: "location", Label: "Location", Get: func(g models.Registration) string { return g.Location }},
			},
			Search:      []string{"name", "email", "title"},
			DateField:   "date",
			DefaultSort: "date",
			DefaultDir:  projection.Desc,
		},
		Columns: []resource.Column[models.Registration]{
			{Header: "Name", Field: "name", Value: name},
			{Header: "Event", Field: "title", Value: event},
			{Header: "Date & Time", Field: "date", Value: when},
			{Header: "Contact", Value: contact},
			{Header: "Location", Field: "location", Value: func(g models.Registration) string { return g.Location }},
		},
		Windows:     true,
		SearchLabel: "Search by name, email or event",
		CanCreate:   true,
		CanEdit:     true,
		Fields: func(ctx context.Context, g models.Registration, errs apiutil.FieldErrors) []resourcetempl.FormField {
			events := options(ctx, r.events, func(e models.Event) string {
				return strings.TrimSpace(e.Title + " (" + displayDate(e.Date) + ")")
			}, g.Event.ID)
			eventField := selectField("event", "Event", events, true, errs)
			eventField.Help = "Title, date, time and location default to the event's."
			return []resourcetempl.FormField{
				input("text", "name", "Name", g.Name, true, errs),
				input("email", "email", "Email", g.Email, true, errs),
				input("tel", "phone", "Phone", g.Phone, false, errs),
				eventField,
				input("text", "title", "Title", g.Title, false, errs),
				input("date", "date", "Date", displayDate(g.Date), false, errs),
				input("time", "time", "Time", g.Time, false, errs),
				input("text", "location", "Location", g.Location, false, errs),
			}
		},
		Parse: func(_ context.Context, in resource.Input, g models.Registration) (models.Registration, []studioapi.File, error) {
			f := in.Form
			g.Name = f.Required("name")
			g.Email = f.Email("email", true)
			g.Phone = f.Phone("phone", false)
			g.Title = f.Optional("title")
			g.Date = f.Date("date", false)
			g.Time = f.Time("time", false)
			g.Location = f.Optional("location")
			if id := f.Required("event"); id != g.Event.ID {
				g.Event = models.Ref{ID: id}
			}
			if e, ok := r.events.Find(g.Event.ID); ok {
				g = withEventDetails(g, e)
			}
			return g, nil, f.Err()
		},
		Describe: func(g models.Registration) string {
			return "the registration for " + g.Name
		},
	}
}

// withEventDetails fills the blank event fields of g from e.
func withEventDetails(g models.Registration, e models.Event) models.Registration {
	if g.Title == "" {
		g.Title = e.Title
	}
	if g.Date == "" {
		g.Date = models.NormalizeDate(e.Date)
	}
	if g.Time == "" {
		g.Time = e.Time
	}
	if g.Location == "" {
		g.Location = e.Location
	}
	if g.Event.Name == "" {
		g.Event.Name = e.Title
	}
	return g
}

// Post images go through /api/upload first; the post stores the returned URL.
func (r *Registry) postDefinition() resource.Definition[models.Post] {
	title := func(p models.Post) string { return p.Title }
	author := func(p models.Post) string { return p.Author }
	posted := func(p models.Post) string { return displayDate(p.DatePosted) }
	return resource.Definition[models.Post]{
		Key:      KeyPosts,
		Slug:     "posts",
		Title:    "Posts",
		Singular: "Post",
		Entity:   "posts",
		Schema: projection.Schema[models.Post]{
			Fields: []projection.Field[models.Post]{
				{Name: "title", Label: "Title", Get: title},
				{Name: "author", Label: "Author", Get: author},
				{Name: "posted", Label: "Date Posted", Kind: projection.KindDate, Get: posted},
				{Name: "content", Label: "Content", Get: func(p models.Post) string { return p.Content }},
			},
			Search:      []string{"title", "author", "content"},
			DateField:   "posted",
			DefaultSort: "posted",
			DefaultDir:  projection.Desc,
		},
		Columns: []resource.Column[models.Post]{
			{Header: "Image", Value: func(p models.Post) string { return r.deps.Client.ResolveAsset(p.ImageURL) }, Image: true, TableOnly: true},
			{Header: "Title", Field: "title", Value: title},
			{Header: "Author", Field: "author", Value: author},
			{Header: "Date Posted", Field: "posted", Value: posted},
			{Header: "Content", Value: func(p models.Post) string { return truncate(p.Content, 100) }},
		},
		SearchLabel: "Search posts",
		CanCreate:   true,
		CanEdit:     true,
		FileFields:  []string{"image"},
		Fields: func(_ context.Context, p models.Post, errs apiutil.FieldErrors) []resourcetempl.FormField {
			image := fileField("image", "Image", r.deps.Client.ResolveAsset(p.ImageURL), errs)
			if image.Help == "" {
				image.Help = "JPEG, PNG or GIF."
			}
			return []resourcetempl.FormField{
				input("text", "title", "Title", p.Title, true, errs),
				input("text", "author", "Author", p.Author, true, errs),
				input("textarea", "content", "Content", p.Content, true, errs),
				image,
			}
		},
		Parse: func(ctx context.Context, in resource.Input, p models.Post) (models.Post, []studioapi.File, error) {
			f := in.Form
			p.Title = f.Required("title")
			p.Author = f.Required("author")
			p.Content = f.Required("content")
			file, hasFile := in.File("image")
			if hasFile && !postImageTypes[imageType(file)] {
				errs := append(fieldErrors(f.Err()), apiutil.FieldError{Field: "image", Reason: "must be a JPEG, PNG or GIF image"})
				return p, nil, errs
			}
			if err := f.Err(); err != nil {
				return p, nil, err
			}
			if hasFile {
				url, err := r.deps.Client.Upload(ctx, file)
				if err != nil {
					return p, nil, fmt.Errorf("upload image: %w", err)
				}
				p.ImageURL = url
			}
			return p, nil, nil
		},
		Describe: func(p models.Post) string { return p.Title },
	}
}

// imageType trusts the declared type when present, otherwise sniffs the bytes.
func imageType(f studioapi.File) string {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(f.Data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// Contact submissions are read-only; only delete is offered.
func (r *Registry) contactDefinition() resource.Definition[models.Contact] {
	name := func(c models.Contact) string { return c.Name }
	email := func(c models.Contact) string { return c.Email }
	kind := func(c models.Contact) string {
		flags := c.InterestFlags()
		labels := make([]string, len(flags))
		for i, flag := range flags {
			labels[i] = models.InterestLabel(flag)
		}
		return strings.Join(labels, ", ")
	}
	received := func(c models.Contact) string { return displayDate(c.CreatedAt) }

	filters := []resourcetempl.Option{{Value: projection.FilterAll, Label: "All types"}}
	for _, flag := range models.ContactInterests() {
		filters = append(filters, resourcetempl.Option{Value: flag, Label: models.InterestLabel(flag)})
	}

	return resource.Definition[models.Contact]{
		Key:      KeyContacts,
		Slug:     "contacts",
		Title:    "Contact Requests",
		Singular: "Contact request",
		Entity:   "contacts",
		Schema: projection.Schema[models.Contact]{
			Fields: []projection.Field[models.Contact]{
				{Name: "name", Label: "Name", Get: name},
				{Name: "email", Label: "Email", Get: email},
				{Name: "phone", Label: "Phone", Get: func(c models.Contact) string { return c.Phone }},
				{Name: "type", Label: "Type", Get: kind},
				{Name: "message", Label: "Message", Get: func(c models.Contact) string { return c.Message }},
				{Name: "createdAt", Label: "Received", Kind: projection.KindDate, Get: func(c models.Contact) string { return c.CreatedAt }},
			},
			Search: []string{"name", "email", "message"},
			FilterMatch: func(c models.Contact, flag string) bool {
				return c.HasInterest(flag)
			},
			DateField:   "createdAt",
			DefaultSort: "createdAt",
			DefaultDir:  projection.Desc,
		},
		Columns: []resource.Column[models.Contact]{
			{Header: "Name", Field: "name", Value: name},
			{Header: "Email", Field: "email", Value: email},
			{Header: "Phone", Value: func(c models.Contact) string { return c.Phone }},
			{Header: "Type", Value: kind},
			{Header: "Message", Value: func(c models.Contact) string { return c.Message }},
			{Header: "Received", Field: "createdAt", Value: received},
		},
		FilterLabel: "Type",
		Filters:     filters,
		SearchLabel: "Search by name, email or message",
		Describe: func(c models.Contact) string {
			return "the contact request from " + c.Name
		},
	}
}

// Users: website accounts from /api/users, listed and exported only.
func (r *Registry) userDefinition() resource.Definition[models.User] {
	name := func(u models.User) string { return u.FullName() }
	email := func(u models.User) string { return u.Email }
	return resource.Definition[models.User]{
		Key:      KeyUsers,
		Slug:     "users",
		Title:    "Users",
		Singular: "User",
		Entity:   "users",
		Schema: projection.Schema[models.User]{
			Fields: []projection.Field[models.User]{
				{Name: "name", Label: "Name", Get: name},
				{Name: "email", Label: "Email", Get: email},
			},
			Search:      []string{"name", "email"},
			DefaultSort: "name",
			DefaultDir:  projection.Asc,
		},
		Columns: []resource.Column[models.User]{
			{Header: "Name", Field: "name", Value: name},
			{Header: "Email", Field: "email", Value: email},
		},
		SearchLabel: "Search by name or email",
		ReadOnly:    true,
		Describe: func(u models.User) string {
			return "the account of " + u.FullName()
		},
	}
}
