// internal/api/settings/handlers.go
package settings

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/api/htmx"
	"github.com/codr1/yogadesk/internal/db"
	settingstempl "github.com/codr1/yogadesk/internal/templates/components/settings"
)

const (
	settingsQueryTimeout = 5 * time.Second
	auditLimit           = 100
	basePath             = "/admin/settings"

	// Preference keys, stored per operator.
	SiteNameKey     = "site_name"
	ContactEmailKey = "contact_email"
)

// Store is the slice of *db.Queries the settings page needs.
type Store interface {
	GetPreference(ctx context.Context, username, key string) (string, bool, error)
	SetPreference(ctx context.Context, username, key, value string) error
	ListAuditEntries(ctx context.Context, entity string, limit int) ([]db.AuditEntry, error)
}

// Entity is a journal source offered in the activity filter.
type Entity struct {
	Name  string
	Title string
}

type Options struct {
	AppName  string
	Settings []settingstempl.Setting
	Entities []Entity
	Shell    func(r *http.Request, key, title string, content templ.Component) templ.Component
	Location *time.Location
}

// Handler serves the settings page. It satisfies the navigation page interface.
type Handler struct {
	store Store
	opts  Options
}

func New(store Store, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{store: store, opts: opts}
}

func (h *Handler) Key() string   { return "settings" }
func (h *Handler) Title() string { return "Settings" }
func (h *Handler) Path() string  { return basePath }

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+basePath, h.HandlePage)
	mux.HandleFunc("POST "+basePath, h.HandleSave)
	mux.HandleFunc("GET "+basePath+"/audit", h.HandleAudit)
}

// HandlePage renders GET /admin/settings.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), settingsQueryTimeout)
	defer cancel()

	data := h.pageData(ctx, r.URL.Query().Get("entity"))
	operator := authz.OperatorName(r.Context())
	data.SiteName = h.preference(ctx, operator, SiteNameKey, h.opts.AppName)
	data.ContactEmail = h.preference(ctx, operator, ContactEmailKey, "")
	h.render(w, r, data)
}

// HandleAudit returns the journal partial for GET /admin/settings/audit.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), settingsQueryTimeout)
	defer cancel()

	data := h.pageData(ctx, r.URL.Query().Get("entity"))
	apiutil.RenderHTMLComponent(r.Context(), w, settingstempl.Audit(data), nil, "Failed to render audit log", "Failed to render audit log")
}

// HandleSave stores the site name and contact email for POST /admin/settings.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), settingsQueryTimeout)
	defer cancel()

	form := apiutil.NewFormReader(r.PostForm)
	siteName := form.Required("siteName")
	email := form.Email("email", true)

	data := h.pageData(ctx, "")
	data.SiteName = siteName
	data.ContactEmail = email

	if err := form.Err(); err != nil {
		errs, _ := err.(apiutil.FieldErrors)
		data.SiteNameError = errs.For("siteName")
		data.EmailError = errs.For("email")
		if data.ContactEmail == "" {
			data.ContactEmail = strings.TrimSpace(r.PostForm.Get("email"))
		}
		status := http.StatusOK
		if !htmx.IsRequest(r) {
			status = http.StatusUnprocessableEntity
		}
		content := h.wrap(r, settingstempl.Page(data))
		apiutil.RenderHTMLComponentStatus(r.Context(), w, status, content, nil, "Failed to render settings", "Failed to render settings")
		return
	}

	operator := authz.OperatorName(r.Context())
	for key, value := range map[string]string{SiteNameKey: siteName, ContactEmailKey: email} {
		if err := h.store.SetPreference(ctx, operator, key, value); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to save setting")
			data.Error = "Failed to save settings."
			h.render(w, r, data)
			return
		}
	}

	if !htmx.IsRequest(r) {
		http.Redirect(w, r, basePath, http.StatusSeeOther)
		return
	}
	data.Notice = "Settings saved"
	apiutil.RenderHTMLComponent(r.Context(), w, settingstempl.Page(data), nil, "Failed to render settings", "Failed to render settings")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data settingstempl.PageData) {
	apiutil.RenderHTMLComponent(r.Context(), w, h.wrap(r, settingstempl.Page(data)), nil, "Failed to render settings", "Failed to render page")
}

// wrap adds the shell for full page loads only.
func (h *Handler) wrap(r *http.Request, content templ.Component) templ.Component {
	if h.opts.Shell == nil || htmx.IsRequest(r) {
		return content
	}
	return h.opts.Shell(r, h.Key(), h.Title(), content)
}

func (h *Handler) preference(ctx context.Context, operator, key, fallback string) string {
	value, ok, err := h.store.GetPreference(ctx, operator, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to load setting")
		return fallback
	}
	if !ok || value == "" {
		return fallback
	}
	return value
}

func (h *Handler) pageData(ctx context.Context, entity string) settingstempl.PageData {
	entity = strings.TrimSpace(entity)
	data := settingstempl.PageData{Settings: h.opts.Settings}
	data.Entities = append(data.Entities, settingstempl.EntityOption{Value: "", Label: "All dashboards", Selected: entity == ""})
	for _, e := range h.opts.Entities {
		data.Entities = append(data.Entities, settingstempl.EntityOption{Value: e.Name, Label: e.Title, Selected: e.Name == entity})
	}

	entries, err := h.store.ListAuditEntries(ctx, entity, auditLimit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to list audit entries")
		data.Error = "Failed to load activity."
		return data
	}
	for _, e := range entries {
		data.Audit = append(data.Audit, settingstempl.AuditRow{
			When:     e.CreatedAt.In(h.opts.Location).Format("2006-01-02 15:04"),
			Operator: e.Operator,
			Entity:   e.Entity,
			RecordID: e.RecordID,
			Action:   e.Action,
			Outcome:  e.Outcome,
			Detail:   e.Detail,
		})
	}
	return data
}
