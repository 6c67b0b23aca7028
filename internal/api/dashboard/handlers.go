// internal/api/dashboard/handlers.go
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/htmx"
	"github.com/codr1/yogadesk/internal/api/resource"
	appdash "github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/scheduler"
	dashboardtempl "github.com/codr1/yogadesk/internal/templates/components/dashboard"
)

const (
	overviewTimeout = 20 * time.Second
	overviewKey     = "dashboard"
	overviewTitle   = "Dashboard"
	basePath        = "/admin/dashboard"
	actionBase      = basePath + "/bookings"

	// StreamPath serves overview snapshots as server-sent events.
	StreamPath = "/overview/stream"
	sseEvent   = "overview"
)

type Options struct {
	Shell       resource.Shell
	ServiceName func(models.Ref) string
	Location    *time.Location
}

// Handler serves the overview page, its status actions and the live stream.
type Handler struct {
	overview *appdash.Overview
	feed     *scheduler.Feed[appdash.OverviewSnapshot]
	opts     Options
}

func New(overview *appdash.Overview, feed *scheduler.Feed[appdash.OverviewSnapshot], opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{overview: overview, feed: feed, opts: opts}
}

// NewFeed polls the overview every interval while a stream is open.
func NewFeed(svc *scheduler.Service, overview *appdash.Overview, interval time.Duration) *scheduler.Feed[appdash.OverviewSnapshot] {
	return scheduler.NewFeed(svc, "overview_refresh", interval, func(ctx context.Context) appdash.OverviewSnapshot {
		snap, err := overview.Refresh(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Scheduled overview refresh failed")
		}
		return snap
	})
}

func (h *Handler) Key() string   { return overviewKey }
func (h *Handler) Title() string { return overviewTitle }
func (h *Handler) Path() string  { return basePath }

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+basePath, h.HandlePage)
	mux.HandleFunc("GET "+basePath+"/body", h.HandleBody)
	mux.HandleFunc("POST "+actionBase+"/{kind}/{id}/status", h.HandleStatus)
	mux.HandleFunc("GET "+StreamPath, h.HandleStream)
}

// HandlePage renders the overview for GET /admin/dashboard.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), overviewTimeout)
	defer cancel()

	// A failed refresh keeps the previous snapshot; its Err shows as a banner.
	snap, _ := h.overview.Refresh(ctx)
	content := dashboardtempl.Overview(dashboardtempl.PageData{
		StreamURL: StreamPath,
		Body:      h.body(snap, ""),
	})
	if h.opts.Shell != nil {
		content = h.opts.Shell(r, overviewKey, overviewTitle, content)
	}
	apiutil.RenderHTMLComponent(r.Context(), w, content, nil, "Failed to render overview page", "Failed to render page")
}

// HandleBody returns the overview partial for GET /admin/dashboard/body.
func (h *Handler) HandleBody(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), overviewTimeout)
	defer cancel()

	snap, _ := h.overview.Refresh(ctx)
	apiutil.RenderHTMLComponent(r.Context(), w, dashboardtempl.OverviewBody(h.body(snap, "")), nil, "Failed to render overview", "Failed to render overview")
}

// HandleStatus approves or declines a booking from the overview table.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), overviewTimeout)
	defer cancel()

	kind := models.BookingKind(r.PathValue("kind"))
	id := r.PathValue("id")

	status, err := models.ParseStatus(r.PostForm.Get("status"))
	if err != nil {
		data := h.body(h.overview.Snapshot(), "")
		data.Error = err.Error()
		h.respond(w, r, data)
		return
	}

	notice := fmt.Sprintf("Status set to %s", status.Label())
	if err := h.overview.SetStatus(ctx, kind, id, status); err != nil {
		logger.Warn().Err(err).Str("kind", string(kind)).Str("id", id).Str("status", string(status)).Msg("Failed to set booking status")
		notice = ""
	}
	snap := h.overview.Snapshot()
	if h.feed != nil {
		h.feed.Publish(snap)
	}
	h.respond(w, r, h.body(snap, notice))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data dashboardtempl.OverviewData) {
	if !htmx.IsRequest(r) {
		http.Redirect(w, r, basePath, http.StatusSeeOther)
		return
	}
	apiutil.RenderHTMLComponent(r.Context(), w, dashboardtempl.OverviewBody(data), nil, "Failed to render overview", "Failed to render overview")
}

// HandleStream pushes a fresh overview body every refresh interval. The
// subscription ends with the request, which stops polling once no stream
// is open.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok || h.feed == nil {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.feed.Subscribe()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to subscribe to overview feed")
		http.Error(w, "Failed to start stream", http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			if err := h.writeEvent(r.Context(), w, snap); err != nil {
				logger.Debug().Err(err).Msg("Overview stream closed")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) writeEvent(ctx context.Context, w http.ResponseWriter, snap appdash.OverviewSnapshot) error {
	var buf bytes.Buffer
	if err := dashboardtempl.OverviewBody(h.body(snap, "")).Render(ctx, &buf); err != nil {
		return fmt.Errorf("render overview event: %w", err)
	}
	var event strings.Builder
	event.WriteString("event: " + sseEvent + "\n")
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		event.WriteString("data: " + line + "\n")
	}
	event.WriteString("\n")
	_, err := w.Write([]byte(event.String()))
	return err
}

var statCards = []struct {
	label  string
	status models.Status
}{
	{"Pending", models.StatusPending},
	{"Approved", models.StatusApprove},
	{"Declined", models.StatusDecline},
	{"Completed", models.StatusComplete},
}

func (h *Handler) body(snap appdash.OverviewSnapshot, notice string) dashboardtempl.OverviewData {
	data := dashboardtempl.OverviewData{
		Error:      snap.Err,
		Notice:     notice,
		ActionBase: actionBase,
	}
	data.Cards = append(data.Cards, dashboardtempl.StatCard{Label: "Total Bookings", Count: snap.Stats.Total})
	for _, c := range statCards {
		data.Cards = append(data.Cards, dashboardtempl.StatCard{
			Label:  c.label,
			Count:  snap.Stats.Count(c.status),
			Status: string(c.status),
		})
	}

	policy := h.overview.Policy()
	for _, b := range snap.Bookings {
		row := h.row(b)
		for _, next := range models.NextStatuses(policy, b.Status) {
			if next == models.StatusApprove || next == models.StatusDecline {
				row.Actions = append(row.Actions, dashboardtempl.Action{Label: next.Label(), Value: string(next)})
			}
		}
		data.Bookings = append(data.Bookings, row)
	}
	for _, b := range snap.Recent {
		data.Recent = append(data.Recent, h.row(b))
	}
	if !snap.LoadedAt.IsZero() {
		data.LoadedAt = snap.LoadedAt.In(h.opts.Location).Format("15:04:05")
	}
	return data
}

func (h *Handler) row(b models.Booking) dashboardtempl.BookingRow {
	status := b.Status.OrPending()
	return dashboardtempl.BookingRow{
		ID:       b.ID,
		Kind:     string(b.Kind),
		KindName: kindName(b.Kind),
		Client:   b.Client.Name,
		Email:    b.Client.Email,
		Phone:    b.Client.Phone,
		Service:  h.serviceName(b),
		When:     strings.TrimSpace(models.NormalizeDate(b.Date) + " " + b.TimeLabel()),
		Status:   string(status),
		Label:    status.Label(),
	}
}

func (h *Handler) serviceName(b models.Booking) string {
	if h.opts.ServiceName != nil {
		return h.opts.ServiceName(b.Service)
	}
	return b.Service.DisplayName("No Service")
}

func kindName(kind models.BookingKind) string {
	if kind == models.KindClass {
		return "Class"
	}
	return "Service"
}
