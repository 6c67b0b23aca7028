// internal/api/resource/handlers.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/htmx"
	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/export"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/projection"
	"github.com/codr1/yogadesk/internal/studioapi"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

const (
	requestTimeout = 20 * time.Second
	maxUploadBytes = 10 << 20
	idParam        = "id"
	viewField      = "view"
)

// Options configures a Handler.
type Options struct {
	Shell    Shell
	Location *time.Location
	Now      func() time.Time
}

// Handler serves the dashboard routes of one entity.
type Handler[T dashboard.Record] struct {
	def   Definition[T]
	ctrl  *dashboard.Controller[T]
	shell Shell
	loc   *time.Location
	now   func() time.Time
}

func New[T dashboard.Record](def Definition[T], ctrl *dashboard.Controller[T], opts Options) *Handler[T] {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler[T]{def: def, ctrl: ctrl, shell: opts.Shell, loc: opts.Location, now: opts.Now}
}

func (h *Handler[T]) Key() string {
	return h.def.Key
}

func (h *Handler[T]) Title() string {
	return h.def.Title
}

func (h *Handler[T]) Path() string {
	return h.def.BasePath()
}

// Entity names the records in journal entries and export files.
func (h *Handler[T]) Entity() string {
	return h.def.Entity
}

// Register mounts the dashboard under /admin/<slug>.
func (h *Handler[T]) Register(mux *http.ServeMux) {
	base := h.def.BasePath()
	mux.HandleFunc("GET "+base, h.HandlePage)
	mux.HandleFunc("GET "+base+"/rows", h.HandleRows)
	mux.HandleFunc("GET "+base+"/search", h.HandleSearch)
	mux.HandleFunc("GET "+base+"/new", h.HandleNew)
	mux.HandleFunc("POST "+base, h.HandleCreate)
	mux.HandleFunc("GET "+base+"/export.csv", h.HandleExportCSV)
	mux.HandleFunc("GET "+base+"/export.xlsx", h.HandleExportXLSX)
	mux.HandleFunc("GET "+base+"/print", h.HandlePrint)
	mux.HandleFunc("GET "+base+"/{id}/edit", h.HandleEdit)
	mux.HandleFunc("POST "+base+"/{id}", h.HandleUpdate)
	mux.HandleFunc("POST "+base+"/{id}/status", h.HandleStatus)
	mux.HandleFunc("POST "+base+"/{id}/toggle", h.HandleToggle)
	mux.HandleFunc("GET "+base+"/{id}/delete", h.HandleConfirmDelete)
	mux.HandleFunc("POST "+base+"/{id}/delete", h.HandleDelete)
}

// /admin/<slug>
func (h *Handler[T]) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	// A page visit always refetches; a failure keeps the previous copy and
	// shows the error banner.
	_ = h.ctrl.Load(ctx, h.def.backendQuery(q))

	opts := h.options(q)
	snap := h.ctrl.Snapshot()
	content := resourcetempl.Page(h.pageData(q, opts, h.tableData(snap, snap.Items, opts, q)))
	if h.shell != nil {
		content = h.shell(r, h.def.Key, h.def.Title, content)
	}
	apiutil.RenderHTMLComponent(r.Context(), w, content, nil, "Failed to render dashboard page", "Failed to render page")
}

// /admin/<slug>/rows
func (h *Handler[T]) HandleRows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	h.ensureLoaded(ctx, q)
	snap := h.ctrl.Snapshot()
	data := h.tableData(snap, snap.Items, h.options(q), q)
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.Table(data), nil, "Failed to render dashboard rows", "Failed to render rows")
}

// /admin/<slug>/search
func (h *Handler[T]) HandleSearch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !h.def.RemoteSearch {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	opts := h.options(q)
	term := opts.Search
	if term == "" {
		h.HandleRows(w, r)
		return
	}

	name := h.def.RemoteSearchName
	if name == "" {
		name = "name"
	}
	items, err := h.ctrl.Search(ctx, url.Values{name: {term}})
	if errors.Is(err, dashboard.ErrNoSearch) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	snap := h.ctrl.Snapshot()
	if err != nil {
		logger.Warn().Err(err).Str("entity", h.def.Entity).Msg("Backend search failed")
		items = nil
	}

	// The backend already matched the term; only filter and sort locally.
	opts.Search = ""
	data := h.tableData(snap, items, opts, q)
	data.Notice = fmt.Sprintf("Backend search results for %q", term)
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.Table(data), nil, "Failed to render search results", "Failed to render rows")
}

// /admin/<slug>/new
func (h *Handler[T]) HandleNew(w http.ResponseWriter, r *http.Request) {
	if !h.def.CanCreate {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	var zero T
	form := h.formData(r.Context(), zero, "", nil, "", r.URL.Query())
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.Form(form), nil, "Failed to render create form", "Failed to render form")
}

// /admin/<slug>/{id}/edit
func (h *Handler[T]) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if !h.def.CanEdit {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := r.PathValue(idParam)
	item, ok := h.find(ctx, r.URL.Query(), id)
	if !ok {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	form := h.formData(r.Context(), item, id, nil, "", r.URL.Query())
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.Form(form), nil, "Failed to render edit form", "Failed to render form")
}

// POST /admin/<slug>
func (h *Handler[T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.def.CanCreate {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	h.save(w, r, "")
}

// POST /admin/<slug>/{id}
func (h *Handler[T]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.def.CanEdit {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	h.save(w, r, r.PathValue(idParam))
}

// save creates when id is empty and updates the record with that id otherwise.
func (h *Handler[T]) save(w http.ResponseWriter, r *http.Request, id string) {
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	in, err := h.readInput(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	view := viewFromForm(r)
	backend := h.def.backendQuery(view)

	var existing T
	if id != "" {
		var ok bool
		if existing, ok = h.find(ctx, view, id); !ok {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
	}

	item, files, err := h.def.Parse(ctx, in, existing)
	if err != nil {
		var fieldErrs apiutil.FieldErrors
		formErr := ""
		if !errors.As(err, &fieldErrs) {
			formErr = studioapi.ErrorMessage(err)
		}
		form := h.formData(r.Context(), item, id, fieldErrs, formErr, view)
		headers := htmx.Swap("#modal", "innerHTML", "")
		status := http.StatusOK
		if !htmx.IsRequest(r) {
			status = http.StatusUnprocessableEntity
		}
		apiutil.RenderHTMLComponentStatus(r.Context(), w, status, resourcetempl.Form(form), headers, "Failed to render form errors", "Failed to render form")
		return
	}

	notice := h.def.Singular + " saved"
	if id == "" {
		err = h.ctrl.Create(ctx, backend, item, files...)
		notice = h.def.Singular + " created"
	} else {
		err = h.ctrl.Update(ctx, backend, id, item, files...)
	}
	if err != nil {
		logger.Warn().Err(err).Str("entity", h.def.Entity).Str("id", id).Msg("Failed to save record")
		notice = ""
	}
	h.respondTable(w, r, view, "", notice)
}

// POST /admin/<slug>/{id}/status
func (h *Handler[T]) HandleStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !h.ctrl.HasStatus() {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := r.PathValue(idParam)
	view := viewFromForm(r)
	status, err := models.ParseStatus(r.PostForm.Get("status"))
	if err != nil {
		h.respondTable(w, r, view, err.Error(), "")
		return
	}

	notice := fmt.Sprintf("Status set to %s", status.Label())
	if err := h.ctrl.SetStatus(ctx, h.def.backendQuery(view), id, status); err != nil {
		logger.Warn().Err(err).Str("entity", h.def.Entity).Str("id", id).Str("status", string(status)).Msg("Failed to set status")
		notice = ""
	}
	h.respondTable(w, r, view, "", notice)
}

// POST /admin/<slug>/{id}/toggle
func (h *Handler[T]) HandleToggle(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if h.def.Toggle == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := r.PathValue(idParam)
	view := viewFromForm(r)
	item, ok := h.find(ctx, view, id)
	if !ok {
		h.respondTable(w, r, view, h.def.Singular+" not found", "")
		return
	}
	if err := h.ctrl.UpdateFields(ctx, h.def.backendQuery(view), id, h.def.Toggle.Fields(item)); err != nil {
		logger.Warn().Err(err).Str("entity", h.def.Entity).Str("id", id).Msg("Failed to toggle record")
	}
	h.respondTable(w, r, view, "", "")
}

// GET /admin/<slug>/{id}/delete
func (h *Handler[T]) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if h.def.ReadOnly {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	id := r.PathValue(idParam)
	item, ok := h.ctrl.Find(id)
	if !ok {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	confirmation, err := h.ctrl.RequestDelete(id)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}

	data := resourcetempl.ConfirmData{
		Title:     "Delete " + h.def.Singular,
		Message:   fmt.Sprintf("Are you sure you want to delete %s? This cannot be undone.", h.def.describe(item)),
		Action:    h.def.BasePath() + "/" + url.PathEscape(id) + "/delete",
		Token:     confirmation.Token,
		ExpiresIn: minutesLabel(confirmation.ExpiresAt.Sub(h.now())),
		View:      r.URL.Query().Get(viewField),
	}
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.ConfirmDelete(data), nil, "Failed to render delete confirmation", "Failed to render confirmation")
}

// POST /admin/<slug>/{id}/delete
func (h *Handler[T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if h.def.ReadOnly {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := r.PathValue(idParam)
	view := viewFromForm(r)
	err := h.ctrl.Delete(ctx, h.def.backendQuery(view), id, r.PostForm.Get("token"))
	switch {
	case errors.Is(err, dashboard.ErrNotConfirmed):
		h.respondTable(w, r, view, "Delete was not confirmed. Please try again.", "")
		return
	case err != nil:
		logger.Warn().Err(err).Str("entity", h.def.Entity).Str("id", id).Msg("Failed to delete record")
		h.respondTable(w, r, view, "", "")
		return
	}
	h.respondTable(w, r, view, "", h.def.Singular+" deleted")
}

// /admin/<slug>/export.csv
func (h *Handler[T]) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	table, opts := h.exportTable(r)
	filename := export.Filename(h.def.Entity, opts.FilterLabel(), h.now().In(h.loc), "csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := table.WriteCSV(w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("entity", h.def.Entity).Msg("Failed to write CSV export")
	}
}

// /admin/<slug>/export.xlsx
func (h *Handler[T]) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	table, opts := h.exportTable(r)
	filename := export.Filename(h.def.Entity, opts.FilterLabel(), h.now().In(h.loc), "xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := table.WriteXLSX(w, h.def.Title); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("entity", h.def.Entity).Msg("Failed to write XLSX export")
	}
}

// /admin/<slug>/print
func (h *Handler[T]) HandlePrint(w http.ResponseWriter, r *http.Request) {
	table, opts := h.exportTable(r)
	title := h.def.Title + " Report"
	if label := opts.FilterLabel(); label != projection.FilterAll {
		title += " - " + cases.Title(language.English).String(label)
	}
	doc := export.PrintDocument(title, h.now().In(h.loc), table)
	apiutil.RenderHTMLComponent(r.Context(), w, doc, nil, "Failed to render print document", "Failed to render print view")
}

func (h *Handler[T]) exportTable(r *http.Request) (export.Table, projection.Options) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	h.ensureLoaded(ctx, q)
	opts := h.options(q)
	items := projection.Apply(h.ctrl.Snapshot().Items, opts, h.def.Schema)
	return export.NewTable(h.def.exportColumns(), items), opts
}

// ensureLoaded fetches when nothing is loaded yet or the backend filters changed.
func (h *Handler[T]) ensureLoaded(ctx context.Context, q url.Values) {
	backend := h.def.backendQuery(q)
	if h.ctrl.Loaded() && h.ctrl.Snapshot().Query.Encode() == backend.Encode() {
		return
	}
	_ = h.ctrl.Load(ctx, backend)
}

// find looks id up locally, loading the view's backend query when nothing
// is loaded yet.
func (h *Handler[T]) find(ctx context.Context, view url.Values, id string) (T, bool) {
	if item, ok := h.ctrl.Find(id); ok {
		return item, true
	}
	if h.ctrl.Loaded() {
		var zero T
		return zero, false
	}
	_ = h.ctrl.Load(ctx, h.def.backendQuery(view))
	return h.ctrl.Find(id)
}

func (h *Handler[T]) options(q url.Values) projection.Options {
	opts := projection.ParseOptions(q, h.def.Schema)
	opts.Now = h.now().In(h.loc)
	return opts
}

// respondTable answers a mutation. HTMX gets the refreshed table and a
// closeModal event; plain form posts are redirected back to the page.
func (h *Handler[T]) respondTable(w http.ResponseWriter, r *http.Request, view url.Values, errMsg, notice string) {
	if !htmx.IsRequest(r) {
		target := h.def.BasePath()
		if encoded := view.Encode(); encoded != "" {
			target += "?" + encoded
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	snap := h.ctrl.Snapshot()
	data := h.tableData(snap, snap.Items, h.options(view), view)
	if errMsg != "" {
		data.Error = errMsg
	}
	if data.Error == "" {
		data.Notice = notice
	}
	headers := htmx.Swap("#resource-table", "outerHTML", "closeModal")
	apiutil.RenderHTMLComponent(r.Context(), w, resourcetempl.Table(data), headers, "Failed to render dashboard rows", "Failed to render rows")
}

// viewQuery is the query that reproduces the current table: projection
// parameters plus the raw backend filters.
func (h *Handler[T]) viewQuery(q url.Values, opts projection.Options) url.Values {
	view := opts.Query()
	for _, p := range h.def.Backend {
		if value := h.def.backendValue(q, p); value != "" {
			view.Set(p.Name, value)
		}
	}
	return view
}

func (h *Handler[T]) tableData(snap dashboard.Snapshot[T], items []T, opts projection.Options, q url.Values) resourcetempl.TableData {
	base := h.def.BasePath()
	view := h.viewQuery(q, opts)
	data := resourcetempl.TableData{
		BasePath:  base,
		Query:     view.Encode(),
		Total:     len(items),
		Error:     snap.Err,
		HasStatus: h.ctrl.HasStatus(),
		CanEdit:   h.def.CanEdit,
		ReadOnly:  h.def.ReadOnly,
	}
	if !snap.LoadedAt.IsZero() {
		data.LoadedAt = snap.LoadedAt.In(h.loc).Format("15:04:05")
	}

	for _, c := range h.def.Columns {
		col := resourcetempl.Column{Label: c.Header}
		if c.Field != "" {
			sortQuery := h.viewQuery(q, opts)
			sortQuery.Set("sort", c.Field)
			sortQuery.Set("dir", string(opts.Toggle(c.Field)))
			col.SortURL = base + "/rows?" + sortQuery.Encode()
			col.Active = opts.Sort == c.Field
			col.Dir = string(opts.Dir)
		}
		data.Columns = append(data.Columns, col)
	}

	for _, item := range projection.Apply(items, opts, h.def.Schema) {
		data.Rows = append(data.Rows, h.row(item))
	}

	suffix := ""
	if encoded := view.Encode(); encoded != "" {
		suffix = "?" + encoded
	}
	data.Exports = []resourcetempl.Link{
		{Label: "Export CSV", URL: base + "/export.csv" + suffix},
		{Label: "Export Excel", URL: base + "/export.xlsx" + suffix},
		{Label: "Print", URL: base + "/print" + suffix, Blank: true},
	}
	return data
}

func (h *Handler[T]) row(item T) resourcetempl.Row {
	row := resourcetempl.Row{ID: item.Key()}
	for _, c := range h.def.Columns {
		value := c.Value(item)
		switch {
		case c.Image:
			row.Cells = append(row.Cells, resourcetempl.Cell{Image: value})
		case c.Status:
			status := models.Status(value).OrPending()
			row.Cells = append(row.Cells, resourcetempl.Cell{Text: status.Label(), Badge: string(status)})
		default:
			row.Cells = append(row.Cells, resourcetempl.Cell{Text: value})
		}
	}
	if h.ctrl.HasStatus() {
		current := h.ctrl.StatusOf(item)
		row.Status = string(current.OrPending())
		for _, next := range models.NextStatuses(h.ctrl.Policy(), current) {
			row.Actions = append(row.Actions, resourcetempl.Option{Value: string(next), Label: next.Label()})
		}
	}
	if h.def.Toggle != nil {
		row.ToggleLabel = h.def.Toggle.Label(item)
	}
	return row
}

func (h *Handler[T]) pageData(q url.Values, opts projection.Options, table resourcetempl.TableData) resourcetempl.PageData {
	page := resourcetempl.PageData{
		Title:        h.def.Title,
		BasePath:     h.def.BasePath(),
		Search:       opts.Search,
		SearchLabel:  h.def.SearchLabel,
		Filter:       opts.Filter,
		FilterLabel:  h.def.FilterLabel,
		Sort:         opts.Sort,
		Dir:          string(opts.Dir),
		CanCreate:    h.def.CanCreate,
		RemoteSearch: h.def.RemoteSearch,
		Table:        table,
	}
	for _, f := range h.def.Filters {
		f.Selected = strings.EqualFold(f.Value, opts.Filter) || (opts.Filter == "" && f.Value == projection.FilterAll)
		page.Filters = append(page.Filters, f)
	}
	if h.def.Windows {
		for _, w := range []resourcetempl.Option{
			{Value: "", Label: "Any time"},
			{Value: string(projection.WindowToday), Label: "Today"},
			{Value: string(projection.WindowUpcoming), Label: "Upcoming"},
			{Value: string(projection.WindowPast), Label: "Past"},
		} {
			w.Selected = w.Value == string(opts.Window)
			page.Windows = append(page.Windows, w)
		}
	}
	for _, p := range h.def.Backend {
		value := h.def.backendValue(q, p)
		field := resourcetempl.FilterField{Name: p.Name, Label: p.Label, Type: p.Type, Value: value}
		for _, o := range p.Options {
			o.Selected = strings.EqualFold(o.Value, value)
			field.Options = append(field.Options, o)
		}
		page.BackendFilters = append(page.BackendFilters, field)
	}
	return page
}

func (h *Handler[T]) formData(ctx context.Context, item T, id string, errs apiutil.FieldErrors, formErr string, view url.Values) resourcetempl.FormData {
	form := resourcetempl.FormData{
		Title:     "Add " + h.def.Singular,
		Action:    h.def.BasePath(),
		Submit:    "Create",
		Multipart: len(h.def.FileFields) > 0,
		Error:     formErr,
		View:      viewParam(view),
	}
	if id != "" {
		form.Title = "Edit " + h.def.Singular
		form.Action = h.def.BasePath() + "/" + url.PathEscape(id)
		form.Submit = "Save"
	}
	if h.def.Fields != nil {
		form.Fields = h.def.Fields(ctx, item, errs)
	}
	if len(errs) > 0 && form.Error == "" {
		form.Error = "Please correct the highlighted fields."
	}
	return form
}

// viewParam unwraps the view carried by modal links, falling back to the
// whole query.
func viewParam(q url.Values) string {
	if v := q.Get(viewField); v != "" {
		return v
	}
	return q.Encode()
}

func minutesLabel(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func viewFromForm(r *http.Request) url.Values {
	view, err := url.ParseQuery(r.FormValue(viewField))
	if err != nil {
		return url.Values{}
	}
	return view
}

func (h *Handler[T]) readInput(r *http.Request) (Input, error) {
	multipartForm := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
	if multipartForm {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return Input{}, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return Input{}, fmt.Errorf("parse form: %w", err)
	}

	in := Input{Form: apiutil.NewFormReader(r.PostForm), Files: map[string]studioapi.File{}}
	if !multipartForm {
		return in, nil
	}
	for _, field := range h.def.FileFields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return Input{}, fmt.Errorf("read %s: %w", field, err)
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		file.Close()
		if err != nil {
			return Input{}, fmt.Errorf("read %s: %w", field, err)
		}
		if len(data) == 0 {
			continue
		}
		in.Files[field] = studioapi.File{
			Field:       field,
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return in, nil
}
