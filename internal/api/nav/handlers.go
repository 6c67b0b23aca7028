// internal/api/nav/handlers.go
package nav

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/api/htmx"
	"github.com/codr1/yogadesk/internal/api/settings"
	"github.com/codr1/yogadesk/internal/templates/layouts"
)

const (
	navQueryTimeout = 3 * time.Second
	// SelectedMenuKey is the preference holding the operator's last menu choice.
	SelectedMenuKey = "selected_menu"
)

// PreferenceStore persists per-operator values. *db.Queries satisfies it.
type PreferenceStore interface {
	GetPreference(ctx context.Context, username, key string) (string, bool, error)
	SetPreference(ctx context.Context, username, key, value string) error
}

// Page is a menu entry backed by a full page handler.
type Page interface {
	Key() string
	Title() string
	Path() string
	HandlePage(w http.ResponseWriter, r *http.Request)
}

var (
	mu      sync.RWMutex
	prefs   PreferenceStore
	pages   []Page
	appName string
)

// InitHandlers must be called during server startup before handling
// requests. The first page is the default selection.
func InitHandlers(store PreferenceStore, menu []Page, name string) {
	mu.Lock()
	defer mu.Unlock()
	prefs = store
	pages = append([]Page(nil), menu...)
	appName = name
}

func snapshot() (PreferenceStore, []Page, string) {
	mu.RLock()
	defer mu.RUnlock()
	return prefs, pages, appName
}

func lookup(menu []Page, key string) (Page, bool) {
	for _, p := range menu {
		if p.Key() == key {
			return p, true
		}
	}
	return nil, false
}

// HandleHome serves GET / with the operator's last selected page.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	store, menu, _ := snapshot()
	if len(menu) == 0 {
		http.Error(w, "No dashboards configured", http.StatusServiceUnavailable)
		return
	}

	page := menu[0]
	if store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), navQueryTimeout)
		key, ok, err := store.GetPreference(ctx, authz.OperatorName(r.Context()), SelectedMenuKey)
		cancel()
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load selected menu")
		}
		if p, found := lookup(menu, key); ok && found {
			page = p
		}
	}
	page.HandlePage(w, r)
}

// HandleSelect persists the chosen menu key for POST /nav/select and sends
// the browser to that page.
func HandleSelect(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	store, menu, _ := snapshot()

	key := strings.TrimSpace(r.PostForm.Get("key"))
	page, ok := lookup(menu, key)
	if !ok {
		http.Error(w, "Unknown menu item", http.StatusBadRequest)
		return
	}

	if store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), navQueryTimeout)
		defer cancel()
		if err := store.SetPreference(ctx, authz.OperatorName(r.Context()), SelectedMenuKey, key); err != nil {
			// The page still opens; only the remembered choice is lost.
			logger.Error().Err(err).Str("key", key).Msg("Failed to save selected menu")
		}
	}

	if htmx.IsRequest(r) {
		htmx.Redirect(w, page.Path())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, page.Path(), http.StatusSeeOther)
}

// Shell wraps content in the console layout with key highlighted in the menu.
func Shell(r *http.Request, key, title string, content templ.Component) templ.Component {
	store, menu, name := snapshot()
	operator := ""
	if op := authz.OperatorFromContext(r.Context()); op != nil {
		operator = op.Username
	}

	if store != nil && operator != "" {
		ctx, cancel := context.WithTimeout(r.Context(), navQueryTimeout)
		siteName, ok, err := store.GetPreference(ctx, operator, settings.SiteNameKey)
		cancel()
		if err == nil && ok && strings.TrimSpace(siteName) != "" {
			name = siteName
		}
	}

	items := make([]layouts.MenuItem, 0, len(menu))
	for _, p := range menu {
		items = append(items, layouts.MenuItem{Key: p.Key(), Label: p.Title(), Path: p.Path()})
	}
	return layouts.Base(layouts.Page{
		AppName:  name,
		Title:    title,
		Operator: operator,
		Menu:     layouts.WithActive(items, key),
	}, content)
}
