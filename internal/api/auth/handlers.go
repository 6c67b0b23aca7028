package auth

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/api/htmx"
	"github.com/codr1/yogadesk/internal/ratelimit"
	authtempl "github.com/codr1/yogadesk/internal/templates/components/auth"
)

var (
	authenticator Authenticator
	sessions      *Manager
	loginLimiter  *ratelimit.Limiter
	// limiter caps login form posts across all clients.
	limiter    = rate.NewLimiter(rate.Limit(10), 20)
	appName    string
	trustProxy bool
)

type Options struct {
	AppName    string
	TrustProxy bool
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(a Authenticator, m *Manager, l *ratelimit.Limiter, opts Options) {
	authenticator = a
	sessions = m
	loginLimiter = l
	appName = opts.AppName
	trustProxy = opts.TrustProxy
}

// GET /login
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if authz.OperatorFromContext(r.Context()) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	component := authtempl.LoginPage(authtempl.LoginData{AppName: appName, Next: next})
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil, "Failed to render login page", "Failed to render page")
}

// POST /login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if authenticator == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	data := authtempl.LoginData{AppName: appName, Username: username, Next: safeNext(r.PostFormValue("next"))}
	ip := ratelimit.GetClientIP(r, trustProxy)

	if loginLimiter != nil {
		if result := loginLimiter.CheckLogin(username, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded("login", username, ip, result.Reason)
			minutes := int(math.Ceil(result.RetryAfter.Minutes()))
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(result.RetryAfter.Seconds()))))
			data.Error = fmt.Sprintf("Too many failed attempts. Try again in %d minute(s).", minutes)
			renderLogin(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	operator, err := authenticator.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			logger.Error().Err(err).Msg("Failed to authenticate operator")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if loginLimiter != nil && loginLimiter.RecordFailure(username, ip) {
			logger.Warn().Str("identifier", ratelimit.SanitizeIdentifier(username)).Str("ip", ip).Msg("Operator locked out")
		}
		data.Error = "Invalid username or password"
		renderLogin(w, r, http.StatusUnauthorized, data)
		return
	}

	if loginLimiter != nil {
		loginLimiter.Reset(username)
	}
	if _, err := sessions.Create(r.Context(), w, operator.Username); err != nil {
		logger.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	logger.Info().Str("operator", operator.Username).Msg("Operator signed in")

	redirect(w, r, data.Next)
}

// POST /logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessions != nil {
		if err := sessions.Destroy(w, r); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to delete session")
		}
	}
	redirect(w, r, "/login")
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, data authtempl.LoginData) {
	component := authtempl.LoginPage(data)
	if htmx.IsRequest(r) {
		component = authtempl.LoginForm(data)
	}
	apiutil.RenderHTMLComponentStatus(r.Context(), w, status, component, nil, "Failed to render login page", "Failed to render page")
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if htmx.IsRequest(r) {
		htmx.Redirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext only allows local absolute paths.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
