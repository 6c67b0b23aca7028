// Package dashboard holds the per-collection state behind each admin
// dashboard. A Controller owns the local copy of one backend collection and
// refetches it after every mutation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/studioapi"
)

const defaultConfirmTTL = 5 * time.Minute

var (
	ErrNotConfirmed      = errors.New("delete not confirmed")
	ErrNoSearch          = errors.New("dashboard has no search endpoint")
	ErrStatusUnsupported = errors.New("dashboard records have no status")
	ErrPartialUpdate     = errors.New("dashboard does not support partial updates")
	ErrUnknownRecord     = errors.New("record not found")
)

// Record is anything with a backend identity.
type Record interface {
	Key() string
}

// Backend is the remote collection a controller mirrors.
// *studioapi.Resource satisfies it.
type Backend[T any] interface {
	List(ctx context.Context, query url.Values) ([]T, error)
	Create(ctx context.Context, item T, files ...studioapi.File) (T, bool, error)
	Update(ctx context.Context, id string, item T, files ...studioapi.File) (T, bool, error)
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// Searcher is implemented by backends with a server-side search route.
type Searcher[T any] interface {
	Search(ctx context.Context, query url.Values) ([]T, error)
}

// FieldUpdater is implemented by backends accepting partial documents.
type FieldUpdater interface {
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}

// Entry is one journal line describing a dispatched mutation.
type Entry struct {
	Operator string
	Entity   string
	RecordID string
	Action   string
	Outcome  string
	Detail   string
}

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Journal records console mutations.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
}

// StatusChange describes a status update that reached the backend.
type StatusChange[T any] struct {
	Record T
	From   models.Status
	To     models.Status
}

type Options[T any] struct {
	Policy         models.TransitionPolicy
	StatusOf       func(T) models.Status
	Journal        Journal
	Operator       func(context.Context) string
	OnStatusChange func(context.Context, StatusChange[T])
	ConfirmTTL     time.Duration
	Now            func() time.Time
}

// Confirmation authorises one delete of one record.
type Confirmation struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

// Snapshot is a copy of a controller's state.
type Snapshot[T any] struct {
	Items    []T
	Err      string
	LoadedAt time.Time
	Query    url.Values
}

type Controller[T Record] struct {
	entity  string
	backend Backend[T]
	opts    Options[T]

	mu            sync.Mutex
	items         []T
	lastErr       string
	lastQuery     url.Values
	loadedAt      time.Time
	confirmations map[string]Confirmation
}

func NewController[T Record](entity string, backend Backend[T], opts Options[T]) *Controller[T] {
	if opts.Policy == nil {
		opts.Policy = models.PermissivePolicy
	}
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = defaultConfirmTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller[T]{
		entity:        entity,
		backend:       backend,
		opts:          opts,
		confirmations: make(map[string]Confirmation),
	}
}

func (c *Controller[T]) Entity() string {
	return c.entity
}

func (c *Controller[T]) Policy() models.TransitionPolicy {
	return c.opts.Policy
}

// HasStatus reports whether records of this dashboard carry a booking status.
func (c *Controller[T]) HasStatus() bool {
	return c.opts.StatusOf != nil
}

// StatusOf returns the record's status, or "" when the dashboard has none.
func (c *Controller[T]) StatusOf(item T) models.Status {
	if c.opts.StatusOf == nil {
		return ""
	}
	return c.opts.StatusOf(item)
}

// Load replaces the local copy with the backend collection. A nil query
// reuses the query of the previous load. On failure the items are left as
// they were and the error message is kept for display.
func (c *Controller[T]) Load(ctx context.Context, query url.Values) error {
	c.mu.Lock()
	if query == nil {
		query = cloneValues(c.lastQuery)
	}
	c.mu.Unlock()

	items, err := c.backend.List(ctx, query)
	if err != nil {
		c.setError(err)
		log.Ctx(ctx).Warn().Err(err).Str("entity", c.entity).Msg("Failed to load dashboard records")
		return fmt.Errorf("load %s: %w", c.entity, err)
	}

	c.mu.Lock()
	c.items = items
	c.lastErr = ""
	c.lastQuery = cloneValues(query)
	c.loadedAt = c.opts.Now()
	c.mu.Unlock()
	return nil
}

// Mutations take the backend query of the view that issued them and reload
// with it, so the refreshed copy matches the caller's filters. A nil query
// reloads with the query of the previous load.

// Create posts item and then reloads. Ids are only ever assigned by the backend.
func (c *Controller[T]) Create(ctx context.Context, query url.Values, item T, files ...studioapi.File) error {
	_, _, err := c.backend.Create(ctx, item, files...)
	c.journal(ctx, "create", "", err)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("create %s: %w", c.entity, err)
	}
	return c.refresh(ctx, query, "create")
}

// Update replaces the record with id. When the backend answers with the saved
// document it replaces the local record in place; otherwise the collection is
// reloaded.
func (c *Controller[T]) Update(ctx context.Context, query url.Values, id string, item T, files ...studioapi.File) error {
	saved, ok, err := c.backend.Update(ctx, id, item, files...)
	c.journal(ctx, "update", id, err)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("update %s %s: %w", c.entity, id, err)
	}
	if !ok {
		return c.refresh(ctx, query, "update")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Key() == id {
			c.items[i] = saved
		}
	}
	c.lastErr = ""
	return nil
}

// UpdateFields sends a partial document and reloads.
func (c *Controller[T]) UpdateFields(ctx context.Context, query url.Values, id string, fields map[string]any) error {
	updater, ok := c.backend.(FieldUpdater)
	if !ok {
		return ErrPartialUpdate
	}
	err := updater.UpdateFields(ctx, id, fields)
	c.journal(ctx, "update", id, err)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("update %s %s: %w", c.entity, id, err)
	}
	return c.refresh(ctx, query, "update")
}

// SetStatus checks the transition policy against the record's current
// status, sends the status-only update and reloads. A record missing from the
// local copy is looked up with a fresh load first; nothing is sent when it is
// still unknown or the policy refuses the change.
func (c *Controller[T]) SetStatus(ctx context.Context, query url.Values, id string, to models.Status) error {
	if c.opts.StatusOf == nil {
		return ErrStatusUnsupported
	}
	current, found := c.Find(id)
	if !found {
		if err := c.Load(ctx, query); err != nil {
			return err
		}
		if current, found = c.Find(id); !found {
			c.setMessage(fmt.Sprintf("%s %s not found", c.entity, id))
			return fmt.Errorf("set %s %s status: %w", c.entity, id, ErrUnknownRecord)
		}
	}
	from := c.opts.StatusOf(current)
	if err := c.opts.Policy.Allow(from, to); err != nil {
		c.setMessage(err.Error())
		return err
	}

	err := c.backend.SetStatus(ctx, id, string(to))
	c.journalDetail(ctx, "status", id, string(to), err)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("set %s %s status: %w", c.entity, id, err)
	}
	log.Ctx(ctx).Info().Str("entity", c.entity).Str("id", id).Str("status", string(to)).Msg("Status updated")

	if c.opts.OnStatusChange != nil {
		c.opts.OnStatusChange(ctx, StatusChange[T]{Record: current, From: from, To: to})
	}
	return c.refresh(ctx, query, "status")
}

// RequestDelete mints the confirmation an operator must echo back to Delete.
// A newer request for the same id replaces the older token.
func (c *Controller[T]) RequestDelete(id string) (Confirmation, error) {
	if strings.TrimSpace(id) == "" {
		return Confirmation{}, fmt.Errorf("delete %s: id is required", c.entity)
	}
	confirmation := Confirmation{
		ID:        id,
		Token:     uuid.NewString(),
		ExpiresAt: c.opts.Now().Add(c.opts.ConfirmTTL),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneConfirmationsLocked()
	c.confirmations[id] = confirmation
	return confirmation, nil
}

// Delete removes the record once token matches an unexpired confirmation
// for id. Tokens are single use. After the backend accepts the delete the
// record is dropped locally and the collection reloaded.
func (c *Controller[T]) Delete(ctx context.Context, query url.Values, id, token string) error {
	c.mu.Lock()
	confirmation, ok := c.confirmations[id]
	if ok && confirmation.Token == token && token != "" && c.opts.Now().Before(confirmation.ExpiresAt) {
		delete(c.confirmations, id)
	} else {
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return ErrNotConfirmed
	}

	err := c.backend.Delete(ctx, id)
	c.journal(ctx, "delete", id, err)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("delete %s %s: %w", c.entity, id, err)
	}

	c.mu.Lock()
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.Key() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()

	return c.refresh(ctx, query, "delete")
}

// Search runs the backend's server-side search. The local copy is not touched.
func (c *Controller[T]) Search(ctx context.Context, query url.Values) ([]T, error) {
	searcher, ok := c.backend.(Searcher[T])
	if !ok {
		return nil, ErrNoSearch
	}
	items, err := searcher.Search(ctx, query)
	if errors.Is(err, studioapi.ErrNoSearchEndpoint) {
		return nil, ErrNoSearch
	}
	if err != nil {
		c.setError(err)
		return nil, fmt.Errorf("search %s: %w", c.entity, err)
	}
	return items, nil
}

// Snapshot returns a copy of the items and the current error message.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Items:    items,
		Err:      c.lastErr,
		LoadedAt: c.loadedAt,
		Query:    cloneValues(c.lastQuery),
	}
}

func (c *Controller[T]) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Loaded reports whether at least one load has succeeded.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loadedAt.IsZero()
}

func (c *Controller[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) refresh(ctx context.Context, query url.Values, action string) error {
	if err := c.Load(ctx, query); err != nil {
		return fmt.Errorf("refresh after %s: %w", action, err)
	}
	return nil
}

func (c *Controller[T]) setError(err error) {
	c.setMessage(studioapi.ErrorMessage(err))
}

func (c *Controller[T]) setMessage(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func (c *Controller[T]) pruneConfirmationsLocked() {
	now := c.opts.Now()
	for id, confirmation := range c.confirmations {
		if !now.Before(confirmation.ExpiresAt) {
			delete(c.confirmations, id)
		}
	}
}

func (c *Controller[T]) journal(ctx context.Context, action, id string, err error) {
	c.journalDetail(ctx, action, id, "", err)
}

func (c *Controller[T]) journalDetail(ctx context.Context, action, id, detail string, err error) {
	if c.opts.Journal == nil {
		return
	}
	entry := Entry{
		Entity:   c.entity,
		RecordID: id,
		Action:   action,
		Outcome:  OutcomeOK,
		Detail:   detail,
	}
	if c.opts.Operator != nil {
		entry.Operator = c.opts.Operator(ctx)
	}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Detail = strings.TrimSpace(detail + " " + studioapi.ErrorMessage(err))
	}
	if jerr := c.opts.Journal.Record(ctx, entry); jerr != nil {
		log.Ctx(ctx).Warn().Err(jerr).Str("entity", c.entity).Str("action", action).Msg("Failed to write audit entry")
	}
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
