// internal/dashboard/overview.go
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/studioapi"
)

const recentActivityLimit = 5

// Stats counts bookings per status. A booking without a status counts as pending.
type Stats struct {
	Total    int
	Pending  int
	Approve  int
	Decline  int
	Complete int
}

func (s Stats) Count(status models.Status) int {
	switch status.OrPending() {
	case models.StatusPending:
		return s.Pending
	case models.StatusApprove:
		return s.Approve
	case models.StatusDecline:
		return s.Decline
	case models.StatusComplete:
		return s.Complete
	}
	return 0
}

func ComputeStats(bookings []models.Booking) Stats {
	var s Stats
	for _, b := range bookings {
		s.Total++
		switch b.Status.OrPending() {
		case models.StatusPending:
			s.Pending++
		case models.StatusApprove:
			s.Approve++
		case models.StatusDecline:
			s.Decline++
		case models.StatusComplete:
			s.Complete++
		}
	}
	return s
}

// OverviewSnapshot is the merged view of both booking collections.
type OverviewSnapshot struct {
	Bookings []models.Booking
	Stats    Stats
	Recent   []models.Booking
	Err      string
	LoadedAt time.Time
}

type OverviewOptions struct {
	Policy     models.TransitionPolicy
	Journal    Journal
	Operator   func(context.Context) string
	Registerer prometheus.Registerer
	Now        func() time.Time
	// OnStatusChange runs after the backend accepted a status change.
	OnStatusChange func(context.Context, StatusChange[models.Booking])
}

// Overview merges service bookings and class bookings. It keeps its own copy
// and does not share state with the per-collection controllers.
type Overview struct {
	services Backend[models.Booking]
	classes  Backend[models.Booking]
	opts     OverviewOptions
	gauge    *prometheus.GaugeVec

	mu       sync.Mutex
	bookings []models.Booking
	lastErr  string
	loadedAt time.Time
}

func NewOverview(services, classes Backend[models.Booking], opts OverviewOptions) *Overview {
	if opts.Policy == nil {
		opts.Policy = models.PermissivePolicy
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	o := &Overview{
		services: services,
		classes:  classes,
		opts:     opts,
	}
	if opts.Registerer != nil {
		o.gauge = promauto.With(opts.Registerer).NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogadesk_overview_bookings",
			Help: "Bookings on the overview dashboard by status",
		}, []string{"status"})
	}
	return o
}

// Refresh fetches both collections concurrently. Either failing leaves the
// previous snapshot in place.
func (o *Overview) Refresh(ctx context.Context) (OverviewSnapshot, error) {
	var services, classes []models.Booking
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := o.services.List(gctx, nil)
		if err != nil {
			return err
		}
		services = items
		return nil
	})
	g.Go(func() error {
		items, err := o.classes.List(gctx, nil)
		if err != nil {
			return err
		}
		classes = items
		return nil
	})
	if err := g.Wait(); err != nil {
		o.mu.Lock()
		o.lastErr = studioapi.ErrorMessage(err)
		o.mu.Unlock()
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to refresh overview")
		return o.Snapshot(), fmt.Errorf("refresh overview: %w", err)
	}

	merged := make([]models.Booking, 0, len(services)+len(classes))
	for _, b := range services {
		b.Kind = models.KindService
		merged = append(merged, b)
	}
	for _, b := range classes {
		b.Kind = models.KindClass
		merged = append(merged, b)
	}

	o.mu.Lock()
	o.bookings = merged
	o.lastErr = ""
	o.loadedAt = o.opts.Now()
	o.mu.Unlock()

	snapshot := o.Snapshot()
	o.recordStats(snapshot.Stats)
	return snapshot, nil
}

func (o *Overview) Snapshot() OverviewSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	bookings := make([]models.Booking, len(o.bookings))
	copy(bookings, o.bookings)
	recent := bookings
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	return OverviewSnapshot{
		Bookings: bookings,
		Stats:    ComputeStats(bookings),
		Recent:   recent,
		Err:      o.lastErr,
		LoadedAt: o.loadedAt,
	}
}

func (o *Overview) Policy() models.TransitionPolicy {
	return o.opts.Policy
}

// SetStatus sends the status update to the endpoint matching kind and then
// refreshes both collections.
func (o *Overview) SetStatus(ctx context.Context, kind models.BookingKind, id string, to models.Status) error {
	var backend Backend[models.Booking]
	entity := ""
	switch kind {
	case models.KindService, "":
		kind = models.KindService
		backend, entity = o.services, "bookings"
	case models.KindClass:
		backend, entity = o.classes, "class-bookings"
	default:
		return fmt.Errorf("unknown booking kind %q", kind)
	}

	current, found := o.find(kind, id)
	if !found {
		if _, err := o.Refresh(ctx); err != nil {
			return err
		}
		if current, found = o.find(kind, id); !found {
			o.mu.Lock()
			o.lastErr = fmt.Sprintf("%s %s not found", entity, id)
			o.mu.Unlock()
			return fmt.Errorf("set %s %s status: %w", entity, id, ErrUnknownRecord)
		}
	}
	from := current.Status
	if err := o.opts.Policy.Allow(from, to); err != nil {
		o.mu.Lock()
		o.lastErr = err.Error()
		o.mu.Unlock()
		return err
	}

	err := backend.SetStatus(ctx, id, string(to))
	if o.opts.Journal != nil {
		entry := Entry{Entity: entity, RecordID: id, Action: "status", Outcome: OutcomeOK, Detail: string(to)}
		if o.opts.Operator != nil {
			entry.Operator = o.opts.Operator(ctx)
		}
		if err != nil {
			entry.Outcome = OutcomeFailed
			entry.Detail = string(to) + " " + studioapi.ErrorMessage(err)
		}
		if jerr := o.opts.Journal.Record(ctx, entry); jerr != nil {
			log.Ctx(ctx).Warn().Err(jerr).Msg("Failed to write audit entry")
		}
	}
	if err != nil {
		o.mu.Lock()
		o.lastErr = studioapi.ErrorMessage(err)
		o.mu.Unlock()
		return fmt.Errorf("set %s %s status: %w", entity, id, err)
	}
	if o.opts.OnStatusChange != nil {
		o.opts.OnStatusChange(ctx, StatusChange[models.Booking]{Record: current, From: from, To: to})
	}

	_, err = o.Refresh(ctx)
	return err
}

func (o *Overview) find(kind models.BookingKind, id string) (models.Booking, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, b := range o.bookings {
		if b.ID == id && b.Kind == kind {
			return b, true
		}
	}
	return models.Booking{}, false
}

func (o *Overview) recordStats(s Stats) {
	if o.gauge == nil {
		return
	}
	for _, status := range models.AllStatuses() {
		o.gauge.WithLabelValues(string(status)).Set(float64(s.Count(status)))
	}
}
