package dashboards

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/models"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

const (
	lookupTimeout = 5 * time.Second
	// lookupRetry limits how often a failed services load is retried from
	// table rendering.
	lookupRetry = time.Minute
)

// serviceLookup names services referenced only by id. Bookings from
// /api/bookings often carry the bare service id.
type serviceLookup struct {
	services *dashboard.Controller[models.Service]

	mu          sync.Mutex
	lastAttempt time.Time
}

func newServiceLookup(services *dashboard.Controller[models.Service]) *serviceLookup {
	return &serviceLookup{services: services}
}

func (l *serviceLookup) Name(ref models.Ref) string {
	if name := strings.TrimSpace(ref.Name); name != "" {
		return name
	}
	if ref.ID == "" {
		return "No Service"
	}
	l.ensureLoaded()
	if svc, ok := l.services.Find(ref.ID); ok && svc.Name != "" {
		return svc.Name
	}
	return "Unknown Service"
}

func (l *serviceLookup) ensureLoaded() {
	if l.services.Loaded() {
		return
	}
	l.mu.Lock()
	if time.Since(l.lastAttempt) < lookupRetry {
		l.mu.Unlock()
		return
	}
	l.lastAttempt = time.Now()
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	_ = l.services.Load(ctx, nil)
}

// options loads ctrl when needed and returns its records as select options.
func options[T dashboard.Record](ctx context.Context, ctrl *dashboard.Controller[T], label func(T) string, selected string) []resourcetempl.Option {
	if !ctrl.Loaded() {
		lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
		_ = ctrl.Load(lctx, nil)
		cancel()
	}
	items := ctrl.Snapshot().Items
	out := make([]resourcetempl.Option, 0, len(items))
	for _, item := range items {
		out = append(out, resourcetempl.Option{
			Value:    item.Key(),
			Label:    label(item),
			Selected: item.Key() == selected,
		})
	}
	return out
}
