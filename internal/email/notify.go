package email

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/models"
)

const statusEmailTimeout = 10 * time.Second

// Notifier emails clients when an operator changes a booking's status.
type Notifier struct {
	sender     Sender
	studioName string
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewNotifier(sender Sender, studioName string) *Notifier {
	return &Notifier{
		sender:     sender,
		studioName: studioName,
		timeout:    statusEmailTimeout,
	}
}

// NotifyStatusChange sends the status email in the background. Bookings
// without a client email, and status changes to pending, send nothing.
// The send outlives the caller's context.
func (n *Notifier) NotifyStatusChange(ctx context.Context, booking models.Booking, status models.Status) bool {
	if n == nil || n.sender == nil {
		return false
	}
	recipient := strings.TrimSpace(booking.Client.Email)
	if recipient == "" || status.OrPending() == models.StatusPending {
		return false
	}

	msg := BuildStatusEmail(StatusDetails{
		StudioName:  n.studioName,
		ClientName:  booking.Client.Name,
		ServiceName: booking.Service.DisplayName(""),
		Date:        booking.Date,
		Time:        booking.TimeLabel(),
		Status:      status,
	})

	logger := log.Ctx(ctx).With().Str("booking_id", booking.ID).Str("status", string(status)).Logger()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := sendContext(ctx, n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil {
			logger.Error().Err(err).Msg("Failed to send status email")
			return
		}
		logger.Info().Msg("Status email sent")
	}()
	return true
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
