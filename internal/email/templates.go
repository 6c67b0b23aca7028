package email

import (
	"fmt"
	"strings"

	"github.com/codr1/yogadesk/internal/models"
)

// Message is a rendered plain-text email.
type Message struct {
	Subject string
	Body    string
}

// StatusDetails describes the booking whose status changed.
type StatusDetails struct {
	StudioName  string
	ClientName  string
	ServiceName string
	Date        string
	Time        string
	Status      models.Status
}

var statusHeadlines = map[models.Status]string{
	models.StatusPending:  "is awaiting confirmation",
	models.StatusApprove:  "has been approved",
	models.StatusDecline:  "has been declined",
	models.StatusComplete: "has been marked complete",
}

// FormatDate renders an ISO date as "Monday, Jan 2, 2006". Unparseable
// input is returned unchanged.
func FormatDate(raw string) string {
	t, ok := models.ParseDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.Format("Monday, Jan 2, 2006")
}

func BuildStatusEmail(details StatusDetails) Message {
	studio := strings.TrimSpace(details.StudioName)
	if studio == "" {
		studio = "the studio"
	}
	service := strings.TrimSpace(details.ServiceName)
	if service == "" {
		service = "session"
	}
	date := FormatDate(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeLabel := strings.TrimSpace(details.Time)
	if timeLabel == "" {
		timeLabel = "TBD"
	}
	status := details.Status.OrPending()
	headline, ok := statusHeadlines[status]
	if !ok {
		headline = "has been updated"
	}

	greeting := "Hello,"
	if name := strings.TrimSpace(details.ClientName); name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}

	lines := []string{
		greeting,
		"",
		fmt.Sprintf("Your %s booking %s.", service, headline),
		"",
		fmt.Sprintf("Studio: %s", studio),
		fmt.Sprintf("Service: %s", service),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeLabel),
		fmt.Sprintf("Status: %s", status.Label()),
	}
	if status == models.StatusDecline {
		lines = append(lines, "", "Please contact us to choose another time.")
	}

	return Message{
		Subject: fmt.Sprintf("Booking %s - %s", status.Label(), studio),
		Body:    strings.Join(lines, "\n"),
	}
}
