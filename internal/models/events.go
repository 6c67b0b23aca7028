// internal/models/events.go
package models

type Event struct {
	ID            string `json:"_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Location      string `json:"location"`
	Image         string `json:"image,omitempty"`
	Registrations int    `json:"registrations,omitempty"`
}

func (e Event) Key() string { return e.ID }

// Registration is a client's sign-up for an event. Title, date, time and
// location are copied from the event at registration time.
type Registration struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Event    Ref    `json:"event"`
}

func (r Registration) Key() string { return r.ID }
