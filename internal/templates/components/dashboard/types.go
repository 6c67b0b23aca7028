package dashboard

// StatCard is one count on the overview, e.g. "Pending 4".
type StatCard struct {
	Label string
	Count int
	// Status is the badge class; empty for the total.
	Status string
}

// Action is a status button on a booking row.
type Action struct {
	Label string
	Value string
}

type BookingRow struct {
	ID       string
	Kind     string
	KindName string
	Client   string
	Email    string
	Phone    string
	Service  string
	When     string
	Status   string
	Label    string
	Actions  []Action
}

// OverviewData is the swappable body of the overview page.
type OverviewData struct {
	Cards []StatCard
	// Bookings holds every merged booking; Recent the newest few.
	Bookings []BookingRow
	Recent   []BookingRow
	Error    string
	Notice   string
	LoadedAt string
	// ActionBase prefixes the status endpoints: <ActionBase>/<kind>/<id>/status.
	ActionBase string
}

type PageData struct {
	StreamURL string
	Body      OverviewData
}
