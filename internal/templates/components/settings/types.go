package settings

// Setting is a read-only configuration value shown on the page.
type Setting struct {
	Label string
	Value string
}

type AuditRow struct {
	When     string
	Operator string
	Entity   string
	RecordID string
	Action   string
	Outcome  string
	Detail   string
}

type EntityOption struct {
	Value    string
	Label    string
	Selected bool
}

type PageData struct {
	SiteName      string
	ContactEmail  string
	SiteNameError string
	EmailError    string
	Notice        string
	Error         string
	Settings      []Setting
	Entities      []EntityOption
	Audit         []AuditRow
}
