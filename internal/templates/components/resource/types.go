package resource

// Option is a value in a select or filter list.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Column is a table header. SortURL is empty for unsortable columns.
type Column struct {
	Label   string
	SortURL string
	Active  bool
	Dir     string
}

// Cell is one table value. Badge renders the text as a coloured status pill.
type Cell struct {
	Text  string
	Badge string
	Image string
}

type Row struct {
	ID     string
	Cells  []Cell
	Status string
	// Actions are the status buttons offered for this row.
	Actions     []Option
	ToggleLabel string
}

type TableData struct {
	BasePath  string
	Query     string
	Columns   []Column
	Rows      []Row
	Total     int
	Error     string
	Notice    string
	Exports   []Link
	HasStatus bool
	CanEdit   bool
	ReadOnly  bool
	LoadedAt  string
}

// Link is an export or print link.
type Link struct {
	Label string
	URL   string
	// Blank opens the link in a new tab.
	Blank bool
}

type PageData struct {
	Title    string
	BasePath string
	// BackendFilters are query parameters forwarded to the backend
	// (time slot date and timezone, event view).
	BackendFilters []FilterField
	Search         string
	SearchLabel    string
	Filter         string
	FilterLabel    string
	Filters        []Option
	Windows        []Option
	Sort           string
	Dir            string
	CanCreate      bool
	RemoteSearch   bool
	Table          TableData
}

type FilterField struct {
	Name    string
	Label   string
	Type    string
	Value   string
	Options []Option
}

// FormField describes one input of the create/edit modal. Type is one of
// text, email, tel, date, time, number, textarea, select, checkbox, file.
type FormField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Checked  bool
	Required bool
	Help     string
	Error    string
	Options  []Option
}

type FormData struct {
	Title     string
	Action    string
	Submit    string
	Multipart bool
	Fields    []FormField
	Error     string
	// View is the encoded table query restored after the save.
	View string
}

type ConfirmData struct {
	Title     string
	Message   string
	Action    string
	Token     string
	ExpiresIn string
	View      string
}
