package dashboards

import (
	"strings"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/projection"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

func input(kind, name, label, value string, required bool, errs apiutil.FieldErrors) resourcetempl.FormField {
	return resourcetempl.FormField{
		Name:     name,
		Label:    label,
		Type:     kind,
		Value:    value,
		Required: required,
		Error:    errs.For(name),
	}
}

func selectField(name, label string, opts []resourcetempl.Option, required bool, errs apiutil.FieldErrors) resourcetempl.FormField {
	f := input("select", name, label, "", required, errs)
	f.Options = opts
	return f
}

func checkbox(name, label string, checked bool) resourcetempl.FormField {
	return resourcetempl.FormField{Name: name, Label: label, Type: "checkbox", Checked: checked}
}

func fileField(name, label, current string, errs apiutil.FieldErrors) resourcetempl.FormField {
	f := input("file", name, label, current, false, errs)
	if current != "" {
		f.Help = "Leave empty to keep the current image."
	}
	return f
}

func choices(selected string, values ...string) []resourcetempl.Option {
	out := make([]resourcetempl.Option, len(values))
	for i, v := range values {
		out[i] = resourcetempl.Option{Value: v, Label: v, Selected: v == selected}
	}
	return out
}

func statusFilters() []resourcetempl.Option {
	out := []resourcetempl.Option{{Value: projection.FilterAll, Label: "All"}}
	for _, s := range models.AllStatuses() {
		out = append(out, resourcetempl.Option{Value: string(s), Label: s.Label()})
	}
	return out
}

// statusField offers the current status and the statuses the policy allows next.
func statusField(policy models.TransitionPolicy, current models.Status, errs apiutil.FieldErrors) resourcetempl.FormField {
	current = current.OrPending()
	opts := []resourcetempl.Option{{Value: string(current), Label: current.Label(), Selected: true}}
	for _, next := range models.NextStatuses(policy, current) {
		opts = append(opts, resourcetempl.Option{Value: string(next), Label: next.Label()})
	}
	return selectField("status", "Status", opts, true, errs)
}

// statusInput reads the status select. A change the policy refuses is a
// field error and leaves current in place.
func statusInput(f *apiutil.FormReader, policy models.TransitionPolicy, current models.Status) models.Status {
	raw := f.Optional("status")
	if raw == "" {
		return current
	}
	to, err := models.ParseStatus(raw)
	if err != nil {
		f.Fail("status", "is not a valid status")
		return current
	}
	if to == current.OrPending() {
		return current
	}
	if err := policy.Allow(current, to); err != nil {
		f.Fail("status", err.Error())
		return current
	}
	return to
}

// listInput reads a textarea holding one item per line or comma separated items.
func listInput(raw string) models.StringList {
	return models.ParseStringList(strings.ReplaceAll(raw, "\n", ","))
}

func listText(l models.StringList) string {
	return strings.Join(l, "\n")
}

func displayDate(raw string) string {
	return models.NormalizeDate(raw)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
