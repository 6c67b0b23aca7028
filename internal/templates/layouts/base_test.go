package layouts

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestBaseRendersMenuAndContent(t *testing.T) {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section id="inner">bookings</section>`)
		return err
	})
	menu := WithActive([]MenuItem{
		{Key: "dashboard", Label: "Dashboard", Path: "/"},
		{Key: "BookingDashboard", Label: "Bookings", Path: "/admin/bookings"},
	}, "BookingDashboard")

	var b strings.Builder
	err := Base(Page{Title: "Bookings", Operator: "admin <root>", Menu: menu}, content).Render(context.Background(), &b)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()
	for _, want := range []string{
		`<section id="inner">bookings</section>`,
		`<title>Bookings | Studio Admin</title>`,
		`class="menu-item active"`,
		`value="BookingDashboard"`,
		`admin &lt;root&gt;`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Count(html, "menu-item active") != 1 {
		t.Fatal("exactly one menu item should be active")
	}
}
