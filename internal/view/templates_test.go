package view

import (
	"strings"
	"testing"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	for _, name := range []string{"home.html", "site.html", "site_status.html", "editor.html", "editor_denied.html", "error.html"} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("expected template %s", name)
		}
	}
}

func TestIconSVGFallsBack(t *testing.T) {
	if !strings.Contains(string(IconSVG("MegoEvent")), "<svg") {
		t.Fatalf("expected svg for block icon")
	}
	if IconSVG("unknown") != IconSVG("disconnected") {
		t.Fatalf("expected default icon for unknown key")
	}
}
