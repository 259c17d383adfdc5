package prompt

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Walk Cycle (8 frames)", "walk_cycle"},
		{"Idle", "idle"},
		{"Bubble   Shoot\t(5 frames)", "bubble_shoot"},
		{"Victory Dance", "victory_dance"},
		{"ÜBER Jump (3 frames)", "über_jump"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.label); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Hurt (3 frames)"); got != "Hurt" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName("Hurt"); got != "Hurt" {
		t.Errorf("DisplayName without suffix = %q", got)
	}
}

func TestTemplate(t *testing.T) {
	got := Template("Bubble Coop", Animation{Name: "Walk Cycle", Frames: 8})
	want := "Please create a 8-frame animation for Bubble Coop game showing \"Walk Cycle\".\n\n" +
		"Art style: Vibrant, cartoony, cute with a hint of sci-fi\n" +
		"Consistency: Maintain same character proportions and style across all frames\n" +
		"Resolution: 512x512 pixels\n" +
		"Background: Transparent background preferred\n" +
		"Output: 8 separate images numbered sequentially"
	if got != want {
		t.Errorf("Template mismatch:\n got: %q\nwant: %q", got, want)
	}
	if !strings.Contains(Template("G", Animation{Name: "Jump (6 frames)", Frames: 6}), `showing "Jump"`) {
		t.Error("Template should use the display name")
	}
}

func TestTemplateKeepsNameVerbatim(t *testing.T) {
	got := Template("G", Animation{Name: `The "Big" Jump`, Frames: 2})
	if !strings.Contains(got, `showing "The "Big" Jump".`) {
		t.Errorf("name should be inserted as written:\n%s", got)
	}
	if strings.Contains(got, `\"`) {
		t.Errorf("name was escaped:\n%s", got)
	}
}

func TestFramesNeeded(t *testing.T) {
	if got := FramesNeeded(Animation{Name: "Jump", Frames: 6}); got != "This animation requires 6 frames" {
		t.Errorf("FramesNeeded = %q", got)
	}
	if got := FramesNeeded(Animation{}); !strings.HasPrefix(got, "Select") {
		t.Errorf("FramesNeeded empty = %q", got)
	}
}
