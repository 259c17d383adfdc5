package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Animation is an entry of the animation catalog.
type Animation struct {
	Name   string
	Frames int
}

var whitespace = regexp.MustCompile(`\s+`)

// DisplayName strips the catalog suffix from a label: "Walk Cycle (8 frames)"
// becomes "Walk Cycle".
func DisplayName(label string) string {
	name, _, _ := strings.Cut(label, " (")
	return name
}

// Slug turns a catalog label into the artifact file prefix: the display name,
// lowercased, with every whitespace run replaced by an underscore.
func Slug(label string) string {
	lower := cases.Lower(language.Und).String(DisplayName(label))
	return whitespace.ReplaceAllString(lower, "_")
}

// Template returns the generation prompt handed to an artist or image model
// for the given animation.
func Template(game string, a Animation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please create a %d-frame animation for %s game showing \"%s\".\n\n", a.Frames, game, DisplayName(a.Name))
	b.WriteString("Art style: Vibrant, cartoony, cute with a hint of sci-fi\n")
	b.WriteString("Consistency: Maintain same character proportions and style across all frames\n")
	b.WriteString("Resolution: 512x512 pixels\n")
	b.WriteString("Background: Transparent background preferred\n")
	fmt.Fprintf(&b, "Output: %d separate images numbered sequentially", a.Frames)
	return b.String()
}

// FramesNeeded is the hint shown next to the catalog selection.
func FramesNeeded(a Animation) string {
	if a.Frames <= 0 {
		return "Select an animation to see required frames"
	}
	return fmt.Sprintf("This animation requires %d frames", a.Frames)
}
