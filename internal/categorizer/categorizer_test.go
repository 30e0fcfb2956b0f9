package categorizer

import (
	"testing"

	"github.com/lifesync/lifesync-core/internal/models"
)

func TestCategorizeKnownApps(t *testing.T) {
	cases := []struct {
		name string
		want models.AppCategory
	}{
		{"Instagram", models.AppCategoryNegative},
		{"instagram", models.AppCategoryNegative},
		{"Duolingo", models.AppCategoryPositive},
		{"Gmail", models.AppCategoryNeutral},
		{"Netflix", models.AppCategoryNegative},
		{"Headspace", models.AppCategoryPositive},
	}
	for _, c := range cases {
		if got := Categorize(c.name); got != c.want {
			t.Errorf("Categorize(%q) = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestCategorizeSelfAppAlwaysNeutral(t *testing.T) {
	// "Games" would match the negative keyword set; the self-app rule wins first.
	for _, name := range []string{"LifeSync Games", "lifesync games", "LIFESYNC GAMES beta"} {
		if got := Categorize(name); got != models.AppCategoryNeutral {
			t.Errorf("Categorize(%q) = %s, want neutral", name, got)
		}
	}
}

func TestCategorizeKeywordWordBoundary(t *testing.T) {
	// "game" extends to "gaming" but must not match inside "image".
	if got := Categorize("Cloud Gaming Hub"); got != models.AppCategoryNegative {
		t.Errorf("expected gaming to match negative keyword, got %s", got)
	}
	if got := Categorize("Image Editor Pro"); got == models.AppCategoryNegative {
		t.Errorf("'image' must not match the 'game' keyword")
	}
}

func TestCategorizeKeywordPriority(t *testing.T) {
	// A name matching both negative and positive keywords resolves negative first.
	if got := Categorize("yoga game"); got != models.AppCategoryNegative {
		t.Errorf("negative keywords take priority, got %s", got)
	}
}

func TestCategorizeDefaultNeutral(t *testing.T) {
	for _, name := range []string{"", "   ", "Frobnicator 3000"} {
		if got := Categorize(name); got != models.AppCategoryNeutral {
			t.Errorf("Categorize(%q) = %s, want neutral", name, got)
		}
	}
}

func TestCategorizeIdempotent(t *testing.T) {
	first := Categorize("Subway Surfers")
	second := Categorize("Subway Surfers")
	if first != second {
		t.Errorf("classification not deterministic: %s vs %s", first, second)
	}
}
