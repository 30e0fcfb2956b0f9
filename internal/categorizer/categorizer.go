// Package categorizer classifies application names into wellbeing categories.
//
// Classification is pure and total: any input maps to positive, negative or
// neutral, with neutral as the default for unrecognized names. Priority is
// fixed: the host app's own name wins first, then the curated known-app
// lists (negative before positive before neutral), then whole-word keyword
// matches in the same order.
package categorizer

import (
	"regexp"
	"strings"
	"sync"

	"github.com/lifesync/lifesync-core/internal/models"
)

// selfAppName is force-classified neutral so the app never scores against itself.
const selfAppName = "lifesync games"

var categoryOrder = []struct {
	key    string
	result models.AppCategory
}{
	{"negative", models.AppCategoryNegative},
	{"positive", models.AppCategoryPositive},
	{"neutral", models.AppCategoryNeutral},
}

var (
	keywordOnce     sync.Once
	keywordPatterns map[string][]*regexp.Regexp
)

// compileKeywords builds the whole-word, suffix-extendable patterns once.
// "game" must match "game", "gaming" and "games" but not "image".
func compileKeywords() {
	keywordPatterns = make(map[string][]*regexp.Regexp, len(categoryKeywords))
	for key, keywords := range categoryKeywords {
		patterns := make([]*regexp.Regexp, 0, len(keywords))
		for _, kw := range keywords {
			patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\w*\b`))
		}
		keywordPatterns[key] = patterns
	}
}

// Categorize classifies an application name. It never fails; unknown or
// empty names are neutral.
func Categorize(appName string) models.AppCategory {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		return models.AppCategoryNeutral
	}

	if name == selfAppName || strings.Contains(name, selfAppName) {
		return models.AppCategoryNeutral
	}

	if cat, ok := checkKnownApps(name); ok {
		return cat
	}

	keywordOnce.Do(compileKeywords)
	for _, order := range categoryOrder {
		for _, pattern := range keywordPatterns[order.key] {
			if pattern.MatchString(name) {
				return order.result
			}
		}
	}

	return models.AppCategoryNeutral
}

// checkKnownApps matches against the curated app lists, exact or substring,
// negative list first.
func checkKnownApps(name string) (models.AppCategory, bool) {
	for _, order := range categoryOrder {
		for _, app := range knownApps[order.key] {
			lower := strings.ToLower(app)
			if name == lower || strings.Contains(name, lower) {
				return order.result, true
			}
		}
	}
	return "", false
}
