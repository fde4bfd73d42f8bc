package geo

import (
	"strings"
	"sync"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"golang.org/x/text/cases"
)

// Category is the normalized place category used for filtering and display.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryAttraction Category = "attraction"
	CategoryHistoric   Category = "historic"
	CategoryOther      Category = "other"
)

// AllCategories is the fixed, filterable category set in display order.
// CategoryOther is derived and never part of a filter.
var AllCategories = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryAttraction,
	CategoryHistoric,
}

// keywords are matched against the folded raw type. The slice order is the
// match priority: the lowest index found wins.
var keywords = []struct {
	pattern  string
	category Category
}{
	{"restaurant", CategoryRestaurant},
	{"cafe", CategoryCafe},
	{"historic", CategoryHistoric},
	{"attraction", CategoryAttraction},
	{"tourism", CategoryAttraction},
}

var (
	matcherOnce sync.Once
	matcherMu   sync.Mutex
	matcher     ahocorasick.AhoCorasick
)

func categoryMatcher() *ahocorasick.AhoCorasick {
	matcherOnce.Do(func() {
		patterns := make([]string, len(keywords))
		for i, k := range keywords {
			patterns[i] = k.pattern
		}
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			AsciiCaseInsensitive: true,
			MatchOnlyWholeWords:  false,
			MatchKind:            ahocorasick.StandardMatch,
			DFA:                  true,
		})
		matcher = builder.Build(patterns)
	})
	return &matcher
}

// NormalizeCategory maps a free-form place type label onto a Category.
// Matching is a case-insensitive substring search evaluated in the priority
// order restaurant, cafe, historic, attraction (or tourism); anything else is
// CategoryOther.
func NormalizeCategory(raw string) Category {
	if strings.TrimSpace(raw) == "" {
		return CategoryOther
	}
	folded := cases.Fold().String(raw)

	m := categoryMatcher()
	matcherMu.Lock()
	matches := m.FindAll(folded)
	matcherMu.Unlock()

	best := -1
	for _, match := range matches {
		if p := match.Pattern(); best == -1 || p < best {
			best = p
		}
	}
	if best == -1 {
		return CategoryOther
	}
	return keywords[best].category
}

// Valid reports whether c is one of the filterable categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategories parses a comma separated category list. Blank and unknown
// entries are ignored and duplicates collapse. The result keeps AllCategories
// order.
func ParseCategories(list string) []Category {
	seen := make(map[Category]bool)
	for _, part := range strings.Split(list, ",") {
		c := Category(strings.ToLower(strings.TrimSpace(part)))
		if c.Valid() {
			seen[c] = true
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range AllCategories {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// JoinCategories renders categories as a comma list.
func JoinCategories(cats []Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
