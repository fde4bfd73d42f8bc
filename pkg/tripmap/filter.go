package tripmap

import "github.com/FACorreiaa/go-tripmap/pkg/geo"

// Filter is the active category set. It is never empty: clearing the last
// category selects all of them again.
type Filter struct {
	selected map[geo.Category]bool
}

func NewFilter() *Filter {
	f := &Filter{}
	f.All()
	return f
}

// All selects every category.
func (f *Filter) All() {
	f.selected = make(map[geo.Category]bool, len(geo.AllCategories))
	for _, c := range geo.AllCategories {
		f.selected[c] = true
	}
}

func (f *Filter) IsAll() bool {
	return len(f.selected) == len(geo.AllCategories)
}

// Toggle narrows to c when everything is selected, otherwise flips c.
// Unknown categories are ignored.
func (f *Filter) Toggle(c geo.Category) {
	if !c.Valid() {
		return
	}
	switch {
	case f.IsAll():
		f.selected = map[geo.Category]bool{c: true}
	case f.selected[c]:
		delete(f.selected, c)
		if len(f.selected) == 0 {
			f.All()
		}
	default:
		f.selected[c] = true
	}
}

func (f *Filter) Selected(c geo.Category) bool {
	return f.selected[c]
}

// Categories returns the active set in display order.
func (f *Filter) Categories() []geo.Category {
	out := make([]geo.Category, 0, len(f.selected))
	for _, c := range geo.AllCategories {
		if f.selected[c] {
			out = append(out, c)
		}
	}
	return out
}

// Query renders the active set as the category request parameter.
func (f *Filter) Query() string {
	return geo.JoinCategories(f.Categories())
}

// CategorySet is a small set of categories.
type CategorySet map[geo.Category]bool

func NewCategorySet(cats ...geo.Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = true
	}
	return s
}

// DefaultNotifyCategories are the categories that raise proximity alerts
// unless configured otherwise.
func DefaultNotifyCategories() CategorySet {
	return NewCategorySet(geo.CategoryRestaurant, geo.CategoryCafe, geo.CategoryAttraction)
}

// NameSet is a set of place names.
type NameSet map[string]bool

func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
