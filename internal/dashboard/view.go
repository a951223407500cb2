package dashboard

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/detail"
)

// Tab is a dashboard content tab.
type Tab string

const (
	TabPopulation     Tab = "population"
	TabHousing        Tab = "housing"
	TabTransportation Tab = "transportation"
	TabFood           Tab = "food"
)

// TabInfo describes one tab button.
type TabInfo struct {
	Tab     Tab
	Label   string
	Enabled bool
}

var tabs = []TabInfo{
	{Tab: TabPopulation, Label: "Population", Enabled: true},
	{Tab: TabHousing, Label: "Housing", Enabled: true},
	{Tab: TabTransportation, Label: "Transportation"},
	{Tab: TabFood, Label: "Food Access"},
}

// Tabs lists the tabs in display order.
func Tabs() []TabInfo {
	out := make([]TabInfo, len(tabs))
	copy(out, tabs)
	return out
}

// SetTab switches the active tab. Disabled and unknown tabs are rejected.
func (s *Session) SetTab(t Tab) error {
	for _, info := range tabs {
		if info.Tab != t {
			continue
		}
		if !info.Enabled {
			return eris.Errorf("dashboard: tab %q is disabled", t)
		}
		s.mu.Lock()
		s.tab = t
		s.mu.Unlock()
		return nil
	}
	return eris.Errorf("dashboard: unknown tab %q", t)
}

// ToggleChart flips the visibility of the age or race pyramid and returns the
// new value.
func (s *Session) ToggleChart(kind detail.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case detail.KindAge:
		s.showAge = !s.showAge
		return s.showAge
	case detail.KindRace:
		s.showRace = !s.showRace
		return s.showRace
	default:
		return false
	}
}

// Select projects the group label of kind from the loaded population data and
// makes it the kind's active selection.
func (s *Session) Select(kind detail.Kind, label string) (detail.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.population.Status != StatusSuccess {
		return nil, ErrNotLoaded
	}
	rec, err := detail.Project(kind, label, *s.population.Data)
	if err != nil {
		return nil, err
	}
	s.selections[kind] = rec
	return rec, nil
}

// SelectAt selects the bar at index in chart order.
func (s *Session) SelectAt(kind detail.Kind, index int) (detail.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.population.Status != StatusSuccess {
		return nil, ErrNotLoaded
	}
	rec, err := detail.ProjectAt(kind, index, *s.population.Data)
	if err != nil {
		return nil, err
	}
	s.selections[kind] = rec
	return rec, nil
}

// Selection returns the active selection of kind.
func (s *Session) Selection(kind detail.Kind) (detail.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.selections[kind]
	return rec, ok
}

// DetailPanel renders the active selection of kind under the current filters.
func (s *Session) DetailPanel(kind detail.Kind) (detail.Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.selections[kind]
	if !ok {
		return detail.Panel{}, false
	}
	return detail.NewPanel(rec, detail.Context{Year1: s.filters.Year1, Year2: s.filters.Year2, City: s.filters.City}), true
}

// Dismiss clears the active selection of kind.
func (s *Session) Dismiss(kind detail.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, kind)
}
