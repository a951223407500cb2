// Package dashboard holds the view state of the demographics dashboard: the
// year and city filters, the population and housing panels, chart toggles,
// the active tab, and the selected detail records.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/internal/model"
	"github.com/sells-group/missing-middle/pkg/demographics"
)

var (
	// ErrNotRetryable is returned by Retry when the panel is not in Error.
	ErrNotRetryable = eris.New("dashboard: panel is not in error state")
	// ErrSuperseded is returned when a load finished after a newer one
	// started; its result was discarded.
	ErrSuperseded = eris.New("dashboard: request superseded")
	// ErrNotLoaded is returned by selection calls before population data has
	// loaded.
	ErrNotLoaded = eris.New("dashboard: population data not loaded")
)

// Filters are the user-selected inputs of every fetch.
type Filters struct {
	Year1 string `json:"year1"`
	Year2 string `json:"year2"`
	City  string `json:"city"`
}

// DefaultFilters returns the filters the dashboard opens with.
func DefaultFilters() Filters {
	return Filters{Year1: config.DefaultYear1, Year2: config.DefaultYear2, City: config.DefaultCity}
}

// Status is the lifecycle state of a panel.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PanelID names one of the two fetch-backed panels.
type PanelID int

const (
	PanelPopulation PanelID = iota
	PanelHousing
)

// Panel is the state of one fetch-backed panel. Data is set only in
// StatusSuccess and Err only in StatusError.
type Panel[T any] struct {
	Status Status
	Data   *T
	Err    *demographics.Error
}

// State is a point-in-time copy of the session.
type State struct {
	Filters    Filters
	Population Panel[model.PopulationResponse]
	Housing    Panel[model.HousingResponse]
	Tab        Tab
	ShowAge    bool
	ShowRace   bool
	Selections map[detail.Kind]detail.Record
}

// Session is the dashboard view model. It is safe for concurrent use; network
// calls run outside the lock and completions are fenced by generation so that
// only the most recent request for a panel is applied.
type Session struct {
	client demographics.Client

	mu            sync.Mutex
	filters       Filters
	population    Panel[model.PopulationResponse]
	housing       Panel[model.HousingResponse]
	popGen        uint64
	housingGen    uint64
	popCancel     context.CancelFunc
	housingCancel context.CancelFunc
	tab           Tab
	showAge       bool
	showRace      bool
	selections    map[detail.Kind]detail.Record
}

// New creates an idle session with the given starting filters.
func New(client demographics.Client, filters Filters) *Session {
	return &Session{
		client:     client,
		filters:    filters,
		tab:        TabPopulation,
		showAge:    true,
		selections: make(map[detail.Kind]detail.Record),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := make(map[detail.Kind]detail.Record, len(s.selections))
	for k, v := range s.selections {
		sel[k] = v
	}
	return State{
		Filters:    s.filters,
		Population: s.population,
		Housing:    s.housing,
		Tab:        s.tab,
		ShowAge:    s.showAge,
		ShowRace:   s.showRace,
		Selections: sel,
	}
}

// Filters returns the current filters.
func (s *Session) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Load fetches population data for the current filters, then housing data
// using the population panel's town-wide change. It blocks until both finish
// or the load is superseded.
func (s *Session) Load(ctx context.Context) error {
	return s.load(ctx, nil)
}

// SetFilters replaces the filters and reloads. The new filters, the Loading
// panels and the cleared selections become visible in one step.
func (s *Session) SetFilters(ctx context.Context, f Filters) error {
	return s.load(ctx, func(cur *Filters) { *cur = f })
}

// SetYear1 changes the first census year and reloads.
func (s *Session) SetYear1(ctx context.Context, year string) error {
	return s.load(ctx, func(f *Filters) { f.Year1 = year })
}

// SetYear2 changes the second census year and reloads.
func (s *Session) SetYear2(ctx context.Context, year string) error {
	return s.load(ctx, func(f *Filters) { f.Year2 = year })
}

// SetCity changes the town and reloads.
func (s *Session) SetCity(ctx context.Context, city string) error {
	return s.load(ctx, func(f *Filters) { f.City = city })
}

func (s *Session) load(ctx context.Context, update func(*Filters)) error {
	s.mu.Lock()
	gen, fctx, cancel, req := s.beginPopulationLocked(ctx, update)
	s.mu.Unlock()
	defer cancel()

	pop, err := s.client.Population(fctx, req)

	s.mu.Lock()
	if gen != s.popGen {
		s.mu.Unlock()
		zap.L().Debug("dashboard: discarding stale population response", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	s.popCancel = nil
	if err != nil {
		s.population = Panel[model.PopulationResponse]{Status: StatusError, Err: normalize(err)}
		s.housing = Panel[model.HousingResponse]{}
		s.mu.Unlock()
		zap.L().Warn("dashboard: population load failed",
			zap.String("city", req.City), zap.Error(err))
		return err
	}
	s.population = Panel[model.PopulationResponse]{Status: StatusSuccess, Data: pop}
	s.mu.Unlock()

	return s.loadHousing(ctx, gen, Filters{Year1: req.Year1, Year2: req.Year2, City: req.City})
}

// Retry re-issues the failed request of panel id with unchanged filters.
func (s *Session) Retry(ctx context.Context, id PanelID) error {
	s.mu.Lock()
	var status Status
	switch id {
	case PanelPopulation:
		status = s.population.Status
	case PanelHousing:
		status = s.housing.Status
	default:
		s.mu.Unlock()
		return eris.Errorf("dashboard: unknown panel %d", id)
	}
	gen, filters := s.popGen, s.filters
	s.mu.Unlock()

	if status != StatusError {
		return eris.Wrapf(ErrNotRetryable, "dashboard: panel is %s", status)
	}
	if id == PanelPopulation {
		return s.Load(ctx)
	}
	return s.loadHousing(ctx, gen, filters)
}

// beginPopulationLocked starts a new generation: it applies update when
// non-nil, cancels in-flight requests, clears selections and marks both
// panels Loading.
func (s *Session) beginPopulationLocked(ctx context.Context, update func(*Filters)) (uint64, context.Context, context.CancelFunc, model.PopulationRequest) {
	if update != nil {
		update(&s.filters)
	}
	s.popGen++
	s.housingGen++
	if s.popCancel != nil {
		s.popCancel()
	}
	if s.housingCancel != nil {
		s.housingCancel()
		s.housingCancel = nil
	}

	fctx, cancel := context.WithCancel(ctx)
	s.popCancel = cancel
	s.population = Panel[model.PopulationResponse]{Status: StatusLoading}
	s.housing = Panel[model.HousingResponse]{Status: StatusLoading}
	clear(s.selections)

	return s.popGen, fctx, cancel, model.PopulationRequest{Year1: s.filters.Year1, Year2: s.filters.Year2, City: s.filters.City}
}

// loadHousing fetches housing for the filters the population panel of
// generation popGen was loaded with.
func (s *Session) loadHousing(ctx context.Context, popGen uint64, f Filters) error {
	s.mu.Lock()
	if popGen != s.popGen || s.population.Status != StatusSuccess {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.housingGen++
	gen := s.housingGen
	if s.housingCancel != nil {
		s.housingCancel()
	}
	hctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.housingCancel = cancel
	s.housing = Panel[model.HousingResponse]{Status: StatusLoading}

	total := s.population.Data.TotalCityChange
	change, pct := total.Change, total.Percent
	req := model.HousingRequest{
		Year1:              f.Year1,
		Year2:              f.Year2,
		City:               f.City,
		CityChangeAbsolute: &change,
		CityChangePercent:  &pct,
	}
	s.mu.Unlock()

	res, err := s.client.Housing(hctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.housingGen {
		zap.L().Debug("dashboard: discarding stale housing response", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	s.housingCancel = nil
	if err != nil {
		s.housing = Panel[model.HousingResponse]{Status: StatusError, Err: normalize(err)}
		zap.L().Warn("dashboard: housing load failed", zap.String("city", req.City), zap.Error(err))
		return err
	}
	s.housing = Panel[model.HousingResponse]{Status: StatusSuccess, Data: res}
	return nil
}

// normalize coerces any client failure into a *demographics.Error.
func normalize(err error) *demographics.Error {
	var apiErr *demographics.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &demographics.Error{Origin: demographics.OriginTransport, Message: demographics.TransportMessage, Err: err}
}
