package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/detail"
)

func TestTabs(t *testing.T) {
	got := Tabs()
	require.Len(t, got, 4)
	assert.Equal(t, TabPopulation, got[0].Tab)
	assert.True(t, got[1].Enabled)
	assert.False(t, got[2].Enabled)
	assert.Equal(t, "Food Access", got[3].Label)

	got[0].Enabled = false
	assert.True(t, Tabs()[0].Enabled, "Tabs must return a copy")
}

func TestSetTab(t *testing.T) {
	s := New(&fakeClient{}, DefaultFilters())

	require.NoError(t, s.SetTab(TabHousing))
	assert.Equal(t, TabHousing, s.Snapshot().Tab)

	assert.Error(t, s.SetTab(TabTransportation))
	assert.Error(t, s.SetTab(TabFood))
	assert.Error(t, s.SetTab("weather"))
	assert.Equal(t, TabHousing, s.Snapshot().Tab)
}

func TestToggleChart(t *testing.T) {
	s := New(&fakeClient{}, DefaultFilters())

	assert.False(t, s.ToggleChart(detail.KindAge))
	assert.True(t, s.ToggleChart(detail.KindRace))

	st := s.Snapshot()
	assert.False(t, st.ShowAge)
	assert.True(t, st.ShowRace)

	assert.False(t, s.ToggleChart(detail.Kind(5)))
}

func TestSelect_BeforeLoad(t *testing.T) {
	s := New(&fakeClient{}, DefaultFilters())

	_, err := s.Select(detail.KindAge, "00 - 04")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.SelectAt(detail.KindRace, 0)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSelect_UnknownGroupKeepsPrevious(t *testing.T) {
	s := New(&fakeClient{}, DefaultFilters())
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Select(detail.KindAge, "00 - 04")
	require.NoError(t, err)

	_, err = s.Select(detail.KindAge, "90 - 94")
	assert.ErrorIs(t, err, detail.ErrUnknownGroup)

	rec, ok := s.Selection(detail.KindAge)
	require.True(t, ok)
	assert.Equal(t, "00 - 04", rec.Group())
}

func TestDetailPanelAndDismiss(t *testing.T) {
	s := New(&fakeClient{}, DefaultFilters())
	require.NoError(t, s.Load(context.Background()))

	_, ok := s.DetailPanel(detail.KindRace)
	assert.False(t, ok)

	_, err := s.SelectAt(detail.KindRace, 0)
	require.NoError(t, err)

	p, ok := s.DetailPanel(detail.KindRace)
	require.True(t, ok)
	assert.Equal(t, "Asian Population in Somerville", p.Title)
	assert.Equal(t, "2010 → 2020", p.Subtitle)
	assert.Equal(t, detail.LayoutOneRow, p.Layout)

	_, err = s.Select(detail.KindAge, "00 - 04")
	require.NoError(t, err)
	p, ok = s.DetailPanel(detail.KindAge)
	require.True(t, ok)
	assert.Equal(t, detail.LayoutTwoRow, p.Layout)
	assert.Equal(t, "+20 (0.0%)", p.Rows[0][3])

	s.Dismiss(detail.KindRace)
	_, ok = s.Selection(detail.KindRace)
	assert.False(t, ok)
	_, ok = s.Selection(detail.KindAge)
	assert.True(t, ok)
}
