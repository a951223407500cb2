package demographics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/model"
)

func TestPopulation_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/population", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.PopulationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.PopulationRequest{Year1: "2010", Year2: "2020", City: "Somerville"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"age_group_data": {"year1": {"00 - 04": {"male": 10, "female": 12, "total": 22}}, "year2": {}, "changes": {}, "sentences": ["a", "b"]},
			"race_group_data": {"year1": {"white": 50}, "year2": {"white": 45}, "changes": {"white": {"change_absolute": -5, "change_percent": -10, "color": "darkred"}}, "sentences": []},
			"total_city_change": {"change": 1234, "percent": 1.6, "color": "#30664B"}
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL + "/"))
	got, err := client.Population(context.Background(), model.PopulationRequest{Year1: "2010", Year2: "2020", City: "Somerville"})

	require.NoError(t, err)
	assert.Equal(t, 22, got.AgeGroupData.Year1["00 - 04"].Total)
	assert.Equal(t, []string{"a", "b"}, got.AgeGroupData.Sentences)
	assert.Equal(t, -5, got.RaceGroupData.Changes["white"].ChangeAbsolute)
	assert.Equal(t, 1234, got.TotalCityChange.Change)
}

func TestPopulation_ServerReported(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"db down"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Population(context.Background(), model.PopulationRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OriginServerReported, apiErr.Origin)
	assert.Equal(t, "db down", apiErr.Message)
	assert.Equal(t, 500, apiErr.Status)
	assert.Contains(t, err.Error(), "500")
}

func TestPopulation_ServerReportedWithoutMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Population(context.Background(), model.PopulationRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OriginServerReported, apiErr.Origin)
	assert.Equal(t, "Failed to fetch population data", apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestHousing_ValidationError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(-250), body["city_change_absolute"])
		assert.Equal(t, -0.3, body["city_change_percent"])

		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"year1 (2020) must be before year2 (2010)"}`))
	}))
	defer srv.Close()

	change, pct := -250, -0.3
	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Housing(context.Background(), model.HousingRequest{
		Year1: "2020", Year2: "2010", City: "Somerville",
		CityChangeAbsolute: &change, CityChangePercent: &pct,
	})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "year1 (2020) must be before year2 (2010)", apiErr.Message)
}

func TestHousing_EmptyErrorFallsBack(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Housing(context.Background(), model.HousingRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Failed to fetch housing data", apiErr.Message)
}

func TestHousing_DecodesGeoJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"geojson": {"type": "FeatureCollection", "features": [
				{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]},
				 "properties": {"GEOID20": "250173501001", "TOWN": "Somerville", "z": 12}}
			]},
			"sentences": ["Housing grew."]
		}`))
	}))
	defer srv.Close()

	got, err := NewClient(WithBaseURL(srv.URL)).Housing(context.Background(), model.HousingRequest{})
	require.NoError(t, err)
	require.Len(t, got.GeoJSON.Features, 1)
	z, ok := model.FeatureNumber(got.GeoJSON.Features[0], model.PropZ)
	assert.True(t, ok)
	assert.Equal(t, 12.0, z)
	assert.Equal(t, []string{"Housing grew."}, got.Sentences)
}

func TestPopulation_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(WithBaseURL(url), WithTimeout(2*time.Second)).Population(context.Background(), model.PopulationRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OriginTransport, apiErr.Origin)
	assert.Equal(t, TransportMessage, apiErr.Message)
	assert.Equal(t, 0, apiErr.Status)
	assert.NotNil(t, errors.Unwrap(apiErr))
}

func TestPopulation_MalformedSuccessBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Population(context.Background(), model.PopulationRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OriginTransport, apiErr.Origin)
	assert.Equal(t, 0, apiErr.Status)
}

func TestPopulation_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithBaseURL(srv.URL)).Population(ctx, model.PopulationRequest{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OriginTransport, apiErr.Origin)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	hc := &http.Client{}
	c := NewClient(WithHTTPClient(hc)).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
}

func TestWithTimeout_DoesNotMutateCallerClient(t *testing.T) {
	t.Parallel()

	hc := &http.Client{Timeout: 5 * time.Second}
	for _, opts := range [][]Option{
		{WithHTTPClient(hc), WithTimeout(time.Second)},
		{WithTimeout(time.Second), WithHTTPClient(hc)},
	} {
		c := NewClient(opts...).(*httpClient)
		assert.NotSame(t, hc, c.http)
		assert.Equal(t, time.Second, c.http.Timeout)
	}
	assert.Equal(t, 5*time.Second, hc.Timeout)
}

func TestWithHTTPClient_NilKeepsDefault(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		c := NewClient(WithHTTPClient(nil), WithTimeout(3*time.Second)).(*httpClient)
		require.NotNil(t, c.http)
		assert.Equal(t, 3*time.Second, c.http.Timeout)
		assert.NotNil(t, c.http.Transport)
	})

	c := NewClient().(*httpClient)
	assert.Equal(t, 60*time.Second, c.http.Timeout)
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "server-reported", OriginServerReported.String())
	assert.Equal(t, "transport", OriginTransport.String())
	assert.Equal(t, "unknown", Origin(0).String())
}
