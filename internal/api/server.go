// Package api serves the census population and housing endpoints consumed by
// the dashboard.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/missing-middle/internal/analysis"
	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/geospatial"
	"github.com/sells-group/missing-middle/internal/model"
)

const (
	endpointPopulation = "population"
	endpointHousing    = "housing"

	msgNotJSON  = "Request body must be JSON"
	msgInternal = "Internal server error"

	maxBodyBytes = 1 << 20
)

// HousingMapper builds the block group housing map.
type HousingMapper interface {
	HousingMap(ctx context.Context, t *dataset.Table, year1, year2, town string) (*geojson.FeatureCollection, error)
}

// Server holds the loaded dataset and the collaborators behind each route.
type Server struct {
	table     *dataset.Table
	validator *dataset.Validator
	housing   HousingMapper
	cache     *ResponseCache
	limiter   *rate.Limiter
	origins   []string
}

// NewServer wires a Server from the loaded table and config.
func NewServer(cfg *config.Config, t *dataset.Table, housing HousingMapper) *Server {
	burst := cfg.Server.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.Server.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.Server.RateLimitRPS)
	}

	return &Server{
		table:     t,
		validator: dataset.NewValidator(t, cfg.Data.ValidYears),
		housing:   housing,
		cache:     NewResponseCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute),
		limiter:   rate.NewLimiter(limit, burst),
		origins:   cfg.Server.CORSOrigins,
	}
}

// Cache exposes the response cache.
func (s *Server) Cache() *ResponseCache { return s.cache }

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.limiter))
		r.Post("/population", s.handlePopulation)
		r.Post("/housing", s.handleHousing)
		r.Get("/cache/stats", s.handleCacheStats)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rows":   s.table.Len(),
		"towns":  len(s.table.Towns()),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	var req model.PopulationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, _ := json.Marshal(req)

	s.serveCached(w, r, endpointPopulation, key, func() (any, error) {
		if err := s.validator.ValidateRequest(req.Year1, req.Year2, req.City); err != nil {
			return nil, err
		}
		return analysis.Population(s.table, req.Year1, req.Year2, req.City)
	})
}

func (s *Server) handleHousing(w http.ResponseWriter, r *http.Request) {
	var req model.HousingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, _ := json.Marshal(req)

	s.serveCached(w, r, endpointHousing, key, func() (any, error) {
		if err := s.validator.ValidateRequest(req.Year1, req.Year2, req.City); err != nil {
			return nil, err
		}

		fc, err := s.housing.HousingMap(r.Context(), s.table, req.Year1, req.Year2, req.City)
		if err != nil {
			return nil, err
		}

		resp := &model.HousingResponse{GeoJSON: fc, Sentences: []string{}}
		if req.CityChangeAbsolute != nil && *req.CityChangeAbsolute != 0 {
			pop := model.CityChange{Change: *req.CityChangeAbsolute}
			if req.CityChangePercent != nil {
				pop.Percent = *req.CityChangePercent
			}
			h, err := analysis.CityHousing(s.table, req.Year1, req.Year2, req.City)
			if err != nil {
				return nil, err
			}
			resp.Sentences = analysis.HousingSentences(req.City, h, pop)
		}
		return resp, nil
	})
}

// serveCached answers from the response cache or runs build and caches a
// successful result. Errors are never cached.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, endpoint string, key []byte, build func() (any, error)) {
	if body := s.cache.Get(endpoint, key); body != nil {
		w.Header().Set("X-Cache", "hit")
		writeRaw(w, http.StatusOK, body)
		return
	}

	resp, err := build()
	if err != nil {
		status, msg := errorResponse(err)
		log := zap.L().With(
			zap.String("request_id", RequestID(r.Context())),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		if status < http.StatusInternalServerError {
			log.Warn("api: validation error")
		} else {
			log.Error("api: request failed")
		}
		writeError(w, status, msg)
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		zap.L().Error("api: encode response", zap.String("endpoint", endpoint), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	s.cache.Put(endpoint, key, body)
	w.Header().Set("X-Cache", "miss")
	writeRaw(w, http.StatusOK, body)
}

// decodeBody reads a non-empty JSON object into v. It writes the 400
// response itself and returns false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNotJSON)
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		writeError(w, http.StatusBadRequest, msgNotJSON)
		return false
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgNotJSON)
		return false
	}
	return true
}

// errorResponse maps an internal error to its HTTP status and message.
func errorResponse(err error) (int, string) {
	var ve *dataset.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}
	var ce *dataset.ColumnError
	if errors.As(err, &ce) {
		return http.StatusInternalServerError, "Data column not found: '" + ce.Column + "'"
	}
	var mf *geospatial.MissingFileError
	if errors.As(err, &mf) {
		return http.StatusInternalServerError, "Required file not found: " + mf.Path
	}
	return http.StatusInternalServerError, msgInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(eris.Wrap(err, "api: marshal")))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgInternal + `"}`)
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
