package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// maxBodyBytes bounds a create request body.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps storage errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrInvalidID):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidPosition),
		errors.Is(err, types.ErrInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.Any("error", err))
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
}

func (s *Server) listCities(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cities, err := s.table.Fetch(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// parseFilter reads ?country=, ?near=lat,lng and ?within_km=.
func parseFilter(r *http.Request) (types.Filter, error) {
	q := r.URL.Query()
	filter := types.Filter{Country: strings.TrimSpace(q.Get("country"))}

	if near := q.Get("near"); near != "" {
		pos, err := parsePosition(near)
		if err != nil {
			return types.Filter{}, err
		}
		filter.Near = &pos
		filter.WithinKm = DefaultWithinKm
	}
	if within := q.Get("within_km"); within != "" {
		km, err := strconv.ParseFloat(within, 64)
		if err != nil || km < 0 {
			return types.Filter{}, fmt.Errorf("within_km %q: must be a non-negative number", within)
		}
		if filter.Near == nil {
			return types.Filter{}, errors.New("within_km requires near")
		}
		filter.WithinKm = km
	}
	return filter, nil
}

func parsePosition(s string) (types.Position, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return types.Position{}, fmt.Errorf("near %q: want lat,lng", s)
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	pos := types.Position{Lat: lat, Lng: lng}
	if latErr != nil || lngErr != nil || !pos.Valid() {
		return types.Position{}, fmt.Errorf("near %q: %w", s, types.ErrInvalidPosition)
	}
	return pos, nil
}

func (s *Server) getCity(w http.ResponseWriter, r *http.Request) {
	id := types.CityID(mux.Vars(r)["id"])
	if city, ok := s.cache.get(id); ok {
		writeJSON(w, http.StatusOK, city)
		return
	}
	city, err := s.table.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.set(city)
	writeJSON(w, http.StatusOK, city)
}

func (s *Server) createCity(w http.ResponseWriter, r *http.Request) {
	var in types.City
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	created, err := s.table.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.set(created)
	s.logger.InfoContext(r.Context(), "city created",
		slog.String("id", created.ID.String()),
		slog.String("city", created.CityName),
		slog.String("request_id", RequestID(r.Context())))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteCity(w http.ResponseWriter, r *http.Request) {
	id := types.CityID(mux.Vars(r)["id"])
	if err := s.table.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.cache.delete(id)
	s.logger.InfoContext(r.Context(), "city deleted",
		slog.String("id", id.String()),
		slog.String("request_id", RequestID(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCountries(w http.ResponseWriter, r *http.Request) {
	cities, err := s.table.Fetch(r.Context(), types.Filter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Countries(cities))
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.health(); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
