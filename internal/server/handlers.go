package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/logger"
	"github.com/dmitrymomot/hoard/pkg/source"
)

type statsResponse struct {
	Entries cache.StatsSnapshot  `json:"entries"`
	Lookup  *cache.StatsSnapshot `json:"lookup,omitempty"`
	HitRate float64              `json:"hit_rate"`
	Shards  int                  `json:"shards"`
}

type keysResponse struct {
	Keys []string `json:"keys"`
}

type warmRequest struct {
	Keys []string `json:"keys"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.entries.Stats()
	resp := statsResponse{
		Entries: snap,
		HitRate: snap.HitRate(),
		Shards:  s.entries.Shards(),
	}
	if s.lookup != nil {
		ls := s.lookup.Cache().Stats()
		resp.Lookup = &ls
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, keysResponse{Keys: s.entries.Keys()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, ok := s.entries.Get(chi.URLParam(r, "key"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeBytes(w, v)
}

// handlePut stores the request body. Optional ttl and sliding query
// parameters take Go duration strings.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var opts []cache.SetOption
	for param, opt := range map[string]func(time.Duration) cache.SetOption{
		"ttl":     cache.WithTTL,
		"sliding": cache.WithSlidingTTL,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, ErrInvalidTTL)
			return
		}
		opts = append(opts, opt(d))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, errors.Join(ErrInvalidBody, err))
		return
	}
	opts = append(opts, cache.WithSize(int64(len(body))))

	switch err := s.entries.Set(key, body, opts...); {
	case errors.Is(err, cache.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, cache.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.entries.Delete(chi.URLParam(r, "key")) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.entries.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	v, err := s.lookup.Call(r.Context(), key)
	switch {
	case err == nil:
		writeBytes(w, v)
	case errors.Is(err, source.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, err)
	default:
		s.logger.WarnContext(logger.WithCacheKey(r.Context(), key), "lookup failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	s.lookup.Delete(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

// handleWarm loads the given keys into the lookup cache. The request is
// bounded by defaultWarmTimeout.
func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Join(ErrInvalidBody, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultWarmTimeout)
	defer cancel()

	if err := s.lookup.Warm(ctx, req.Keys...); err != nil {
		s.logger.WarnContext(ctx, "warm failed", slog.Int("keys", len(req.Keys)), slog.Any("error", err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBytes(w http.ResponseWriter, v []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
