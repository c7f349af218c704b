package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/resumetailor/internal/ai"
	"github.com/go-chi/chi/v5"
)

const maxAIRequestBytes = 2 << 20

func (s *Server) handleAIComplete(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAIRequestBytes)

	var req ai.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Provider == "" || req.Model == "" || req.Prompt == "" {
		jsonError(w, "provider, model and prompt are required", http.StatusBadRequest)
		return
	}

	text, err := s.ai.Complete(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrUnknownProvider):
			jsonError(w, "Unknown provider: "+req.Provider, http.StatusBadRequest)
		case ai.UpstreamStatus(err) != 0:
			jsonError(w, err.Error(), ai.UpstreamStatus(err))
		default:
			s.log.Error("completion failed", "provider", req.Provider, "error", err)
			jsonError(w, "completion failed: "+err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"text": text})
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	path := chi.URLParam(r, "*")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAIRequestBytes))
	if err != nil {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp, err := s.proxy.Forward(r.Context(), provider, r.Method, path, r.URL.RawQuery, r.Header, body)
	if err != nil {
		if errors.Is(err, ai.ErrUnknownProvider) {
			jsonError(w, "Unknown provider: "+provider, http.StatusNotFound)
			return
		}
		s.log.Error("proxy failed", "provider", provider, "path", path, "error", err)
		jsonError(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
