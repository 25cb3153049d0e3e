package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/host"
	"github.com/yanizio/adept/internal/pluginapi"
	"github.com/yanizio/adept/internal/pluginconfig"
	"github.com/yanizio/adept/internal/schema"
)

// maxBody caps config payloads.
const maxBody = 1 << 20

type pluginInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Schemas     []string `json:"config_schemas,omitempty"`
}

type moveRequest struct {
	SourceSiteID int      `json:"source_site_id"`
	TargetSiteID int      `json:"target_site_id"`
	URLs         []string `json:"urls"`
}

type moveFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

type moveResponse struct {
	Moved   []string      `json:"moved"`
	Skipped []string      `json:"skipped"`
	Failed  []moveFailure `json:"failed"`
}

func (s *Server) listPlugins(w http.ResponseWriter, _ *http.Request) {
	all := s.Registry.All()
	out := make([]pluginInfo, 0, len(all))
	for _, m := range all {
		out = append(out, pluginInfo{
			ID:          m.ID,
			Name:        m.DisplayName(),
			Version:     m.Version,
			Description: m.Description,
			Schemas:     m.Schemas.Names(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listConfig(w http.ResponseWriter, r *http.Request) {
	pc, siteID, ok := s.resolve(w, r)
	if !ok {
		return
	}
	names, err := pc.Store().NamesE(r.Context(), siteID)
	if err != nil {
		s.fail(w, pc, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	pc, siteID, ok := s.resolve(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	found, err := pc.Store().LoadE(r.Context(), siteID, chi.URLParam(r, "name"), &raw)
	if err != nil {
		s.fail(w, pc, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "config not found", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	pc, siteID, ok := s.resolve(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body", "")
		return
	}
	if len(body) > maxBody {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large", "")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be valid JSON", "")
		return
	}
	if err := pc.Store().SetE(r.Context(), siteID, chi.URLParam(r, "name"), json.RawMessage(body)); err != nil {
		s.fail(w, pc, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteConfig(w http.ResponseWriter, r *http.Request) {
	pc, siteID, ok := s.resolve(w, r)
	if !ok {
		return
	}
	if err := pc.Store().RemoveE(r.Context(), siteID, chi.URLParam(r, "name")); err != nil {
		s.fail(w, pc, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) moveResources(w http.ResponseWriter, r *http.Request) {
	pc, ok := s.context(w, r)
	if !ok {
		return
	}
	var req moveRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid move request", "")
		return
	}
	rep := pc.MoveResources(r.Context(), req.SourceSiteID, req.TargetSiteID, req.URLs)

	out := moveResponse{Moved: nonNil(rep.Moved), Skipped: nonNil(rep.Skipped), Failed: []moveFailure{}}
	for _, f := range rep.Failed {
		out.Failed = append(out.Failed, moveFailure{URL: f.URL, Error: f.Err.Error()})
	}
	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

/* ------------------------------------------------------------------ */
/*  helpers                                                            */
/* ------------------------------------------------------------------ */

// context returns the Runtime Context named by {pluginID}.
func (s *Server) context(w http.ResponseWriter, r *http.Request) (*pluginapi.Context, bool) {
	pc, err := s.Contexts.Get(chi.URLParam(r, "pluginID"))
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plugin not found", "")
			return nil, false
		}
		zap.L().Error("plugin context load", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "plugin context unavailable", "")
		return nil, false
	}
	return pc, true
}

// resolve returns the Runtime Context and the {siteID} parameter.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (*pluginapi.Context, int, bool) {
	siteID, err := strconv.Atoi(chi.URLParam(r, "siteID"))
	if err != nil || siteID < 0 {
		writeError(w, http.StatusBadRequest, "invalid site id", "")
		return nil, 0, false
	}
	pc, ok := s.context(w, r)
	return pc, siteID, ok
}

// fail records err against the plugin and answers with its error id.
func (s *Server) fail(w http.ResponseWriter, pc *pluginapi.Context, err error) {
	if errors.Is(err, pluginconfig.ErrEmptyName) {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if errors.Is(err, schema.ErrViolation) {
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "")
		return
	}
	id := pc.RecordError(err)
	writeError(w, http.StatusInternalServerError, "config store failure", id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg, errorID string) {
	body := map[string]string{"error": msg}
	if errorID != "" {
		body["error_id"] = errorID
	}
	writeJSON(w, status, body)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
