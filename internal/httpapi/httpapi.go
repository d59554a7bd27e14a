// Package httpapi exposes bashrs as lint-as-a-service over HTTP, for CI
// systems that would rather call an endpoint than shell out to the CLI,
// mirroring the teacher's backend/internal/server.go router/CORS wiring
// (minus its connect/protobuf RPC layer — see DESIGN.md).
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/paiml/bashrs-sub019/internal/clog"
	"github.com/paiml/bashrs-sub019/internal/reportsink"
	"github.com/paiml/bashrs-sub019/pkg/bashrs"
)

// lintRequest is the POST /lint body: a named source buffer plus the
// caller's lint options.
type lintRequest struct {
	Filename     string   `json:"filename"`
	Source       string   `json:"source"`
	RulesEnabled []string `json:"rules_enabled,omitempty"`
	Disabled     []string `json:"rules_disabled,omitempty"`
}

// purifyRequest is the POST /purify body.
type purifyRequest struct {
	Filename      string `json:"filename"`
	Source        string `json:"source"`
	VersionSymbol string `json:"version_symbol,omitempty"`
	IdentityTag   string `json:"identity_tag,omitempty"`
}

// api bundles the report sink each handler persists its rendering
// through. A nil sink (as tests pass) disables persistence entirely;
// production callers get one from config.Env.NewStorage.
type api struct {
	sink reportsink.Storage
}

// NewRouter builds the chi router serving POST /lint and POST /purify,
// wrapped in chi's request-id/recoverer middleware and a permissive CORS
// policy suitable for CI callers running from arbitrary origins. Each
// handler best-effort persists its JSON rendering through sink, keyed by
// the result's RunID, for CI provenance; a nil sink disables this.
func NewRouter(sink reportsink.Storage) http.Handler {
	a := &api{sink: sink}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Post("/lint", a.handleLint)
	r.Post("/purify", a.handlePurify)
	return r
}

func (a *api) handleLint(w http.ResponseWriter, r *http.Request) {
	var req lintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := clog.ContextWithAttrs(r.Context())
	res, err := bashrs.Lint(ctx, []byte(req.Source), bashrs.LintOptions{
		Filename:      req.Filename,
		RulesEnabled:  req.RulesEnabled,
		RulesDisabled: req.Disabled,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	a.persist(ctx, req.Filename, res.RunID, res)
	writeJSON(w, http.StatusOK, res)
}

func (a *api) handlePurify(w http.ResponseWriter, r *http.Request) {
	var req purifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := clog.ContextWithAttrs(r.Context())
	res, err := bashrs.Purify(ctx, []byte(req.Source), bashrs.PurifyOptions{
		Filename:      req.Filename,
		VersionSymbol: req.VersionSymbol,
		IdentityTag:   req.IdentityTag,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	a.persist(ctx, req.Filename, res.RunID, res)
	writeJSON(w, http.StatusOK, res)
}

// persist best-effort writes v's JSON rendering to the report sink,
// keyed by runID/filename.json. A nil sink or a write failure never
// fails the request — CI provenance is a convenience, not part of the
// lint/purify contract.
func (a *api) persist(ctx context.Context, filename, runID string, v any) {
	if a.sink == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "httpapi: report marshal failed", "err", err.Error())
		return
	}
	key := reportsink.Key(runID, filename, "json")
	if err := a.sink.Put(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "httpapi: report persist failed", "key", key, "err", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
