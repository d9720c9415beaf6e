package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/gate"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	registry *site.Registry
	runs     store.RunHistory
	logger   *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(registry *site.Registry, runs store.RunHistory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, runs: runs, logger: logger}
}

func (h *Handler) viewer(r *http.Request) *site.Viewer {
	return h.registry.Get(SessionID(r.Context()))
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects in display order
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Failure		502	{object}	errResponse
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := h.viewer(r).Projects(r.Context())
	if err != nil {
		writeError(w, h.logger, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: rows})
}

// GetProject handles GET /api/projects/{id}.
//
//	@Summary		Get one project
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Project id"
//	@Success		200	{object}	site.ProjectDetail
//	@Failure		404	{object}	errResponse
//	@Failure		423	{object}	errResponse
//	@Router			/projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.viewer(r).ProjectDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// StreamMedia handles GET /api/projects/{id}/media as an event stream of
// progress, then one of done, empty or error. A superseded stream ends
// without a final event.
func (h *Handler) StreamMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	v := h.viewer(r)

	if _, err := v.ProjectDetail(ctx, id); err != nil {
		writeError(w, h.logger, "stream media", err)
		return
	}

	stream, err := sse.NewStream(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	items, err := v.OpenProject(ctx, id, func(p int) {
		_ = stream.Send("progress", ProgressEvent{Percent: p})
	})
	switch {
	case err == nil:
		_ = stream.Send("done", DoneEvent{Items: items})
	case errors.Is(err, apperr.ErrSuperseded):
	case errors.Is(err, apperr.ErrNoMedia):
		_ = stream.Send("empty", struct{}{})
	default:
		_ = stream.Send("error", errorBody(err.Error()))
	}
}

// CancelMedia handles DELETE /api/projects/media.
func (h *Handler) CancelMedia(w http.ResponseWriter, r *http.Request) {
	h.viewer(r).CloseProject()
	w.WriteHeader(http.StatusNoContent)
}

// About handles GET /api/about.
//
//	@Summary		Biography grouped by section
//	@Tags			about
//	@Produce		json
//	@Success		200	{object}	site.AboutPage
//	@Router			/about [get]
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	page, err := h.viewer(r).About(r.Context())
	if err != nil {
		writeError(w, h.logger, "about", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Vault handles GET /api/vault.
//
//	@Summary		Vault gallery
//	@Tags			vault
//	@Produce		json
//	@Success		200	{object}	VaultResponse
//	@Failure		423	{object}	errResponse
//	@Router			/vault [get]
func (h *Handler) Vault(w http.ResponseWriter, r *http.Request) {
	tiles, err := h.viewer(r).Vault(r.Context())
	if err != nil {
		writeError(w, h.logger, "vault", err)
		return
	}
	writeJSON(w, http.StatusOK, VaultResponse{Items: tiles})
}

// GateState handles GET /api/gate/{kind}.
func (h *Handler) GateState(w http.ResponseWriter, r *http.Request) {
	kind, err := gate.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, h.logger, "gate state", err)
		return
	}
	st, err := h.viewer(r).Gate(r.Context(), kind)
	if err != nil {
		writeError(w, h.logger, "gate state", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Unlock handles POST /api/gate/{kind}.
//
//	@Summary		Try a password against a gate
//	@Tags			gate
//	@Accept			json
//	@Param			kind	path	string			true	"Gate kind"	Enums(project, vault)
//	@Param			body	body	UnlockRequest	true	"Candidate password"
//	@Success		204
//	@Failure		401	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Router			/gate/{kind} [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	kind, err := gate.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, h.logger, "unlock", err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.viewer(r).Unlock(r.Context(), kind, req.Password); err != nil {
		writeError(w, h.logger, "unlock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndSession handles DELETE /api/session.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.End(r.Context(), SessionID(r.Context())); err != nil {
		writeError(w, h.logger, "end session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// ListRuns handles GET /api/admin/runs.
//
//	@Summary		Recent sync runs
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query	int	false	"Max runs"
//	@Success		200		{array}	RunResponse
//	@Security		BearerAuth
//	@Router			/admin/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.runs.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, "list runs", err)
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunResponse{
			ID:         run.ID,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			DurationMS: run.Duration().Milliseconds(),
			Counts:     run.Counts,
			Failures:   run.Failures,
			Checksum:   run.Checksum,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
