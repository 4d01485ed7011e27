// File: internal/api/handlers.go
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/archive"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/executor"
	"github.com/xkilldash9x/conductor/internal/runner"
	"github.com/xkilldash9x/conductor/internal/session"
)

// commandRunner is the slice of the external command proxy the HTTP layer
// drives. Satisfied by *runner.Runner.
type commandRunner interface {
	Reason(ctx context.Context, prompt string) (*schemas.ExecResult, error)
	Exec(ctx context.Context, term string) (*schemas.ExecResult, error)
	Plan(ctx context.Context, instruction string) ([]schemas.Action, error)
}

// handlers binds the service components to the HTTP surface.
type handlers struct {
	cfg      *config.Config
	manager  *session.Manager
	executor *executor.Executor
	sweeper  *archive.Sweeper
	runner   commandRunner
	logger   *zap.Logger
	version  string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the service error taxonomy onto HTTP status codes.
func (h *handlers) writeDomainError(w http.ResponseWriter, err error) {
	var unknownAction *schemas.UnknownActionError
	var persist *session.PersistenceError
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrResourceExhausted):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, runner.ErrTimeout):
		writeError(w, http.StatusRequestTimeout, err.Error())
	case errors.As(err, &unknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &persist):
		h.logger.Error("Persistence failure.", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("Unhandled request error.", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// handleCreateSession starts a new browser session.
func (h *handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var spec schemas.SessionSpec
	if r.ContentLength != 0 {
		if err := decodeBody(r, &spec); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if spec.Browser != "" && !spec.Browser.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported browser %q", spec.Browser))
		return
	}

	sess, err := h.manager.Create(r.Context(), spec)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

// handleListSessions lists live sessions.
func (h *handlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.manager.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": infos,
		"count":    len(infos),
	})
}

// handleGetSession returns full session metadata, live or from disk.
func (h *handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, err := h.manager.MetadataFor(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// handleCloseSession finalizes a session and returns its closing metadata.
func (h *handlers) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, err := h.manager.Close(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// handleSequence runs an action sequence on a session.
func (h *handlers) handleSequence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Actions []schemas.Action `json:"actions"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.manager.Get(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result, err := h.executor.Run(r.Context(), sess, body.Actions)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleScreenshot captures an on-demand screenshot.
func (h *handlers) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Description   string `json:"description"`
		IncludeBase64 bool   `json:"include_base64"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if body.Description == "" {
		body.Description = "manual"
	}

	sess, err := h.manager.Get(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !sess.Acquire() {
		h.writeDomainError(w, session.ErrConflict)
		return
	}
	defer sess.Release()

	path, err := h.manager.Recorder().Screenshot(r.Context(), sess, "manual", body.Description, "")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := map[string]string{
		"session_id":      id,
		"screenshot_path": path,
	}
	if body.IncludeBase64 {
		data, err := os.ReadFile(path)
		if err != nil {
			h.writeDomainError(w, &session.PersistenceError{SessionID: id, Op: "read screenshot", Err: err})
			return
		}
		resp["image_base64"] = base64.StdEncoding.EncodeToString(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAssets lists recorded assets of one kind.
func (h *handlers) handleAssets(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	kind := schemas.AssetKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = schemas.AssetScreenshot
	}
	switch kind {
	case schemas.AssetScreenshot, schemas.AssetVideo, schemas.AssetTrace:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown asset kind %q", kind))
		return
	}

	entries, err := h.manager.Assets(id, kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"kind":       kind,
		"assets":     entries,
		"count":      len(entries),
	})
}

// handleExport streams the session directory as a zip download.
func (h *handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.manager.MetadataFor(id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "session_"+id+".zip"))
	if err := archive.Export(h.manager.Root(), id, w); err != nil {
		// Headers are gone; log and abandon the stream.
		h.logger.Error("Export failed mid-stream.",
			zap.String("session_id", id), zap.Error(err))
	}
}

// handlePurge removes a session and its directory tree.
func (h *handlers) handlePurge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.manager.Purge(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "purged",
	})
}

// handleSweep runs a sweep pass on demand. The cutoff comes from the
// max_age_seconds query parameter, falling back to the configured default.
func (h *handlers) handleSweep(w http.ResponseWriter, r *http.Request) {
	maxAge := h.cfg.Cleanup.MaxAge
	if raw := r.URL.Query().Get("max_age_seconds"); raw != "" {
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil || secs < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid max_age_seconds %q", raw))
			return
		}
		maxAge = time.Duration(secs * float64(time.Second))
	}

	report, err := h.sweeper.Sweep(r.Context(), maxAge)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleRun is the one-shot convenience: create a session, run the sequence,
// close the session, and return everything. A paused run still closes the
// session; one-shot runs have nowhere to resume.
func (h *handlers) handleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Session schemas.SessionSpec `json:"session"`
		Actions []schemas.Action    `json:"actions"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "actions must not be empty")
		return
	}
	if body.Session.Browser != "" && !body.Session.Browser.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported browser %q", body.Session.Browser))
		return
	}

	sess, err := h.manager.Create(r.Context(), body.Session)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result, runErr := h.executor.Run(r.Context(), sess, body.Actions)
	meta, closeErr := h.manager.Close(r.Context(), sess.ID)
	if runErr != nil {
		h.writeDomainError(w, runErr)
		return
	}
	if closeErr != nil {
		h.logger.Warn("One-shot session close reported an error.",
			zap.String("session_id", sess.ID), zap.Error(closeErr))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"session": meta,
	})
}

// handleExecute proxies a command to the external CLI layer. Exactly one of
// command (a prompt for the reasoning CLI) or term (a raw argv line) must be
// provided.
func (h *handlers) handleExecute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Command string `json:"command"`
		Term    string `json:"term"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case body.Command == "" && body.Term == "":
		writeError(w, http.StatusBadRequest, "either 'command' or 'term' must be provided")
		return
	case body.Command != "" && body.Term != "":
		writeError(w, http.StatusBadRequest, "only one of 'command' and 'term' may be provided")
		return
	}

	var (
		result *schemas.ExecResult
		err    error
	)
	if body.Command != "" {
		result, err = h.runner.Reason(r.Context(), body.Command)
	} else {
		result, err = h.runner.Exec(r.Context(), body.Term)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleNatural translates a natural-language instruction into an action
// sequence via the reasoning CLI and runs it on the session.
func (h *handlers) handleNatural(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Instruction string `json:"instruction"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Instruction == "" {
		writeError(w, http.StatusBadRequest, "instruction must not be empty")
		return
	}

	sess, err := h.manager.Get(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	actions, err := h.runner.Plan(r.Context(), body.Instruction)
	if err != nil {
		if errors.Is(err, runner.ErrTimeout) {
			h.writeDomainError(w, err)
			return
		}
		// The reasoning CLI is an upstream here.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	result, err := h.executor.Run(r.Context(), sess, actions)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  id,
		"instruction": body.Instruction,
		"actions":     actions,
		"result":      result,
	})
}

// handleRecordings lists every recorded asset file under the storage root,
// grouped by kind.
func (h *handlers) handleRecordings(w http.ResponseWriter, r *http.Request) {
	report, err := archive.ListRecordings(h.manager.Root())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAssetFile serves one recorded asset file for download.
func (h *handlers) handleAssetFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	kind := schemas.AssetKind(vars["kind"])
	filename := vars["filename"]

	switch kind {
	case schemas.AssetScreenshot, schemas.AssetVideo, schemas.AssetTrace:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown asset kind %q", kind))
		return
	}
	// The filename must be a bare name; anything that resolves elsewhere is
	// rejected before touching the filesystem.
	if filename == "" || filename != filepath.Base(filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid filename %q", filename))
		return
	}

	path := filepath.Join(session.SessionDir(h.manager.Root(), id), string(kind), filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no %s file %q for session %s", kind, filename, id))
		return
	}
	http.ServeFile(w, r, path)
}

// handleHealthz is the liveness probe.
func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo describes the running service.
func (h *handlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":         h.cfg.Logger.ServiceName,
		"version":         h.version,
		"active_sessions": len(h.manager.List()),
		"storage_root":    h.manager.Root(),
	})
}
