// Package httpapi implements the HTTP handlers for the ROME export service.
//
// Routes:
//
//	GET  /metiers/{code}                  → raw record + assembled row
//	GET  /metiers/{code}/export.{xlsx|csv} → single-occupation download
//	POST /batch                            → look up several codes
//	GET  /batch/{id}                       → saved batch ({id} may be "latest")
//	GET  /batch/{id}/export.{xlsx|csv}     → batch download
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"

	"jobmate/rome-service/internal/export"
	"jobmate/rome-service/internal/lookup"
	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/model"
	"jobmate/rome-service/internal/rome"
	"jobmate/rome-service/internal/session"
)

const maxBatchBody = 1 << 20

// Service is what the handlers need from lookup.Service.
type Service interface {
	Lookup(ctx context.Context, code string) (*lookup.Metier, error)
	Batch(ctx context.Context, codes []string) (*model.Table, error)
	Session(ctx context.Context, id string) (*model.Table, error)
}

// ─── Request / response types ────────────────────────────────────────────────

// BatchRequest accepts codes as a list, as free text, or both.
type BatchRequest struct {
	Codes []string `json:"codes"`
	Text  string   `json:"text"`
}

// BatchResponse is returned by POST /batch.
type BatchResponse struct {
	ID    string       `json:"id"`
	Table *model.Table `json:"table"`
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/metiers/", h.handleMetier)
	mux.HandleFunc("/batch", h.handleBatch)
	mux.HandleFunc("/batch/", h.handleBatchAction)
}

// ─── Route dispatch ──────────────────────────────────────────────────────────

// handleMetier handles GET /metiers/{code}[/export.{fmt}]
func (h *Handler) handleMetier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch len(parts) {
	case 2:
		h.getMetier(w, r, parts[1])
	case 3:
		f, ok := exportFormat(parts[2])
		if !ok {
			jsonError(w, fmt.Sprintf("unknown action %q", parts[2]), http.StatusNotFound)
			return
		}
		h.exportMetier(w, r, parts[1], f)
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// handleBatch handles POST /batch
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.runBatch(w, r)
}

// handleBatchAction handles GET /batch/{id}[/export.{fmt}]
func (h *Handler) handleBatchAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch len(parts) {
	case 2:
		h.getBatch(w, r, parts[1])
	case 3:
		f, ok := exportFormat(parts[2])
		if !ok {
			jsonError(w, fmt.Sprintf("unknown action %q", parts[2]), http.StatusNotFound)
			return
		}
		h.exportBatch(w, r, parts[1], f)
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// ─── Individual handlers ─────────────────────────────────────────────────────

func (h *Handler) getMetier(w http.ResponseWriter, r *http.Request, code string) {
	m, err := h.svc.Lookup(r.Context(), code)
	if err != nil {
		lookupError(w, code, err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) exportMetier(w http.ResponseWriter, r *http.Request, code string, f export.Format) {
	m, err := h.svc.Lookup(r.Context(), code)
	if err != nil {
		lookupError(w, code, err)
		return
	}
	download(w, m.Table, f, export.MetierFilename(m.Code, m.Libelle, f))
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&body); err != nil {
		jsonError(w, "body must be JSON with codes or text", http.StatusBadRequest)
		return
	}

	codes := append(body.Codes, metier.SplitCodes(body.Text)...)
	codes = metier.NormalizeCodes(codes)
	if len(codes) == 0 {
		jsonError(w, "no codes given", http.StatusBadRequest)
		return
	}

	table, err := h.svc.Batch(r.Context(), codes)
	if err != nil {
		log.Printf("[httpapi] batch error: %v", err)
		jsonError(w, "batch failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, BatchResponse{ID: table.ID, Table: table})
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request, id string) {
	table, err := h.svc.Session(r.Context(), id)
	if err != nil {
		sessionError(w, id, err)
		return
	}
	jsonOK(w, table)
}

func (h *Handler) exportBatch(w http.ResponseWriter, r *http.Request, id string, f export.Format) {
	table, err := h.svc.Session(r.Context(), id)
	if err != nil {
		sessionError(w, id, err)
		return
	}
	download(w, table, f, export.BatchFilename(table.CreatedAt, f))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// exportFormat parses "export.xlsx" / "export.csv".
func exportFormat(action string) (export.Format, bool) {
	ext, ok := strings.CutPrefix(action, "export.")
	if !ok {
		return "", false
	}
	f, err := export.ParseFormat(ext)
	return f, err == nil
}

func download(w http.ResponseWriter, t *model.Table, f export.Format, filename string) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if err := export.Write(w, t, f); err != nil {
		log.Printf("[httpapi] export %s error: %v", filename, err)
	}
}

// UpstreamErrorResponse is the error body of a failed lookup. UpstreamStatus
// and Detail carry the API's own status and response text when it answered.
type UpstreamErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

// lookupError maps a Lookup error to a status: bad code → 400,
// code unknown upstream → 404, anything else upstream → 502.
func lookupError(w http.ResponseWriter, code string, err error) {
	if errors.Is(err, metier.ErrInvalidCode) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := UpstreamErrorResponse{Error: "upstream error"}
	status := http.StatusBadGateway

	var ue *rome.UpstreamError
	if errors.As(err, &ue) {
		resp.Error = fmt.Sprintf("API error (code %d)", ue.Status)
		resp.UpstreamStatus = ue.Status
		resp.Detail = ue.Body
		if ue.NotFound() {
			resp.Error = fmt.Sprintf("metier %s not found", code)
			status = http.StatusNotFound
		}
	}
	if status != http.StatusNotFound {
		log.Printf("[httpapi] lookup %s error: %v", code, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func sessionError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	log.Printf("[httpapi] session %s error: %v", id, err)
	jsonError(w, "session store error", http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
