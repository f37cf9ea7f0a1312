package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/dgallion1/recexport/internal/export"
	"github.com/go-chi/chi/v5"
)

// envelopeBytes is the allowance for the JSON around a record's content.
const envelopeBytes = 64 << 10

// exportRequest is the body of every export and job endpoint.
type exportRequest struct {
	Format string `json:"format,omitempty"`
	export.Request
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil || format == export.FormatPrintPDF {
		jsonError(w, fmt.Sprintf("unknown export format %q", chi.URLParam(r, "format")), http.StatusNotFound)
		return
	}
	if format == export.FormatPrint && r.URL.Query().Get("output") == "pdf" {
		format = export.FormatPrintPDF
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.exports.Export(r.Context(), format, req.Request)
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeFile(w, res)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	plan, err := s.exports.Plan(r.Context(), req.Request)
	if err != nil {
		writeExportError(w, err)
		return
	}

	pages := make([]map[string]any, len(plan.Chunks))
	for i, c := range plan.Chunks {
		pages[i] = map[string]any{
			"index":            c.Index,
			"lines":            len(c.Lines),
			"has_header_block": c.HasHeaderBlock,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"pages":    plan.Pages,
		"lines":    plan.Lines,
		"capacity": plan.Config,
		"chunks":   pages,
	})
}

// decodeRequest reads a JSON export request, writing the error response
// itself when the body is oversized or malformed.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (exportRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxContentBytes+envelopeBytes)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return req, false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if int64(len(req.Record.Content)) > s.cfg.MaxContentBytes {
		jsonError(w, fmt.Sprintf("content exceeds max size (%d bytes)", s.cfg.MaxContentBytes), http.StatusRequestEntityTooLarge)
		return req, false
	}
	return req, true
}

func writeExportError(w http.ResponseWriter, err error) {
	if export.IsPrecondition(err) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func writeFile(w http.ResponseWriter, res *export.Result) {
	h := w.Header()
	h.Set("Content-Type", res.MimeType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(res.Data)))
	if res.Pages > 0 {
		h.Set("X-Export-Pages", strconv.Itoa(res.Pages))
	}
	for _, warn := range res.Warnings {
		h.Add("X-Export-Warning", warn)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}
