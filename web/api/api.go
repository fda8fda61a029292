// Package api serves the browser editor: template persistence and spreadsheet import.
// Rendering stays in the browser; nothing here touches a canvas.
package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/responses"
	"github.com/zeptools/certmerge/routing"
	"github.com/zeptools/certmerge/sheets"
	"github.com/zeptools/certmerge/templates"
	"github.com/zeptools/certmerge/throttle"
)

// DefaultMaxUploadMB bounds template and spreadsheet request bodies
const DefaultMaxUploadMB = 20

// UploadGroup is the throttle group limiting POST requests per client
const UploadGroup = "uploads"

type Handler struct {
	Templates   *templates.Repository
	Auth        *BearerAuth               // nil = open
	Limiter     *throttle.Limiter[string] // nil = unlimited. needs an UploadGroup group
	TrustProxy  bool                      // take client IPs from X-Forwarded-For
	MaxUploadMB int64
}

// Router registers every route under /api/
func (h *Handler) Router() http.Handler {
	r := routing.NewBaseRouter()
	wrappers := []routing.HandlerWrapper{routing.LogWrapper, routing.RecoverWrapper}
	if h.Auth != nil {
		wrappers = append(wrappers, h.Auth)
	}
	var uploads []routing.HandlerWrapper
	if h.Limiter != nil {
		uploads = append(uploads, &rateLimit{limiter: h.Limiter, group: UploadGroup, trustProxy: h.TrustProxy})
	}
	r.Group("/api/", func(api *routing.RouteGroup) {
		api.HandleFunc("GET canvas-sizes", h.canvasSizes)
		api.HandleFunc("POST imports", h.importSheet, uploads...)
		api.HandleFunc("GET templates", h.listTemplates)
		api.HandleFunc("POST templates", h.createTemplate, uploads...)
		api.Group("templates/", func(t *routing.RouteGroup) {
			t.HandleFunc("GET {id}", h.getTemplate)
			t.HandleFunc("DELETE {id}", h.deleteTemplate)
		})
	}, wrappers...)
	return r
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := h.MaxUploadMB
	if limit <= 0 {
		limit = DefaultMaxUploadMB
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit<<20))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responses.WriteSimpleErrorJSON(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d MB", limit))
			return nil, false
		}
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return body, true
}

func (h *Handler) canvasSizes(w http.ResponseWriter, r *http.Request) {
	responses.EncodeWriteJSON(w, http.StatusOK, elements.Presets)
}

type importResponse struct {
	Filename string            `json:"filename"`
	Columns  []string          `json:"columns"`
	Rows     []binding.Row     `json:"rows"`
	Mappings []binding.Mapping `json:"mappings"`
}

// importSheet takes the raw file as the body: POST /api/imports?filename=x.xlsx&header=false
func (h *Handler) importSheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "filename is required")
		return
	}
	hasHeader := true
	if v := q.Get("header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "header must be true or false")
			return
		}
		hasHeader = b
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	tbl, err := sheets.Import(filename, body, hasHeader)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, sheets.ErrUnsupportedFile) {
			status = http.StatusUnsupportedMediaType
		}
		responses.WriteSimpleErrorJSON(w, status, err.Error())
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, importResponse{
		Filename: filename,
		Columns:  tbl.Columns,
		Rows:     tbl.Rows,
		Mappings: binding.DefaultMappings(tbl.Columns),
	})
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Templates.List(r.Context())
	if err != nil {
		h.templateError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	t, err := h.Templates.Import(r.Context(), body)
	if err != nil {
		h.templateError(w, err)
		return
	}
	log.Printf("[INFO][API] template %s (%q) created by %s", t.ID, t.Name, actor(r))
	responses.EncodeWriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.Templates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.templateError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Templates.Delete(r.Context(), id); err != nil {
		h.templateError(w, err)
		return
	}
	log.Printf("[INFO][API] template %s deleted by %s", id, actor(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) templateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, templates.ErrNotFound):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, templates.ErrEmptyName), errors.Is(err, templates.ErrInvalid):
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, templates.ErrCorrupt):
		log.Printf("[ERROR][API] %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("[ERROR][API] %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}
