package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/climap/internal/catalog"
)

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// packageName extracts the name from the URL. Scoped names such as
// "@scope/pkg" arrive with an encoded slash.
func packageName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPackages handles GET /api/packages.
//
//	@Summary		List database entries with optional pagination and source filter
//	@Tags			packages
//	@Produce		json
//	@Param			source	query		string	false	"Keep entries mentioning this source"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	PackageListResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/packages [get]
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, err := h.svc.ListPackages(q.Get("source"))
	if err != nil {
		writeError(w, "list packages", err)
		return
	}
	total := len(entries)
	if offset > 0 {
		entries = entries[min(offset, total):]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	items := make([]Package, 0, len(entries))
	for _, e := range entries {
		items = append(items, packageFromEntry(e, false))
	}
	writeJSON(w, http.StatusOK, PackageListResponse{Packages: items, Total: total})
}

// GetPackage handles GET /api/packages/{name}.
//
//	@Summary		Get a single entry by name, ignoring case
//	@Tags			packages
//	@Produce		json
//	@Param			name	path		string	true	"Package name"
//	@Success		200		{object}	Package
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/packages/{name} [get]
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	e, err := h.svc.Lookup(name)
	if err != nil {
		writeError(w, "get package", err)
		return
	}
	writeJSON(w, http.StatusOK, packageFromEntry(e, true))
}

// Validation handles GET /api/validation.
//
//	@Summary		Validate the package database
//	@Tags			packages
//	@Produce		json
//	@Param			strict	query		bool	false	"Treat unrecognized lines as errors"
//	@Success		200		{object}	ValidationResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validation [get]
func (h *Handler) Validation(w http.ResponseWriter, r *http.Request) {
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	rep, err := h.svc.Validate(strict)
	if err != nil {
		writeError(w, "validate", err)
		return
	}
	writeJSON(w, http.StatusOK, ValidationResponse{
		Status: rep.Status(),
		Issues: rep.Issues,
		Stats:  rep.Stats,
	})
}

// Candidates handles GET /api/candidates.
//
//	@Summary		Ranked candidates of the latest crossref run
//	@Tags			crossref
//	@Produce		json
//	@Param			q		query		string	false	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	CandidatesResponse
//	@Security		BearerAuth
//	@Router			/candidates [get]
func (h *Handler) Candidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	cands, err := h.svc.Candidates(q.Get("q"), limit)
	if err != nil {
		writeError(w, "candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, CandidatesResponse{Candidates: cands})
}

// Crossref handles POST /api/crossref.
//
//	@Summary		Run a crossref over the collected source files
//	@Tags			crossref
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CrossrefRequest	false	"Run options"
//	@Success		200		{object}	models.CrossrefOutput
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/crossref [post]
func (h *Handler) Crossref(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CrossrefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Limit < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must not be negative"))
		return
	}

	out, err := h.svc.Crossref(r.Context(), catalog.CrossrefOptions{
		Limit:           req.Limit,
		IncludeExisting: req.IncludeExisting,
	})
	if err != nil {
		writeError(w, "crossref", err)
		return
	}
	if req.Write {
		if err := h.svc.WriteCrossref(out); err != nil {
			writeError(w, "crossref", err)
			return
		}
	}
	if req.Record {
		if err := h.svc.RecordRun(out); err != nil {
			writeError(w, "crossref", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Merge handles POST /api/merge.
//
//	@Summary		Merge verified packages into the database
//	@Tags			packages
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MergeRequest	true	"Verified packages"
//	@Success		200		{object}	MergeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/merge [post]
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Packages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("packages are required"))
		return
	}
	mode, err := catalog.ParseMode(req.Mode)
	if err != nil {
		writeError(w, "merge", err)
		return
	}

	res, err := h.svc.Merge(r.Context(), req.Packages, catalog.MergeOptions{
		MinSources: req.MinSources,
		Mode:       mode,
	})
	if err != nil {
		writeError(w, "merge", err)
		return
	}
	writeJSON(w, http.StatusOK, MergeResponse{
		Mode:    mode.String(),
		Stats:   mergeStats(res.Stats),
		Written: res.Written,
		Text:    res.Text,
	})
}
