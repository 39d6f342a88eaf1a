package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
	"github.com/wonny/aegis-research/internal/render"
	"github.com/wonny/aegis-research/internal/research"
	"github.com/wonny/aegis-research/internal/researchconfig"
	"github.com/wonny/aegis-research/internal/universe"
	"github.com/wonny/aegis-research/pkg/logger"
)

// ResearchHandler handles research query endpoints
// ⭐ SSOT: 리서치 API 핸들러는 이 구조체에서만
type ResearchHandler struct {
	service *research.Service
	logger  *logger.Logger
}

// NewResearchHandler creates a new research handler
func NewResearchHandler(service *research.Service, log *logger.Logger) *ResearchHandler {
	return &ResearchHandler{
		service: service,
		logger:  log.WithComponent("api"),
	}
}

// GetIndustries lists the named industry options
// GET /api/industries
func (h *ResearchHandler) GetIndustries(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"default":    h.service.Config().Universe.Industry,
		"industries": universe.Industries(),
	})
}

// ColumnInfo describes one output column
type ColumnInfo struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	WindowLength int      `json:"window_length"`
	Inputs       []string `json:"inputs"`
}

// ColumnsResponse is the assembled query layout
type ColumnsResponse struct {
	Query      string       `json:"query"`
	ConfigHash string       `json:"config_hash"`
	Screen     string       `json:"screen"`
	Columns    []ColumnInfo `json:"columns"`
}

// GetColumns returns the columns the query would produce
// GET /api/columns?industry=&quarters=
func (h *ResearchHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	industry, quarters, ok := parseOverrides(w, r)
	if !ok {
		return
	}

	q, err := h.service.Query(industry, quarters)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	resp := ColumnsResponse{
		Query:      q.Name,
		ConfigHash: q.ConfigHash,
		Screen:     q.Screen.Describe(),
		Columns:    make([]ColumnInfo, 0, q.ColumnCount()),
	}
	for _, col := range q.Columns.Columns() {
		inputs := make([]string, 0, 2)
		for _, f := range col.Extractor.Inputs() {
			inputs = append(inputs, f.QualifiedName())
		}
		resp.Columns = append(resp.Columns, ColumnInfo{
			Name:         col.Name,
			Kind:         string(col.Extractor.Kind()),
			WindowLength: col.Extractor.WindowLength(),
			Inputs:       inputs,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetResults returns one session's result, from the result cache when present
// GET /api/results?date=YYYY-MM-DD&industry=&quarters=
func (h *ResearchHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	industry, quarters, ok := parseOverrides(w, r)
	if !ok {
		return
	}

	req := research.Request{Industry: industry, Quarters: quarters}
	if s := r.URL.Query().Get("date"); s != "" {
		date, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		req.Date = date
	}

	table, hit, err := h.service.Result(r.Context(), req)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondJSON(w, http.StatusOK, render.NewDocument(table))
}

// GetLatest returns the result last published by the scheduler for the configured query
// GET /api/results/latest
func (h *ResearchHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Query("", -1)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	table, ok := h.service.Latest(r.Context(), q.ConfigHash)
	if !ok {
		respondError(w, http.StatusNotFound, "No published result")
		return
	}
	respondJSON(w, http.StatusOK, render.NewDocument(table))
}

func (h *ResearchHandler) respondQueryError(w http.ResponseWriter, err error) {
	var verr researchconfig.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, contracts.ErrFieldNotFound), errors.Is(err, contracts.ErrDuplicateColumnName):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, research.ErrNoSession):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.WithError(err).Error("Query failed")
		respondError(w, http.StatusInternalServerError, "Query failed")
	}
}

// parseOverrides reads ?industry= and ?quarters= (-1 when absent)
func parseOverrides(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	industry := r.URL.Query().Get("industry")
	quarters := -1
	if s := r.URL.Query().Get("quarters"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'quarters' (expected a non-negative integer)")
			return "", 0, false
		}
		quarters = n
	}
	return industry, quarters, true
}
