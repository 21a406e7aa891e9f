package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/detection"
	"github.com/orderwatch/dupguard/internal/domain"
	"github.com/orderwatch/dupguard/internal/export"
	"github.com/orderwatch/dupguard/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	runs      *repository.RunRepo
	svc       *detection.Service
	defaults  config.Settings
	maxUpload int64
	logger    *zap.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) writeCSV(w http.ResponseWriter, name string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// settingsFromForm overrides the service defaults with any detector field
// present in the request.
func settingsFromForm(r *http.Request, base config.Settings) (config.Settings, error) {
	s := base
	ints := []struct {
		field string
		dst   *int
	}{
		{"max_days", &s.MaxDays},
		{"amount_precision", &s.AmountPrecision},
		{"quantity_precision", &s.QuantityPrecision},
	}
	for _, f := range ints {
		if v := strings.TrimSpace(r.FormValue(f.field)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return s, fmt.Errorf("%s: %w", f.field, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		field string
		dst   *float64
	}{
		{"min_amount_similarity", &s.MinAmountSimilarity},
		{"min_product_similarity", &s.MinProductSimilarity},
	}
	for _, f := range floats {
		if v := strings.TrimSpace(r.FormValue(f.field)); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return s, fmt.Errorf("%s: %w", f.field, err)
			}
			*f.dst = n
		}
	}

	if v, ok := r.Form["exact_status"]; ok && len(v) > 0 {
		st := strings.ToUpper(strings.TrimSpace(v[0]))
		if st == "ALL" {
			st = ""
		}
		s.ExactStatus = domain.Status(st)
	}
	return s, s.Validate()
}

func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, "", false
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return nil, "", false
	}
	return data, hdr.Filename, true
}

func (h *Handlers) loadResult(w http.ResponseWriter, r *http.Request) (*domain.Result, bool) {
	res, err := h.svc.Result(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return res, true
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

func priorityFilter(r *http.Request) domain.Priority {
	return domain.Priority(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("priority"))))
}

// --- DetectReport ---

func (h *Handlers) DetectReport(w http.ResponseWriter, r *http.Request) {
	data, name, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	settings, err := settingsFromForm(r, h.defaults)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.DetectReport(r.Context(), data, name, settings)
	if err != nil {
		if detection.IsReportError(err) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// --- Runs ---

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	limit := parseIntDefault(q.Get("limit"), 50)

	runs, total, err := h.runs.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// --- Result tables ---

func (h *Handlers) GetExact(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResult(w, r)
	if !ok {
		return
	}

	rows := res.Exact
	if p := priorityFilter(r); p != "" {
		rows = rows[:0:0]
		for _, e := range res.Exact {
			if e.Priority == p {
				rows = append(rows, e)
			}
		}
	}

	if wantsCSV(r) {
		h.writeCSV(w, export.ExactFileName, func(out io.Writer) error {
			return export.WriteExact(out, rows)
		})
		return
	}
	if rows == nil {
		rows = []domain.ExactDuplicateRow{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "total": len(rows)})
}

func (h *Handlers) GetSimilar(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResult(w, r)
	if !ok {
		return
	}

	rows := res.Similar
	if p := priorityFilter(r); p != "" {
		rows = rows[:0:0]
		for _, s := range res.Similar {
			if s.Priority == p {
				rows = append(rows, s)
			}
		}
	}

	if wantsCSV(r) {
		h.writeCSV(w, export.SimilarFileName, func(out io.Writer) error {
			return export.WriteSimilar(out, rows)
		})
		return
	}
	if rows == nil {
		rows = []domain.SimilarPairRow{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "total": len(rows)})
}

// --- Clients ---

func (h *Handlers) GetClients(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResult(w, r)
	if !ok {
		return
	}

	includeExact := parseBoolDefault(r.URL.Query().Get("include_exact"), true)
	summary := detection.SummarizeClients(res, includeExact)

	if wantsCSV(r) {
		h.writeCSV(w, "lista_clientes_unicos.csv", func(out io.Writer) error {
			return export.WriteClients(out, summary)
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"clients": summary, "total": len(summary)})
}

func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResult(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format := detection.MessageFormat(strings.ToLower(q.Get("format")))
	switch format {
	case "", detection.MessageLines, detection.MessageComma, detection.MessageSemicolon:
	default:
		h.writeError(w, http.StatusBadRequest, "format must be one of: lines, comma, semicolon")
		return
	}

	summary := detection.SummarizeClients(res, parseBoolDefault(q.Get("include_exact"), true))
	msg := detection.PreventiveMessage(summary, format, parseBoolDefault(q.Get("only_alta"), false))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, msg)
}

// --- Dispatch ---

func (h *Handlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	data, _, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.FormValue("date")))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	filter := detection.DispatchFilter{Date: date, Query: r.FormValue("q")}
	for _, st := range r.Form["status"] {
		for _, part := range strings.Split(st, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				filter.Statuses = append(filter.Statuses, domain.Status(part))
			}
		}
	}

	list, err := h.svc.DispatchReport(data, h.defaults, filter)
	if err != nil {
		if detection.IsReportError(err) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if wantsCSV(r) {
		h.writeCSV(w, "salidas_"+date.Format("2006-01-02")+".csv", func(out io.Writer) error {
			return export.WriteDispatch(out, list)
		})
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
