package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/logger"
)

// BreadthHandler handles market-breadth API endpoints.
// SSOT: breadth HTTP surface lives in this struct only.
type BreadthHandler struct {
	service *breadth.Service
	logger  *logger.Logger
}

// NewBreadthHandler creates a new breadth handler.
func NewBreadthHandler(service *breadth.Service, log *logger.Logger) *BreadthHandler {
	return &BreadthHandler{
		service: service,
		logger:  log,
	}
}

// SaveBreadthRequest is a manual breadth entry. All indicator fields are
// optional; absent means unknown, not zero.
type SaveBreadthRequest struct {
	Date string `json:"date"` // YYYY-MM-DD or MM/DD/YYYY

	StocksUp4PctDaily   *int `json:"stocks_up_4pct_daily,omitempty"`
	StocksDown4PctDaily *int `json:"stocks_down_4pct_daily,omitempty"`

	Ratio5Day                *float64 `json:"ratio_5day,omitempty"`
	Ratio10Day               *float64 `json:"ratio_10day,omitempty"`
	StocksUp25PctQuarterly   *int     `json:"stocks_up_25pct_quarterly,omitempty"`
	StocksDown25PctQuarterly *int     `json:"stocks_down_25pct_quarterly,omitempty"`
	StocksUp25PctMonthly     *int     `json:"stocks_up_25pct_monthly,omitempty"`
	StocksDown25PctMonthly   *int     `json:"stocks_down_25pct_monthly,omitempty"`
	StocksUp50PctMonthly     *int     `json:"stocks_up_50pct_monthly,omitempty"`
	StocksDown50PctMonthly   *int     `json:"stocks_down_50pct_monthly,omitempty"`
	StocksUp13Pct34Days      *int     `json:"stocks_up_13pct_34days,omitempty"`
	StocksDown13Pct34Days    *int     `json:"stocks_down_13pct_34days,omitempty"`

	T2108          *float64 `json:"t2108,omitempty"`
	WordenUniverse *int     `json:"worden_universe,omitempty"`
	SP500          string   `json:"sp500,omitempty"`
	VIX            *float64 `json:"vix,omitempty"`
}

// Save stores one manual breadth record.
// POST /api/breadth
func (h *BreadthHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SaveBreadthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := breadth.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}

	rec := &contracts.RawBreadthRecord{
		Date:                     date,
		Timestamp:                contracts.MarketCloseUTC(date),
		StocksUp4PctDaily:        req.StocksUp4PctDaily,
		StocksDown4PctDaily:      req.StocksDown4PctDaily,
		Ratio5Day:                req.Ratio5Day,
		Ratio10Day:               req.Ratio10Day,
		StocksUp25PctQuarterly:   req.StocksUp25PctQuarterly,
		StocksDown25PctQuarterly: req.StocksDown25PctQuarterly,
		StocksUp25PctMonthly:     req.StocksUp25PctMonthly,
		StocksDown25PctMonthly:   req.StocksDown25PctMonthly,
		StocksUp50PctMonthly:     req.StocksUp50PctMonthly,
		StocksDown50PctMonthly:   req.StocksDown50PctMonthly,
		StocksUp13Pct34Days:      req.StocksUp13Pct34Days,
		StocksDown13Pct34Days:    req.StocksDown13Pct34Days,
		T2108:                    req.T2108,
		WordenUniverse:           req.WordenUniverse,
		SP500:                    req.SP500,
		VIX:                      req.VIX,
		DataSource:               contracts.DataSourceManual,
	}

	id, err := h.service.SaveBreadthData(ctx, rec)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save breadth record")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.service.GetByDate(ctx, date)
	if err != nil || saved == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"id": id})
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// GetLatest returns the most recent breadth record.
// GET /api/breadth/latest
func (h *BreadthHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.service.GetLatest(ctx, 30)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest breadth record")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest record")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "No breadth data in the last 30 days")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// GetByDate returns the breadth record for one date.
// GET /api/breadth/{date}
func (h *BreadthHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := breadth.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}

	rec, err := h.service.GetByDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get breadth record")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve record")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "No breadth data for date")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// GetHistory returns breadth records for a date range.
// GET /api/breadth/history?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *BreadthHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.GetBreadthHistory(ctx, start, end)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get breadth history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"count":   len(records),
		"records": records,
	})
}

// GetQuality returns a field-coverage report for a date range.
// GET /api/breadth/quality?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *BreadthHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.DataQualityReport(ctx, start, end)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build quality report")
		respondError(w, http.StatusInternalServerError, "Failed to build quality report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ImportCSV imports a Stockbee CSV file uploaded as multipart field "file".
// POST /api/breadth/import
func (h *BreadthHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	result, err := h.service.ImportFromCSV(ctx, file, header.Filename)
	if err != nil {
		h.logger.WithError(err).Error("CSV import failed")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ExportCSV streams stored records as CSV.
// GET /api/breadth/export?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *BreadthHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="breadth_`+start.Format("20060102")+`_`+end.Format("20060102")+`.csv"`)

	if _, err := h.service.ExportToCSV(ctx, w, start, end); err != nil {
		// Headers are already out; log and abort the stream.
		h.logger.WithError(err).Error("CSV export failed")
	}
}

// parseRange reads start/end query params; defaults to the trailing 90 days.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -90)
	var err error

	if s := q.Get("start"); s != "" {
		if start, err = breadth.ParseDate(s); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if e := q.Get("end"); e != "" {
		if end, err = breadth.ParseDate(e); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end, nil
}
