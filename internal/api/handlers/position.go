package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/internal/exits"
	"github.com/bidback/backend/internal/position"
	"github.com/bidback/backend/pkg/logger"
)

// PositionHandler handles position-sizing and exit-planning endpoints. Both
// are pure calculations: nothing here writes to the store.
type PositionHandler struct {
	engine           *position.Engine
	calculator       *exits.Calculator
	service          *breadth.Service
	defaultPortfolio float64
	logger           *logger.Logger
}

// NewPositionHandler creates a new position handler.
func NewPositionHandler(engine *position.Engine, calculator *exits.Calculator, service *breadth.Service, defaultPortfolio float64, log *logger.Logger) *PositionHandler {
	return &PositionHandler{
		engine:           engine,
		calculator:       calculator,
		service:          service,
		defaultPortfolio: defaultPortfolio,
		logger:           log,
	}
}

// CalculateRequest is a sizing request. With use_latest set, market fields
// left nil are filled from the most recent stored breadth record.
type CalculateRequest struct {
	PortfolioSize float64  `json:"portfolio_size,omitempty"`
	T2108         *float64 `json:"t2108,omitempty"`
	Up4Pct        *int     `json:"up4pct,omitempty"`
	Down4Pct      *int     `json:"down4pct,omitempty"`
	VIX           *float64 `json:"vix,omitempty"`
	UseLatest     bool     `json:"use_latest,omitempty"`
}

// Calculate sizes a position for the given (or latest stored) market state.
// POST /api/position/calculate
func (h *PositionHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PortfolioSize <= 0 {
		req.PortfolioSize = h.defaultPortfolio
	}

	if req.UseLatest {
		latest, err := h.service.GetLatest(ctx, 30)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load latest breadth record")
			respondError(w, http.StatusInternalServerError, "Failed to load latest breadth record")
			return
		}
		if latest != nil {
			if req.T2108 == nil {
				req.T2108 = latest.T2108
			}
			if req.Up4Pct == nil {
				req.Up4Pct = latest.StocksUp4PctDaily
			}
			if req.Down4Pct == nil {
				req.Down4Pct = latest.StocksDown4PctDaily
			}
			if req.VIX == nil {
				req.VIX = latest.VIX
			}
		}
	}

	result := h.engine.Calculate(contracts.PositionInput{
		T2108:         req.T2108,
		Up4Pct:        req.Up4Pct,
		Down4Pct:      req.Down4Pct,
		VIX:           req.VIX,
		PortfolioSize: req.PortfolioSize,
	})

	respondJSON(w, http.StatusOK, result)
}

// ExitPlanRequest asks for an exit plan for one entry.
type ExitPlanRequest struct {
	EntryDate  string   `json:"entry_date"` // YYYY-MM-DD
	EntryPrice float64  `json:"entry_price"`
	VIX        *float64 `json:"vix,omitempty"`
}

// PlanExit computes exit date, stop-loss and profit targets for an entry.
// POST /api/exits/plan
func (h *PositionHandler) PlanExit(w http.ResponseWriter, r *http.Request) {
	var req ExitPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entryDate, err := breadth.ParseDate(req.EntryDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entry_date (expected YYYY-MM-DD)")
		return
	}
	if req.EntryPrice <= 0 {
		respondError(w, http.StatusBadRequest, "entry_price must be positive")
		return
	}

	plan := h.calculator.Plan(entryDate, req.EntryPrice, req.VIX)
	respondJSON(w, http.StatusOK, plan)
}
