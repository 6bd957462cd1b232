// Package handlers implements the HTTP endpoints of the price tracker API.
package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/price-tracker/internal/api/middleware"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
)

// Query modes of GET /api/price-history.
const (
	ModeTrends   = "trends"
	ModeAlerts   = "alerts"
	ModeHistory  = "history"
	ModeOverview = "overview"
)

const maxLookbackDays = 365

// PriceHistoryService is the analytics surface used by PriceHistoryHandler.
type PriceHistoryService interface {
	Trends(ctx context.Context, userID string, opts pricehistory.TrendsOptions) (*pricehistory.TrendsReport, error)
	Alerts(ctx context.Context, userID string, opts pricehistory.AlertOptions) ([]domain.PriceAlert, error)
	ItemHistory(ctx context.Context, userID, item string) (*pricehistory.ItemHistoryReport, error)
	Overview(ctx context.Context, userID string, opts pricehistory.OverviewOptions) (*pricehistory.Overview, error)
}

// PriceHistoryHandler handles price history endpoints.
type PriceHistoryHandler struct {
	svc PriceHistoryService
	log zerolog.Logger
}

// NewPriceHistoryHandler creates a new price history handler.
func NewPriceHistoryHandler(svc PriceHistoryService, log zerolog.Logger) *PriceHistoryHandler {
	return &PriceHistoryHandler{
		svc: svc,
		log: log,
	}
}

// Get handles GET /api/price-history?mode=trends|alerts|history|overview
func (h *PriceHistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing user")
		return
	}

	query := r.URL.Query()
	mode := query.Get("mode")
	if mode == "" {
		mode = ModeTrends
	}

	switch mode {
	case ModeTrends:
		h.trends(w, r, userID)
	case ModeAlerts:
		h.alerts(w, r, userID)
	case ModeHistory:
		h.history(w, r, userID)
	case ModeOverview:
		h.overview(w, r, userID)
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Invalid mode: must be trends, alerts, history or overview")
	}
}

func (h *PriceHistoryHandler) trends(w http.ResponseWriter, r *http.Request, userID string) {
	period, err := domain.ParseChangePeriod(r.URL.Query().Get("period"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid period: must be 30d or 90d")
		return
	}

	report, err := h.svc.Trends(r.Context(), userID, pricehistory.TrendsOptions{Period: period})
	if err != nil {
		h.fail(w, err, userID, ModeTrends)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, trendsPayload(report))
}

func (h *PriceHistoryHandler) alerts(w http.ResponseWriter, r *http.Request, userID string) {
	opts, msg := parseAlertOptions(r)
	if msg != "" {
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	alerts, err := h.svc.Alerts(r.Context(), userID, opts)
	if err != nil {
		h.fail(w, err, userID, ModeAlerts)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (h *PriceHistoryHandler) history(w http.ResponseWriter, r *http.Request, userID string) {
	item := r.URL.Query().Get("item")

	report, err := h.svc.ItemHistory(r.Context(), userID, item)
	if errors.Is(err, pricehistory.ErrItemRequired) {
		middleware.WriteError(w, http.StatusBadRequest, "item is required for history mode")
		return
	}
	if err != nil {
		h.fail(w, err, userID, ModeHistory)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"item":        report.Item,
		"history":     report.History,
		"trend":       report.Trend,
		"total_spent": report.TotalSpent,
		"best_price":  report.BestPrice,
		"count":       len(report.History),
	})
}

func (h *PriceHistoryHandler) overview(w http.ResponseWriter, r *http.Request, userID string) {
	period, err := domain.ParseChangePeriod(r.URL.Query().Get("period"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid period: must be 30d or 90d")
		return
	}
	alertOpts, msg := parseAlertOptions(r)
	if msg != "" {
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	overview, err := h.svc.Overview(r.Context(), userID, pricehistory.OverviewOptions{
		Trends: pricehistory.TrendsOptions{Period: period},
		Alerts: alertOpts,
	})
	if err != nil {
		h.fail(w, err, userID, ModeOverview)
		return
	}

	payload := trendsPayload(overview.TrendsReport)
	payload["alerts"] = overview.Alerts
	payload["alert_count"] = len(overview.Alerts)
	middleware.WriteJSON(w, http.StatusOK, payload)
}

// FormatChange handles GET /api/price-history/format?change=&pct=
func (h *PriceHistoryHandler) FormatChange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	change, err := parseFiniteFloat(query.Get("change"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid change: must be a number")
		return
	}
	pct, err := parseFiniteFloat(query.Get("pct"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid pct: must be a number")
		return
	}

	display := pricing.FormatPriceChange(change, pct)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"direction":   display.Direction,
		"glyph":       display.Glyph,
		"amount":      display.Amount,
		"percent":     display.Percent,
		"color_class": display.ColorClass,
		"text":        display.String(),
	})
}

func (h *PriceHistoryHandler) fail(w http.ResponseWriter, err error, userID, mode string) {
	h.log.Error().Err(err).Str("user_id", userID).Str("mode", mode).Msg("Failed to load price history")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to load price history")
}

func trendsPayload(report *pricehistory.TrendsReport) map[string]interface{} {
	return map[string]interface{}{
		"as_of":             report.AsOf,
		"period":            report.Period,
		"trends":            report.Trends,
		"biggest_increases": report.BiggestIncreases,
		"biggest_decreases": report.BiggestDecreases,
		"frequent_items":    report.FrequentItems,
		"skipped_records":   report.SkippedRecords,
		"count":             len(report.Trends),
	}
}

// parseAlertOptions reads days and threshold. Absent values stay zero so the
// service defaults apply. A non-empty message means a 400.
func parseAlertOptions(r *http.Request) (pricehistory.AlertOptions, string) {
	query := r.URL.Query()
	var opts pricehistory.AlertOptions

	if s := strings.TrimSpace(query.Get("days")); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil || days < 1 || days > maxLookbackDays {
			return opts, "Invalid days: must be an integer between 1 and 365"
		}
		opts.LookbackDays = days
	}

	if s := strings.TrimSpace(query.Get("threshold")); s != "" {
		threshold, err := parseFiniteFloat(s)
		if err != nil || threshold <= 0 {
			return opts, "Invalid threshold: must be a positive number"
		}
		opts.ThresholdPct = threshold
	}

	return opts, ""
}

func parseFiniteFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}
