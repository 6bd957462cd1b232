package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/price-tracker/internal/api/middleware"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/infra/memory"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
)

// mockService is a mock implementation of PriceHistoryService for testing.
type mockService struct {
	TrendsFunc      func(ctx context.Context, userID string, opts pricehistory.TrendsOptions) (*pricehistory.TrendsReport, error)
	AlertsFunc      func(ctx context.Context, userID string, opts pricehistory.AlertOptions) ([]domain.PriceAlert, error)
	ItemHistoryFunc func(ctx context.Context, userID, item string) (*pricehistory.ItemHistoryReport, error)
	OverviewFunc    func(ctx context.Context, userID string, opts pricehistory.OverviewOptions) (*pricehistory.Overview, error)
}

func (m *mockService) Trends(ctx context.Context, userID string, opts pricehistory.TrendsOptions) (*pricehistory.TrendsReport, error) {
	return m.TrendsFunc(ctx, userID, opts)
}

func (m *mockService) Alerts(ctx context.Context, userID string, opts pricehistory.AlertOptions) ([]domain.PriceAlert, error) {
	return m.AlertsFunc(ctx, userID, opts)
}

func (m *mockService) ItemHistory(ctx context.Context, userID, item string) (*pricehistory.ItemHistoryReport, error) {
	return m.ItemHistoryFunc(ctx, userID, item)
}

func (m *mockService) Overview(ctx context.Context, userID string, opts pricehistory.OverviewOptions) (*pricehistory.Overview, error) {
	return m.OverviewFunc(ctx, userID, opts)
}

func newDemoHandler(t *testing.T) *PriceHistoryHandler {
	t.Helper()
	repo := memory.NewRepository()
	if err := repo.Seed(pricing.Today()); err != nil {
		t.Fatalf("seeding repository: %v", err)
	}
	svc := pricehistory.NewService(repo, pricehistory.Config{}, zerolog.Nop())
	return NewPriceHistoryHandler(svc, zerolog.Nop())
}

func requestAs(userID, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestPriceHistoryHandler_Modes(t *testing.T) {
	h := newDemoHandler(t)

	tests := []struct {
		name      string
		target    string
		wantKeys  []string
		wantCount float64
	}{
		{"default is trends", "/api/price-history", []string{"trends", "biggest_increases", "biggest_decreases", "frequent_items"}, 5},
		{"trends 90d", "/api/price-history?mode=trends&period=90d", []string{"trends"}, 5},
		{"alerts", "/api/price-history?mode=alerts", []string{"alerts"}, 3},
		{"alerts high threshold", "/api/price-history?mode=alerts&threshold=15", []string{"alerts"}, 1},
		{"history", "/api/price-history?mode=history&item=Milk", []string{"item", "history", "trend", "total_spent", "best_price"}, 4},
		{"overview", "/api/price-history?mode=overview", []string{"trends", "alerts", "alert_count"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Get(rec, requestAs(memory.DemoUserID, tt.target))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			for _, key := range tt.wantKeys {
				if _, ok := body[key]; !ok {
					t.Errorf("response missing %q: %v", key, body)
				}
			}
			if body["count"] != tt.wantCount {
				t.Errorf("count = %v, want %v", body["count"], tt.wantCount)
			}
		})
	}
}

func TestPriceHistoryHandler_AlertsContent(t *testing.T) {
	h := newDemoHandler(t)
	rec := httptest.NewRecorder()
	h.Get(rec, requestAs(memory.DemoUserID, "/api/price-history?mode=alerts&threshold=15"))

	var body struct {
		Alerts []domain.PriceAlert `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Alerts) != 1 {
		t.Fatalf("len(alerts) = %d, want 1", len(body.Alerts))
	}
	if a := body.Alerts[0]; a.ItemName != "Milk" || a.OldPrice != 3.19 || a.NewPrice != 3.78 || a.Severity != domain.SeverityWarning {
		t.Errorf("alert = %+v, want Milk 3.19 -> 3.78 warning", a)
	}
}

func TestPriceHistoryHandler_BadRequests(t *testing.T) {
	h := newDemoHandler(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown mode", "/api/price-history?mode=forecast"},
		{"bad period", "/api/price-history?period=7d"},
		{"days zero", "/api/price-history?mode=alerts&days=0"},
		{"days too large", "/api/price-history?mode=alerts&days=366"},
		{"days not a number", "/api/price-history?mode=alerts&days=week"},
		{"negative threshold", "/api/price-history?mode=alerts&threshold=-1"},
		{"zero threshold", "/api/price-history?mode=alerts&threshold=0"},
		{"NaN threshold", "/api/price-history?mode=alerts&threshold=NaN"},
		{"history without item", "/api/price-history?mode=history"},
		{"history blank item", "/api/price-history?mode=history&item=%20%20"},
		{"overview bad days", "/api/price-history?mode=overview&days=1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Get(rec, requestAs(memory.DemoUserID, tt.target))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if body := decode(t, rec); body["error"] == "" || body["error"] == nil {
				t.Errorf("body = %v, want error message", body)
			}
		})
	}
}

func TestPriceHistoryHandler_AlertOptionsPassedThrough(t *testing.T) {
	var got pricehistory.AlertOptions
	h := NewPriceHistoryHandler(&mockService{
		AlertsFunc: func(ctx context.Context, userID string, opts pricehistory.AlertOptions) ([]domain.PriceAlert, error) {
			got = opts
			return []domain.PriceAlert{}, nil
		},
	}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Get(rec, requestAs("u1", "/api/price-history?mode=alerts&days=365&threshold=12.5"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.LookbackDays != 365 || got.ThresholdPct != 12.5 {
		t.Errorf("options = %+v, want 365 days, 12.5%%", got)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, requestAs("u1", "/api/price-history?mode=alerts"))
	if got.LookbackDays != 0 || got.ThresholdPct != 0 {
		t.Errorf("options = %+v, want zero values for service defaults", got)
	}
}

func TestPriceHistoryHandler_ServiceError(t *testing.T) {
	boom := errors.New("connection refused")
	h := NewPriceHistoryHandler(&mockService{
		TrendsFunc: func(ctx context.Context, userID string, opts pricehistory.TrendsOptions) (*pricehistory.TrendsReport, error) {
			return nil, boom
		},
		AlertsFunc: func(ctx context.Context, userID string, opts pricehistory.AlertOptions) ([]domain.PriceAlert, error) {
			return nil, boom
		},
		ItemHistoryFunc: func(ctx context.Context, userID, item string) (*pricehistory.ItemHistoryReport, error) {
			return nil, boom
		},
		OverviewFunc: func(ctx context.Context, userID string, opts pricehistory.OverviewOptions) (*pricehistory.Overview, error) {
			return nil, boom
		},
	}, zerolog.Nop())

	for _, mode := range []string{ModeTrends, ModeAlerts, ModeOverview} {
		t.Run(mode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Get(rec, requestAs("u1", "/api/price-history?mode="+mode+"&item=milk"))
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			if body := decode(t, rec); body["error"] != "Failed to load price history" {
				t.Errorf("error = %v, want generic message", body["error"])
			}
		})
	}

	rec := httptest.NewRecorder()
	h.Get(rec, requestAs("u1", "/api/price-history?mode=history&item=milk"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("history status = %d, want 500", rec.Code)
	}
}

func TestPriceHistoryHandler_RequiresUser(t *testing.T) {
	h := newDemoHandler(t)
	rec := httptest.NewRecorder()
	h.Get(rec, requestAs("", "/api/price-history"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPriceHistoryHandler_UnknownUserGetsEmptyTrends(t *testing.T) {
	h := newDemoHandler(t)
	rec := httptest.NewRecorder()
	h.Get(rec, requestAs("someone-else", "/api/price-history"))

	body := decode(t, rec)
	if body["count"] != float64(0) {
		t.Errorf("count = %v, want 0", body["count"])
	}
	if trends, ok := body["trends"].([]interface{}); !ok || len(trends) != 0 {
		t.Errorf("trends = %v, want empty array", body["trends"])
	}
}

func TestPriceHistoryHandler_FormatChange(t *testing.T) {
	h := newDemoHandler(t)

	tests := []struct {
		target     string
		wantStatus int
		wantText   string
		wantColor  string
	}{
		{"/api/price-history/format?change=0.2&pct=10", http.StatusOK, "↑ $0.20 (10.0%)", pricing.ColorIncrease},
		{"/api/price-history/format?change=-0.5&pct=-4.35", http.StatusOK, "↓ $0.50 (4.4%)", pricing.ColorDecrease},
		{"/api/price-history/format?change=0&pct=0", http.StatusOK, "", pricing.ColorFlat},
		{"/api/price-history/format?change=abc&pct=1", http.StatusBadRequest, "", ""},
		{"/api/price-history/format?change=1", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.FormatChange(rec, requestAs("u1", tt.target))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decode(t, rec)
			if tt.wantText != "" && body["text"] != tt.wantText {
				t.Errorf("text = %v, want %s", body["text"], tt.wantText)
			}
			if body["color_class"] != tt.wantColor {
				t.Errorf("color_class = %v, want %s", body["color_class"], tt.wantColor)
			}
		})
	}
}
