package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/price-tracker/internal/api/handlers"
	"github.com/dvloznov/price-tracker/internal/infra/memory"
	"github.com/dvloznov/price-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.NewRepository()
	if err := repo.Seed(pricing.Today()); err != nil {
		t.Fatal(err)
	}
	log := zerolog.Nop()
	svc := pricehistory.NewService(repo, pricehistory.Config{}, log)
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.QueueConfig{}, store, log)
	t.Cleanup(func() { queue.Close() })

	return newRouter(routeDeps{
		priceHistory: handlers.NewPriceHistoryHandler(svc, log),
		reports:      handlers.NewReportsHandler(queue, store, false, log),
		jobs:         handlers.NewJobsHandler(store, log),
		log:          log,
	})
}

func TestRouter(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name       string
		method     string
		target     string
		user       string
		wantStatus int
		wantBody   string
	}{
		{"health needs no user", http.MethodGet, "/health", "", http.StatusOK, "healthy"},
		{"trends", http.MethodGet, "/api/price-history", memory.DemoUserID, http.StatusOK, `"biggest_increases"`},
		{"alerts", http.MethodGet, "/api/price-history?mode=alerts", memory.DemoUserID, http.StatusOK, `"alerts"`},
		{"history", http.MethodGet, "/api/price-history?mode=history&item=eggs", memory.DemoUserID, http.StatusOK, `"best_price"`},
		{"format", http.MethodGet, "/api/price-history/format?change=0.2&pct=10", memory.DemoUserID, http.StatusOK, "10.0"},
		{"missing user", http.MethodGet, "/api/price-history", "", http.StatusUnauthorized, "error"},
		{"wrong method", http.MethodDelete, "/api/price-history", memory.DemoUserID, http.StatusMethodNotAllowed, "Method not allowed"},
		{"export disabled", http.MethodPost, "/api/price-history/reports", memory.DemoUserID, http.StatusServiceUnavailable, "not configured"},
		{"report without ID", http.MethodGet, "/api/price-history/reports/", memory.DemoUserID, http.StatusBadRequest, "Job ID is required"},
		{"unknown job", http.MethodGet, "/api/jobs/abc", memory.DemoUserID, http.StatusNotFound, "Job not found"},
		{"list jobs", http.MethodGet, "/api/jobs", memory.DemoUserID, http.StatusOK, `"count":0`},
		{"preflight", http.MethodOptions, "/api/price-history", "", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.user != "" {
				req.Header.Set("X-User-ID", tt.user)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want containing %s", rec.Body.String(), tt.wantBody)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}
