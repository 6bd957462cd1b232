package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/price-tracker/internal/api/handlers"
	"github.com/dvloznov/price-tracker/internal/api/middleware"
	"github.com/rs/zerolog"
)

type routeDeps struct {
	priceHistory *handlers.PriceHistoryHandler
	reports      *handlers.ReportsHandler
	jobs         *handlers.JobsHandler
	jwtSecret    []byte
	log          zerolog.Logger
}

// newRouter registers every endpoint and wraps the mux in the middleware chain.
func newRouter(d routeDeps) http.Handler {
	mux := http.NewServeMux()

	// Price history endpoints
	mux.HandleFunc("/api/price-history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			d.priceHistory.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/price-history/format", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			d.priceHistory.FormatChange(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Report export endpoints
	mux.HandleFunc("/api/price-history/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			d.reports.CreateReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/price-history/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/price-history/reports/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			d.reports.GetReport(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			d.jobs.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			d.jobs.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Chain(mux,
		middleware.Recovery(d.log),
		middleware.Logger(d.log),
		middleware.RequestID,
		middleware.CORS,
		middleware.Auth(d.jwtSecret, d.log),
	)
}
