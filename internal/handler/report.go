package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vasiliy-maslov/retail-pos/internal/outcome"
	"github.com/vasiliy-maslov/retail-pos/internal/report"
)

type DashboardProvider interface {
	Dashboard(ctx context.Context) (report.Dashboard, outcome.Outcome)
}

type DashboardResponse struct {
	report.Dashboard
	Outcome outcome.Outcome `json:"outcome"`
}

type ReportHandler struct {
	service DashboardProvider
}

func NewReportHandler(s DashboardProvider) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) RegisterRoutes(router chi.Router) {
	router.Get("/reports/dashboard", h.Dashboard)
}

// Dashboard always carries a body; on a read failure the data is empty and
// the outcome says why.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, o := h.service.Dashboard(r.Context())
	respondWithJSON(w, statusForOutcome(o), DashboardResponse{Dashboard: d, Outcome: o})
}
