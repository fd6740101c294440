package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"churn-dashboard/internal/errors"
	"churn-dashboard/internal/observability"
	"churn-dashboard/internal/services"
)

const summaryCacheControl = "public, max-age=60"

type APIHandlers struct {
	dataset *services.Dataset
	logger  *slog.Logger
}

func NewAPIHandlers(dataset *services.Dataset, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dataset: dataset,
		logger:  logger,
	}
}

// selection reads the gender/product selectors off the query string. Absent
// selectors default to "All"; values outside the option lists are rejected.
func (h *APIHandlers) selection(r *http.Request) (services.Filter, error) {
	f := services.Filter{
		Gender:  services.FilterAll,
		Product: services.FilterAll,
	}
	if v := r.URL.Query().Get("gender"); v != "" {
		f.Gender = v
	}
	if v := r.URL.Query().Get("product"); v != "" {
		f.Product = v
	}

	if !h.dataset.ValidGender(f.Gender) {
		return f, errors.Validation("unknown gender selector: " + f.Gender)
	}
	if !h.dataset.ValidProduct(f.Product) {
		return f, errors.Validation("unknown product selector: " + f.Product)
	}
	return f, nil
}

func (h *APIHandlers) aggregate(w http.ResponseWriter, r *http.Request) (services.Summary, bool) {
	filter, err := h.selection(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return services.Summary{}, false
	}
	return h.dataset.Aggregate(filter), true
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, summary, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.MonthlyRevenue, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleAgeGender(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.AgeGenderCounts, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleProductChurn(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.ProductChurn, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleAgeChurn(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, summary.AgeChurn, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	options := map[string][]string{
		"genders":  h.dataset.GenderOptions(),
		"products": h.dataset.ProductOptions(),
	}

	errors.WriteSuccessWithHeaders(w, options, map[string]string{
		"Cache-Control": summaryCacheControl,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dataset.Stats())
}
