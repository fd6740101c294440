package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"churn-dashboard/internal/models"
	"churn-dashboard/internal/services"
)

func TestNewSSEHandlers(t *testing.T) {
	dataset := createTestDataset()
	logger := testLogger()

	handlers := NewSSEHandlers(dataset, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.dataset != dataset {
		t.Error("NewSSEHandlers() should set dataset field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderChurnTable(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	table := models.Populated([]models.ProductChurn{
		{ProductName: "Basic Plan", TotalContracts: 2, Cancellations: 1, ChurnRatePct: 50.0},
		{ProductName: "Premium Plan", TotalContracts: 1, Cancellations: 0, ChurnRatePct: 0.0},
	})

	html, err := handlers.renderChurnTable(table)
	if err != nil {
		t.Fatalf("renderChurnTable() failed: %v", err)
	}

	expectedContent := []string{
		"<table class=\"modern-table\">",
		"<th>Product</th>",
		"<th>Contracts</th>",
		"<th>Cancellations</th>",
		"<th>Churn Rate</th>",
		"Basic Plan",
		"50.0%",
		"Premium Plan",
		"0.0%",
	}

	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderChurnTable_NoData(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	html, err := handlers.renderChurnTable(models.Empty[models.ProductChurn](services.ReasonNoMatch))
	if err != nil {
		t.Fatalf("renderChurnTable() failed: %v", err)
	}

	if !strings.Contains(html, services.ReasonNoMatch) {
		t.Error("no-data table should render the placeholder reason")
	}
	if strings.Contains(html, "<table") {
		t.Error("no-data table should not render a table body")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	ct := w.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "churn-content") {
		t.Error("expected churn table patch in SSE stream")
	}
	if !strings.Contains(body, "monthlyRevenue") {
		t.Error("expected monthly revenue signals in SSE stream")
	}
}

func TestSSEHandlers_FilteredRefresh(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all?gender=male&product=Premium+Plan", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "Premium Plan") {
		t.Error("expected filtered churn table to contain Premium Plan")
	}
	if strings.Contains(body, "Basic Plan") {
		t.Error("filtered churn table should not contain Basic Plan")
	}
}

func TestSSEHandlers_UnknownSelectorFallsBack(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all?gender=bogus", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	// Unknown selector degrades to All: the stream still carries data.
	body := w.Body.String()
	if !strings.Contains(body, "Basic Plan") {
		t.Error("expected fallback to All to include all products")
	}
}

func TestSSEHandlers_SignalEndpoints(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantSignal string
	}{
		{"monthly revenue", handlers.HandleMonthlyRevenue, "monthlyRevenue"},
		{"age gender", handlers.HandleAgeGender, "ageGenderCounts"},
		{"age churn", handlers.HandleAgeChurn, "ageChurn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/table", nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if !strings.Contains(w.Body.String(), tt.wantSignal) {
				t.Errorf("expected %q signal in SSE stream", tt.wantSignal)
			}
		})
	}
}

func TestSSEHandlers_HandleProductChurn(t *testing.T) {
	handlers := NewSSEHandlers(createTestDataset(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/product-churn", nil)
	w := httptest.NewRecorder()

	handlers.HandleProductChurn(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "churn-content") {
		t.Error("expected churn table element patch")
	}
}
