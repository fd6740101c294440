package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"churn-dashboard/internal/models"
	"churn-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

const maxChurnTableRows = 50

var churnTableTemplate = template.Must(template.New("churnTable").Parse(`
<div id="churn-content">
{{if .NoData}}<p class="no-data">{{.Reason}}</p>{{else}}<table class="modern-table">
<thead><tr><th>Product</th><th>Contracts</th><th>Cancellations</th><th>Churn Rate</th></tr></thead>
<tbody>
{{range $i, $item := .Rows}}{{if lt $i $.MaxRows}}<tr>
<td>{{.ProductName}}</td>
<td>{{.TotalContracts}}</td>
<td>{{.Cancellations}}</td>
<td><strong>{{printf "%.1f" .ChurnRatePct}}%</strong></td>
</tr>{{end}}{{end}}
</tbody>
</table>{{end}}
</div>`))

type SSEHandlers struct {
	dataset *services.Dataset
	logger  *slog.Logger
}

func NewSSEHandlers(dataset *services.Dataset, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dataset: dataset,
		logger:  logger,
	}
}

// selection mirrors the API selector parsing, but an SSE stream has no error
// envelope: unknown values fall back to "All" with a warning.
func (h *SSEHandlers) selection(r *http.Request) services.Filter {
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
		h.logger.Warn("unknown gender selector, using All", "gender", f.Gender)
		f.Gender = services.FilterAll
	}
	if !h.dataset.ValidProduct(f.Product) {
		h.logger.Warn("unknown product selector, using All", "product", f.Product)
		f.Product = services.FilterAll
	}
	return f
}

type churnTableData struct {
	Rows    []models.ProductChurn
	NoData  bool
	Reason  string
	MaxRows int
}

func (h *SSEHandlers) renderChurnTable(table models.Table[models.ProductChurn]) (string, error) {
	var buf strings.Builder

	data := churnTableData{
		Rows:    table.Rows,
		NoData:  table.NoData,
		Reason:  table.Reason,
		MaxRows: maxChurnTableRows,
	}
	err := churnTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.dataset.Aggregate(h.selection(r))
	jsonData, err := json.Marshal(map[string]any{
		"monthlyRevenue": summary.MonthlyRevenue,
	})
	if err != nil {
		h.logger.Error("marshal monthly revenue", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleAgeGender(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.dataset.Aggregate(h.selection(r))
	jsonData, err := json.Marshal(map[string]any{
		"ageGenderCounts": summary.AgeGenderCounts,
	})
	if err != nil {
		h.logger.Error("marshal age gender counts", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleProductChurn(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.dataset.Aggregate(h.selection(r))
	html, err := h.renderChurnTable(summary.ProductChurn)
	if err != nil {
		h.logger.Error("render churn table", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleAgeChurn(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.dataset.Aggregate(h.selection(r))
	jsonData, err := json.Marshal(map[string]any{
		"ageChurn": summary.AgeChurn,
	})
	if err != nil {
		h.logger.Error("marshal age churn", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll recomputes every chart for the current filter selection in
// one stream. This is the endpoint the dropdowns trigger.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary := h.dataset.Aggregate(h.selection(r))

	html, err := h.renderChurnTable(summary.ProductChurn)
	if err != nil {
		h.logger.Error("render churn table", "error", err)
		return
	}
	sse.PatchElements(html)

	allSignals, err := json.Marshal(map[string]any{
		"monthlyRevenue":  summary.MonthlyRevenue,
		"ageGenderCounts": summary.AgeGenderCounts,
		"ageChurn":        summary.AgeChurn,
	})
	if err != nil {
		h.logger.Error("marshal summary signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
