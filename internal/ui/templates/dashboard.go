package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const refreshExpr = "@get('/sse/refresh-all?gender='+encodeURIComponent($gender)+'&product='+encodeURIComponent($product))"

// Dashboard renders the customer analysis page: the two filter dropdowns and
// the four chart panels the SSE endpoints patch. Option lists come from the
// normalized dataset, already "All"-prefixed.
func Dashboard(genderOptions, productOptions []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<title>Customer Contract Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<link rel="stylesheet" href="/static/dashboard.css"/>
</head>
<body data-signals="{gender: 'All', product: 'All', monthlyRevenue: null, ageGenderCounts: null, ageChurn: null}" data-on-load="`+refreshExpr+`">
<h1>Customer Contract Dashboard</h1>
<div class="filters">
`); err != nil {
			return err
		}

		if err := writeSelect(w, "gender", "Gender", genderOptions); err != nil {
			return err
		}
		if err := writeSelect(w, "product", "Product", productOptions); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</div>
<div class="panels">
<section class="panel"><h3>Monthly Revenue</h3><div id="monthly-content" data-text="$monthlyRevenue ? '' : 'loading…'"></div></section>
<section class="panel"><h3>Contracts by Age Group and Gender</h3><div id="age-gender-content"></div></section>
<section class="panel"><h3>Churn Rate by Product</h3><div id="churn-content"></div></section>
<section class="panel"><h3>Age Distribution: Active vs Cancelled</h3><div id="age-churn-content"></div></section>
</div>
</body>
</html>`)
		return err
	})
}

func writeSelect(w io.Writer, signal, label string, options []string) error {
	if _, err := fmt.Fprintf(w, `<label>%s<select data-bind-%s data-on-change="%s">`,
		templ.EscapeString(label), signal, refreshExpr); err != nil {
		return err
	}
	for _, option := range options {
		escaped := templ.EscapeString(option)
		if _, err := fmt.Fprintf(w, `<option value="%s">%s</option>`, escaped, escaped); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</select></label>`)
	return err
}
