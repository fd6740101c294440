package services

import (
	"slices"

	"churn-dashboard/internal/models"
)

const ageBinWidth = 5

// Placeholder reasons for the two no-data cases. Both render as a title-only
// empty chart; they are states of the summary, not errors.
const (
	ReasonDatasetEmpty = "no contract data loaded"
	ReasonNoMatch      = "no contracts match the selected filters"
)

// Filter is one (gender, product) selection. Either side may be the "All"
// sentinel, which skips that predicate.
type Filter struct {
	Gender  string
	Product string
}

func (f Filter) matches(c models.Contract) bool {
	if f.Gender != FilterAll && c.Gender != f.Gender {
		return false
	}
	if f.Product != FilterAll && c.ProductName != f.Product {
		return false
	}
	return true
}

// Summary bundles the four tables recomputed on every filter selection.
type Summary struct {
	MonthlyRevenue  models.Table[models.MonthlyRevenue] `json:"monthly_revenue"`
	AgeGenderCounts models.Table[models.AgeGenderCount] `json:"age_gender_counts"`
	ProductChurn    models.Table[models.ProductChurn]   `json:"product_churn"`
	AgeChurn        models.Table[models.AgeChurnBin]    `json:"age_churn"`
}

func emptySummary(reason string) Summary {
	return Summary{
		MonthlyRevenue:  models.Empty[models.MonthlyRevenue](reason),
		AgeGenderCounts: models.Empty[models.AgeGenderCount](reason),
		ProductChurn:    models.Empty[models.ProductChurn](reason),
		AgeChurn:        models.Empty[models.AgeChurnBin](reason),
	}
}

// Aggregate derives the four summary tables for one filter selection. It
// operates on a filtered copy and never mutates the dataset, so concurrent
// calls are independent.
func (d *Dataset) Aggregate(f Filter) Summary {
	if d.Empty() {
		return emptySummary(ReasonDatasetEmpty)
	}

	rows := d.filtered(f)
	if len(rows) == 0 {
		return emptySummary(ReasonNoMatch)
	}

	return Summary{
		MonthlyRevenue:  models.Populated(monthlyRevenue(rows)),
		AgeGenderCounts: models.Populated(ageGenderCounts(rows)),
		ProductChurn:    models.Populated(productChurn(rows)),
		AgeChurn:        models.Populated(ageChurn(rows)),
	}
}

func (d *Dataset) filtered(f Filter) []models.Contract {
	out := make([]models.Contract, 0, len(d.contracts))
	for _, c := range d.contracts {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// monthlyRevenue sums price per calendar month. Rows come out in
// chronological order; the "2006-01" key sorts lexically as time.
func monthlyRevenue(rows []models.Contract) []models.MonthlyRevenue {
	totals := make(map[string]float64)
	for _, c := range rows {
		totals[c.ContractDate.Format("2006-01")] += c.Price
	}

	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	slices.Sort(months)

	result := make([]models.MonthlyRevenue, 0, len(months))
	for _, month := range months {
		result = append(result, models.MonthlyRevenue{Month: month, Revenue: totals[month]})
	}
	return result
}

// ageGenderCounts counts contracts per (age group, gender). All seven age
// groups are emitted in their ordinal order even at zero count, crossed with
// the genders observed in the filtered subset, so the chart axis is stable.
// Contracts with an unknown age group are excluded.
func ageGenderCounts(rows []models.Contract) []models.AgeGenderCount {
	type key struct {
		group  models.AgeGroup
		gender string
	}

	counts := make(map[key]int)
	genders := make([]string, 0, 2)
	seen := make(map[string]bool)

	for _, c := range rows {
		if !seen[c.Gender] {
			seen[c.Gender] = true
			genders = append(genders, c.Gender)
		}
		if c.AgeGroup.Known() {
			counts[key{c.AgeGroup, c.Gender}]++
		}
	}

	result := make([]models.AgeGenderCount, 0, len(models.AgeGroups())*len(genders))
	for _, group := range models.AgeGroups() {
		for _, gender := range genders {
			result = append(result, models.AgeGenderCount{
				AgeGroup:  group.String(),
				Gender:    gender,
				Contracts: counts[key{group, gender}],
			})
		}
	}
	return result
}

// productChurn computes the cancellation rate per product, sorted by rate
// descending. Ties keep first-seen order; a group always has at least one
// contract because groups derive from existing rows.
func productChurn(rows []models.Contract) []models.ProductChurn {
	byProduct := make(map[string]*models.ProductChurn)
	order := make([]string, 0)

	for _, c := range rows {
		entry, ok := byProduct[c.ProductName]
		if !ok {
			entry = &models.ProductChurn{ProductName: c.ProductName}
			byProduct[c.ProductName] = entry
			order = append(order, c.ProductName)
		}
		entry.TotalContracts++
		if c.Cancelled {
			entry.Cancellations++
		}
	}

	result := make([]models.ProductChurn, 0, len(order))
	for _, name := range order {
		entry := byProduct[name]
		entry.ChurnRatePct = 100 * float64(entry.Cancellations) / float64(entry.TotalContracts)
		result = append(result, *entry)
	}

	slices.SortStableFunc(result, func(a, b models.ProductChurn) int {
		switch {
		case a.ChurnRatePct > b.ChurnRatePct:
			return -1
		case a.ChurnRatePct < b.ChurnRatePct:
			return 1
		default:
			return 0
		}
	})
	return result
}

// ageChurn builds the overlaid age histogram split by churn status. Each side
// is normalized to 100% independently over fixed 5-year bins; rows with an
// unknown age are excluded. Active rows come first, bins ascending.
func ageChurn(rows []models.Contract) []models.AgeChurnBin {
	activeBins := make(map[int]int)
	cancelledBins := make(map[int]int)
	activeTotal, cancelledTotal := 0, 0

	for _, c := range rows {
		if c.Age < 0 {
			continue
		}
		bin := (c.Age / ageBinWidth) * ageBinWidth
		if c.Cancelled {
			cancelledBins[bin]++
			cancelledTotal++
		} else {
			activeBins[bin]++
			activeTotal++
		}
	}

	bins := make([]int, 0, len(activeBins)+len(cancelledBins))
	for bin := range activeBins {
		bins = append(bins, bin)
	}
	for bin := range cancelledBins {
		if _, ok := activeBins[bin]; !ok {
			bins = append(bins, bin)
		}
	}
	slices.Sort(bins)

	var result []models.AgeChurnBin
	emit := func(status string, counts map[int]int, total int) {
		if total == 0 {
			return
		}
		for _, bin := range bins {
			result = append(result, models.AgeChurnBin{
				AgeFrom: bin,
				AgeTo:   bin + ageBinWidth - 1,
				Status:  status,
				Percent: 100 * float64(counts[bin]) / float64(total),
			})
		}
	}
	emit(models.StatusActive, activeBins, activeTotal)
	emit(models.StatusCancelled, cancelledBins, cancelledTotal)
	return result
}
