package services

import (
	"math"
	"reflect"
	"strconv"
	"testing"
	"time"

	"churn-dashboard/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func contract(date string, cancelled bool, price float64, product, gender string, age int) models.Contract {
	c := models.Contract{
		ContractDate: day(date),
		Price:        price,
		ProductName:  product,
		Gender:       gender,
		Age:          age,
	}
	if cancelled {
		cancelDate := c.ContractDate.AddDate(0, 1, 0)
		c.CancellationDate = &cancelDate
	}
	return c
}

func allFilter() Filter {
	return Filter{Gender: FilterAll, Product: FilterAll}
}

func TestAggregate_MonthlyRevenue(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-03-10", false, 300, "A", "female", 30),
		contract("2024-01-15", false, 100, "A", "female", 25),
		contract("2024-01-20", true, 150, "B", "male", 40),
		contract("2024-02-05", false, 200, "A", "male", 50),
	})

	table := ds.Aggregate(allFilter()).MonthlyRevenue
	if table.NoData {
		t.Fatal("expected populated table")
	}

	wantMonths := []string{"2024-01", "2024-02", "2024-03"}
	if len(table.Rows) != len(wantMonths) {
		t.Fatalf("got %d months, want %d", len(table.Rows), len(wantMonths))
	}

	var total float64
	for i, row := range table.Rows {
		if row.Month != wantMonths[i] {
			t.Errorf("row %d month = %q, want %q", i, row.Month, wantMonths[i])
		}
		total += row.Revenue
	}

	if table.Rows[0].Revenue != 250 {
		t.Errorf("2024-01 revenue = %v, want 250", table.Rows[0].Revenue)
	}

	// Sum over months equals sum of price over the subset exactly.
	if total != 750 {
		t.Errorf("total revenue = %v, want 750", total)
	}
}

func TestAggregate_MonthlyRevenue_FilteredSum(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-15", false, 100, "A", "female", 25),
		contract("2024-01-20", false, 150, "B", "male", 40),
		contract("2024-02-05", false, 200, "A", "male", 50),
	})

	table := ds.Aggregate(Filter{Gender: FilterAll, Product: "A"}).MonthlyRevenue

	var total float64
	for _, row := range table.Rows {
		total += row.Revenue
	}
	if total != 300 {
		t.Errorf("filtered revenue sum = %v, want 300", total)
	}
}

func TestAggregate_AgeGenderCompleteness(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "A", "female", 25),
		contract("2024-01-02", false, 100, "A", "male", 47),
	})

	table := ds.Aggregate(allFilter()).AgeGenderCounts
	if table.NoData {
		t.Fatal("expected populated table")
	}

	// Seven fixed groups crossed with two observed genders, zero counts
	// included, groups in ordinal order (never alphabetical).
	if len(table.Rows) != 14 {
		t.Fatalf("got %d rows, want 14", len(table.Rows))
	}

	wantOrder := []string{"~19", "20s", "30s", "40s", "50s", "60s", "70+"}
	for i, row := range table.Rows {
		if row.AgeGroup != wantOrder[i/2] {
			t.Errorf("row %d age group = %q, want %q", i, row.AgeGroup, wantOrder[i/2])
		}
	}

	counts := make(map[[2]string]int)
	for _, row := range table.Rows {
		counts[[2]string{row.AgeGroup, row.Gender}] = row.Contracts
	}
	if counts[[2]string{"20s", "female"}] != 1 {
		t.Error("expected one female contract in 20s")
	}
	if counts[[2]string{"40s", "male"}] != 1 {
		t.Error("expected one male contract in 40s")
	}
	if counts[[2]string{"70+", "female"}] != 0 {
		t.Error("expected zero-count row for 70+/female")
	}
}

func TestAggregate_ProductChurn_Example(t *testing.T) {
	// Three contracts: (25, A, cancelled), (45, A, active), (25, B, active).
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", true, 100, "A", "female", 25),
		contract("2024-01-02", false, 100, "A", "male", 45),
		contract("2024-01-03", false, 100, "B", "female", 25),
	})

	summary := ds.Aggregate(Filter{Gender: FilterAll, Product: "A"})

	churn := summary.ProductChurn
	if churn.NoData || len(churn.Rows) != 1 {
		t.Fatalf("churn table = %+v", churn)
	}
	row := churn.Rows[0]
	if row.ProductName != "A" || row.TotalContracts != 2 || row.Cancellations != 1 || row.ChurnRatePct != 50.0 {
		t.Errorf("churn row = %+v, want A total=2 cancellations=1 rate=50.0", row)
	}

	// One active and one cancelled contract, each normalized to 100% within
	// its own group.
	ageChurn := summary.AgeChurn
	if ageChurn.NoData {
		t.Fatal("expected populated age churn table")
	}
	sums := map[string]float64{}
	for _, bin := range ageChurn.Rows {
		sums[bin.Status] += bin.Percent
	}
	for _, status := range []string{models.StatusActive, models.StatusCancelled} {
		if math.Abs(sums[status]-100.0) > 1e-9 {
			t.Errorf("%s percents sum to %v, want 100", status, sums[status])
		}
	}
}

func TestAggregate_ProductChurn_Extremes(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "NeverCancelled", "female", 25),
		contract("2024-01-02", false, 100, "NeverCancelled", "male", 45),
		contract("2024-01-03", true, 100, "AlwaysCancelled", "female", 25),
		contract("2024-01-04", true, 100, "AlwaysCancelled", "male", 55),
	})

	table := ds.Aggregate(allFilter()).ProductChurn
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	// Sorted by churn rate descending.
	if table.Rows[0].ProductName != "AlwaysCancelled" || table.Rows[0].ChurnRatePct != 100.0 {
		t.Errorf("first row = %+v, want AlwaysCancelled at 100.0", table.Rows[0])
	}
	if table.Rows[1].ProductName != "NeverCancelled" || table.Rows[1].ChurnRatePct != 0.0 {
		t.Errorf("second row = %+v, want NeverCancelled at 0.0", table.Rows[1])
	}

	for _, row := range table.Rows {
		if row.Cancellations > row.TotalContracts {
			t.Errorf("cancellations exceed total for %+v", row)
		}
	}
}

func TestAggregate_ProductChurn_TiesStable(t *testing.T) {
	// Same churn rate for all three products; first-seen order must survive
	// the sort.
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "First", "female", 25),
		contract("2024-01-02", false, 100, "Second", "male", 45),
		contract("2024-01-03", false, 100, "Third", "female", 35),
	})

	table := ds.Aggregate(allFilter()).ProductChurn
	want := []string{"First", "Second", "Third"}
	for i, row := range table.Rows {
		if row.ProductName != want[i] {
			t.Errorf("row %d = %q, want %q", i, row.ProductName, want[i])
		}
	}
}

func TestAggregate_AllEqualsUnfiltered(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", true, 100, "A", "female", 25),
		contract("2024-02-02", false, 200, "B", "male", 45),
		contract("2024-03-03", false, 300, "A", "female", 65),
	})

	fromAll := ds.Aggregate(allFilter())
	direct := Summary{
		MonthlyRevenue:  models.Populated(monthlyRevenue(ds.contracts)),
		AgeGenderCounts: models.Populated(ageGenderCounts(ds.contracts)),
		ProductChurn:    models.Populated(productChurn(ds.contracts)),
		AgeChurn:        models.Populated(ageChurn(ds.contracts)),
	}

	if !reflect.DeepEqual(fromAll, direct) {
		t.Error("All/All aggregation must equal aggregation over the full dataset")
	}
}

func TestAggregate_EmptyDataset(t *testing.T) {
	summary := EmptyDataset().Aggregate(allFilter())

	if !summary.MonthlyRevenue.NoData || summary.MonthlyRevenue.Reason != ReasonDatasetEmpty {
		t.Errorf("monthly revenue = %+v, want no-data placeholder", summary.MonthlyRevenue)
	}
	if !summary.AgeGenderCounts.NoData || !summary.ProductChurn.NoData || !summary.AgeChurn.NoData {
		t.Error("all four tables must be no-data placeholders for an empty dataset")
	}
	if summary.ProductChurn.Rows == nil {
		t.Error("placeholder tables must carry an empty row slice, not nil")
	}
}

func TestAggregate_NoMatchingRows(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "A", "female", 25),
		contract("2024-01-02", false, 100, "B", "male", 45),
	})

	// Both selectors are valid individually but match no row together.
	summary := ds.Aggregate(Filter{Gender: "male", Product: "A"})

	if !summary.MonthlyRevenue.NoData || summary.MonthlyRevenue.Reason != ReasonNoMatch {
		t.Errorf("monthly revenue = %+v, want no-match placeholder", summary.MonthlyRevenue)
	}
	if !summary.AgeChurn.NoData {
		t.Error("age churn must be a no-data placeholder")
	}
}

func TestAggregate_DoesNotMutateDataset(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", true, 100, "A", "female", 25),
		contract("2024-01-02", false, 200, "B", "male", 45),
	})

	before := make([]models.Contract, len(ds.contracts))
	copy(before, ds.contracts)

	ds.Aggregate(Filter{Gender: "female", Product: FilterAll})
	ds.Aggregate(allFilter())

	if !reflect.DeepEqual(before, ds.contracts) {
		t.Error("aggregation must not mutate the dataset")
	}
}

func TestAggregate_AgeChurn_Bins(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "A", "female", 22),
		contract("2024-01-02", false, 100, "A", "female", 23),
		contract("2024-01-03", false, 100, "A", "male", 41),
		contract("2024-01-04", true, 100, "B", "male", 67),
	})

	table := ds.Aggregate(allFilter()).AgeChurn

	var active, cancelled []models.AgeChurnBin
	for _, bin := range table.Rows {
		switch bin.Status {
		case models.StatusActive:
			active = append(active, bin)
		case models.StatusCancelled:
			cancelled = append(cancelled, bin)
		default:
			t.Errorf("unexpected status %q", bin.Status)
		}
	}

	// Bins ascending within each status.
	for i := 1; i < len(active); i++ {
		if active[i].AgeFrom <= active[i-1].AgeFrom {
			t.Error("active bins must ascend")
		}
	}

	byStart := map[int]float64{}
	for _, bin := range active {
		byStart[bin.AgeFrom] = bin.Percent
	}
	// Two of three active contracts fall into the 20-24 bin.
	if math.Abs(byStart[20]-100.0*2/3) > 1e-9 {
		t.Errorf("active 20-24 percent = %v", byStart[20])
	}
	if math.Abs(byStart[40]-100.0/3) > 1e-9 {
		t.Errorf("active 40-44 percent = %v", byStart[40])
	}

	// The single cancelled contract is 100% of its own distribution.
	found := false
	for _, bin := range cancelled {
		if bin.AgeFrom == 65 && bin.Percent == 100.0 {
			found = true
		}
	}
	if !found {
		t.Error("cancelled 65-69 bin should hold 100%")
	}
}

func TestAggregate_AgeChurn_UnknownAgesExcluded(t *testing.T) {
	ds := NewDataset([]models.Contract{
		contract("2024-01-01", false, 100, "A", "female", -1),
		contract("2024-01-02", false, 100, "A", "male", 30),
	})

	table := ds.Aggregate(allFilter()).AgeChurn
	for _, bin := range table.Rows {
		if bin.AgeFrom < 0 {
			t.Errorf("unknown ages must not produce bins: %+v", bin)
		}
	}
	// The known-age contract is the whole active distribution.
	if len(table.Rows) != 1 || table.Rows[0].Percent != 100.0 {
		t.Errorf("rows = %+v", table.Rows)
	}
}

func BenchmarkAggregate(b *testing.B) {
	contracts := make([]models.Contract, 10000)
	for i := range contracts {
		c := contract("2024-01-01", i%3 == 0, float64(i), "Product"+strconv.Itoa(i%20), []string{"female", "male"}[i%2], i%90)
		c.ContractDate = c.ContractDate.AddDate(0, i%12, i%28)
		contracts[i] = c
	}
	ds := NewDataset(contracts)

	b.ResetTimer()
	for b.Loop() {
		_ = ds.Aggregate(Filter{Gender: "female", Product: FilterAll})
	}
}
