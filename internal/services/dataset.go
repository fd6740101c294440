package services

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"churn-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// FilterAll is the synthetic sentinel prepended to both option lists.
const FilterAll = "All"

// Canonical column names of the normalized schema.
const (
	colContractDate     = "contract_date"
	colCancellationDate = "cancellation_date"
	colPrice            = "price"
	colProductName      = "product_name"
	colGender           = "gender"
	colAge              = "age"
)

// columnAliases maps known source headers onto the canonical schema. The
// export this dashboard was built for carries Japanese headers; English
// spellings are accepted as well. Unknown columns are ignored.
var columnAliases = map[string]string{
	"契約日時":              colContractDate,
	"キャンセル日時":           colCancellationDate,
	"価格":                colPrice,
	"商品名":               colProductName,
	"性別":                colGender,
	"年齢":                colAge,
	"ContractDate":      colContractDate,
	"CancellationDate":  colCancellationDate,
	"Price":             colPrice,
	"ProductName":       colProductName,
	"Gender":            colGender,
	"Age":               colAge,
	"contract_date":     colContractDate,
	"cancellation_date": colCancellationDate,
	"price":             colPrice,
	"product_name":      colProductName,
	"gender":            colGender,
	"age":               colAge,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
}

// SourceTable is a raw tabular input: named columns plus string rows. Any
// transport that can produce one (CSV file, in-memory fixture) can feed the
// normalizer.
type SourceTable struct {
	Columns []string
	Rows    [][]string
}

// Dataset is the normalized, sorted, enriched contract table. It is built
// once and read-only afterwards, so concurrent aggregations need no locking.
type Dataset struct {
	contracts      []models.Contract
	genderOptions  []string
	productOptions []string
	droppedRows    int
	loadedAt       time.Time
	source         string
}

// EmptyDataset is the degraded result for an unreadable source: zero rows and
// "All"-only option lists.
func EmptyDataset() *Dataset {
	return &Dataset{
		contracts:      []models.Contract{},
		genderOptions:  []string{FilterAll},
		productOptions: []string{FilterAll},
		loadedAt:       time.Now(),
	}
}

// LoadCSV reads the contract snapshot from a CSV file. A missing or unreadable
// source is not fatal: it degrades to an empty dataset and is only logged. The
// file handle is held for the duration of parsing only.
func LoadCSV(ctx context.Context, path string, logger *slog.Logger) *Dataset {
	file, err := os.Open(path)
	if err != nil {
		logger.Warn("contract source unavailable, serving empty dataset",
			"path", path,
			"error", err,
		)
		return EmptyDataset()
	}
	defer file.Close()

	src, err := readTable(ctx, file)
	if err != nil {
		logger.Warn("contract source unreadable, serving empty dataset",
			"path", path,
			"error", err,
		)
		return EmptyDataset()
	}

	start := time.Now()
	ds := Normalize(ctx, src)
	ds.source = path

	logger.Info("contract dataset loaded",
		"path", path,
		"rows", len(src.Rows),
		"admitted", ds.Len(),
		"dropped", ds.droppedRows,
		"duration", time.Since(start),
	)
	return ds
}

func readTable(ctx context.Context, r io.Reader) (SourceTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return SourceTable{}, err
	}

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return SourceTable{}, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Structurally broken line, not a fatal source failure.
			continue
		}
		rows = append(rows, record)
	}

	return SourceTable{Columns: header, Rows: rows}, nil
}

// Normalize runs the cleaning pipeline over a raw table: column rename,
// per-field parsing, admission filter, sort by contract date, then flag and
// age-group derivation and the option lists.
func Normalize(ctx context.Context, src SourceTable) *Dataset {
	index := columnIndex(src.Columns)

	parsed := make([]*models.Contract, len(src.Rows))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for lo := 0; lo < len(src.Rows); lo += batchSize {
		hi := min(lo+batchSize, len(src.Rows))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := lo; i < hi; i++ {
				if c, ok := parseRow(index, src.Rows[i]); ok {
					parsed[i] = &c
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EmptyDataset()
	}

	contracts := make([]models.Contract, 0, len(parsed))
	for _, c := range parsed {
		if c != nil {
			contracts = append(contracts, *c)
		}
	}

	ds := NewDataset(contracts)
	ds.droppedRows = len(src.Rows) - len(contracts)
	return ds
}

// NewDataset builds the normalized dataset from already-admitted contracts:
// sort by contract date, derive the cancellation flag and age group, compute
// the option lists. This is the entry point for in-memory tabular sources.
func NewDataset(contracts []models.Contract) *Dataset {
	sort.SliceStable(contracts, func(i, j int) bool {
		return contracts[i].ContractDate.Before(contracts[j].ContractDate)
	})

	for i := range contracts {
		contracts[i].Cancelled = contracts[i].CancellationDate != nil
		contracts[i].AgeGroup = models.ClassifyAge(contracts[i].Age)
	}

	return &Dataset{
		contracts:      contracts,
		genderOptions:  optionList(contracts, func(c models.Contract) string { return c.Gender }),
		productOptions: optionList(contracts, func(c models.Contract) string { return c.ProductName }),
		loadedAt:       time.Now(),
	}
}

func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if canonical, ok := columnAliases[strings.TrimSpace(name)]; ok {
			if _, seen := index[canonical]; !seen {
				index[canonical] = i
			}
		}
	}
	return index
}

func field(index map[string]int, row []string, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRow admits a row only when contract date, price, gender and product
// name all survive parsing. There is no partial-row salvage.
func parseRow(index map[string]int, row []string) (models.Contract, bool) {
	contractDate, ok := parseTimestamp(field(index, row, colContractDate))
	if !ok {
		return models.Contract{}, false
	}

	price, err := strconv.ParseFloat(field(index, row, colPrice), 64)
	if err != nil {
		return models.Contract{}, false
	}

	gender := field(index, row, colGender)
	product := field(index, row, colProductName)
	if gender == "" || product == "" {
		return models.Contract{}, false
	}

	c := models.Contract{
		ContractDate: contractDate,
		Price:        price,
		ProductName:  product,
		Gender:       gender,
		Age:          -1,
	}

	// Both optional: an unparsable cancellation date means "not cancelled",
	// an unparsable age means "unknown age".
	if t, ok := parseTimestamp(field(index, row, colCancellationDate)); ok {
		c.CancellationDate = &t
	}
	if age, err := strconv.Atoi(field(index, row, colAge)); err == nil && age >= 0 {
		c.Age = age
	}

	return c, true
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func optionList(contracts []models.Contract, key func(models.Contract) string) []string {
	options := []string{FilterAll}
	seen := make(map[string]bool)
	for _, c := range contracts {
		if v := key(c); !seen[v] {
			seen[v] = true
			options = append(options, v)
		}
	}
	return options
}

// Contracts returns the normalized rows. Callers must treat the slice as
// read-only.
func (d *Dataset) Contracts() []models.Contract {
	return d.contracts
}

func (d *Dataset) Len() int {
	return len(d.contracts)
}

func (d *Dataset) Empty() bool {
	return len(d.contracts) == 0
}

func (d *Dataset) GenderOptions() []string {
	return d.genderOptions
}

func (d *Dataset) ProductOptions() []string {
	return d.productOptions
}

// ValidGender reports whether the selector is "All" or an observed gender.
func (d *Dataset) ValidGender(gender string) bool {
	return containsOption(d.genderOptions, gender)
}

// ValidProduct reports whether the selector is "All" or an observed product.
func (d *Dataset) ValidProduct(product string) bool {
	return containsOption(d.productOptions, product)
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// Stats is a monitoring snapshot for the admin surface.
func (d *Dataset) Stats() map[string]any {
	return map[string]any{
		"record_count": len(d.contracts),
		"dropped_rows": d.droppedRows,
		"loaded_at":    d.loadedAt,
		"source":       d.source,
		"genders":      len(d.genderOptions) - 1,
		"products":     len(d.productOptions) - 1,
	}
}
