// Package importer loads products from CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads rows with the columns
// name,description,price,stock,category,seller_id,image
// and upserts each as a product keyed by seller and name. Categories are
// created on first use.
type CSVImporter struct {
	reader        *csv.Reader
	products      ProductWriter
	categories    CategoryStore
	defaultSeller int64
	lg            *zap.Logger

	categoryIDs map[string]int64
}

// NewCSVImporter builds an importer. defaultSeller is used for rows with an
// empty seller_id.
func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryStore, defaultSeller int64, lg *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:        csvr,
		products:      products,
		categories:    categories,
		defaultSeller: defaultSeller,
		lg:            logging.OrNop(lg),
	}
}

// RowError reports a row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error() }

func (e *RowError) Unwrap() error { return e.Err }

// Run imports every row and returns how many products were written. It
// stops at the first invalid row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	for _, col := range []string{"name", "price"} {
		if _, ok := index[col]; !ok {
			return 0, errors.Errorf("missing required column %q", col)
		}
	}
	if err := i.loadCategories(ctx); err != nil {
		return 0, err
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, errors.Wrap(err, "read row")
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		p, err := i.parse(ctx, record, index)
		if err != nil {
			return imported, &RowError{Line: line, Err: err}
		}
		if _, err := i.products.Upsert(ctx, p); err != nil {
			return imported, &RowError{Line: line, Err: errors.Wrapf(err, "upsert product %q", p.Name)}
		}
		imported++
		i.lg.Debug("product imported", zap.Int("line", line), zap.String("name", p.Name))
	}
	return imported, nil
}

func (i *CSVImporter) parse(ctx context.Context, record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Image:       pick(record, index, "image"),
		SellerID:    i.defaultSeller,
	}
	if p.Name == "" {
		return p, domain.Invalid("name required")
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || !price.IsPositive() {
		return p, domain.Invalid("invalid price %q", pick(record, index, "price"))
	}
	p.Price = price

	if raw := pick(record, index, "stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return p, domain.Invalid("invalid stock %q", raw)
		}
		p.Stock = stock
	}

	if raw := pick(record, index, "seller_id"); raw != "" {
		seller, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seller <= 0 {
			return p, domain.Invalid("invalid seller_id %q", raw)
		}
		p.SellerID = seller
	}
	if p.SellerID == 0 {
		return p, domain.Invalid("seller_id required")
	}

	if name := pick(record, index, "category"); name != "" {
		id, err := i.categoryID(ctx, name)
		if err != nil {
			return p, err
		}
		p.CategoryID = &id
	}
	return p, nil
}

func (i *CSVImporter) loadCategories(ctx context.Context) error {
	cats, err := i.categories.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	i.categoryIDs = make(map[string]int64, len(cats))
	for _, c := range cats {
		i.categoryIDs[strings.ToLower(c.Name)] = c.ID
	}
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (int64, error) {
	if id, ok := i.categoryIDs[strings.ToLower(name)]; ok {
		return id, nil
	}
	c, err := i.categories.Create(ctx, domain.Category{Name: name})
	if err != nil {
		return 0, errors.Wrapf(err, "create category %q", name)
	}
	i.categoryIDs[strings.ToLower(name)] = c.ID
	i.lg.Info("category created", zap.String("name", name), zap.Int64("category_id", c.ID))
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
