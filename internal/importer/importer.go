package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts or updates products by SKU.
//
// Expected columns: sku, name, description, price, discount, stock, status, image.
// A row with an empty sku and an image adds that image to the product above it.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger.Named("importer"),
	}
}

type csvRow struct {
	line     int
	SKU      string
	Name     string
	Desc     string
	Price    int64
	Discount int64
	Stock    int
	Status   domain.ProductStatus
	Images   []string
}

// Run parses CSV rows and upserts one product per sku row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; !ok {
		return 0, errors.New("missing sku column")
	}

	var (
		current  *csvRow
		imported int
	)
	line := 1

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.Images = append(current.Images, row.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || row.Price <= 0 {
		return fmt.Errorf("row %d: invalid product %q (name and positive price required)", row.line, row.SKU)
	}
	if row.Discount < 0 || row.Discount > row.Price {
		return fmt.Errorf("row %d: discount for %q must be between 0 and price", row.line, row.SKU)
	}
	if row.Stock < 0 {
		return fmt.Errorf("row %d: negative stock for %q", row.line, row.SKU)
	}

	p := domain.Product{
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		Discount:    row.Discount,
		Stock:       row.Stock,
		Status:      row.Status,
		Images:      row.Images,
	}

	saved, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.SKU, err)
	}
	i.logger.Debug("product imported", zap.String("sku", row.SKU), zap.Int64("id", saved.ID))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	sku := pick(record, index, "sku")
	image := pick(record, index, "image")

	if sku == "" && image == "" {
		return nil, nil
	}
	row := &csvRow{line: line, SKU: sku}
	if image != "" {
		row.Images = []string{image}
	}
	if sku == "" {
		return row, nil
	}

	row.Name = pick(record, index, "name")
	row.Desc = pick(record, index, "description")

	var err error
	if row.Price, err = parseInt64(pick(record, index, "price")); err != nil {
		return nil, fmt.Errorf("row %d: price: %w", line, err)
	}
	if row.Discount, err = parseInt64(pick(record, index, "discount")); err != nil {
		return nil, fmt.Errorf("row %d: discount: %w", line, err)
	}
	stock, err := parseInt64(pick(record, index, "stock"))
	if err != nil {
		return nil, fmt.Errorf("row %d: stock: %w", line, err)
	}
	row.Stock = int(stock)

	switch status := domain.ProductStatus(strings.ToLower(pick(record, index, "status"))); status {
	case "":
		row.Status = domain.ProductActive
	case domain.ProductActive, domain.ProductDiscontinued:
		row.Status = status
	default:
		return nil, fmt.Errorf("row %d: unknown status %q", line, status)
	}
	return row, nil
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
