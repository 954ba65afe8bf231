// Package report renders the sold-count report shown to admins.
package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/pricing"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"

	"github.com/phpdave11/gofpdf"
)

const keyPrefix = "reports/sold-count/"

type Source interface {
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]model.Product, error)
	ActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error)
}

type Uploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, cacheControl string) (string, error)
}

type Row struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	SoldCount int64   `json:"soldCount"`
	UnitPrice float64 `json:"unitPrice"`
	Revenue   float64 `json:"revenue"`
}

type Report struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	Rows         []Row     `json:"rows"`
	TotalSold    int64     `json:"totalSold"`
	TotalRevenue float64   `json:"totalRevenue"`
}

// Build lists every product with its net sold count. Revenue is an estimate
// at today's price, deals included.
func Build(ctx context.Context, src Source, now time.Time) (Report, error) {
	products, err := src.ListProducts(ctx, store.ProductFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("list products: %w", err)
	}
	deals, err := src.ActiveDeals(ctx, now)
	if err != nil {
		return Report{}, fmt.Errorf("load deals: %w", err)
	}

	r := Report{GeneratedAt: now.UTC(), Rows: make([]Row, 0, len(products))}
	for _, p := range products {
		price := pricing.ForProduct(p, deals, now).Price
		row := Row{
			ProductID: p.ID,
			Title:     p.Title,
			Slug:      p.Slug,
			SoldCount: p.SoldCount,
			UnitPrice: price,
			Revenue:   utils.Round2(price * float64(p.SoldCount)),
		}
		r.Rows = append(r.Rows, row)
		r.TotalSold += row.SoldCount
		r.TotalRevenue += row.Revenue
	}
	r.TotalRevenue = utils.Round2(r.TotalRevenue)

	sort.SliceStable(r.Rows, func(i, j int) bool {
		if r.Rows[i].SoldCount != r.Rows[j].SoldCount {
			return r.Rows[i].SoldCount > r.Rows[j].SoldCount
		}
		return r.Rows[i].Title < r.Rows[j].Title
	})
	return r, nil
}

func RenderPDF(r Report, code currency.Code, rate float64) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Sold count report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Currency: %s", code), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(96, 6, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(24, 6, "Sold", "B", 0, "R", false, 0, "")
	pdf.CellFormat(32, 6, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Revenue", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, row := range r.Rows {
		pdf.CellFormat(96, 5, tr(truncate(row.Title, 60)), "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 5, utils.FormatCompact(float64(row.SoldCount)), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 5, tr(currency.Format(row.UnitPrice, code, rate)), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, tr(currency.Format(row.Revenue, code, rate)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Units sold: %d", r.TotalSold), "T", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Estimated revenue: %s", currency.Format(r.TotalRevenue, code, rate))), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload stores a rendered report and returns its public URL.
func Upload(ctx context.Context, up Uploader, runID string, pdf []byte) (string, error) {
	if up == nil {
		return "", fmt.Errorf("object store is not configured")
	}
	return up.PutObject(ctx, Key(runID), pdf, "application/pdf", "no-store")
}

func Key(runID string) string {
	return keyPrefix + runID + ".pdf"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
