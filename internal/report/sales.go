package report

import (
	"fmt"
	"strings"
	"time"
)

// 売上レポート1行＝支払済み注文1件。
type Row struct {
	OrderID       int64
	OrderCode     string
	CustomerName  string
	CustomerEmail string
	OrderedAt     time.Time
	PaidAt        *time.Time
	PaymentMethod string
	Status        string
	// 「商品名 (2x); ...」形式の明細サマリ
	ItemsSummary string
	// 明細数量の合計
	Units int64
	// Σ price × qty
	ItemsTotal int64
	OrderTotal int64
}

type Report struct {
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
	Rows        []Row
}

func (r *Report) GrandTotal() int64 {
	var total int64
	for _, row := range r.Rows {
		total += row.OrderTotal
	}
	return total
}

func (r *Report) TotalUnits() int64 {
	var units int64
	for _, row := range r.Rows {
		units += row.Units
	}
	return units
}

func (r *Report) Filename(ext string) string {
	return fmt.Sprintf("sales-report-%s-%s.%s",
		r.From.Format("20060102"), r.To.Format("20060102"), ext)
}

func (r *Report) Subtitle() string {
	return fmt.Sprintf("Period: %s - %s",
		r.From.Format("02 Jan 2006"), r.To.Format("02 Jan 2006"))
}

// 明細サマリの組み立て
type ItemLine struct {
	Name     string
	Quantity int64
	Price    int64
}

func SummarizeItems(items []ItemLine) (summary string, units int64, total int64) {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (%dx)", it.Name, it.Quantity))
		units += it.Quantity
		total += it.Price * it.Quantity
	}
	return strings.Join(parts, "; "), units, total
}

// タイトルケース（bank_transfer → Bank Transfer）
func TitleizeStatus(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("02 Jan 2006 15:04")
}
