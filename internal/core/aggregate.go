package core

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthBucket holds the transactions dated within one calendar month.
type MonthBucket struct {
	Year         int           `json:"year"`
	Month        int           `json:"month"` // 1-12
	Transactions []Transaction `json:"transactions"`
}

// Summary is the income, expense and balance of a set of transactions.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}{s.Income.InexactFloat64(), s.Expense.InexactFloat64(), s.Balance.InexactFloat64()})
}

// BucketByMonth partitions txs into the twelve months of year by calendar
// date. Bucket i holds month i+1, keeping the input order.
func BucketByMonth(txs []Transaction, year int) [12]MonthBucket {
	var buckets [12]MonthBucket
	for i := range buckets {
		buckets[i] = MonthBucket{Year: year, Month: i + 1, Transactions: []Transaction{}}
	}
	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		m := t.Date.Month() - 1
		buckets[m].Transactions = append(buckets[m].Transactions, t)
	}
	return buckets
}

// Summarize totals txs by type. Balance is Income minus Expense.
func Summarize(txs []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(Amount(t.Amount))
		case Expense:
			expense = expense.Add(Amount(t.Amount))
		}
	}
	return Summary{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// PerCategoryTotal sums the amounts of txs whose category label equals
// name exactly. Type is ignored.
func PerCategoryTotal(txs []Transaction, name string) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Category == name {
			total = total.Add(Amount(t.Amount))
		}
	}
	return total
}

// TrailingMonths returns n month buckets ending with the month of now,
// oldest first.
func TrailingMonths(txs []Transaction, now time.Time, n int) []MonthBucket {
	if n <= 0 {
		return nil
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month()-time.Month(n-1), 1, 0, 0, 0, 0, time.UTC)

	out := make([]MonthBucket, n)
	index := make(map[[2]int]int, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		out[i] = MonthBucket{Year: m.Year(), Month: int(m.Month()), Transactions: []Transaction{}}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}
	for _, t := range txs {
		if i, ok := index[[2]int{t.Date.Year(), t.Date.Month()}]; ok {
			out[i].Transactions = append(out[i].Transactions, t)
		}
	}
	return out
}

// Years returns the distinct years present in txs, newest first.
func Years(txs []Transaction) []int {
	seen := make(map[int]struct{})
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		seen[t.Date.Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
