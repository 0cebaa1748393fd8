package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// trailingChartMonths is the chart window when no year is requested.
const trailingChartMonths = 6

// handleSummary totals income, expense and balance over the whole ledger,
// or over ?year= / ?month= when given.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), false)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		params, err := ParseMonthParams(q, s.now())
		if err != nil {
			badRequest(w, err)
			return
		}
		txs = params.Filter(txs)
	}
	NewJSONResponse().Payload(core.Summarize(txs)).Write(w)
}

// handleMonths returns twelve month cards for ?year= (default this year).
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		badRequest(w, err)
		return
	}

	key := cacheKey("months", params.Year)
	if ov, ok := s.overviewCache.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Overview cache hit", log.FieldYear, params.Year)
		NewJSONResponse().Payload(ov).Write(w)
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), false)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}

	ov := core.YearOverview(txs, params.Year, cats)
	s.overviewCache.Set(key, ov)
	NewJSONResponse().Payload(ov).Write(w)
}

// handleChart returns monthly income and expense points: the twelve months
// of ?year= when given, otherwise the trailing six months.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := 0
	if q.Has("year") {
		params, err := ParseMonthParams(q, s.now())
		if err != nil {
			badRequest(w, err)
			return
		}
		year = params.Year
	}

	key := cacheKey("chart", year)
	if points, ok := s.chartCache.Get(key); ok {
		NewJSONResponse().Payload(points).Write(w)
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), false)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}

	var buckets []core.MonthBucket
	if year > 0 {
		months := core.BucketByMonth(txs, year)
		buckets = months[:]
	} else {
		buckets = core.TrailingMonths(txs, s.now(), trailingChartMonths)
	}
	points := core.Series(buckets)
	// Trailing windows move with the clock; only cache fixed years.
	if year > 0 {
		s.chartCache.Set(key, points)
	}
	NewJSONResponse().Payload(points).Write(w)
}

// handleYears lists the years that have transactions, newest first.
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), false)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	years := core.Years(txs)
	if years == nil {
		years = []int{}
	}
	NewJSONResponse().Payload(years).Write(w)
}
