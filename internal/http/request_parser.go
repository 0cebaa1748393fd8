// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, amounts given as numbers or strings, and the
// year/month filters shared by the listing and dashboard endpoints.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds JSON request bodies. Imports get maxImportBytes.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 16 << 20
)

// MonthParams holds parsed year/month values from request parameters.
// Month is 0 when the whole year is requested.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters. Year
// defaults to now's year; month defaults to 0.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
		}
		params.Month = m
	}
	return params, nil
}

// Filter keeps the transactions dated within the selected year or month.
func (p MonthParams) Filter(txs []core.Transaction) []core.Transaction {
	buckets := core.BucketByMonth(txs, p.Year)
	if p.Month > 0 {
		return buckets[p.Month-1].Transactions
	}
	out := []core.Transaction{}
	for _, b := range buckets {
		out = append(out, b.Transactions...)
	}
	return out
}

// parseBool reads an optional boolean query flag.
func parseBool(query url.Values, key string, def bool) bool {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// decodeJSON decodes a bounded JSON body into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON value")
	}
	return nil
}

// AmountInput accepts an amount as a JSON number or a string using either
// a dot or a comma as decimal separator.
type AmountInput float64

func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	f, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = AmountInput(f)
	return nil
}

type transactionRequest struct {
	Type        string      `json:"type"`
	Amount      AmountInput `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Repeat      bool        `json:"repeat"`
}

func (req transactionRequest) toTransaction(id string) (core.Transaction, error) {
	t, err := core.ParseTxType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		Type:        t,
		Amount:      float64(req.Amount),
		Category:    sanitizeInput(req.Category),
		Date:        d,
		Description: sanitizeInput(req.Description),
	}, nil
}

type recurringRequest struct {
	Type        string      `json:"type"`
	Amount      AmountInput `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	DayOfMonth  int         `json:"dayOfMonth"`
}

func (req recurringRequest) toTemplate() (core.RecurringTemplate, error) {
	t, err := core.ParseTxType(req.Type)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	return core.RecurringTemplate{
		Type:        t,
		Amount:      float64(req.Amount),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		DayOfMonth:  req.DayOfMonth,
	}, nil
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type moveRequest struct {
	OverID string `json:"overId"`
}
