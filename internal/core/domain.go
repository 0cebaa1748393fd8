package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the persisted calendar date format.
const DateLayout = "2006-01-02"

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// RecurringSuffix is appended to the description of generated transactions.
const RecurringSuffix = " (Recurring)"

// MaxDescription is the longest description, in characters, accepted on a
// new or edited transaction.
const MaxDescription = 200

// MaxTemplateDescription leaves room for RecurringSuffix so generated
// transactions stay within MaxDescription.
var MaxTemplateDescription = MaxDescription - utf8.RuneCountInString(RecurringSuffix)

type (
	TxType string

	// Date is a calendar date at UTC midnight.
	Date struct {
		time.Time
	}

	Category struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Type   TxType `json:"type"`
		System bool   `json:"system"`
	}

	Transaction struct {
		ID          string    `json:"id"`
		Type        TxType    `json:"type"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"` // category name, not id
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	RecurringTemplate struct {
		ID            string    `json:"id"`
		Type          TxType    `json:"type"`
		Amount        float64   `json:"amount"`
		Category      string    `json:"category"`
		Description   string    `json:"description"`
		LastGenerated time.Time `json:"lastGenerated"`
		DayOfMonth    int       `json:"dayOfMonth,omitempty"` // 0 means the day of LastGenerated
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyName       = errors.New("empty category name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrCrossTypeMove   = errors.New("category cannot change type")
	ErrReorderMismatch = errors.New("reordered categories do not match stored categories")
	ErrInvalidBackup   = errors.New("invalid backup document")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the UTC calendar date of an instant.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD and, for older records, full RFC 3339 instants.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is an earlier calendar date than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func validateAmount(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescription {
		return ErrDescriptionLong
	}
	return nil
}

func (r RecurringTemplate) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if utf8.RuneCountInString(r.Description) > MaxTemplateDescription {
		return ErrDescriptionLong
	}
	return nil
}

// Anchor returns the day of month the template recurs on.
func (r RecurringTemplate) Anchor() int {
	if r.DayOfMonth > 0 {
		return r.DayOfMonth
	}
	return r.LastGenerated.UTC().Day()
}

// FromTransaction builds a monthly template that last fired at lastGenerated.
func FromTransaction(t Transaction, lastGenerated time.Time) RecurringTemplate {
	return RecurringTemplate{
		Type:          t.Type,
		Amount:        t.Amount,
		Category:      t.Category,
		Description:   t.Description,
		LastGenerated: lastGenerated,
		DayOfMonth:    lastGenerated.UTC().Day(),
	}
}
