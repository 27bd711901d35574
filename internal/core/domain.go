package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCurrency is applied to drafts that do not name a currency.
const DefaultCurrency = "EUR"

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// Entry is the capability every record managed by a table must expose.
// Everything else about the record is opaque to the table core.
type Entry interface {
	EntryID() int64
	EntryAmount() float64
}

// ExpenseCategory classifies actual expenses.
type ExpenseCategory string

const (
	CategoryEssential     ExpenseCategory = "essential"
	CategoryComfort       ExpenseCategory = "comfort"
	CategoryEntertainment ExpenseCategory = "entertainment and leisure"
	CategoryExtras        ExpenseCategory = "extras"
	CategoryUnforeseen    ExpenseCategory = "unforeseen"
)

// ExpenseCategories lists the accepted expense categories in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryEssential, CategoryComfort, CategoryEntertainment, CategoryExtras, CategoryUnforeseen,
}

// Valid reports whether c is one of the known categories.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ProjectStatuses lists the accepted project statuses.
var ProjectStatuses = []string{"Active", "Paused", "Completed", "Cancelled"}

type (
	Date struct {
		time.Time
	}

	IncomeEntry struct {
		ID       int64   `json:"id"`
		Amount   float64 `json:"amount"`
		Date     Date    `json:"date"`
		Item     string  `json:"item"`
		Currency string  `json:"currency"`
	}

	IncomeDraft struct {
		Amount   float64 `json:"amount"`
		Date     Date    `json:"date"`
		Item     string  `json:"item"`
		Currency string  `json:"currency,omitempty"`
	}

	IncomePatch struct {
		Amount   *float64 `json:"amount,omitempty"`
		Date     *Date    `json:"date,omitempty"`
		Item     *string  `json:"item,omitempty"`
		Currency *string  `json:"currency,omitempty"`
	}

	ExpenseEntry struct {
		ID       int64           `json:"id"`
		Amount   float64         `json:"amount"`
		Date     Date            `json:"date"`
		Item     string          `json:"item"`
		Category ExpenseCategory `json:"category"`
		Currency string          `json:"currency"`
	}

	ExpenseDraft struct {
		Amount   float64         `json:"amount"`
		Date     Date            `json:"date"`
		Item     string          `json:"item"`
		Category ExpenseCategory `json:"category"`
		Currency string          `json:"currency,omitempty"`
	}

	ExpensePatch struct {
		Amount   *float64         `json:"amount,omitempty"`
		Date     *Date            `json:"date,omitempty"`
		Item     *string          `json:"item,omitempty"`
		Category *ExpenseCategory `json:"category,omitempty"`
		Currency *string          `json:"currency,omitempty"`
	}

	FixedExpenseEntry struct {
		ID       int64   `json:"id"`
		Amount   float64 `json:"amount"`
		Item     string  `json:"item"`
		Currency string  `json:"currency"`
	}

	FixedExpenseDraft struct {
		Amount   float64 `json:"amount"`
		Item     string  `json:"item"`
		Currency string  `json:"currency,omitempty"`
	}

	FixedExpensePatch struct {
		Amount   *float64 `json:"amount,omitempty"`
		Item     *string  `json:"item,omitempty"`
		Currency *string  `json:"currency,omitempty"`
	}

	DebtEntry struct {
		ID                   int64   `json:"id"`
		Name                 string  `json:"name"`
		InitialAmount        float64 `json:"initial_amount"`
		CurrentBalance       float64 `json:"current_balance"`
		Currency             string  `json:"currency"`
		LinkedFixedExpenseID *int64  `json:"linked_fixed_expense_id"`
		Notes                *string `json:"notes"`
		CreatedAt            string  `json:"created_at"`
	}

	DebtDraft struct {
		Name                 string  `json:"name"`
		InitialAmount        float64 `json:"initial_amount"`
		CurrentBalance       float64 `json:"current_balance"`
		Currency             string  `json:"currency,omitempty"`
		LinkedFixedExpenseID *int64  `json:"linked_fixed_expense_id,omitempty"`
		Notes                *string `json:"notes,omitempty"`
	}

	DebtPatch struct {
		Name                 *string  `json:"name,omitempty"`
		InitialAmount        *float64 `json:"initial_amount,omitempty"`
		CurrentBalance       *float64 `json:"current_balance,omitempty"`
		Currency             *string  `json:"currency,omitempty"`
		LinkedFixedExpenseID *int64   `json:"linked_fixed_expense_id,omitempty"`
		Notes                *string  `json:"notes,omitempty"`
	}

	SavingsAccount struct {
		ID              int64   `json:"id"`
		Name            string  `json:"name"`
		BaseBalance     float64 `json:"base_balance"`
		Currency        string  `json:"currency"`
		BankInstitution *string `json:"bank_institution"`
		CreatedAt       string  `json:"created_at"`
		UpdatedAt       *string `json:"updated_at"`
	}

	SavingsAccountDraft struct {
		Name            string  `json:"name"`
		BaseBalance     float64 `json:"base_balance"`
		Currency        string  `json:"currency,omitempty"`
		BankInstitution *string `json:"bank_institution,omitempty"`
	}

	SavingsAccountPatch struct {
		Name            *string  `json:"name,omitempty"`
		BaseBalance     *float64 `json:"base_balance,omitempty"`
		Currency        *string  `json:"currency,omitempty"`
		BankInstitution *string  `json:"bank_institution,omitempty"`
	}

	Contribution struct {
		ID               int64   `json:"id"`
		SavingsAccountID int64   `json:"savings_account_id"`
		Amount           float64 `json:"amount"`
		Date             Date    `json:"date"`
		Notes            *string `json:"notes"`
		CreatedAt        string  `json:"created_at"`
		UpdatedAt        *string `json:"updated_at"`
	}

	ContributionDraft struct {
		SavingsAccountID int64   `json:"savings_account_id"`
		Amount           float64 `json:"amount"`
		Date             Date    `json:"date"`
		Notes            *string `json:"notes,omitempty"`
	}

	ContributionPatch struct {
		SavingsAccountID *int64   `json:"savings_account_id,omitempty"`
		Amount           *float64 `json:"amount,omitempty"`
		Date             *Date    `json:"date,omitempty"`
		Notes            *string  `json:"notes,omitempty"`
	}

	Project struct {
		ID               int64   `json:"id"`
		Name             string  `json:"name"`
		Description      *string `json:"description"`
		TargetAmount     float64 `json:"target_amount"`
		Status           string  `json:"status"`
		SavingsAccountID *int64  `json:"savings_account_id"`
		Currency         string  `json:"currency"`
		CreatedAt        string  `json:"created_at"`
		UpdatedAt        *string `json:"updated_at"`
	}

	ProjectDraft struct {
		Name             string  `json:"name"`
		Description      *string `json:"description,omitempty"`
		TargetAmount     float64 `json:"target_amount"`
		Status           string  `json:"status,omitempty"`
		SavingsAccountID *int64  `json:"savings_account_id,omitempty"`
		Currency         string  `json:"currency,omitempty"`
	}

	ProjectPatch struct {
		Name             *string  `json:"name,omitempty"`
		Description      *string  `json:"description,omitempty"`
		TargetAmount     *float64 `json:"target_amount,omitempty"`
		Status           *string  `json:"status,omitempty"`
		SavingsAccountID *int64   `json:"savings_account_id,omitempty"`
		Currency         *string  `json:"currency,omitempty"`
	}

	WishlistItem struct {
		ID          int64    `json:"id"`
		WishlistID  int64    `json:"wishlist_id"`
		Name        string   `json:"name"`
		Description *string  `json:"description"`
		Amount      *float64 `json:"amount"`
		Currency    string   `json:"currency"`
		Priority    int      `json:"priority"`
		Notes       *string  `json:"notes"`
		URL         *string  `json:"url"`
	}

	WishlistItemDraft struct {
		WishlistID  int64    `json:"wishlist_id"`
		Name        string   `json:"name"`
		Description *string  `json:"description,omitempty"`
		Amount      *float64 `json:"amount,omitempty"`
		Currency    string   `json:"currency,omitempty"`
		Priority    int      `json:"priority"`
		Notes       *string  `json:"notes,omitempty"`
		URL         *string  `json:"url,omitempty"`
	}

	WishlistItemPatch struct {
		Name        *string  `json:"name,omitempty"`
		Description *string  `json:"description,omitempty"`
		Amount      *float64 `json:"amount,omitempty"`
		Currency    *string  `json:"currency,omitempty"`
		Priority    *int     `json:"priority,omitempty"`
		Notes       *string  `json:"notes,omitempty"`
		URL         *string  `json:"url,omitempty"`
	}
)

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(DateLayout) {
		// tolerate timestamps such as "2026-01-02 10:11:12"
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM period the date falls into
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when zero
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", a timestamp prefixed by it, "" or null
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (e IncomeEntry) EntryID() int64             { return e.ID }
func (e IncomeEntry) EntryAmount() float64       { return e.Amount }
func (e ExpenseEntry) EntryID() int64            { return e.ID }
func (e ExpenseEntry) EntryAmount() float64      { return e.Amount }
func (e FixedExpenseEntry) EntryID() int64       { return e.ID }
func (e FixedExpenseEntry) EntryAmount() float64 { return e.Amount }
func (e DebtEntry) EntryID() int64               { return e.ID }

// EntryAmount of a debt is what is still owed.
func (e DebtEntry) EntryAmount() float64 { return e.CurrentBalance }

func (a SavingsAccount) EntryID() int64 { return a.ID }

// EntryAmount of a savings account is its base balance; contributions are
// tracked in their own table.
func (a SavingsAccount) EntryAmount() float64 { return a.BaseBalance }

func (c Contribution) EntryID() int64       { return c.ID }
func (c Contribution) EntryAmount() float64 { return c.Amount }
func (p Project) EntryID() int64            { return p.ID }
func (p Project) EntryAmount() float64      { return p.TargetAmount }
func (w WishlistItem) EntryID() int64       { return w.ID }

// EntryAmount is zero for wishlist items without a price.
func (w WishlistItem) EntryAmount() float64 {
	if w.Amount == nil {
		return 0
	}
	return *w.Amount
}
