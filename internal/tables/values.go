package tables

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"

	"kakebo/internal/core"
)

// Values are raw form inputs keyed by field key, as typed on the command
// line ("amount=12,50", "date=2026-03-01").
type Values map[string]string

// ParseValues splits "key=value" pairs.
func ParseValues(pairs []string) (Values, error) {
	v := make(Values, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		v[key] = value
	}
	return v, nil
}

// Only rejects keys outside allowed.
func (v Values) Only(allowed []string) error {
	var unknown []string
	for key := range v {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown field(s) %s; expected one of %s",
		strings.Join(unknown, ", "), strings.Join(allowed, ", "))
}

func (v Values) lookup(key string) (string, bool) {
	raw, ok := v[key]
	return strings.TrimSpace(raw), ok
}

// set parses key into dst when present.
func set[V any](v Values, key string, parse func(string) (V, error), dst *V) error {
	raw, ok := v.lookup(key)
	if !ok {
		return nil
	}
	parsed, err := parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

// setPtr is set for optional fields. An empty value leaves dst nil.
func setPtr[V any](v Values, key string, parse func(string) (V, error), dst **V) error {
	raw, ok := v.lookup(key)
	if !ok {
		return nil
	}
	if raw == "" {
		*dst = nil
		return nil
	}
	parsed, err := parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &parsed
	return nil
}

func parseText(s string) (string, error) { return s, nil }

func parseCurrency(s string) (string, error) { return strings.ToUpper(s), nil }

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func parseCategory(s string) (core.ExpenseCategory, error) {
	return core.ExpenseCategory(strings.ToLower(s)), nil
}

// validators shared by the entity rules

func positive(label string, amount float64) string {
	if amount <= 0 {
		return label + " must be greater than 0"
	}
	return ""
}

func positivePtr(label string, amount *float64) string {
	if amount == nil {
		return ""
	}
	return positive(label, *amount)
}

func nonNegative(label string, amount float64) string {
	if amount < 0 {
		return label + " cannot be negative"
	}
	return ""
}

func nonNegativePtr(label string, amount *float64) string {
	if amount == nil {
		return ""
	}
	return nonNegative(label, *amount)
}

func required(label, s string) string {
	if strings.TrimSpace(s) == "" {
		return label + " is required"
	}
	return ""
}

// requiredPtr accepts an absent value but rejects a blank one.
func requiredPtr(label string, s *string) string {
	if s == nil {
		return ""
	}
	return required(label, *s)
}

func maxLen(label string, s *string, n int) string {
	if s != nil && len(strings.TrimSpace(*s)) > n {
		return fmt.Sprintf("%s must be less than %d characters", label, n)
	}
	return ""
}

func requiredDate(d core.Date) string {
	if d.IsZero() {
		return "Date is required"
	}
	return ""
}

// currency accepts "" (filled with the default later) or an ISO 4217 code
// known to go-money.
func currency(code string) string {
	if code == "" {
		return ""
	}
	if money.GetCurrency(strings.ToUpper(code)) == nil {
		return fmt.Sprintf("Unknown currency %q", code)
	}
	return ""
}

func currencyPtr(code *string) string {
	if code == nil {
		return ""
	}
	if *code == "" {
		return "Currency is required"
	}
	return currency(*code)
}

func category(c core.ExpenseCategory) string {
	if !c.Valid() {
		return "Category must be one of: " + categoryList()
	}
	return ""
}

func categoryPtr(c *core.ExpenseCategory) string {
	if c == nil {
		return ""
	}
	return category(*c)
}

func categoryList() string {
	names := make([]string, len(core.ExpenseCategories))
	for i, c := range core.ExpenseCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func categoryOptions() []string {
	names := make([]string, len(core.ExpenseCategories))
	for i, c := range core.ExpenseCategories {
		names[i] = string(c)
	}
	return names
}

func status(s *string) string {
	if s == nil || *s == "" || slices.Contains(core.ProjectStatuses, *s) {
		return ""
	}
	return fmt.Sprintf("Invalid status %q. Must be one of: %s", *s, strings.Join(core.ProjectStatuses, ", "))
}

func webURL(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return ""
	}
	raw := strings.TrimSpace(*s)
	if len(raw) > 2000 {
		return "URL must be less than 2000 characters"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("Invalid URL format: %s", raw)
	}
	return ""
}

func positiveID(label string, id int64) string {
	if id <= 0 {
		return label + " is required"
	}
	return ""
}

func orDefault(code, fallback string) string {
	if strings.TrimSpace(code) == "" {
		return fallback
	}
	return strings.ToUpper(code)
}

func pick[V any](patch *V, original V) *V {
	if patch != nil {
		return patch
	}
	return &original
}

func ptr[V any](v V) *V { return &v }
