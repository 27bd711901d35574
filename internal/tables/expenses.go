package tables

import (
	"strings"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	"kakebo/internal/table"
)

type (
	expenseDef = Definition[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch]
	fixedDef   = Definition[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch]
)

// Expenses is the "actualExpensesTable" definition.
func Expenses() expenseDef {
	return expenseDef{
		ID:     "actualExpensesTable",
		Name:   "expenses",
		Labels: table.Labels{Singular: "expense", Plural: "expenses"},
		Scope:  ScopeMonth,
		Columns: []Column[core.ExpenseEntry]{
			{Key: "date", Label: "Date", Value: func(e core.ExpenseEntry) any { return e.Date }},
			{Key: "item", Label: "Item", Value: func(e core.ExpenseEntry) any { return e.Item }},
			{Key: "category", Label: "Category", Value: func(e core.ExpenseEntry) any { return e.Category }},
			{
				Key: "amount", Label: "Amount",
				Value: func(e core.ExpenseEntry) any { return e.Amount },
				Text:  func(e core.ExpenseEntry) string { return core.FormatAmount(e.Amount, e.Currency) },
			},
			{Key: "currency", Label: "Currency", Value: func(e core.ExpenseEntry) any { return e.Currency }},
		},
		CreateRules: table.Rules[core.ExpenseDraft]{
			{Key: "date", Label: "Date", Kind: table.KindDate, Required: true,
				Validate: func(d core.ExpenseDraft) string { return requiredDate(d.Date) }},
			{Key: "item", Label: "Item", Kind: table.KindText, Required: true,
				Validate: func(d core.ExpenseDraft) string { return required("Item", d.Item) }},
			{Key: "category", Label: "Category", Kind: table.KindSelect, Options: categoryOptions(), Required: true,
				Validate: func(d core.ExpenseDraft) string { return category(d.Category) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.ExpenseDraft) string { return positive("Amount", d.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.ExpenseDraft) string { return currency(d.Currency) }},
		},
		UpdateRules: table.Rules[core.ExpensePatch]{
			{Key: "date", Label: "Date", Kind: table.KindDate},
			{Key: "item", Label: "Item", Kind: table.KindText,
				Validate: func(p core.ExpensePatch) string { return requiredPtr("Item", p.Item) }},
			{Key: "category", Label: "Category", Kind: table.KindSelect, Options: categoryOptions(),
				Validate: func(p core.ExpensePatch) string { return categoryPtr(p.Category) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount,
				Validate: func(p core.ExpensePatch) string { return positivePtr("Amount", p.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.ExpensePatch) string { return currencyPtr(p.Currency) }},
		},
		NewDraft: func() core.ExpenseDraft {
			return core.ExpenseDraft{Date: today(), Category: core.CategoryEssential}
		},
		EditValues: func(e core.ExpenseEntry) core.ExpensePatch {
			return core.ExpensePatch{Amount: &e.Amount, Date: &e.Date, Item: &e.Item, Category: &e.Category, Currency: &e.Currency}
		},
		PrepareCreate: func(d core.ExpenseDraft, cur string) core.ExpenseDraft {
			d.Item = strings.TrimSpace(d.Item)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(e core.ExpenseEntry, p core.ExpensePatch) core.ExpensePatch {
			return core.ExpensePatch{
				Amount:   pick(p.Amount, e.Amount),
				Date:     pick(p.Date, e.Date),
				Item:     pick(p.Item, e.Item),
				Category: pick(p.Category, e.Category),
				Currency: pick(p.Currency, e.Currency),
			}
		},
		Draft: func(d core.ExpenseDraft, v Values) (core.ExpenseDraft, error) {
			return d, firstErr(
				set(v, "date", core.ParseDate, &d.Date),
				set(v, "item", parseText, &d.Item),
				set(v, "category", parseCategory, &d.Category),
				set(v, "amount", core.ParseAmount, &d.Amount),
				set(v, "currency", parseCurrency, &d.Currency),
			)
		},
		Patch: func(p core.ExpensePatch, v Values) (core.ExpensePatch, error) {
			return p, firstErr(
				setPtr(v, "date", core.ParseDate, &p.Date),
				setPtr(v, "item", parseText, &p.Item),
				setPtr(v, "category", parseCategory, &p.Category),
				setPtr(v, "amount", core.ParseAmount, &p.Amount),
				setPtr(v, "currency", parseCurrency, &p.Currency),
			)
		},
		Currency: func(e core.ExpenseEntry) string { return e.Currency },
		Memory: memory.Funcs[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch]{
			Resource: "expense",
			Build: func(id int64, d core.ExpenseDraft) core.ExpenseEntry {
				return core.ExpenseEntry{ID: id, Amount: d.Amount, Date: d.Date, Item: d.Item, Category: d.Category, Currency: d.Currency}
			},
			Apply: func(e core.ExpenseEntry, p core.ExpensePatch) core.ExpenseEntry {
				apply(&e.Amount, p.Amount)
				apply(&e.Date, p.Date)
				apply(&e.Item, p.Item)
				apply(&e.Category, p.Category)
				apply(&e.Currency, p.Currency)
				return e
			},
			Scope: func(e core.ExpenseEntry) string { return e.Date.MonthKey() },
			Merge: func(id int64, rows []core.ExpenseEntry) (core.ExpenseEntry, error) {
				m := mergeOf(rows,
					func(e core.ExpenseEntry) float64 { return e.Amount },
					func(e core.ExpenseEntry) string { return e.Item },
					func(e core.ExpenseEntry) core.Date { return e.Date },
					func(e core.ExpenseEntry) string { return e.Currency })
				cat := rows[0].Category
				if cat == "" {
					cat = core.CategoryEssential
				}
				return core.ExpenseEntry{ID: id, Amount: m.amount, Date: m.date, Item: m.item, Category: cat, Currency: m.currency}, nil
			},
		},
		MemoryAPI: func(s *memory.Store[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch]) table.EntryAPI[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch] {
			return s
		},
		REST: func(c *rest.Client) table.EntryAPI[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch] {
			return rest.NewBulkResource[core.ExpenseEntry, core.ExpenseDraft, core.ExpensePatch](c, "/actual-expense-entries",
				rest.Scoped(ScopeMonth), rest.Named("expense"))
		},
	}
}

// FixedExpenses is the "fixedExpensesTable" definition. Fixed expenses
// carry no date; the backend files them under the month they were created.
func FixedExpenses() fixedDef {
	return fixedDef{
		ID:     "fixedExpensesTable",
		Name:   "fixed",
		Labels: table.Labels{Singular: "fixed expense", Plural: "fixed expenses"},
		Scope:  ScopeMonth,
		Columns: []Column[core.FixedExpenseEntry]{
			{Key: "item", Label: "Item", Value: func(e core.FixedExpenseEntry) any { return e.Item }},
			{
				Key: "amount", Label: "Amount",
				Value: func(e core.FixedExpenseEntry) any { return e.Amount },
				Text:  func(e core.FixedExpenseEntry) string { return core.FormatAmount(e.Amount, e.Currency) },
			},
			{Key: "currency", Label: "Currency", Value: func(e core.FixedExpenseEntry) any { return e.Currency }},
		},
		CreateRules: table.Rules[core.FixedExpenseDraft]{
			{Key: "item", Label: "Item", Kind: table.KindText, Required: true,
				Validate: func(d core.FixedExpenseDraft) string { return required("Item", d.Item) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.FixedExpenseDraft) string { return positive("Amount", d.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.FixedExpenseDraft) string { return currency(d.Currency) }},
		},
		UpdateRules: table.Rules[core.FixedExpensePatch]{
			{Key: "item", Label: "Item", Kind: table.KindText,
				Validate: func(p core.FixedExpensePatch) string { return requiredPtr("Item", p.Item) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount,
				Validate: func(p core.FixedExpensePatch) string { return positivePtr("Amount", p.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.FixedExpensePatch) string { return currencyPtr(p.Currency) }},
		},
		NewDraft: func() core.FixedExpenseDraft { return core.FixedExpenseDraft{} },
		EditValues: func(e core.FixedExpenseEntry) core.FixedExpensePatch {
			return core.FixedExpensePatch{Amount: &e.Amount, Item: &e.Item, Currency: &e.Currency}
		},
		PrepareCreate: func(d core.FixedExpenseDraft, cur string) core.FixedExpenseDraft {
			d.Item = strings.TrimSpace(d.Item)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(e core.FixedExpenseEntry, p core.FixedExpensePatch) core.FixedExpensePatch {
			return core.FixedExpensePatch{
				Amount:   pick(p.Amount, e.Amount),
				Item:     pick(p.Item, e.Item),
				Currency: pick(p.Currency, e.Currency),
			}
		},
		Draft: func(d core.FixedExpenseDraft, v Values) (core.FixedExpenseDraft, error) {
			return d, firstErr(
				set(v, "item", parseText, &d.Item),
				set(v, "amount", core.ParseAmount, &d.Amount),
				set(v, "currency", parseCurrency, &d.Currency),
			)
		},
		Patch: func(p core.FixedExpensePatch, v Values) (core.FixedExpensePatch, error) {
			return p, firstErr(
				setPtr(v, "item", parseText, &p.Item),
				setPtr(v, "amount", core.ParseAmount, &p.Amount),
				setPtr(v, "currency", parseCurrency, &p.Currency),
			)
		},
		Currency: func(e core.FixedExpenseEntry) string { return e.Currency },
		Memory: memory.Funcs[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch]{
			Resource: "fixed expense",
			Build: func(id int64, d core.FixedExpenseDraft) core.FixedExpenseEntry {
				return core.FixedExpenseEntry{ID: id, Amount: d.Amount, Item: d.Item, Currency: d.Currency}
			},
			Apply: func(e core.FixedExpenseEntry, p core.FixedExpensePatch) core.FixedExpenseEntry {
				apply(&e.Amount, p.Amount)
				apply(&e.Item, p.Item)
				apply(&e.Currency, p.Currency)
				return e
			},
			Merge: func(id int64, rows []core.FixedExpenseEntry) (core.FixedExpenseEntry, error) {
				m := mergeOf(rows,
					func(e core.FixedExpenseEntry) float64 { return e.Amount },
					func(e core.FixedExpenseEntry) string { return e.Item },
					nil,
					func(e core.FixedExpenseEntry) string { return e.Currency })
				return core.FixedExpenseEntry{ID: id, Amount: m.amount, Item: m.item, Currency: m.currency}, nil
			},
		},
		MemoryAPI: func(s *memory.Store[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch]) table.EntryAPI[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch] {
			return s
		},
		REST: func(c *rest.Client) table.EntryAPI[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch] {
			return rest.NewBulkResource[core.FixedExpenseEntry, core.FixedExpenseDraft, core.FixedExpensePatch](c, "/fixed-expense-entries",
				rest.Scoped(ScopeMonth), rest.Named("fixed expense"))
		},
	}
}
