package tables

import (
	"strings"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	"kakebo/internal/table"
)

// Income is the "incomeTable" definition.
func Income() Definition[core.IncomeEntry, core.IncomeDraft, core.IncomePatch] {
	return Definition[core.IncomeEntry, core.IncomeDraft, core.IncomePatch]{
		ID:     "incomeTable",
		Name:   "income",
		Labels: table.Labels{Singular: "income entry", Plural: "income entries"},
		Scope:  ScopeMonth,
		Columns: []Column[core.IncomeEntry]{
			{Key: "date", Label: "Date", Value: func(e core.IncomeEntry) any { return e.Date }},
			{Key: "item", Label: "Item", Value: func(e core.IncomeEntry) any { return e.Item }},
			{
				Key: "amount", Label: "Amount",
				Value: func(e core.IncomeEntry) any { return e.Amount },
				Text:  func(e core.IncomeEntry) string { return core.FormatAmount(e.Amount, e.Currency) },
			},
			{Key: "currency", Label: "Currency", Value: func(e core.IncomeEntry) any { return e.Currency }},
		},
		CreateRules: table.Rules[core.IncomeDraft]{
			{Key: "date", Label: "Date", Kind: table.KindDate, Required: true,
				Validate: func(d core.IncomeDraft) string { return requiredDate(d.Date) }},
			{Key: "item", Label: "Item", Kind: table.KindText, Required: true,
				Validate: func(d core.IncomeDraft) string { return required("Item", d.Item) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.IncomeDraft) string { return positive("Amount", d.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.IncomeDraft) string { return currency(d.Currency) }},
		},
		UpdateRules: table.Rules[core.IncomePatch]{
			{Key: "date", Label: "Date", Kind: table.KindDate},
			{Key: "item", Label: "Item", Kind: table.KindText,
				Validate: func(p core.IncomePatch) string { return requiredPtr("Item", p.Item) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount,
				Validate: func(p core.IncomePatch) string { return positivePtr("Amount", p.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.IncomePatch) string { return currencyPtr(p.Currency) }},
		},
		NewDraft: func() core.IncomeDraft {
			return core.IncomeDraft{Date: today()}
		},
		EditValues: func(e core.IncomeEntry) core.IncomePatch {
			return core.IncomePatch{Amount: &e.Amount, Date: &e.Date, Item: &e.Item, Currency: &e.Currency}
		},
		PrepareCreate: func(d core.IncomeDraft, cur string) core.IncomeDraft {
			d.Item = strings.TrimSpace(d.Item)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(e core.IncomeEntry, p core.IncomePatch) core.IncomePatch {
			return core.IncomePatch{
				Amount:   pick(p.Amount, e.Amount),
				Date:     pick(p.Date, e.Date),
				Item:     pick(p.Item, e.Item),
				Currency: pick(p.Currency, e.Currency),
			}
		},
		Draft: func(d core.IncomeDraft, v Values) (core.IncomeDraft, error) {
			return d, firstErr(
				set(v, "date", core.ParseDate, &d.Date),
				set(v, "item", parseText, &d.Item),
				set(v, "amount", core.ParseAmount, &d.Amount),
				set(v, "currency", parseCurrency, &d.Currency),
			)
		},
		Patch: func(p core.IncomePatch, v Values) (core.IncomePatch, error) {
			return p, firstErr(
				setPtr(v, "date", core.ParseDate, &p.Date),
				setPtr(v, "item", parseText, &p.Item),
				setPtr(v, "amount", core.ParseAmount, &p.Amount),
				setPtr(v, "currency", parseCurrency, &p.Currency),
			)
		},
		Currency: func(e core.IncomeEntry) string { return e.Currency },
		Memory: memory.Funcs[core.IncomeEntry, core.IncomeDraft, core.IncomePatch]{
			Resource: "income entry",
			Build: func(id int64, d core.IncomeDraft) core.IncomeEntry {
				return core.IncomeEntry{ID: id, Amount: d.Amount, Date: d.Date, Item: d.Item, Currency: d.Currency}
			},
			Apply: func(e core.IncomeEntry, p core.IncomePatch) core.IncomeEntry {
				apply(&e.Amount, p.Amount)
				apply(&e.Date, p.Date)
				apply(&e.Item, p.Item)
				apply(&e.Currency, p.Currency)
				return e
			},
			Scope: func(e core.IncomeEntry) string { return e.Date.MonthKey() },
			Merge: func(id int64, rows []core.IncomeEntry) (core.IncomeEntry, error) {
				m := mergeOf(rows,
					func(e core.IncomeEntry) float64 { return e.Amount },
					func(e core.IncomeEntry) string { return e.Item },
					func(e core.IncomeEntry) core.Date { return e.Date },
					func(e core.IncomeEntry) string { return e.Currency })
				return core.IncomeEntry{ID: id, Amount: m.amount, Date: m.date, Item: m.item, Currency: m.currency}, nil
			},
		},
		MemoryAPI: func(s *memory.Store[core.IncomeEntry, core.IncomeDraft, core.IncomePatch]) table.EntryAPI[core.IncomeEntry, core.IncomeDraft, core.IncomePatch] {
			return s
		},
		REST: func(c *rest.Client) table.EntryAPI[core.IncomeEntry, core.IncomeDraft, core.IncomePatch] {
			return rest.NewBulkResource[core.IncomeEntry, core.IncomeDraft, core.IncomePatch](c, "/income-entries",
				rest.Scoped(ScopeMonth), rest.Named("income entry"))
		},
	}
}
