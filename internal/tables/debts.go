package tables

import (
	"strings"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	"kakebo/internal/table"
)

type debtDef = Definition[core.DebtEntry, core.DebtDraft, core.DebtPatch]

// Debts is the "debtsTable" definition. The table amount of a debt is its
// current balance.
func Debts() debtDef {
	return debtDef{
		ID:     "debtsTable",
		Name:   "debts",
		Labels: table.Labels{Singular: "debt", Plural: "debts"},
		Columns: []Column[core.DebtEntry]{
			{Key: "name", Label: "Name", Value: func(e core.DebtEntry) any { return e.Name }},
			{
				Key: "initial_amount", Label: "Initial",
				Value: func(e core.DebtEntry) any { return e.InitialAmount },
				Text:  func(e core.DebtEntry) string { return core.FormatAmount(e.InitialAmount, e.Currency) },
			},
			{
				Key: "current_balance", Label: "Balance",
				Value: func(e core.DebtEntry) any { return e.CurrentBalance },
				Text:  func(e core.DebtEntry) string { return core.FormatAmount(e.CurrentBalance, e.Currency) },
			},
			{Key: "notes", Label: "Notes", Value: func(e core.DebtEntry) any { return e.Notes }},
			{Key: "created_at", Label: "Created", Value: func(e core.DebtEntry) any { return e.CreatedAt }},
		},
		CreateRules: table.Rules[core.DebtDraft]{
			{Key: "name", Label: "Name", Kind: table.KindText, Required: true,
				Validate: func(d core.DebtDraft) string { return required("Name", d.Name) }},
			{Key: "initial_amount", Label: "Initial amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.DebtDraft) string { return nonNegative("Initial amount", d.InitialAmount) }},
			{Key: "current_balance", Label: "Current balance", Kind: table.KindAmount, Required: true,
				Validate: func(d core.DebtDraft) string { return nonNegative("Current balance", d.CurrentBalance) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.DebtDraft) string { return currency(d.Currency) }},
			{Key: "linked_fixed_expense_id", Label: "Linked fixed expense", Kind: table.KindNumber},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea},
		},
		UpdateRules: table.Rules[core.DebtPatch]{
			{Key: "name", Label: "Name", Kind: table.KindText,
				Validate: func(p core.DebtPatch) string { return requiredPtr("Name", p.Name) }},
			{Key: "initial_amount", Label: "Initial amount", Kind: table.KindAmount,
				Validate: func(p core.DebtPatch) string { return nonNegativePtr("Initial amount", p.InitialAmount) }},
			{Key: "current_balance", Label: "Current balance", Kind: table.KindAmount,
				Validate: func(p core.DebtPatch) string { return nonNegativePtr("Current balance", p.CurrentBalance) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.DebtPatch) string { return currencyPtr(p.Currency) }},
			{Key: "linked_fixed_expense_id", Label: "Linked fixed expense", Kind: table.KindNumber},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea},
		},
		NewDraft: func() core.DebtDraft { return core.DebtDraft{} },
		EditValues: func(e core.DebtEntry) core.DebtPatch {
			return core.DebtPatch{
				Name:                 &e.Name,
				InitialAmount:        &e.InitialAmount,
				CurrentBalance:       &e.CurrentBalance,
				Currency:             &e.Currency,
				LinkedFixedExpenseID: e.LinkedFixedExpenseID,
				Notes:                e.Notes,
			}
		},
		PrepareCreate: func(d core.DebtDraft, cur string) core.DebtDraft {
			d.Name = strings.TrimSpace(d.Name)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(e core.DebtEntry, p core.DebtPatch) core.DebtPatch {
			out := core.DebtPatch{
				Name:                 pick(p.Name, e.Name),
				InitialAmount:        pick(p.InitialAmount, e.InitialAmount),
				CurrentBalance:       pick(p.CurrentBalance, e.CurrentBalance),
				Currency:             pick(p.Currency, e.Currency),
				LinkedFixedExpenseID: p.LinkedFixedExpenseID,
				Notes:                p.Notes,
			}
			return out
		},
		Draft: func(d core.DebtDraft, v Values) (core.DebtDraft, error) {
			return d, firstErr(
				set(v, "name", parseText, &d.Name),
				set(v, "initial_amount", core.ParseAmount, &d.InitialAmount),
				set(v, "current_balance", core.ParseAmount, &d.CurrentBalance),
				set(v, "currency", parseCurrency, &d.Currency),
				setPtr(v, "linked_fixed_expense_id", parseInt64, &d.LinkedFixedExpenseID),
				setPtr(v, "notes", parseText, &d.Notes),
			)
		},
		Patch: func(p core.DebtPatch, v Values) (core.DebtPatch, error) {
			return p, firstErr(
				setPtr(v, "name", parseText, &p.Name),
				setPtr(v, "initial_amount", core.ParseAmount, &p.InitialAmount),
				setPtr(v, "current_balance", core.ParseAmount, &p.CurrentBalance),
				setPtr(v, "currency", parseCurrency, &p.Currency),
				setPtr(v, "linked_fixed_expense_id", parseInt64, &p.LinkedFixedExpenseID),
				setPtr(v, "notes", parseText, &p.Notes),
			)
		},
		Currency: func(e core.DebtEntry) string { return e.Currency },
		Memory: memory.Funcs[core.DebtEntry, core.DebtDraft, core.DebtPatch]{
			Resource: "debt",
			Build: func(id int64, d core.DebtDraft) core.DebtEntry {
				return core.DebtEntry{
					ID:                   id,
					Name:                 d.Name,
					InitialAmount:        d.InitialAmount,
					CurrentBalance:       d.CurrentBalance,
					Currency:             d.Currency,
					LinkedFixedExpenseID: d.LinkedFixedExpenseID,
					Notes:                d.Notes,
					CreatedAt:            timestamp(),
				}
			},
			Apply: func(e core.DebtEntry, p core.DebtPatch) core.DebtEntry {
				apply(&e.Name, p.Name)
				apply(&e.InitialAmount, p.InitialAmount)
				apply(&e.CurrentBalance, p.CurrentBalance)
				apply(&e.Currency, p.Currency)
				if p.LinkedFixedExpenseID != nil {
					e.LinkedFixedExpenseID = p.LinkedFixedExpenseID
				}
				if p.Notes != nil {
					e.Notes = p.Notes
				}
				return e
			},
		},
		MemoryAPI: memory.Basic[core.DebtEntry, core.DebtDraft, core.DebtPatch],
		REST: func(c *rest.Client) table.EntryAPI[core.DebtEntry, core.DebtDraft, core.DebtPatch] {
			return rest.NewResource[core.DebtEntry, core.DebtDraft, core.DebtPatch](c, "/debt-entries", rest.Named("debt"))
		},
	}
}
