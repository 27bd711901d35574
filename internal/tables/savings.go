package tables

import (
	"strconv"
	"strings"

	"kakebo/internal/core"
	"kakebo/internal/entries/memory"
	"kakebo/internal/entries/rest"
	"kakebo/internal/table"
)

type (
	savingsDef      = Definition[core.SavingsAccount, core.SavingsAccountDraft, core.SavingsAccountPatch]
	contributionDef = Definition[core.Contribution, core.ContributionDraft, core.ContributionPatch]
)

// SavingsAccounts is the "savingsAccountsTable" definition.
func SavingsAccounts() savingsDef {
	return savingsDef{
		ID:     "savingsAccountsTable",
		Name:   "savings",
		Labels: table.Labels{Singular: "savings account", Plural: "savings accounts"},
		Columns: []Column[core.SavingsAccount]{
			{Key: "name", Label: "Name", Value: func(a core.SavingsAccount) any { return a.Name }},
			{Key: "bank_institution", Label: "Bank", Value: func(a core.SavingsAccount) any { return a.BankInstitution }},
			{
				Key: "base_balance", Label: "Base balance",
				Value: func(a core.SavingsAccount) any { return a.BaseBalance },
				Text:  func(a core.SavingsAccount) string { return core.FormatAmount(a.BaseBalance, a.Currency) },
			},
			{Key: "created_at", Label: "Created", Value: func(a core.SavingsAccount) any { return a.CreatedAt }},
		},
		CreateRules: table.Rules[core.SavingsAccountDraft]{
			{Key: "name", Label: "Name", Kind: table.KindText, Required: true,
				Validate: func(d core.SavingsAccountDraft) string { return required("Name", d.Name) }},
			{Key: "base_balance", Label: "Base balance", Kind: table.KindAmount,
				Validate: func(d core.SavingsAccountDraft) string { return nonNegative("Base balance", d.BaseBalance) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.SavingsAccountDraft) string { return currency(d.Currency) }},
			{Key: "bank_institution", Label: "Bank", Kind: table.KindText,
				Validate: func(d core.SavingsAccountDraft) string { return maxLen("Bank", d.BankInstitution, 200) }},
		},
		UpdateRules: table.Rules[core.SavingsAccountPatch]{
			{Key: "name", Label: "Name", Kind: table.KindText,
				Validate: func(p core.SavingsAccountPatch) string { return requiredPtr("Name", p.Name) }},
			{Key: "base_balance", Label: "Base balance", Kind: table.KindAmount,
				Validate: func(p core.SavingsAccountPatch) string { return nonNegativePtr("Base balance", p.BaseBalance) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.SavingsAccountPatch) string { return currencyPtr(p.Currency) }},
			{Key: "bank_institution", Label: "Bank", Kind: table.KindText,
				Validate: func(p core.SavingsAccountPatch) string { return maxLen("Bank", p.BankInstitution, 200) }},
		},
		NewDraft: func() core.SavingsAccountDraft { return core.SavingsAccountDraft{} },
		EditValues: func(a core.SavingsAccount) core.SavingsAccountPatch {
			return core.SavingsAccountPatch{
				Name:            &a.Name,
				BaseBalance:     &a.BaseBalance,
				Currency:        &a.Currency,
				BankInstitution: a.BankInstitution,
			}
		},
		PrepareCreate: func(d core.SavingsAccountDraft, cur string) core.SavingsAccountDraft {
			d.Name = strings.TrimSpace(d.Name)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(a core.SavingsAccount, p core.SavingsAccountPatch) core.SavingsAccountPatch {
			return core.SavingsAccountPatch{
				Name:            pick(p.Name, a.Name),
				BaseBalance:     pick(p.BaseBalance, a.BaseBalance),
				Currency:        pick(p.Currency, a.Currency),
				BankInstitution: p.BankInstitution,
			}
		},
		Draft: func(d core.SavingsAccountDraft, v Values) (core.SavingsAccountDraft, error) {
			return d, firstErr(
				set(v, "name", parseText, &d.Name),
				set(v, "base_balance", core.ParseAmount, &d.BaseBalance),
				set(v, "currency", parseCurrency, &d.Currency),
				setPtr(v, "bank_institution", parseText, &d.BankInstitution),
			)
		},
		Patch: func(p core.SavingsAccountPatch, v Values) (core.SavingsAccountPatch, error) {
			return p, firstErr(
				setPtr(v, "name", parseText, &p.Name),
				setPtr(v, "base_balance", core.ParseAmount, &p.BaseBalance),
				setPtr(v, "currency", parseCurrency, &p.Currency),
				setPtr(v, "bank_institution", parseText, &p.BankInstitution),
			)
		},
		Currency: func(a core.SavingsAccount) string { return a.Currency },
		Memory: memory.Funcs[core.SavingsAccount, core.SavingsAccountDraft, core.SavingsAccountPatch]{
			Resource: "savings account",
			Build: func(id int64, d core.SavingsAccountDraft) core.SavingsAccount {
				return core.SavingsAccount{
					ID:              id,
					Name:            d.Name,
					BaseBalance:     d.BaseBalance,
					Currency:        d.Currency,
					BankInstitution: d.BankInstitution,
					CreatedAt:       timestamp(),
				}
			},
			Apply: func(a core.SavingsAccount, p core.SavingsAccountPatch) core.SavingsAccount {
				apply(&a.Name, p.Name)
				apply(&a.BaseBalance, p.BaseBalance)
				apply(&a.Currency, p.Currency)
				if p.BankInstitution != nil {
					a.BankInstitution = p.BankInstitution
				}
				a.UpdatedAt = ptr(timestamp())
				return a
			},
		},
		MemoryAPI: memory.Basic[core.SavingsAccount, core.SavingsAccountDraft, core.SavingsAccountPatch],
		REST: func(c *rest.Client) table.EntryAPI[core.SavingsAccount, core.SavingsAccountDraft, core.SavingsAccountPatch] {
			return rest.NewResource[core.SavingsAccount, core.SavingsAccountDraft, core.SavingsAccountPatch](c, "/savings-accounts",
				rest.Named("savings account"))
		},
	}
}

// Contributions is the "contributionsTable" definition, scoped by the
// savings account the contributions belong to.
func Contributions() contributionDef {
	return contributionDef{
		ID:     "contributionsTable",
		Name:   "contributions",
		Labels: table.Labels{Singular: "contribution", Plural: "contributions"},
		Scope:  "savings_account_id",
		Columns: []Column[core.Contribution]{
			{Key: "date", Label: "Date", Value: func(c core.Contribution) any { return c.Date }},
			{Key: "savings_account_id", Label: "Account", Value: func(c core.Contribution) any { return c.SavingsAccountID }},
			{Key: "amount", Label: "Amount", Value: func(c core.Contribution) any { return c.Amount }},
			{Key: "notes", Label: "Notes", Value: func(c core.Contribution) any { return c.Notes }},
		},
		CreateRules: table.Rules[core.ContributionDraft]{
			{Key: "savings_account_id", Label: "Savings account", Kind: table.KindNumber, Required: true,
				Validate: func(d core.ContributionDraft) string { return positiveID("Savings account", d.SavingsAccountID) }},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.ContributionDraft) string { return positive("Amount", d.Amount) }},
			{Key: "date", Label: "Date", Kind: table.KindDate, Required: true,
				Validate: func(d core.ContributionDraft) string { return requiredDate(d.Date) }},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea,
				Validate: func(d core.ContributionDraft) string { return maxLen("Notes", d.Notes, 2000) }},
		},
		UpdateRules: table.Rules[core.ContributionPatch]{
			{Key: "savings_account_id", Label: "Savings account", Kind: table.KindNumber,
				Validate: func(p core.ContributionPatch) string {
					if p.SavingsAccountID == nil {
						return ""
					}
					return positiveID("Savings account", *p.SavingsAccountID)
				}},
			{Key: "amount", Label: "Amount", Kind: table.KindAmount,
				Validate: func(p core.ContributionPatch) string { return positivePtr("Amount", p.Amount) }},
			{Key: "date", Label: "Date", Kind: table.KindDate},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea,
				Validate: func(p core.ContributionPatch) string { return maxLen("Notes", p.Notes, 2000) }},
		},
		NewDraft: func() core.ContributionDraft { return core.ContributionDraft{Date: today()} },
		EditValues: func(c core.Contribution) core.ContributionPatch {
			return core.ContributionPatch{
				SavingsAccountID: &c.SavingsAccountID,
				Amount:           &c.Amount,
				Date:             &c.Date,
				Notes:            c.Notes,
			}
		},
		PrepareUpdate: func(c core.Contribution, p core.ContributionPatch) core.ContributionPatch {
			return core.ContributionPatch{
				SavingsAccountID: pick(p.SavingsAccountID, c.SavingsAccountID),
				Amount:           pick(p.Amount, c.Amount),
				Date:             pick(p.Date, c.Date),
				Notes:            p.Notes,
			}
		},
		Draft: func(d core.ContributionDraft, v Values) (core.ContributionDraft, error) {
			return d, firstErr(
				set(v, "savings_account_id", parseInt64, &d.SavingsAccountID),
				set(v, "amount", core.ParseAmount, &d.Amount),
				set(v, "date", core.ParseDate, &d.Date),
				setPtr(v, "notes", parseText, &d.Notes),
			)
		},
		Patch: func(p core.ContributionPatch, v Values) (core.ContributionPatch, error) {
			return p, firstErr(
				setPtr(v, "savings_account_id", parseInt64, &p.SavingsAccountID),
				setPtr(v, "amount", core.ParseAmount, &p.Amount),
				setPtr(v, "date", core.ParseDate, &p.Date),
				setPtr(v, "notes", parseText, &p.Notes),
			)
		},
		Memory: memory.Funcs[core.Contribution, core.ContributionDraft, core.ContributionPatch]{
			Resource: "contribution",
			Build: func(id int64, d core.ContributionDraft) core.Contribution {
				return core.Contribution{
					ID:               id,
					SavingsAccountID: d.SavingsAccountID,
					Amount:           d.Amount,
					Date:             d.Date,
					Notes:            d.Notes,
					CreatedAt:        timestamp(),
				}
			},
			Apply: func(c core.Contribution, p core.ContributionPatch) core.Contribution {
				apply(&c.SavingsAccountID, p.SavingsAccountID)
				apply(&c.Amount, p.Amount)
				apply(&c.Date, p.Date)
				if p.Notes != nil {
					c.Notes = p.Notes
				}
				c.UpdatedAt = ptr(timestamp())
				return c
			},
			Scope: func(c core.Contribution) string { return strconv.FormatInt(c.SavingsAccountID, 10) },
		},
		MemoryAPI: memory.Basic[core.Contribution, core.ContributionDraft, core.ContributionPatch],
		REST: func(c *rest.Client) table.EntryAPI[core.Contribution, core.ContributionDraft, core.ContributionPatch] {
			return rest.NewResource[core.Contribution, core.ContributionDraft, core.ContributionPatch](c, "/contributions",
				rest.Scoped("savings_account_id"), rest.Named("contribution"))
		},
	}
}
