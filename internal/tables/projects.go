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
	projectDef  = Definition[core.Project, core.ProjectDraft, core.ProjectPatch]
	wishlistDef = Definition[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch]
)

// Projects is the "projectsTable" definition.
func Projects() projectDef {
	return projectDef{
		ID:     "projectsTable",
		Name:   "projects",
		Labels: table.Labels{Singular: "project", Plural: "projects"},
		Columns: []Column[core.Project]{
			{Key: "name", Label: "Name", Value: func(p core.Project) any { return p.Name }},
			{Key: "status", Label: "Status", Value: func(p core.Project) any { return p.Status }},
			{
				Key: "target_amount", Label: "Target",
				Value: func(p core.Project) any { return p.TargetAmount },
				Text:  func(p core.Project) string { return core.FormatAmount(p.TargetAmount, p.Currency) },
			},
			{Key: "savings_account_id", Label: "Account", Value: func(p core.Project) any { return p.SavingsAccountID }},
			{Key: "created_at", Label: "Created", Value: func(p core.Project) any { return p.CreatedAt }},
		},
		CreateRules: table.Rules[core.ProjectDraft]{
			{Key: "name", Label: "Name", Kind: table.KindText, Required: true,
				Validate: func(d core.ProjectDraft) string { return required("Name", d.Name) }},
			{Key: "description", Label: "Description", Kind: table.KindTextArea,
				Validate: func(d core.ProjectDraft) string { return maxLen("Description", d.Description, 1000) }},
			{Key: "target_amount", Label: "Target amount", Kind: table.KindAmount, Required: true,
				Validate: func(d core.ProjectDraft) string { return positive("Target amount", d.TargetAmount) }},
			{Key: "status", Label: "Status", Kind: table.KindSelect, Options: core.ProjectStatuses,
				Validate: func(d core.ProjectDraft) string { return status(&d.Status) }},
			{Key: "savings_account_id", Label: "Savings account", Kind: table.KindNumber},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.ProjectDraft) string { return currency(d.Currency) }},
		},
		UpdateRules: table.Rules[core.ProjectPatch]{
			{Key: "name", Label: "Name", Kind: table.KindText,
				Validate: func(p core.ProjectPatch) string { return requiredPtr("Name", p.Name) }},
			{Key: "description", Label: "Description", Kind: table.KindTextArea,
				Validate: func(p core.ProjectPatch) string { return maxLen("Description", p.Description, 1000) }},
			{Key: "target_amount", Label: "Target amount", Kind: table.KindAmount,
				Validate: func(p core.ProjectPatch) string { return positivePtr("Target amount", p.TargetAmount) }},
			{Key: "status", Label: "Status", Kind: table.KindSelect, Options: core.ProjectStatuses,
				Validate: func(p core.ProjectPatch) string { return status(p.Status) }},
			{Key: "savings_account_id", Label: "Savings account", Kind: table.KindNumber},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.ProjectPatch) string { return currencyPtr(p.Currency) }},
		},
		NewDraft: func() core.ProjectDraft { return core.ProjectDraft{Status: "Active"} },
		EditValues: func(p core.Project) core.ProjectPatch {
			return core.ProjectPatch{
				Name:             &p.Name,
				Description:      p.Description,
				TargetAmount:     &p.TargetAmount,
				Status:           &p.Status,
				SavingsAccountID: p.SavingsAccountID,
				Currency:         &p.Currency,
			}
		},
		PrepareCreate: func(d core.ProjectDraft, cur string) core.ProjectDraft {
			d.Name = strings.TrimSpace(d.Name)
			d.Currency = orDefault(d.Currency, cur)
			if d.Status == "" {
				d.Status = "Active"
			}
			return d
		},
		PrepareUpdate: func(p core.Project, patch core.ProjectPatch) core.ProjectPatch {
			return core.ProjectPatch{
				Name:             pick(patch.Name, p.Name),
				Description:      patch.Description,
				TargetAmount:     pick(patch.TargetAmount, p.TargetAmount),
				Status:           pick(patch.Status, p.Status),
				SavingsAccountID: patch.SavingsAccountID,
				Currency:         pick(patch.Currency, p.Currency),
			}
		},
		Draft: func(d core.ProjectDraft, v Values) (core.ProjectDraft, error) {
			return d, firstErr(
				set(v, "name", parseText, &d.Name),
				setPtr(v, "description", parseText, &d.Description),
				set(v, "target_amount", core.ParseAmount, &d.TargetAmount),
				set(v, "status", parseText, &d.Status),
				setPtr(v, "savings_account_id", parseInt64, &d.SavingsAccountID),
				set(v, "currency", parseCurrency, &d.Currency),
			)
		},
		Patch: func(p core.ProjectPatch, v Values) (core.ProjectPatch, error) {
			return p, firstErr(
				setPtr(v, "name", parseText, &p.Name),
				setPtr(v, "description", parseText, &p.Description),
				setPtr(v, "target_amount", core.ParseAmount, &p.TargetAmount),
				setPtr(v, "status", parseText, &p.Status),
				setPtr(v, "savings_account_id", parseInt64, &p.SavingsAccountID),
				setPtr(v, "currency", parseCurrency, &p.Currency),
			)
		},
		Currency: func(p core.Project) string { return p.Currency },
		Memory: memory.Funcs[core.Project, core.ProjectDraft, core.ProjectPatch]{
			Resource: "project",
			Build: func(id int64, d core.ProjectDraft) core.Project {
				return core.Project{
					ID:               id,
					Name:             d.Name,
					Description:      d.Description,
					TargetAmount:     d.TargetAmount,
					Status:           d.Status,
					SavingsAccountID: d.SavingsAccountID,
					Currency:         d.Currency,
					CreatedAt:        timestamp(),
				}
			},
			Apply: func(p core.Project, patch core.ProjectPatch) core.Project {
				apply(&p.Name, patch.Name)
				apply(&p.TargetAmount, patch.TargetAmount)
				apply(&p.Status, patch.Status)
				apply(&p.Currency, patch.Currency)
				if patch.Description != nil {
					p.Description = patch.Description
				}
				if patch.SavingsAccountID != nil {
					p.SavingsAccountID = patch.SavingsAccountID
				}
				p.UpdatedAt = ptr(timestamp())
				return p
			},
		},
		MemoryAPI: memory.Basic[core.Project, core.ProjectDraft, core.ProjectPatch],
		REST: func(c *rest.Client) table.EntryAPI[core.Project, core.ProjectDraft, core.ProjectPatch] {
			return rest.NewResource[core.Project, core.ProjectDraft, core.ProjectPatch](c, "/projects", rest.Named("project"))
		},
	}
}

// WishlistItems is the "wishlistItemsTable" definition, scoped by wishlist.
// The backend takes wishlist items as multipart forms.
func WishlistItems() wishlistDef {
	return wishlistDef{
		ID:     "wishlistItemsTable",
		Name:   "wishlist",
		Labels: table.Labels{Singular: "wishlist item", Plural: "wishlist items"},
		Scope:  "wishlist_id",
		Columns: []Column[core.WishlistItem]{
			{Key: "priority", Label: "Priority", Value: func(w core.WishlistItem) any { return w.Priority }},
			{Key: "name", Label: "Name", Value: func(w core.WishlistItem) any { return w.Name }},
			{
				Key: "amount", Label: "Price",
				Value: func(w core.WishlistItem) any { return w.Amount },
				Text: func(w core.WishlistItem) string {
					if w.Amount == nil {
						return ""
					}
					return core.FormatAmount(*w.Amount, w.Currency)
				},
			},
			{Key: "url", Label: "URL", Value: func(w core.WishlistItem) any { return w.URL }},
			{Key: "notes", Label: "Notes", Value: func(w core.WishlistItem) any { return w.Notes }},
		},
		CreateRules: table.Rules[core.WishlistItemDraft]{
			{Key: "wishlist_id", Label: "Wishlist", Kind: table.KindNumber, Required: true,
				Validate: func(d core.WishlistItemDraft) string { return positiveID("Wishlist", d.WishlistID) }},
			{Key: "name", Label: "Name", Kind: table.KindText, Required: true,
				Validate: func(d core.WishlistItemDraft) string {
					if msg := required("Name", d.Name); msg != "" {
						return msg
					}
					return maxLen("Name", &d.Name, 200)
				}},
			{Key: "description", Label: "Description", Kind: table.KindTextArea,
				Validate: func(d core.WishlistItemDraft) string { return maxLen("Description", d.Description, 1000) }},
			{Key: "amount", Label: "Price", Kind: table.KindAmount,
				Validate: func(d core.WishlistItemDraft) string { return nonNegativePtr("Price", d.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(d core.WishlistItemDraft) string { return currency(d.Currency) }},
			{Key: "priority", Label: "Priority", Kind: table.KindNumber, Required: true,
				Validate: func(d core.WishlistItemDraft) string { return positivePriority(d.Priority) }},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea,
				Validate: func(d core.WishlistItemDraft) string { return maxLen("Notes", d.Notes, 2000) }},
			{Key: "url", Label: "URL", Kind: table.KindURL,
				Validate: func(d core.WishlistItemDraft) string { return webURL(d.URL) }},
		},
		UpdateRules: table.Rules[core.WishlistItemPatch]{
			{Key: "name", Label: "Name", Kind: table.KindText,
				Validate: func(p core.WishlistItemPatch) string {
					if msg := requiredPtr("Name", p.Name); msg != "" {
						return msg
					}
					return maxLen("Name", p.Name, 200)
				}},
			{Key: "description", Label: "Description", Kind: table.KindTextArea,
				Validate: func(p core.WishlistItemPatch) string { return maxLen("Description", p.Description, 1000) }},
			{Key: "amount", Label: "Price", Kind: table.KindAmount,
				Validate: func(p core.WishlistItemPatch) string { return nonNegativePtr("Price", p.Amount) }},
			{Key: "currency", Label: "Currency", Kind: table.KindCurrency,
				Validate: func(p core.WishlistItemPatch) string { return currencyPtr(p.Currency) }},
			{Key: "priority", Label: "Priority", Kind: table.KindNumber,
				Validate: func(p core.WishlistItemPatch) string {
					if p.Priority == nil {
						return ""
					}
					return positivePriority(*p.Priority)
				}},
			{Key: "notes", Label: "Notes", Kind: table.KindTextArea,
				Validate: func(p core.WishlistItemPatch) string { return maxLen("Notes", p.Notes, 2000) }},
			{Key: "url", Label: "URL", Kind: table.KindURL,
				Validate: func(p core.WishlistItemPatch) string { return webURL(p.URL) }},
		},
		NewDraft: func() core.WishlistItemDraft { return core.WishlistItemDraft{Priority: 1} },
		EditValues: func(w core.WishlistItem) core.WishlistItemPatch {
			return core.WishlistItemPatch{
				Name:        &w.Name,
				Description: w.Description,
				Amount:      w.Amount,
				Currency:    &w.Currency,
				Priority:    &w.Priority,
				Notes:       w.Notes,
				URL:         w.URL,
			}
		},
		PrepareCreate: func(d core.WishlistItemDraft, cur string) core.WishlistItemDraft {
			d.Name = strings.TrimSpace(d.Name)
			d.Currency = orDefault(d.Currency, cur)
			return d
		},
		PrepareUpdate: func(w core.WishlistItem, p core.WishlistItemPatch) core.WishlistItemPatch {
			return core.WishlistItemPatch{
				Name:        pick(p.Name, w.Name),
				Description: p.Description,
				Amount:      p.Amount,
				Currency:    pick(p.Currency, w.Currency),
				Priority:    pick(p.Priority, w.Priority),
				Notes:       p.Notes,
				URL:         p.URL,
			}
		},
		Draft: func(d core.WishlistItemDraft, v Values) (core.WishlistItemDraft, error) {
			return d, firstErr(
				set(v, "wishlist_id", parseInt64, &d.WishlistID),
				set(v, "name", parseText, &d.Name),
				setPtr(v, "description", parseText, &d.Description),
				setPtr(v, "amount", core.ParseAmount, &d.Amount),
				set(v, "currency", parseCurrency, &d.Currency),
				set(v, "priority", parseInt, &d.Priority),
				setPtr(v, "notes", parseText, &d.Notes),
				setPtr(v, "url", parseText, &d.URL),
			)
		},
		Patch: func(p core.WishlistItemPatch, v Values) (core.WishlistItemPatch, error) {
			return p, firstErr(
				setPtr(v, "name", parseText, &p.Name),
				setPtr(v, "description", parseText, &p.Description),
				setPtr(v, "amount", core.ParseAmount, &p.Amount),
				setPtr(v, "currency", parseCurrency, &p.Currency),
				setPtr(v, "priority", parseInt, &p.Priority),
				setPtr(v, "notes", parseText, &p.Notes),
				setPtr(v, "url", parseText, &p.URL),
			)
		},
		Currency: func(w core.WishlistItem) string { return w.Currency },
		Memory: memory.Funcs[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch]{
			Resource: "wishlist item",
			Build: func(id int64, d core.WishlistItemDraft) core.WishlistItem {
				return core.WishlistItem{
					ID:          id,
					WishlistID:  d.WishlistID,
					Name:        d.Name,
					Description: d.Description,
					Amount:      d.Amount,
					Currency:    d.Currency,
					Priority:    d.Priority,
					Notes:       d.Notes,
					URL:         d.URL,
				}
			},
			Apply: func(w core.WishlistItem, p core.WishlistItemPatch) core.WishlistItem {
				apply(&w.Name, p.Name)
				apply(&w.Currency, p.Currency)
				apply(&w.Priority, p.Priority)
				if p.Description != nil {
					w.Description = p.Description
				}
				if p.Amount != nil {
					w.Amount = p.Amount
				}
				if p.Notes != nil {
					w.Notes = p.Notes
				}
				if p.URL != nil {
					w.URL = p.URL
				}
				return w
			},
			Scope: func(w core.WishlistItem) string { return strconv.FormatInt(w.WishlistID, 10) },
		},
		MemoryAPI: memory.DeleteOnly[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch],
		REST: func(c *rest.Client) table.EntryAPI[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch] {
			return rest.NewPostBulkDeleteResource[core.WishlistItem, core.WishlistItemDraft, core.WishlistItemPatch](c, "/wishlist-items",
				rest.Scoped("wishlist_id"), rest.Named("wishlist item"), rest.Encoded(rest.Multipart))
		},
	}
}

func positivePriority(p int) string {
	if p <= 0 {
		return "Priority must be a positive integer"
	}
	return ""
}
