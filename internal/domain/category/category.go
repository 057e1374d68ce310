// Package category derives a spend category for transactions the
// provider left uncategorized. Resolution is pure and happens at read
// time; nothing is persisted unless the user explicitly edits a row.
package category

import (
	"strings"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// Fallback is assigned when neither the provider nor the heuristic
// produced a category.
const Fallback = "Others"

type rule struct {
	keyword  string
	category string
}

// Rules are evaluated in order against merchant first, then description.
// Order matters: earlier rules win, so the list stays deterministic
// regardless of input casing.
var rules = []rule{
	{"uber", "Transport"},
	{"99app", "Transport"},
	{"taxi", "Transport"},
	{"metro", "Transport"},
	{"posto", "Transport"},
	{"gas station", "Transport"},
	{"parking", "Transport"},
	{"ifood", "Food & Drink"},
	{"restaurant", "Food & Drink"},
	{"restaurante", "Food & Drink"},
	{"lanchonete", "Food & Drink"},
	{"cafe", "Food & Drink"},
	{"coffee", "Food & Drink"},
	{"burger", "Food & Drink"},
	{"pizza", "Food & Drink"},
	{"bar ", "Food & Drink"},
	{"mercado", "Groceries"},
	{"supermercado", "Groceries"},
	{"supermarket", "Groceries"},
	{"grocery", "Groceries"},
	{"padaria", "Groceries"},
	{"atacad", "Groceries"},
	{"farmacia", "Health"},
	{"pharmacy", "Health"},
	{"drogaria", "Health"},
	{"hospital", "Health"},
	{"clinica", "Health"},
	{"academia", "Health"},
	{"gym", "Health"},
	{"netflix", "Entertainment"},
	{"spotify", "Entertainment"},
	{"cinema", "Entertainment"},
	{"steam", "Entertainment"},
	{"playstation", "Entertainment"},
	{"hbo", "Entertainment"},
	{"disney", "Entertainment"},
	{"amazon", "Shopping"},
	{"mercadolivre", "Shopping"},
	{"mercado livre", "Shopping"},
	{"shopee", "Shopping"},
	{"aliexpress", "Shopping"},
	{"magalu", "Shopping"},
	{"shopping", "Shopping"},
	{"aluguel", "Housing"},
	{"rent", "Housing"},
	{"condominio", "Housing"},
	{"energia", "Utilities"},
	{"electric", "Utilities"},
	{"sabesp", "Utilities"},
	{"water", "Utilities"},
	{"internet", "Utilities"},
	{"vivo", "Utilities"},
	{"claro", "Utilities"},
	{"tim ", "Utilities"},
	{"escola", "Education"},
	{"school", "Education"},
	{"universidade", "Education"},
	{"udemy", "Education"},
	{"coursera", "Education"},
	{"salario", "Income"},
	{"salary", "Income"},
	{"payroll", "Income"},
	{"rendimento", "Income"},
	{"transfer", "Transfers"},
	{"transferencia", "Transfers"},
	{"pix", "Transfers"},
	{"ted ", "Transfers"},
	{"doc ", "Transfers"},
	{"seguro", "Insurance"},
	{"insurance", "Insurance"},
	{"imposto", "Taxes"},
	{"darf", "Taxes"},
	{"iptu", "Taxes"},
	{"ipva", "Taxes"},
	{"tarifa", "Fees"},
	{"fee", "Fees"},
	{"juros", "Fees"},
	{"anuidade", "Fees"},
}

// Resolve returns the category for a transaction-like record:
// provider category when present, otherwise a keyword heuristic over
// merchant and description, otherwise the fallback bucket.
func Resolve(providerCategory *string, merchant, description string) string {
	if providerCategory != nil && *providerCategory != "" {
		return *providerCategory
	}
	if c, ok := match(merchant); ok {
		return c
	}
	if c, ok := match(description); ok {
		return c
	}
	return Fallback
}

// ForTransaction resolves the display category of a ledger transaction.
// A manually edited row keeps the user's value untouched.
func ForTransaction(tx *ledger.Transaction) string {
	if tx.CategoryLocked && tx.Category != nil && *tx.Category != "" {
		return *tx.Category
	}
	return Resolve(tx.Category, tx.Merchant, tx.Description)
}

func match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lowered, r.keyword) {
			return r.category, true
		}
	}
	return "", false
}
