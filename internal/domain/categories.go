package domain

// Category catalogue offered to clients. The server accepts any non-empty category.
var (
	IncomeCategories = []string{
		"Salary", "Freelance", "Business", "Investment", "Rental",
		"Gift", "Bonus", "Pension", "Other",
	}
	ExpenseCategories = []string{
		"Food & Dining", "Transportation", "Education", "Shopping", "Entertainment",
		"Bills & Utilities", "Healthcare", "Travel", "Other",
	}
)

// CategoriesFor returns the catalogue for a transaction type
func CategoriesFor(t TransactionType) []string {
	switch t {
	case TypeIncome:
		return IncomeCategories
	case TypeExpense:
		return ExpenseCategories
	}
	return nil
}
