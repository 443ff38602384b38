package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recalculate recomputes every derived total of the family from its members
// and their expenses. It is the only code path that writes TotalIncome,
// TotalExpenses and Member.TotalSpent, and callers run it before every save.
func Recalculate(f *Family) {
	income := decimal.Zero
	expenses := decimal.Zero

	for i := range f.Members {
		m := &f.Members[i]
		if m.IsEarning {
			income = income.Add(m.Salary)
		}

		spent := decimal.Zero
		for _, e := range m.Expenses {
			spent = spent.Add(e.Amount)
		}
		m.TotalSpent = spent
		expenses = expenses.Add(spent)
	}

	f.TotalIncome = income
	f.TotalExpenses = expenses
}

// NewID returns a fresh random identifier for families, members and expenses
func NewID() string {
	return uuid.New().String()
}
