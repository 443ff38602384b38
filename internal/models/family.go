package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Family is the aggregate root: one document holding every member and
// expense of a household together with the derived totals.
type Family struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	PasswordHash  string          `json:"-"`
	Email         string          `json:"email,omitempty"`
	Members       []Member        `json:"members"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Member is a person belonging to a family, optionally earning a salary
type Member struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	IsEarning  bool            `json:"isEarning"`
	Salary     decimal.Decimal `json:"salary"`
	Expenses   []Expense       `json:"expenses"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// Expense is a single categorized spend entry of a member
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Date        time.Time       `json:"date"`
}

// FamilySummary is the short form returned by the auth endpoints
type FamilySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewFamily creates an empty family with zero totals
func NewFamily(name, passwordHash string) *Family {
	now := time.Now().UTC()
	return &Family{
		ID:            NewID(),
		Name:          name,
		PasswordHash:  passwordHash,
		Members:       []Member{},
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewMember creates a member with no expenses
func NewMember(name string, isEarning bool, salary decimal.Decimal) Member {
	return Member{
		ID:         NewID(),
		Name:       name,
		IsEarning:  isEarning,
		Salary:     salary,
		Expenses:   []Expense{},
		TotalSpent: decimal.Zero,
	}
}

// NewExpense creates an expense dated now
func NewExpense(description string, amount decimal.Decimal, category Category) Expense {
	return Expense{
		ID:          NewID(),
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        time.Now().UTC(),
	}
}

// Summary returns the id/name pair of the family
func (f *Family) Summary() FamilySummary {
	return FamilySummary{ID: f.ID, Name: f.Name}
}

// FindMember returns a pointer into Members, or nil when no member has the ID
func (f *Family) FindMember(memberID string) *Member {
	for i := range f.Members {
		if f.Members[i].ID == memberID {
			return &f.Members[i]
		}
	}
	return nil
}

// RemoveMember drops the member and its expenses. It reports whether a
// member was removed.
func (f *Family) RemoveMember(memberID string) bool {
	for i := range f.Members {
		if f.Members[i].ID == memberID {
			f.Members = append(f.Members[:i], f.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Touch bumps UpdatedAt
func (f *Family) Touch() {
	f.UpdatedAt = time.Now().UTC()
}
