package domain

import (
	"strings" // Trimming free-form text
	"time"    // Event dates and audit timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // Model hooks
)

func init() {
	// Amounts travel as JSON numbers, which is what the clients send and expect back
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType is either income or expense
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the two supported types
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction Model
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index:idx_tx_user_date,priority:1;index:idx_tx_user_type,priority:1" json:"userId"`
	Type        TransactionType `gorm:"type:varchar(16);not null;index:idx_tx_user_type,priority:2;check:chk_transactions_type,type IN ('income','expense')" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null;check:chk_transactions_amount,amount > 0" json:"amount"`
	Category    string          `gorm:"type:varchar(64);not null" json:"category"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Date        time.Time       `gorm:"not null;index:idx_tx_user_date,priority:2" json:"date"`
	BSDate      string          `gorm:"column:bs_date;type:varchar(64)" json:"bsDate"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	User        *User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}

// MaxAmount is the smallest value the decimal(14,2) amount column cannot hold
var MaxAmount = decimal.New(1, 12)

// CheckAmount returns what is wrong with a money amount, or "" when it is storable as is
func CheckAmount(a decimal.Decimal) string {
	switch {
	case !a.IsPositive():
		return "must be greater than 0"
	case !a.Equal(a.Round(2)):
		return "must have at most 2 decimal places"
	case a.GreaterThanOrEqual(MaxAmount):
		return "must be less than " + MaxAmount.String()
	}
	return ""
}

// Validate checks the row rules regardless of how the row was built
func (t *Transaction) Validate() error {
	v := NewValidationError()
	if t.UserID == 0 {
		v.Add("userId", "owner is required")
	}
	if !t.Type.Valid() {
		v.Add("type", "must be income or expense")
	}
	if msg := CheckAmount(t.Amount); msg != "" {
		v.Add("amount", msg)
	}
	if strings.TrimSpace(t.Category) == "" {
		v.Add("category", "is required")
	}
	if t.Date.IsZero() {
		v.Add("date", "is required")
	}
	return v.OrNil()
}

// BeforeCreate rejects invalid rows at the store layer
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	return t.Validate()
}

// NewTransaction is the input for creating a transaction
type NewTransaction struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// Normalize trims text fields and pins the date to UTC midnight
func (n *NewTransaction) Normalize() {
	n.Category = strings.TrimSpace(n.Category)
	n.Description = strings.TrimSpace(n.Description)
	n.Date = DateOnly(n.Date)
}

// Validate checks the input before it reaches the store
func (n NewTransaction) Validate() error {
	t := Transaction{UserID: 1, Type: n.Type, Amount: n.Amount, Category: n.Category, Date: n.Date}
	return t.Validate()
}

// TransactionPatch holds the fields of a partial update; nil means unchanged
type TransactionPatch struct {
	Type        *TransactionType
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
}

// Empty reports whether the patch changes nothing
func (p TransactionPatch) Empty() bool {
	return p.Type == nil && p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil
}

// Validate checks every field the patch sets
func (p TransactionPatch) Validate() error {
	v := NewValidationError()
	if p.Empty() {
		v.Add("body", "no updatable fields supplied")
	}
	if p.Type != nil && !p.Type.Valid() {
		v.Add("type", "must be income or expense")
	}
	if p.Amount != nil {
		if msg := CheckAmount(*p.Amount); msg != "" {
			v.Add("amount", msg)
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		v.Add("category", "is required")
	}
	if p.Date != nil && p.Date.IsZero() {
		v.Add("date", "is required")
	}
	return v.OrNil()
}

// dateLayouts are the accepted wire formats for a transaction date
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate parses a date supplied by a client.
// Any time of day is dropped; the calendar day is the one in the client's own offset.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// DateOnly keeps the calendar day of t as seen in t's location, at UTC midnight
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
