package employee

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryAnnual Category = "annual"
	CategorySick   Category = "sick"
	CategoryCasual Category = "casual"
)

// Categories is the fixed set of leave categories, in display order.
var Categories = []Category{CategoryAnnual, CategorySick, CategoryCasual}

func ParseCategory(v string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == v {
			return c, true
		}
	}
	return "", false
}

// Column is the employees column holding the balance for c.
func (c Category) Column() string {
	switch c {
	case CategoryAnnual:
		return "annual_balance"
	case CategorySick:
		return "sick_balance"
	case CategoryCasual:
		return "casual_balance"
	default:
		return ""
	}
}

// Balances holds the remaining days per category. Every category has a
// column and the database refuses negative values.
type Balances struct {
	Annual int `gorm:"column:annual_balance;type:int;not null;default:0;check:chk_employees_annual_balance,annual_balance >= 0" json:"annual"`
	Sick   int `gorm:"column:sick_balance;type:int;not null;default:0;check:chk_employees_sick_balance,sick_balance >= 0" json:"sick"`
	Casual int `gorm:"column:casual_balance;type:int;not null;default:0;check:chk_employees_casual_balance,casual_balance >= 0" json:"casual"`
}

// DefaultBalances is granted to every employee at registration.
func DefaultBalances() Balances {
	return Balances{Annual: 15, Sick: 10, Casual: 5}
}

func (b Balances) Of(c Category) int {
	switch c {
	case CategoryAnnual:
		return b.Annual
	case CategorySick:
		return b.Sick
	case CategoryCasual:
		return b.Casual
	default:
		return 0
	}
}

// CheckSufficient is a pure read: can days be taken from c right now.
func (b Balances) CheckSufficient(c Category, days int) bool {
	if c.Column() == "" || days < 0 {
		return false
	}
	return b.Of(c) >= days
}

func (b Balances) Map() map[Category]int {
	return map[Category]int{
		CategoryAnnual: b.Annual,
		CategorySick:   b.Sick,
		CategoryCasual: b.Casual,
	}
}

type Employee struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Email    string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_employees_email"`
	Role     string    `gorm:"type:varchar(20);not null;default:'employee'"`
	Balances Balances  `gorm:"embedded"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
