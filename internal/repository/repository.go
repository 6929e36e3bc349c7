// Package repository owns all reads and writes of users, admins and transactions.
package repository

import (
	"errors"

	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// MaxPageLimit caps the page size of admin listings
const MaxPageLimit = 100

// Page selects one page of a listing, numbered from 1
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps raw query values into a usable page
func NewPage(number, limit, defaultLimit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset is the number of rows before the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Pagination is the metadata returned with every admin listing
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// Meta computes pagination metadata for total rows
func (p Page) Meta(total int64) Pagination {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{
		CurrentPage: p.Number,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     p.Number < totalPages,
		HasPrev:     p.Number > 1,
	}
}

// translate maps gorm errors onto domain errors
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	}
	return err
}
