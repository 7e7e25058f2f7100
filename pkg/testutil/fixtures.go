package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ItemFixture represents test catalog item data
type ItemFixture struct {
	ID        int64
	Name      string
	Category  string
	Unit      string
	MinAlert  *decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

// LotFixture represents test lot data
type LotFixture struct {
	ID         int64
	ItemID     int64
	LotCode    string
	UnitCost   *decimal.Decimal
	ReceivedAt *time.Time
	CreatedAt  time.Time
}

// ShiftFixture represents test shift data
type ShiftFixture struct {
	ID       int64
	Name     string
	OpenedAt time.Time
	ClosedAt *time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Item creates an item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		ID:        int64(seq),
		Name:      fmt.Sprintf("Test Item %d", seq),
		Category:  "CAP",
		Unit:      "UND",
		Active:    true,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithItemName sets the item name
func WithItemName(name string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Name = name
	}
}

// WithCategory sets the item category
func WithCategory(category string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Category = category
	}
}

// WithUnit sets the item unit
func WithUnit(unit string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Unit = unit
	}
}

// WithMinAlert sets the item low stock threshold
func WithMinAlert(threshold string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		d := decimal.RequireFromString(threshold)
		i.MinAlert = &d
	}
}

// Lot creates a lot fixture with defaults
func (f *FixtureFactory) Lot(itemID int64, opts ...func(*LotFixture)) LotFixture {
	seq := f.nextSeq()

	lot := LotFixture{
		ID:        int64(seq),
		ItemID:    itemID,
		LotCode:   fmt.Sprintf("LOT-%04d", seq),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&lot)
	}

	return lot
}

// WithLotCode sets the lot code
func WithLotCode(code string) func(*LotFixture) {
	return func(l *LotFixture) {
		l.LotCode = code
	}
}

// WithUnitCost sets the lot unit cost
func WithUnitCost(cost string) func(*LotFixture) {
	return func(l *LotFixture) {
		d := decimal.RequireFromString(cost)
		l.UnitCost = &d
	}
}

// Shift creates an open shift fixture with defaults
func (f *FixtureFactory) Shift(opts ...func(*ShiftFixture)) ShiftFixture {
	seq := f.nextSeq()

	shift := ShiftFixture{
		ID:       int64(seq),
		Name:     fmt.Sprintf("Shift %d", seq),
		OpenedAt: time.Now().Add(-time.Hour),
	}

	for _, opt := range opts {
		opt(&shift)
	}

	return shift
}

// WithShiftName sets the shift name
func WithShiftName(name string) func(*ShiftFixture) {
	return func(s *ShiftFixture) {
		s.Name = name
	}
}

// Closed marks the shift as closed
func Closed() func(*ShiftFixture) {
	return func(s *ShiftFixture) {
		closedAt := time.Now()
		s.ClosedAt = &closedAt
	}
}
