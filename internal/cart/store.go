package cart

import (
	"fmt"
	"sync"

	"github.com/noah-isme/aigov-api/internal/catalog"
	"github.com/noah-isme/aigov-api/internal/pricing"
)

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 9999

// ErrInvalidQuantity is returned when a quantity outside 1..MaxQuantity is
// requested. The store is left untouched.
var ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)

// Line is one row of the cart, keyed by product id.
type Line struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	UnitPrice   pricing.Money `json:"unitPrice"`
	Description string        `json:"description"`
	ImageRef    string        `json:"imageRef"`
	Category    string        `json:"category,omitempty"`
	Quantity    int           `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() pricing.Money {
	return l.UnitPrice * pricing.Money(l.Quantity)
}

// Snapshot is a read-only view of the cart derived from its lines.
type Snapshot struct {
	Lines     []Line        `json:"lines"`
	Total     pricing.Money `json:"total"`
	LineCount int           `json:"lineCount"`
}

// Store owns the lines of a single cart. Lines keep insertion order, ids
// are unique and every quantity is at least one. All methods are safe for
// concurrent use; each mutation completes before the next is observed.
type Store struct {
	mu    sync.RWMutex
	lines []Line
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// index returns the position of id, or -1. Callers hold mu.
func (s *Store) index(id string) int {
	for i := range s.lines {
		if s.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem appends a quantity-one line for p. Adding a product that is
// already in the cart is a no-op; the return value reports whether a line
// was created.
func (s *Store) AddItem(p catalog.Product) bool {
	id := p.ID
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(id) >= 0 {
		return false
	}
	s.lines = append(s.lines, Line{
		ID:          id,
		Name:        p.Name,
		UnitPrice:   p.UnitPrice,
		Description: p.Description,
		ImageRef:    p.ImageRef,
		Category:    p.Category,
		Quantity:    1,
	})
	return true
}

// RemoveItem deletes the line for id and reports whether one existed.
func (s *Store) RemoveItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(id)
	if idx < 0 {
		return false
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	return true
}

// UpdateQuantity sets the quantity of id. Unknown ids are ignored;
// quantities outside 1..MaxQuantity are rejected with ErrInvalidQuantity.
func (s *Store) UpdateQuantity(id string, quantity int) error {
	_, err := s.setQuantity(id, quantity)
	return err
}

// setQuantity is UpdateQuantity returning the previous quantity, 0 when the
// line is absent.
func (s *Store) setQuantity(id string, quantity int) (int, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(id)
	if idx < 0 {
		return 0, nil
	}
	from := s.lines[idx].Quantity
	s.lines[idx].Quantity = quantity
	return from, nil
}

// IncrementQuantity adds one unit to id and reports whether the quantity
// changed. A line already at MaxQuantity is left as is.
func (s *Store) IncrementQuantity(id string) bool {
	_, _, changed := s.step(id, 1)
	return changed
}

// DecrementQuantity removes one unit from id while the quantity is above
// one. At one it does nothing: it never removes the line. The return value
// reports whether the quantity changed.
func (s *Store) DecrementQuantity(id string) bool {
	_, _, changed := s.step(id, -1)
	return changed
}

// step moves the quantity of id by delta within 1..MaxQuantity and returns
// the quantities observed before and after under the same lock.
func (s *Store) step(id string, delta int) (from, to int, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(id)
	if idx < 0 {
		return 0, 0, false
	}
	from = s.lines[idx].Quantity
	to = from + delta
	if to < 1 || to > MaxQuantity {
		return from, from, false
	}
	s.lines[idx].Quantity = to
	return from, to, true
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// IsInCart reports whether a line exists for id.
func (s *Store) IsInCart(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(id) >= 0
}

// ItemQuantity returns the quantity for id, or 0 when absent.
func (s *Store) ItemQuantity(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.index(id); idx >= 0 {
		return s.lines[idx].Quantity
	}
	return 0
}

// Snapshot copies the lines and derives the totals from them.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	s.mu.RUnlock()

	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	summary := pricing.Compute(items)
	return Snapshot{Lines: lines, Total: summary.Subtotal, LineCount: summary.Units}
}
