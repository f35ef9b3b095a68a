package cart

import "github.com/shopspring/decimal"

// Summary is the figure set shown next to the cart.
type Summary struct {
	TotalItems int
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

func (m *Manager) TotalItems() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return totalItems(m.items)
}

// TotalPrice sums price times quantity over the cart. A non-zero adjustment
// is subtracted from the sum.
func (m *Manager) TotalPrice(adjustment float64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return totalPrice(m.items, adjustment)
}

// Summary reports subtotal, the flat tax and the total from one consistent
// view of the cart. Total is TotalPrice(flatTax).
func (m *Manager) Summary(flatTax float64) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return summarize(m.items, flatTax)
}

func summarize(items []CartItem, flatTax float64) Summary {
	return Summary{
		TotalItems: totalItems(items),
		Subtotal:   totalPrice(items, 0),
		Tax:        decimal.NewFromFloat(flatTax),
		Total:      totalPrice(items, flatTax),
	}
}

func totalItems(items []CartItem) int {
	n := 0
	for _, line := range items {
		n += line.Quantity
	}
	return n
}

func totalPrice(items []CartItem, adjustment float64) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range items {
		price := decimal.NewFromFloat(line.Product.Price)
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if adjustment != 0 {
		sum = sum.Sub(decimal.NewFromFloat(adjustment))
	}
	return sum
}

// Snapshot is a consistent read of the cart: lines, phase and summary taken
// under one lock.
type Snapshot struct {
	Items   []CartItem
	Loading bool
	Summary Summary
}

func (m *Manager) Snapshot(flatTax float64) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Items:   cloneItems(m.items),
		Loading: m.phase == phaseLoading,
		Summary: summarize(m.items, flatTax),
	}
}
