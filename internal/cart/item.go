package cart

import "math"

// LineItem is one product in the cart. Title, price and image are captured
// when the product is first added and never refreshed.
type LineItem struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

// Subtotal returns price * quantity without rounding.
func (i LineItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Limits applied to caller input at the HTTP and CLI edges. The store itself
// accepts any positive quantity.
const (
	MaxInputQuantity = 10000
	MaxInputPrice    = 1000000
)

// addQuantity merges two positive quantities, saturating at math.MaxInt so a
// merged line never wraps to a non-positive quantity.
func addQuantity(current, delta int) int {
	if delta > math.MaxInt-current {
		return math.MaxInt
	}
	return current + delta
}

func totalItems(items []LineItem) int {
	total := 0
	for _, item := range items {
		total = addQuantity(total, item.Quantity)
	}
	return total
}

func totalPrice(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

func indexOf(items []LineItem, id int64) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
