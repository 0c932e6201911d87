package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptCart marks a persisted value that cannot be adopted as a cart.
var ErrCorruptCart = errors.New("corrupt persisted cart")

// Encode serializes items into the persisted layout: a JSON array of
// {id, title, price, quantity, image?}. An empty cart encodes as "[]".
func Encode(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(data), nil
}

// Decode parses a persisted value. Malformed JSON, a non-array document and
// records that break the cart invariants (quantity < 1, repeated ids) all
// return an error wrapping ErrCorruptCart.
func Decode(raw string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected array", ErrCorruptCart)
	}

	seen := make(map[int64]struct{}, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d has quantity %d", ErrCorruptCart, i, item.Quantity)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrCorruptCart, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}
