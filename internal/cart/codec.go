package cart

import (
	"encoding/json"
	"fmt"
)

// EncodeLines renders lines in the persisted slot layout: a JSON array of
// {id, product, quantity, unitPrice} records. A nil slice encodes as [].
func EncodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// DecodeLines parses a slot payload and rejects records that break the cart invariants.
func DecodeLines(data []byte) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	seen := make(map[int64]struct{}, len(lines))
	for i, l := range lines {
		if l.ID != l.Product.ID {
			return nil, fmt.Errorf("line %d: id %d does not match product %d", i, l.ID, l.Product.ID)
		}
		if _, dup := seen[l.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate product %d", i, l.ID)
		}
		seen[l.ID] = struct{}{}
		if l.Quantity <= 0 || l.Quantity > l.Product.Quantity {
			return nil, fmt.Errorf("line %d: quantity %d outside 1..%d", i, l.Quantity, l.Product.Quantity)
		}
	}
	return lines, nil
}
