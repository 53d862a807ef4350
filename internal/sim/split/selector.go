package split

// Select picks the next slot to receive part of a split of item.
//
// Among non-excluded slots already holding item, the largest stack wins (lowest
// index on ties). Without any, the first empty slot by index is returned.
// ok is false when neither exists.
func Select(inv Inventory, item string, excluded map[int]bool) (index int, existing *Stack, ok bool) {
	firstEmpty := -1
	best := -1
	var bestStack Stack

	for i := 0; i < inv.Capacity(); i++ {
		if excluded[i] {
			continue
		}
		s, occupied := inv.Slot(i)
		if !occupied {
			if firstEmpty == -1 {
				firstEmpty = i
			}
			continue
		}
		if s.Item != item {
			continue
		}
		if best == -1 || s.Amount > bestStack.Amount {
			best = i
			bestStack = s
		}
	}

	if best != -1 {
		return best, &bestStack, true
	}
	if firstEmpty != -1 {
		return firstEmpty, nil, true
	}
	return -1, nil, false
}
