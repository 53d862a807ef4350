package split

// BuildPlan computes how the request's stack and the matching stacks already in
// the target are spread over at most SlotBudget eligible slots.
//
// The returned plan is empty when the material is unknown, no eligible slot
// exists or every chosen slot already holds its share. When slot selection runs dry before SlotCount slots are chosen the
// entries built so far are returned with Partial set.
func BuildPlan(req Request, mats Materials) Plan {
	var p Plan
	if req.Target == nil {
		return p
	}
	mat, ok := mats.Material(req.Stack.Item)
	if !ok || mat.StackSize <= 0 {
		return p
	}

	oven := req.Target
	invalid := ForeignCount(oven, req.Stack.Item, mats)
	slotCount := min(oven.Capacity()-invalid, req.SlotBudget)
	if slotCount <= 0 {
		return p
	}
	p.SlotCount = slotCount

	taken := 0
	for i := 0; i < oven.Capacity() && taken < slotCount; i++ {
		s, occupied := oven.Slot(i)
		if !occupied || s.Item != req.Stack.Item {
			continue
		}
		p.ExistingSum += s.Amount
		taken++
	}

	p.Total = min(req.Stack.Amount+p.ExistingSum, mat.StackSize*slotCount)
	p.Base = min(p.Total/slotCount, mat.StackSize)
	p.Remainder = p.Total - (p.Total/slotCount)*slotCount

	used := make(map[int]bool, slotCount)
	for i := 0; i < slotCount; i++ {
		idx, existing, ok := Select(oven, req.Stack.Item, used)
		if !ok {
			p.Partial = true
			break
		}
		used[idx] = true

		current := 0
		if existing != nil {
			current = existing.Amount
		}
		target := p.Base
		if i < p.Remainder {
			target++
		}
		delta := target - current
		if delta == 0 || current+delta <= 0 {
			continue
		}
		p.Entries = append(p.Entries, Entry{Index: idx, Existing: existing, Delta: delta})
	}
	return p
}
