package split

// Class is the classification of a container slot for an incoming material.
type Class int

const (
	Eligible Class = iota
	Foreign
)

func (c Class) String() string {
	if c == Foreign {
		return "FOREIGN"
	}
	return "ELIGIBLE"
}

// Classify decides whether the slot at index may take part in a split of
// incoming. Foreign slots are never written and do not count towards the
// usable slot count.
func Classify(oven Oven, index int, incoming string, mats Materials) Class {
	s, ok := oven.Slot(index)
	if !ok {
		return Eligible
	}
	return classifyStack(oven, s, incoming, mats)
}

func classifyStack(oven Oven, s Stack, incoming string, mats Materials) Class {
	m, ok := mats.Material(s.Item)
	if !ok {
		return Foreign
	}
	if s.Item == incoming && s.Amount < m.StackSize {
		return Eligible
	}
	if oven.AllowsByproduct() {
		if fuel, ok := mats.Material(oven.FuelItem()); ok && fuel.Burn != nil && fuel.Burn.Byproduct == s.Item {
			return Eligible
		}
	}
	// The cook rules look at the slot's own material: anything that is not
	// processable, already turns into the incoming material, or is still
	// processing at this temperature does not block the split.
	if m.Cook == nil || m.Cook.Becomes == incoming {
		return Eligible
	}
	if m.Cook.CanCook(oven.Temperature()) {
		return Eligible
	}
	return Foreign
}

// ForeignCount counts the occupied slots classified Foreign for incoming.
func ForeignCount(oven Oven, incoming string, mats Materials) int {
	n := 0
	for i := 0; i < oven.Capacity(); i++ {
		s, ok := oven.Slot(i)
		if !ok {
			continue
		}
		if classifyStack(oven, s, incoming, mats) == Foreign {
			n++
		}
	}
	return n
}
