package split

import "fmt"

type fakeMaterials map[string]Material

func (m fakeMaterials) Material(id string) (Material, bool) {
	mat, ok := m[id]
	return mat, ok
}

func testMaterials() fakeMaterials {
	return fakeMaterials{
		"metal.ore":  {ID: "metal.ore", StackSize: 100, Cook: &Cookable{CookTime: 5, LowTemp: 100, HighTemp: 1200, Becomes: "metal.fragments"}},
		"sulfur.ore": {ID: "sulfur.ore", StackSize: 100, Cook: &Cookable{CookTime: 30, LowTemp: 100, HighTemp: 1200, Becomes: "sulfur"}},
		"wood": {ID: "wood", StackSize: 1000, Cook: &Cookable{CookTime: 10, LowTemp: 400, HighTemp: 1200, Becomes: "charcoal"},
			Burn: &Burnable{FuelAmount: 1, Byproduct: "charcoal"}},
		"charcoal":        {ID: "charcoal", StackSize: 1000},
		"crude.oil":       {ID: "crude.oil", StackSize: 500, Cook: &Cookable{CookTime: 3, LowTemp: 500, HighTemp: 1200, Becomes: "lowgradefuel"}},
		"metal.fragments": {ID: "metal.fragments", StackSize: 1000},
	}
}

type fakeOven struct {
	kind      string
	slots     []*Stack
	temp      float64
	fuel      string
	byproduct bool
	dirty     int
	// failPlace makes Place fail for this slot index when >= 0.
	failPlace int
}

func newFakeOven(capacity int) *fakeOven {
	return &fakeOven{kind: "furnace", slots: make([]*Stack, capacity), temp: 200, fuel: "wood", failPlace: -1}
}

func (o *fakeOven) put(index int, item string, amount int) *fakeOven {
	o.slots[index] = &Stack{Item: item, Amount: amount, Position: index}
	return o
}

func (o *fakeOven) amounts() []int {
	out := make([]int, len(o.slots))
	for i, s := range o.slots {
		if s != nil {
			out[i] = s.Amount
		}
	}
	return out
}

func (o *fakeOven) Capacity() int { return len(o.slots) }

func (o *fakeOven) Slot(index int) (Stack, bool) {
	if index < 0 || index >= len(o.slots) || o.slots[index] == nil {
		return Stack{}, false
	}
	return *o.slots[index], true
}

func (o *fakeOven) Place(index int, s Stack) error {
	if index == o.failPlace {
		return fmt.Errorf("slot %d locked", index)
	}
	if o.slots[index] != nil {
		return fmt.Errorf("slot %d occupied", index)
	}
	o.slots[index] = &s
	return nil
}

func (o *fakeOven) SetAmount(index int, amount int) error {
	if o.slots[index] == nil {
		return fmt.Errorf("slot %d empty", index)
	}
	o.slots[index].Amount = amount
	return nil
}

func (o *fakeOven) Remove(index int) error {
	o.slots[index] = nil
	return nil
}

func (o *fakeOven) MarkDirty()            { o.dirty++ }
func (o *fakeOven) Kind() string          { return o.kind }
func (o *fakeOven) Temperature() float64  { return o.temp }
func (o *fakeOven) FuelItem() string      { return o.fuel }
func (o *fakeOven) AllowsByproduct() bool { return o.byproduct }

// deposit builds a request moving amount of item from a one-slot source.
func deposit(target *fakeOven, item string, amount, budget int) (Request, *fakeOven) {
	src := newFakeOven(1).put(0, item, amount)
	return Request{
		Source:      src,
		SourceIndex: 0,
		Stack:       Stack{Item: item, Amount: amount, Position: 0},
		Target:      target,
		SlotBudget:  budget,
	}, src
}
