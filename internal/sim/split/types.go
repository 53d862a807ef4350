// Package split spreads a deposited material evenly across the slots of a
// heat-processing container.
//
// The package owns no state. Containers, stacks and materials belong to the
// host simulation and are reached only through the interfaces below; a plan is
// computed from a read of the container and then applied through the narrow
// write surface of Inventory.
package split

// NoPosition marks a stack without a stable slot affinity.
const NoPosition = -1

// Stack is a quantity of one material occupying a slot.
type Stack struct {
	Item     string
	Amount   int
	Skin     uint64
	Position int
}

// Inventory is the container query/mutate surface provided by the host.
type Inventory interface {
	Capacity() int
	Slot(index int) (Stack, bool)
	// Place creates a stack and moves it into the slot at index.
	Place(index int, s Stack) error
	SetAmount(index int, amount int) error
	Remove(index int) error
	MarkDirty()
}

// Oven is a processing container: an Inventory with a working temperature and
// a fuel material.
type Oven interface {
	Inventory
	Kind() string
	Temperature() float64
	FuelItem() string
	AllowsByproduct() bool
}

// Materials resolves material ids to their definitions.
type Materials interface {
	Material(id string) (Material, bool)
}

type Material struct {
	ID        string
	StackSize int
	Cook      *Cookable
	Burn      *Burnable
}

// Cookable is the processing component of a material.
type Cookable struct {
	CookTime float64 // seconds per unit
	LowTemp  float64
	HighTemp float64
	Becomes  string
}

// Burnable is the fuel component of a material.
type Burnable struct {
	FuelAmount float64
	Byproduct  string
}

// CanCook reports whether t lies in the cookable's valid temperature range.
func (c *Cookable) CanCook(t float64) bool {
	if c == nil {
		return false
	}
	return t >= c.LowTemp && t <= c.HighTemp
}

// Request is one deposit attempt. It lives only for the duration of the attempt.
type Request struct {
	Source      Inventory
	SourceIndex int
	Stack       Stack
	Target      Oven
	SlotBudget  int
}

// Entry is one planned slot change.
type Entry struct {
	Index    int
	Existing *Stack
	Delta    int
}

type Plan struct {
	Entries     []Entry
	SlotCount   int
	ExistingSum int
	Total       int
	Base        int
	Remainder   int
	// Partial is set when slot selection ran out before SlotCount slots were chosen.
	Partial bool
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool { return len(p.Entries) == 0 }
