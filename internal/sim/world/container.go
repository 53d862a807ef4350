package world

import (
	"fmt"

	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/split"
)

// Slots is a fixed-capacity slot container: an actor inventory or the
// contents of an oven. It implements split.Inventory.
type Slots struct {
	id    string
	slots []*split.Stack
	dirty bool
}

var _ split.Inventory = (*Slots)(nil)

func newSlots(id string, capacity int) *Slots {
	return &Slots{id: id, slots: make([]*split.Stack, capacity)}
}

func (c *Slots) ID() string    { return c.id }
func (c *Slots) Capacity() int { return len(c.slots) }

func (c *Slots) Slot(i int) (split.Stack, bool) {
	if i < 0 || i >= len(c.slots) || c.slots[i] == nil {
		return split.Stack{}, false
	}
	return *c.slots[i], true
}

func (c *Slots) Place(i int, s split.Stack) error {
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("slot %d out of range", i)
	}
	if c.slots[i] != nil {
		return fmt.Errorf("slot %d occupied", i)
	}
	if s.Amount <= 0 {
		return fmt.Errorf("slot %d: bad amount %d", i, s.Amount)
	}
	s.Position = i
	c.slots[i] = &s
	return nil
}

// SetAmount changes the quantity of the stack at i; zero or less removes it.
func (c *Slots) SetAmount(i int, amount int) error {
	if i < 0 || i >= len(c.slots) || c.slots[i] == nil {
		return fmt.Errorf("slot %d empty", i)
	}
	if amount <= 0 {
		c.slots[i] = nil
		return nil
	}
	c.slots[i].Amount = amount
	return nil
}

func (c *Slots) Remove(i int) error {
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("slot %d out of range", i)
	}
	c.slots[i] = nil
	return nil
}

func (c *Slots) MarkDirty() { c.dirty = true }

// add stores n units of item, topping up existing stacks before filling
// empty slots in index order. It returns what did not fit.
func (c *Slots) add(item string, n, stackSize int) int {
	if n <= 0 || stackSize <= 0 {
		return n
	}
	start := n
	for _, s := range c.slots {
		if n == 0 {
			break
		}
		if s == nil || s.Item != item || s.Amount >= stackSize {
			continue
		}
		k := min(n, stackSize-s.Amount)
		s.Amount += k
		n -= k
	}
	for i, s := range c.slots {
		if n == 0 {
			break
		}
		if s != nil {
			continue
		}
		k := min(n, stackSize)
		c.slots[i] = &split.Stack{Item: item, Amount: k, Position: i}
		n -= k
	}
	if n != start {
		c.dirty = true
	}
	return n
}

// room is how many units of item still fit.
func (c *Slots) room(item string, stackSize int) int {
	free := 0
	for _, s := range c.slots {
		switch {
		case s == nil:
			free += stackSize
		case s.Item == item && s.Amount < stackSize:
			free += stackSize - s.Amount
		}
	}
	return free
}

// takeOne removes one unit of item from its lowest-index stack.
func (c *Slots) takeOne(item string) bool {
	for i, s := range c.slots {
		if s == nil || s.Item != item {
			continue
		}
		s.Amount--
		if s.Amount <= 0 {
			c.slots[i] = nil
		}
		c.dirty = true
		return true
	}
	return false
}

func (c *Slots) count(item string) int {
	n := 0
	for _, s := range c.slots {
		if s != nil && s.Item == item {
			n += s.Amount
		}
	}
	return n
}

func (c *Slots) list() []protocol.SlotObs {
	out := make([]protocol.SlotObs, 0, len(c.slots))
	for i, s := range c.slots {
		if s == nil {
			continue
		}
		out = append(out, protocol.SlotObs{Slot: i, Item: s.Item, Count: s.Amount})
	}
	return out
}
