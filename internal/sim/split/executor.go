package split

import (
	"errors"
	"fmt"
)

// Execute applies plan to the request's target and draws the moved quantity
// from the source stack. It returns the sum of all deltas.
//
// Deltas may be negative when an over-full anchor slot is levelled down; that
// quantity has no destination and is netted out of the source draw, so a
// negative total grows the source stack.
//
// The plan is checked against the target before the first write. If a write
// still fails, the writes already applied are undone and the source is left
// untouched.
func Execute(plan Plan, req Request) (moved int, err error) {
	if plan.Empty() {
		return 0, nil
	}
	oven := req.Target
	if err := checkPlan(plan, req); err != nil {
		return 0, err
	}

	applied := 0
	defer func() {
		if err != nil {
			err = errors.Join(err, rollback(oven, plan.Entries[:applied]))
			moved = 0
		}
	}()
	for _, e := range plan.Entries {
		if e.Existing == nil {
			s := Stack{Item: req.Stack.Item, Amount: e.Delta, Skin: req.Stack.Skin, Position: e.Index}
			if err := oven.Place(e.Index, s); err != nil {
				return 0, fmt.Errorf("place slot %d: %w", e.Index, err)
			}
		} else if err := oven.SetAmount(e.Index, e.Existing.Amount+e.Delta); err != nil {
			return 0, fmt.Errorf("set slot %d: %w", e.Index, err)
		}
		applied++
		moved += e.Delta
	}

	if moved >= req.Stack.Amount {
		err = req.Source.Remove(req.SourceIndex)
	} else {
		err = req.Source.SetAmount(req.SourceIndex, req.Stack.Amount-moved)
	}
	if err != nil {
		return 0, fmt.Errorf("update source slot %d: %w", req.SourceIndex, err)
	}

	oven.MarkDirty()
	req.Source.MarkDirty()
	return moved, nil
}

// checkPlan verifies every entry still matches the target's slots.
func checkPlan(plan Plan, req Request) error {
	if s, ok := req.Source.Slot(req.SourceIndex); !ok || s.Item != req.Stack.Item {
		return fmt.Errorf("source slot %d no longer holds %s", req.SourceIndex, req.Stack.Item)
	}
	for _, e := range plan.Entries {
		if e.Index < 0 || e.Index >= req.Target.Capacity() {
			return fmt.Errorf("slot %d out of range", e.Index)
		}
		s, occupied := req.Target.Slot(e.Index)
		switch {
		case e.Existing == nil && occupied:
			return fmt.Errorf("slot %d occupied", e.Index)
		case e.Existing != nil && (!occupied || s.Item != e.Existing.Item):
			return fmt.Errorf("slot %d changed", e.Index)
		}
	}
	return nil
}

func rollback(oven Oven, done []Entry) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		e := done[i]
		if e.Existing == nil {
			errs = append(errs, oven.Remove(e.Index))
		} else {
			errs = append(errs, oven.SetAmount(e.Index, e.Existing.Amount))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
