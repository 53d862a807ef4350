package world

import (
	"errors"
	"fmt"

	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/session"
)

func (w *World) applyAct(tick uint64, env ActionEnvelope) {
	a := w.actors[env.ActorID]
	if !a.online() {
		return
	}
	for _, op := range env.Act.Ops {
		res := w.applyOp(a, op)
		res.Type = protocol.TypeResult
		res.ProtocolVersion = protocol.Version
		res.Tick = tick
		res.Ref = op.ID
		res.Op = op.Op
		w.send(a, res)
	}
}

func succeeded() protocol.ResultMsg { return protocol.ResultMsg{Result: protocol.ResultOK} }

func fail(code, msg string) protocol.ResultMsg {
	if !protocol.IsKnownCode(code) {
		msg = code + ": " + msg
		code = protocol.ErrInternal
	}
	return protocol.ResultMsg{Result: protocol.ResultError, Code: code, Message: msg}
}

func (w *World) applyOp(a *actor, op protocol.ActOp) protocol.ResultMsg {
	switch op.Op {
	case protocol.OpPlaceOven:
		return w.opPlaceOven(a, op)
	case protocol.OpDestroyOven:
		return w.opDestroyOven(a, op)
	case protocol.OpLoot:
		return w.opLoot(a, op)
	case protocol.OpMove:
		return w.opMove(a, op)
	case protocol.OpTake:
		return w.opTake(a, op)
	case protocol.OpToggle:
		return w.opToggle(op)
	case protocol.OpSetEnabled:
		return w.opSetEnabled(a, op)
	case protocol.OpSetTotalStacks:
		return w.opSetTotalStacks(a, op)
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown op %q", op.Op))
	}
}

func (w *World) opPlaceOven(a *actor, op protocol.ActOp) protocol.ResultMsg {
	o, err := w.placeOvenAt(op.Kind, a.id)
	if err != nil {
		return fail(protocol.ErrInvalidTarget, err.Error())
	}
	w.log.Info().Str("actor", a.id).Str("oven", o.ID()).Msg("oven placed")
	res := succeeded()
	res.OvenID = o.ID()
	return res
}

func (w *World) opDestroyOven(a *actor, op protocol.ActOp) protocol.ResultMsg {
	o := w.ovens[op.OvenID]
	if o == nil {
		return fail(protocol.ErrInvalidTarget, "oven not found")
	}
	if o.owner != a.id {
		return fail(protocol.ErrNoPermission, "not the oven owner")
	}
	closed := protocol.OvenClosedMsg{Type: protocol.TypeOvenClosed, ProtocolVersion: protocol.Version, OvenID: o.ID()}
	for _, other := range w.actors {
		if other.open == o.ID() {
			other.open = ""
			w.send(other, closed)
		}
	}
	delete(w.ovens, o.ID())
	w.sess.OnOvenDestroyed(o.ID())
	w.log.Info().Str("actor", a.id).Str("oven", o.ID()).Msg("oven destroyed")
	res := succeeded()
	res.OvenID = o.ID()
	return res
}

func (w *World) opLoot(a *actor, op protocol.ActOp) protocol.ResultMsg {
	o := w.ovens[op.OvenID]
	if o == nil {
		return fail(protocol.ErrInvalidTarget, "oven not found")
	}
	if op.Open != nil && !*op.Open {
		if a.open == o.ID() {
			a.open = ""
			w.sess.OnLootEnd(a.id, o.ID())
		}
		return succeeded()
	}
	if a.open != "" && a.open != o.ID() {
		w.sess.OnLootEnd(a.id, a.open)
	}
	a.open = o.ID()
	w.sess.OnLoot(a.id, o)
	o.MarkDirty()
	res := succeeded()
	res.OvenID = o.ID()
	return res
}

// openOven resolves the oven a MOVE/TAKE addresses; it must be the one the
// actor is looking into.
func (w *World) openOven(a *actor, ovenID string) (*Oven, *protocol.ResultMsg) {
	o := w.ovens[ovenID]
	if o == nil {
		r := fail(protocol.ErrInvalidTarget, "oven not found")
		return nil, &r
	}
	if a.open != o.ID() {
		r := fail(protocol.ErrInvalidTarget, "oven not open")
		return nil, &r
	}
	return o, nil
}

func (w *World) opMove(a *actor, op protocol.ActOp) protocol.ResultMsg {
	o, bad := w.openOven(a, op.OvenID)
	if bad != nil {
		return *bad
	}
	if _, has := a.inv.Slot(op.FromSlot); !has {
		return fail(protocol.ErrBadRequest, "empty source slot")
	}

	res := succeeded()
	res.OvenID = o.ID()
	switch w.sess.OnMove(session.Move{ActorID: a.id, Source: a.inv, SourceIndex: op.FromSlot, Target: o}) {
	case session.Handled:
		res.Result = protocol.ResultHandled
	case session.Blocked:
		res.Result = protocol.ResultBlocked
		res.Code = protocol.ErrBlocked
	default:
		if err := w.defaultMove(a.inv, op.FromSlot, o.Slots, op.ToSlot); err != nil {
			return fail(protocol.ErrBlocked, err.Error())
		}
		res.Result = protocol.ResultNotHandled
	}
	return res
}

func (w *World) opTake(a *actor, op protocol.ActOp) protocol.ResultMsg {
	o, bad := w.openOven(a, op.OvenID)
	if bad != nil {
		return *bad
	}
	s, has := o.Slot(op.FromSlot)
	if !has {
		return fail(protocol.ErrBadRequest, "empty source slot")
	}
	// Taking out of an oven is never split; the call keeps the display fresh.
	w.sess.OnMove(session.Move{ActorID: a.id, Source: o, SourceIndex: op.FromSlot, SourceOven: o})

	left := a.inv.add(s.Item, s.Amount, w.cats.Items.Defs[s.Item].StackSize)
	if left == s.Amount {
		return fail(protocol.ErrBlocked, "inventory full")
	}
	if err := o.SetAmount(op.FromSlot, left); err != nil {
		w.log.Error().Err(err).Str("oven", o.ID()).Int("slot", op.FromSlot).Msg("take")
		return fail(protocol.ErrInternal, err.Error())
	}
	o.MarkDirty()
	res := succeeded()
	res.OvenID = o.ID()
	return res
}

// defaultMove is the host's own move: the whole stack into slot to, merging
// with a stack of the same item up to its stack size.
func (w *World) defaultMove(src *Slots, from int, dst *Slots, to int) error {
	s, has := src.Slot(from)
	if !has {
		return errors.New("empty source slot")
	}
	if to < 0 || to >= dst.Capacity() {
		return fmt.Errorf("slot %d out of range", to)
	}
	stackSize := w.cats.Items.Defs[s.Item].StackSize
	moved := s.Amount
	if cur, occupied := dst.Slot(to); occupied {
		if cur.Item != s.Item {
			return fmt.Errorf("slot %d holds %s", to, cur.Item)
		}
		moved = min(s.Amount, stackSize-cur.Amount)
		if moved <= 0 {
			return fmt.Errorf("slot %d full", to)
		}
		if err := dst.SetAmount(to, cur.Amount+moved); err != nil {
			return err
		}
	} else if err := dst.Place(to, s); err != nil {
		return err
	}
	if err := src.SetAmount(from, s.Amount-moved); err != nil {
		return err
	}
	src.MarkDirty()
	dst.MarkDirty()
	return nil
}

func (w *World) opToggle(op protocol.ActOp) protocol.ResultMsg {
	o := w.ovens[op.OvenID]
	if o == nil {
		return fail(protocol.ErrInvalidTarget, "oven not found")
	}
	if !o.on && !o.hasFuel() {
		return fail(protocol.ErrBlocked, "no fuel")
	}
	o.on = !o.on
	o.MarkDirty()
	w.sess.OnToggle(o)
	res := succeeded()
	res.OvenID = o.ID()
	if o.on {
		res.Message = "on"
	} else {
		res.Message = "off"
	}
	return res
}

func (w *World) opSetEnabled(a *actor, op protocol.ActOp) protocol.ResultMsg {
	if op.Enabled != nil {
		if err := w.sess.SetEnabled(a.id, *op.Enabled); err != nil {
			return sessionFail(err)
		}
	}
	enabled, err := w.sess.Enabled(a.id)
	if err != nil {
		return sessionFail(err)
	}
	res := succeeded()
	res.Enabled = &enabled
	return res
}

func (w *World) opSetTotalStacks(a *actor, op protocol.ActOp) protocol.ResultMsg {
	var (
		n   int
		err error
	)
	if op.Value != nil {
		n, err = w.sess.SetTotalStacks(a.id, *op.Value)
	} else {
		n, err = w.sess.TotalStacks(a.id)
	}
	if err != nil {
		return sessionFail(err)
	}
	res := succeeded()
	res.Value = &n
	return res
}

func sessionFail(err error) protocol.ResultMsg {
	switch {
	case errors.Is(err, session.ErrUnknownActor):
		return fail(protocol.ErrUnknownActor, err.Error())
	case errors.Is(err, session.ErrNoLootSource):
		return fail(protocol.ErrNoLootSource, err.Error())
	case errors.Is(err, session.ErrUnsupportedOven):
		return fail(protocol.ErrUnsupported, err.Error())
	default:
		return fail(protocol.ErrInternal, err.Error())
	}
}
