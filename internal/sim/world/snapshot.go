package world

import (
	"fmt"
	"maps"
	"slices"

	"furnacesplit.ai/internal/persistence/snapshot"
	"furnacesplit.ai/internal/sim/split"
	"furnacesplit.ai/internal/sim/world/logic/ids"
)

func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

// ExportSnapshot captures ovens and inventories. It must run on the world
// goroutine or while the loop is stopped.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:      snapshot.Header{Version: snapshot.Version, Tick: w.tick.Load()},
		TickRate:    w.tune.TickRateHz,
		NextOvenNum: w.nextOvenNum,
	}
	for _, id := range slices.Sorted(maps.Keys(w.actors)) {
		a := w.actors[id]
		snap.Actors = append(snap.Actors, snapshot.ActorV1{ID: a.id, Name: a.name, Slots: exportSlots(a.inv)})
	}
	for _, id := range slices.Sorted(maps.Keys(w.ovens)) {
		o := w.ovens[id]
		progress := make([]float64, len(o.cook))
		for i, st := range o.cook {
			progress[i] = st.progress
		}
		snap.Ovens = append(snap.Ovens, snapshot.OvenV1{
			ID:       o.ID(),
			Kind:     o.Kind(),
			Owner:    o.owner,
			On:       o.on,
			BurnLeft: o.burnLeft,
			Slots:    exportSlots(o.Slots),
			Progress: progress,
		})
	}
	return snap
}

func exportSlots(c *Slots) []snapshot.SlotV1 {
	var out []snapshot.SlotV1
	for i, s := range c.slots {
		if s == nil {
			continue
		}
		out = append(out, snapshot.SlotV1{Slot: i, Item: s.Item, Amount: s.Amount, Skin: s.Skin})
	}
	return out
}

// ImportSnapshot replaces the world state. Call it before Run; restored
// actors start offline.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	actors := map[string]*actor{}
	for _, av := range snap.Actors {
		a := &actor{id: av.ID, name: av.Name, inv: newSlots(ids.InventoryID(av.ID), w.tune.ActorInventorySlots)}
		if err := w.importSlots(a.inv, av.Slots); err != nil {
			return fmt.Errorf("actor %s: %w", av.ID, err)
		}
		actors[a.id] = a
	}
	ovens := map[string]*Oven{}
	for _, ov := range snap.Ovens {
		def, ok := w.cats.Ovens.Defs[ov.Kind]
		if !ok {
			return fmt.Errorf("oven %s: unknown kind %q", ov.ID, ov.Kind)
		}
		o := newOven(ov.ID, def, ov.Owner)
		o.on = ov.On
		o.burnLeft = ov.BurnLeft
		if err := w.importSlots(o.Slots, ov.Slots); err != nil {
			return fmt.Errorf("oven %s: %w", ov.ID, err)
		}
		for i, p := range ov.Progress {
			if s, has := o.Slot(i); has && i < len(o.cook) {
				o.cook[i] = cookState{item: s.Item, progress: p}
			}
		}
		ovens[o.ID()] = o
	}

	w.actors = actors
	w.ovens = ovens
	w.nextOvenNum = snap.NextOvenNum
	w.tick.Store(snap.Header.Tick)
	return nil
}

func (w *World) importSlots(c *Slots, slots []snapshot.SlotV1) error {
	for _, s := range slots {
		if _, ok := w.cats.Items.Defs[s.Item]; !ok {
			return fmt.Errorf("slot %d: unknown item %q", s.Slot, s.Item)
		}
		if err := c.Place(s.Slot, split.Stack{Item: s.Item, Amount: s.Amount, Skin: s.Skin}); err != nil {
			return err
		}
	}
	return nil
}

// emitSnapshot hands a snapshot to the sink without stalling the tick.
func (w *World) emitSnapshot() {
	if w.snapshotSink == nil {
		return
	}
	select {
	case w.snapshotSink <- w.ExportSnapshot():
	default:
		w.log.Warn().Uint64("tick", w.tick.Load()).Msg("snapshot sink busy, skipped")
	}
}
