package session

import (
	"slices"

	"furnacesplit.ai/internal/sim/estimate"
)

// OnLoot registers actorID as looking into oven. An actor has at most one
// oven open; opening another one closes the previous.
func (s *Session) OnLoot(actorID string, oven Oven) {
	if oven == nil || !s.tune.Compatible(oven.Kind()) {
		return
	}
	if prev, ok := s.looting[actorID]; ok && prev.ovenID != oven.ID() {
		s.OnLootEnd(actorID, prev.ovenID)
	}
	id := oven.ID()
	if !slices.Contains(s.looters[id], actorID) {
		s.looters[id] = append(s.looters[id], actorID)
	}
	s.looting[actorID] = lootSource{ovenID: id, kind: oven.Kind(), capacity: oven.Capacity()}
	s.push(id)
}

// OnLootEnd unregisters actorID from ovenID and hides its display.
func (s *Session) OnLootEnd(actorID, ovenID string) {
	if src, ok := s.looting[actorID]; ok && src.ovenID == ovenID {
		delete(s.looting, actorID)
	}
	list, ok := s.looters[ovenID]
	if !ok {
		return
	}
	if i := slices.Index(list, actorID); i >= 0 {
		list = slices.Delete(list, i, i+1)
		if s.display != nil {
			s.display.HideOven(actorID, ovenID)
		}
	}
	if len(list) == 0 {
		delete(s.looters, ovenID)
	} else {
		s.looters[ovenID] = list
	}
}

func (s *Session) OnToggle(oven Oven)      { s.queueIfCompatible(oven) }
func (s *Session) OnConsumeFuel(oven Oven) { s.queueIfCompatible(oven) }

// OnOvenDestroyed drops every registry entry of ovenID.
func (s *Session) OnOvenDestroyed(ovenID string) {
	for _, actorID := range s.looters[ovenID] {
		if src, ok := s.looting[actorID]; ok && src.ovenID == ovenID {
			delete(s.looting, actorID)
		}
	}
	delete(s.looters, ovenID)
	s.queue = slices.DeleteFunc(s.queue, func(id string) bool { return id == ovenID })
}

// OnActorLeft closes the oven actorID had open. Options stay loaded until
// the next Save.
func (s *Session) OnActorLeft(actorID string) {
	if src, ok := s.looting[actorID]; ok {
		s.OnLootEnd(actorID, src.ovenID)
	}
}

// Looters returns the actors looking into ovenID in open order.
func (s *Session) Looters(ovenID string) []string {
	return slices.Clone(s.looters[ovenID])
}

// LootSource returns the oven actorID has open.
func (s *Session) LootSource(actorID string) (string, bool) {
	src, ok := s.looting[actorID]
	return src.ovenID, ok
}

// Queued returns the queued oven ids, next to drain first.
func (s *Session) Queued() []string {
	out := slices.Clone(s.queue)
	slices.Reverse(out)
	return out
}

func (s *Session) queueIfCompatible(oven Oven) {
	if oven == nil || !s.tune.Compatible(oven.Kind()) {
		return
	}
	s.push(oven.ID())
}

// push queues ovenID on top of the stack. An id already queued moves to the
// top instead of being queued twice.
func (s *Session) push(ovenID string) {
	if i := slices.Index(s.queue, ovenID); i >= 0 {
		s.queue = slices.Delete(s.queue, i, i+1)
	}
	s.queue = append(s.queue, ovenID)
}

func (s *Session) requeueLooted(actorID string) {
	if src, ok := s.looting[actorID]; ok && s.tune.Compatible(src.kind) {
		s.push(src.ovenID)
	}
}

// SetTick stamps subsequent audit records with tick.
func (s *Session) SetTick(tick uint64) { s.tick = tick }

// OnTick drains the recompute queue, most recently queued first. Ovens that
// no longer exist are dropped from the registry; looters that went offline
// are skipped.
func (s *Session) OnTick(lookup Lookup) {
	for len(s.queue) > 0 {
		id := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]

		oven, ok := lookup.Oven(id)
		if !ok {
			s.OnOvenDestroyed(id)
			continue
		}
		est := estimate.Compute(oven, s.mats)
		s.metrics.RecordEstimate()

		if s.display == nil {
			continue
		}
		for _, actorID := range s.looters[id] {
			opts, ok := s.options[actorID]
			if !ok || !lookup.ActorOnline(actorID) {
				continue
			}
			s.display.ShowOven(Display{
				ActorID:     actorID,
				OvenID:      id,
				Estimate:    est,
				TotalStacks: s.displayBudget(opts, oven),
				Enabled:     opts.Enabled,
				FuelItem:    oven.FuelItem(),
			})
		}
	}
}
