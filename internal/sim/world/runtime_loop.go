package world

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"time"

	"furnacesplit.ai/internal/protocol"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.saveOptions()

	w.log.Info().Int("tick_rate_hz", w.tune.TickRateHz).Msg("world loop started")

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case req := <-w.estimateReq:
			w.handleEstimateReq(req)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as Run. It must not be called while Run is active.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) uint64 {
	tick := w.tick.Load()
	w.step(joins, leaves, actions)
	return tick
}

// step applies one tick: joins, leaves and actions in arrival order, then
// cooking, the recompute drain, container state pushes and autosave.
func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	tick := w.tick.Load()
	w.sess.SetTick(tick)

	for _, req := range joins {
		w.handleJoin(req)
	}
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, env := range actions {
		w.applyAct(tick, env)
	}

	dt := 1.0 / float64(w.tune.TickRateHz)
	for _, id := range slices.Sorted(maps.Keys(w.ovens)) {
		o := w.ovens[id]
		if w.tickOven(o, dt) {
			w.sess.OnConsumeFuel(o)
		}
	}

	w.sess.OnTick(w)
	w.pushState(tick)

	if n := w.tune.AutosaveEveryTicks; n > 0 && tick > 0 && tick%uint64(n) == 0 {
		w.saveOptions()
		w.emitSnapshot()
	}
	w.tick.Add(1)
}

func (w *World) saveOptions() {
	if err := w.sess.Save(context.Background()); err != nil {
		w.log.Error().Err(err).Msg("save options")
	}
}

func (w *World) send(a *actor, v any) {
	if !a.online() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.log.Error().Err(err).Msg("marshal message")
		return
	}
	sendLatest(a.out, b)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

// pushState sends STATE for every dirty container: inventories to their
// owner, ovens to every actor looking into them.
func (w *World) pushState(tick uint64) {
	actorIDs := slices.Sorted(maps.Keys(w.actors))
	for _, id := range actorIDs {
		a := w.actors[id]
		if a.inv.dirty {
			w.send(a, w.stateMsg(tick, a.inv, ""))
			a.inv.dirty = false
		}
	}
	for _, id := range slices.Sorted(maps.Keys(w.ovens)) {
		o := w.ovens[id]
		if !o.dirty {
			continue
		}
		msg := w.stateMsg(tick, o.Slots, o.Kind())
		for _, aid := range actorIDs {
			if a := w.actors[aid]; a.open == id {
				w.send(a, msg)
			}
		}
		o.dirty = false
	}
}

func (w *World) stateMsg(tick uint64, c *Slots, kind string) protocol.StateMsg {
	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		ContainerID:     c.ID(),
		Kind:            kind,
		Slots:           c.list(),
	}
}
