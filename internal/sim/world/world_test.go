package world

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"furnacesplit.ai/internal/persistence/optionsdb"
	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/catalogs"
	"furnacesplit.ai/internal/sim/tuning"
)

func newTestWorld(t *testing.T, deps Deps) *World {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	require.NoError(t, err)
	tune := tuning.Defaults()
	tune.StarterItems = map[string]int{"metal.ore": 250, "wood": 100}
	deps.Logger = zerolog.Nop()
	w, err := New(tune, cats, deps)
	require.NoError(t, err)
	return w
}

type client struct {
	t   *testing.T
	w   *World
	id  string
	out chan []byte
}

func join(t *testing.T, w *World, id string) *client {
	t.Helper()
	c := &client{t: t, w: w, id: id, out: make(chan []byte, 512)}
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{ActorID: id, Out: c.out, Resp: resp}}, nil, nil)
	r := <-resp
	require.Empty(t, r.Code, r.Message)
	require.Equal(t, id, r.Welcome.ActorID)
	return c
}

func (c *client) act(ops ...protocol.ActOp) {
	c.w.StepOnce(nil, nil, []ActionEnvelope{{ActorID: c.id, Act: protocol.ActMsg{
		Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Ops: ops,
	}}})
}

// drain returns every queued message as raw JSON keyed by type, in order.
func (c *client) drain() map[string][]json.RawMessage {
	out := map[string][]json.RawMessage{}
	for {
		select {
		case b := <-c.out:
			base, err := protocol.DecodeBase(b)
			require.NoError(c.t, err)
			out[base.Type] = append(out[base.Type], b)
		default:
			return out
		}
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func lastResult(t *testing.T, msgs map[string][]json.RawMessage) protocol.ResultMsg {
	t.Helper()
	rs := msgs[protocol.TypeResult]
	require.NotEmpty(t, rs)
	return decode[protocol.ResultMsg](t, rs[len(rs)-1])
}

func (c *client) placeAndOpen(kind string) string {
	c.act(protocol.ActOp{ID: "p", Op: protocol.OpPlaceOven, Kind: kind})
	res := lastResult(c.t, c.drain())
	require.Equal(c.t, protocol.ResultOK, res.Result, res.Message)
	c.act(protocol.ActOp{ID: "l", Op: protocol.OpLoot, OvenID: res.OvenID})
	c.drain()
	return res.OvenID
}

func amounts(o *Oven) []int {
	out := make([]int, o.Capacity())
	for i := range out {
		if s, ok := o.Slot(i); ok {
			out[i] = s.Amount
		}
	}
	return out
}

func TestJoin_SeedsInventoryAndPushesState(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")

	msgs := c.drain()
	require.Len(t, msgs[protocol.TypeState], 1)
	st := decode[protocol.StateMsg](t, msgs[protocol.TypeState][0])
	require.Equal(t, "INV@A1", st.ContainerID)
	require.Equal(t, []protocol.SlotObs{
		{Slot: 0, Item: "metal.ore", Count: 250},
		{Slot: 1, Item: "wood", Count: 100},
	}, st.Slots)
}

func TestJoin_RejectsDuplicateAndBadIDs(t *testing.T) {
	w := newTestWorld(t, Deps{})
	join(t, w, "A1")

	resp := make(chan JoinResponse, 2)
	w.StepOnce([]JoinRequest{
		{ActorID: "A1", Out: make(chan []byte, 1), Resp: resp},
		{ActorID: "bad@id", Out: make(chan []byte, 1), Resp: resp},
	}, nil, nil)
	require.Equal(t, protocol.ErrConflict, (<-resp).Code)
	require.Equal(t, protocol.ErrBadRequest, (<-resp).Code)
}

func TestMove_SplitsIntoFurnace(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	c.drain()
	ovenID := c.placeAndOpen("furnace")

	c.act(protocol.ActOp{ID: "m", Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID})
	msgs := c.drain()

	res := lastResult(t, msgs)
	require.Equal(t, protocol.ResultHandled, res.Result)
	require.Equal(t, []int{63, 63, 62, 62, 0, 0}, amounts(w.ovens[ovenID]))
	_, has := w.actors["A1"].inv.Slot(0)
	require.False(t, has)

	require.NotEmpty(t, msgs[protocol.TypeOvenInfo])
	info := decode[protocol.OvenInfoMsg](t, msgs[protocol.TypeOvenInfo][0])
	require.Equal(t, ovenID, info.OvenID)
	require.Equal(t, 630.0, info.ETASeconds)
	require.Equal(t, "10m30s", info.ETAText)
	require.Equal(t, 252.0, info.FuelNeeded)
	require.Equal(t, 4, info.TotalStacks)
	require.True(t, info.Enabled)

	// Inventory and oven both changed.
	require.Len(t, msgs[protocol.TypeState], 2)
}

func TestMove_FuelFallsBackToDefaultMove(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	c.drain()
	ovenID := c.placeAndOpen("furnace")

	c.act(protocol.ActOp{ID: "f", Op: protocol.OpMove, FromSlot: 1, OvenID: ovenID, ToSlot: 5})
	res := lastResult(t, c.drain())
	require.Equal(t, protocol.ResultNotHandled, res.Result)
	require.Equal(t, []int{0, 0, 0, 0, 0, 100}, amounts(w.ovens[ovenID]))
}

func TestMove_RequiresOpenOven(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	c.act(protocol.ActOp{Op: protocol.OpPlaceOven, Kind: "furnace"})
	ovenID := lastResult(t, c.drain()).OvenID

	c.act(protocol.ActOp{Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID})
	res := lastResult(t, c.drain())
	require.Equal(t, protocol.ResultError, res.Result)
	require.Equal(t, protocol.ErrInvalidTarget, res.Code)
}

func TestDisabledActorGetsDefaultMove(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("furnace")

	off := false
	c.act(
		protocol.ActOp{Op: protocol.OpSetEnabled, Enabled: &off},
		protocol.ActOp{Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID, ToSlot: 2},
	)
	res := lastResult(t, c.drain())
	require.Equal(t, protocol.ResultNotHandled, res.Result)
	require.Equal(t, []int{0, 0, 250, 0, 0, 0}, amounts(w.ovens[ovenID]))
}

func TestToggle_BurnsFuelAndCooks(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("furnace")

	c.act(protocol.ActOp{Op: protocol.OpToggle, OvenID: ovenID})
	res := lastResult(t, c.drain())
	require.Equal(t, protocol.ErrBlocked, res.Code)

	three := 3
	c.act(
		protocol.ActOp{Op: protocol.OpSetTotalStacks, Value: &three},
		protocol.ActOp{Op: protocol.OpMove, FromSlot: 1, OvenID: ovenID, ToSlot: 5},
		protocol.ActOp{Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID},
		protocol.ActOp{Op: protocol.OpToggle, OvenID: ovenID},
	)
	msgs := c.drain()
	require.Equal(t, "on", lastResult(t, msgs).Message)

	o := w.ovens[ovenID]
	require.True(t, o.On())
	// The first wood unit burns in the same tick; its charcoal takes the first free slot.
	require.Equal(t, []int{84, 83, 83, 1, 0, 99}, amounts(o))
	require.NotEmpty(t, msgs[protocol.TypeOvenInfo])

	// One ore unit per stack cooks every 10s (50 ticks at 5Hz).
	for range 50 {
		w.StepOnce(nil, nil, nil)
	}
	require.Equal(t, []int{83, 82, 82}, amounts(o)[:3])
	require.Equal(t, 3, o.count("metal.fragments"))
	require.Less(t, o.count("wood"), 99)
}

func TestTake_ReturnsStackToInventory(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("furnace")
	c.act(protocol.ActOp{Op: protocol.OpMove, FromSlot: 1, OvenID: ovenID, ToSlot: 3})
	c.drain()

	c.act(protocol.ActOp{Op: protocol.OpTake, OvenID: ovenID, FromSlot: 3})
	res := lastResult(t, c.drain())
	require.Equal(t, protocol.ResultOK, res.Result)
	require.Equal(t, make([]int, 6), amounts(w.ovens[ovenID]))
	require.Equal(t, 100, w.actors["A1"].inv.count("wood"))
}

func TestSetTotalStacks_NeedsLootSource(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")

	v := 3
	c.act(protocol.ActOp{Op: protocol.OpSetTotalStacks, Value: &v})
	require.Equal(t, protocol.ErrNoLootSource, lastResult(t, c.drain()).Code)

	c.placeAndOpen("furnace")
	v = 42
	c.act(protocol.ActOp{Op: protocol.OpSetTotalStacks, Value: &v})
	msgs := c.drain()
	res := lastResult(t, msgs)
	require.Equal(t, protocol.ResultOK, res.Result)
	require.Equal(t, 6, *res.Value)

	infos := msgs[protocol.TypeOvenInfo]
	require.NotEmpty(t, infos)
	require.Equal(t, 6, decode[protocol.OvenInfoMsg](t, infos[len(infos)-1]).TotalStacks)

	c.act(protocol.ActOp{Op: protocol.OpSetTotalStacks})
	require.Equal(t, 6, *lastResult(t, c.drain()).Value)
}

func TestBBQ_SplitsWithFallbackBudgetButHasNoPanel(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("bbq")

	c.act(protocol.ActOp{Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID, ToSlot: 5})
	msgs := c.drain()
	require.Equal(t, protocol.ResultHandled, lastResult(t, msgs).Result)
	require.Equal(t, []int{84, 83, 83, 0, 0, 0, 0, 0, 0, 0}, amounts(w.ovens[ovenID]))
	require.Empty(t, msgs[protocol.TypeOvenInfo])

	v := 2
	c.act(protocol.ActOp{Op: protocol.OpSetTotalStacks, Value: &v})
	require.Equal(t, protocol.ErrNoLootSource, lastResult(t, c.drain()).Code)
}

func TestDestroyOven_OwnerOnlyAndClosesLooters(t *testing.T) {
	w := newTestWorld(t, Deps{})
	owner := join(t, w, "A1")
	other := join(t, w, "A2")
	ovenID := owner.placeAndOpen("furnace")
	other.act(protocol.ActOp{Op: protocol.OpLoot, OvenID: ovenID})
	other.drain()

	other.act(protocol.ActOp{Op: protocol.OpDestroyOven, OvenID: ovenID})
	require.Equal(t, protocol.ErrNoPermission, lastResult(t, other.drain()).Code)

	owner.act(protocol.ActOp{Op: protocol.OpDestroyOven, OvenID: ovenID})
	require.Equal(t, protocol.ResultOK, lastResult(t, owner.drain()).Result)
	require.NotEmpty(t, other.drain()[protocol.TypeOvenClosed])
	require.Empty(t, w.sess.Looters(ovenID))
	_, exists := w.ovens[ovenID]
	require.False(t, exists)
}

func TestLeave_DropsLooter(t *testing.T) {
	w := newTestWorld(t, Deps{})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("furnace")
	require.Equal(t, []string{"A1"}, w.sess.Looters(ovenID))

	w.StepOnce(nil, []string{"A1"}, nil)
	require.Empty(t, w.sess.Looters(ovenID))
	require.False(t, w.ActorOnline("A1"))

	// Rejoining keeps the inventory.
	join(t, w, "A1")
	require.Equal(t, 250, w.actors["A1"].inv.count("metal.ore"))
}

func TestRun_AnswersEstimatesAndSavesOptionsOnExit(t *testing.T) {
	store, err := optionsdb.Open(filepath.Join(t.TempDir(), "options.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	w := newTestWorld(t, Deps{Store: store})
	c := join(t, w, "A1")
	ovenID := c.placeAndOpen("furnace")
	c.act(protocol.ActOp{Op: protocol.OpMove, FromSlot: 0, OvenID: ovenID})
	off := false
	c.act(protocol.ActOp{Op: protocol.OpSetEnabled, Enabled: &off})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	view, err := w.RequestEstimate(reqCtx, ovenID)
	require.NoError(t, err)
	require.Equal(t, "furnace", view.Kind)
	require.Equal(t, 630.0, view.Estimate.ETASeconds)
	require.Len(t, view.Slots, 4)

	_, err = w.RequestEstimate(reqCtx, "FURNACE@99,0,0")
	require.ErrorIs(t, err, ErrOvenNotFound)

	all, err := w.RequestOvens(reqCtx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	rec, ok, err := store.Load(context.Background(), "A1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, rec.Enabled)
	require.Equal(t, 4, rec.TotalStacks["furnace"])
}

func TestFail_UnknownCodeBecomesInternal(t *testing.T) {
	res := fail("E_NOPE", "boom")
	require.Equal(t, protocol.ErrInternal, res.Code)
	require.Equal(t, "E_NOPE: boom", res.Message)
	require.Equal(t, protocol.ErrBlocked, fail(protocol.ErrBlocked, "x").Code)
}
