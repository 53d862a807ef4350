package session

import (
	"context"
	"errors"
	"fmt"
	"maps"

	auditlog "furnacesplit.ai/internal/persistence/log"
	"furnacesplit.ai/internal/persistence/optionsdb"
	"furnacesplit.ai/internal/sim/split"
)

type testMaterials map[string]split.Material

func (m testMaterials) Material(id string) (split.Material, bool) {
	mat, ok := m[id]
	return mat, ok
}

func materials() testMaterials {
	return testMaterials{
		"metal.ore": {ID: "metal.ore", StackSize: 100, Cook: &split.Cookable{CookTime: 5, LowTemp: 100, HighTemp: 1200, Becomes: "metal.fragments"}},
		"meat.raw":  {ID: "meat.raw", StackSize: 20, Cook: &split.Cookable{CookTime: 30, LowTemp: 100, HighTemp: 400, Becomes: "meat.cooked"}},
		"wood": {ID: "wood", StackSize: 1000, Cook: &split.Cookable{CookTime: 10, LowTemp: 1200, HighTemp: 1500, Becomes: "charcoal"},
			Burn: &split.Burnable{FuelAmount: 1, Byproduct: "charcoal"}},
		"charcoal":        {ID: "charcoal", StackSize: 1000},
		"metal.fragments": {ID: "metal.fragments", StackSize: 1000},
		"stone":           {ID: "stone", StackSize: 1000},
	}
}

type slots []*split.Stack

func (s slots) Capacity() int { return len(s) }

func (s slots) Slot(i int) (split.Stack, bool) {
	if i < 0 || i >= len(s) || s[i] == nil {
		return split.Stack{}, false
	}
	return *s[i], true
}

func (s slots) amounts() []int {
	out := make([]int, len(s))
	for i, st := range s {
		if st != nil {
			out[i] = st.Amount
		}
	}
	return out
}

type testInventory struct {
	slots
	dirty int
}

func newInventory(capacity int) *testInventory {
	return &testInventory{slots: make(slots, capacity)}
}

func (inv *testInventory) put(i int, item string, n int) *testInventory {
	inv.slots[i] = &split.Stack{Item: item, Amount: n, Position: i}
	return inv
}

func (inv *testInventory) Place(i int, st split.Stack) error {
	if inv.slots[i] != nil {
		return fmt.Errorf("slot %d occupied", i)
	}
	inv.slots[i] = &st
	return nil
}

func (inv *testInventory) SetAmount(i, n int) error {
	if inv.slots[i] == nil {
		return fmt.Errorf("slot %d empty", i)
	}
	inv.slots[i].Amount = n
	return nil
}

func (inv *testInventory) Remove(i int) error {
	inv.slots[i] = nil
	return nil
}

func (inv *testInventory) MarkDirty() { inv.dirty++ }

type testOven struct {
	testInventory
	id        string
	kind      string
	temp      float64
	byproduct bool
	failPlace bool
}

func newOven(id, kind string, capacity int) *testOven {
	return &testOven{
		testInventory: testInventory{slots: make(slots, capacity)},
		id:            id,
		kind:          kind,
		temp:          800,
		byproduct:     true,
	}
}

func (o *testOven) Place(i int, st split.Stack) error {
	if o.failPlace {
		return errors.New("container full")
	}
	return o.testInventory.Place(i, st)
}

func (o *testOven) ID() string            { return o.id }
func (o *testOven) Kind() string          { return o.kind }
func (o *testOven) Temperature() float64  { return o.temp }
func (o *testOven) FuelItem() string      { return "wood" }
func (o *testOven) AllowsByproduct() bool { return o.byproduct }

type hidden struct{ actor, oven string }

type recordingDisplay struct {
	shown  []Display
	hidden []hidden
}

func (d *recordingDisplay) ShowOven(v Display) { d.shown = append(d.shown, v) }
func (d *recordingDisplay) HideOven(actorID, ovenID string) {
	d.hidden = append(d.hidden, hidden{actorID, ovenID})
}

type memoryStore struct {
	recs    map[string]optionsdb.Record
	saved   []optionsdb.Record
	loadErr error
}

func (m *memoryStore) Load(_ context.Context, id string) (optionsdb.Record, bool, error) {
	if m.loadErr != nil {
		return optionsdb.Record{}, false, m.loadErr
	}
	r, ok := m.recs[id]
	r.TotalStacks = maps.Clone(r.TotalStacks)
	return r, ok, nil
}

func (m *memoryStore) Save(_ context.Context, recs ...optionsdb.Record) error {
	m.saved = append(m.saved, recs...)
	return nil
}

type recordingAudit struct{ recs []auditlog.SplitAudit }

func (a *recordingAudit) WriteSplit(r auditlog.SplitAudit) error {
	a.recs = append(a.recs, r)
	return nil
}

type countingMetrics struct {
	results   []string
	estimates int
}

func (c *countingMetrics) RecordSplit(result string, _ int, _ int) {
	c.results = append(c.results, result)
}
func (c *countingMetrics) RecordEstimate() { c.estimates++ }

type world struct {
	ovens   map[string]Oven
	offline map[string]bool
}

func newWorld(ovens ...Oven) *world {
	w := &world{ovens: map[string]Oven{}, offline: map[string]bool{}}
	for _, o := range ovens {
		w.ovens[o.ID()] = o
	}
	return w
}

func (w *world) Oven(id string) (Oven, bool) {
	o, ok := w.ovens[id]
	return o, ok
}

func (w *world) ActorOnline(id string) bool { return !w.offline[id] }
