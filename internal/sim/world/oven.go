package world

import (
	"furnacesplit.ai/internal/sim/catalogs"
	"furnacesplit.ai/internal/sim/estimate"
	"furnacesplit.ai/internal/sim/session"
)

// Oven is a placed processing container.
type Oven struct {
	*Slots
	def   catalogs.OvenDef
	owner string

	on       bool
	burnLeft float64 // seconds left on the fuel unit being burned
	cook     []cookState
}

type cookState struct {
	item     string
	progress float64
}

var _ session.Oven = (*Oven)(nil)

func newOven(id string, def catalogs.OvenDef, owner string) *Oven {
	return &Oven{
		Slots: newSlots(id, def.Capacity),
		def:   def,
		owner: owner,
		cook:  make([]cookState, def.Capacity),
	}
}

func (o *Oven) Kind() string          { return o.def.Kind }
func (o *Oven) Temperature() float64  { return o.def.Temperature }
func (o *Oven) FuelItem() string      { return o.def.FuelItem }
func (o *Oven) AllowsByproduct() bool { return o.def.AllowByproduct }
func (o *Oven) On() bool              { return o.on }
func (o *Oven) Owner() string         { return o.owner }

func (o *Oven) hasFuel() bool {
	return o.burnLeft > 0 || o.count(o.def.FuelItem) > 0
}

// tickOven advances a lit oven by dt seconds: it burns fuel when the current
// unit is spent and cooks every stack whose temperature range covers the
// oven. It reports whether a fuel unit was consumed.
func (w *World) tickOven(o *Oven, dt float64) bool {
	if !o.on {
		return false
	}
	consumed := false
	if o.burnLeft <= 0 {
		if !w.burnFuel(o) {
			o.on = false
			o.MarkDirty()
			return false
		}
		consumed = true
	}
	o.burnLeft -= dt

	temp := o.Temperature()
	for i := range o.slots {
		st := &o.cook[i]
		s := o.slots[i]
		if s == nil {
			*st = cookState{}
			continue
		}
		if st.item != s.Item {
			*st = cookState{item: s.Item}
		}
		if s.Item == o.def.FuelItem {
			continue
		}
		def, ok := w.cats.Items.Defs[s.Item]
		if !ok || def.Cookable == nil {
			continue
		}
		c := def.Cookable
		if temp < c.LowTemp || temp > c.HighTemp {
			continue
		}
		out := max(c.Amount, 1)
		outSize := w.cats.Items.Defs[c.Becomes].StackSize

		st.progress += dt
		for st.progress >= c.CookTime {
			if o.room(c.Becomes, outSize) < out {
				st.progress = c.CookTime
				break
			}
			st.progress -= c.CookTime
			if err := o.SetAmount(i, s.Amount-1); err != nil {
				w.log.Error().Err(err).Str("oven", o.ID()).Int("slot", i).Msg("cook")
				break
			}
			o.add(c.Becomes, out, outSize)
			o.MarkDirty()
			if o.slots[i] == nil || o.slots[i].Item != st.item {
				break
			}
		}
	}
	return consumed
}

// burnFuel consumes one fuel unit and yields its byproduct.
func (w *World) burnFuel(o *Oven) bool {
	fuel, ok := w.cats.Items.Defs[o.def.FuelItem]
	if !ok || fuel.Burnable == nil || !o.takeOne(fuel.ID) {
		return false
	}
	temp := max(o.Temperature(), 1)
	o.burnLeft += fuel.Burnable.FuelAmount * estimate.ReferenceTemperature / temp

	if o.def.AllowByproduct && fuel.Burnable.Byproduct != "" {
		by := w.cats.Items.Defs[fuel.Burnable.Byproduct]
		// Byproduct that does not fit is lost.
		o.add(by.ID, max(fuel.Burnable.ByproductAmount, 1), by.StackSize)
	}
	o.MarkDirty()
	return true
}
