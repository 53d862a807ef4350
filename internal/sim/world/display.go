package world

import (
	"context"
	"errors"
	"maps"
	"slices"

	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/estimate"
	"furnacesplit.ai/internal/sim/session"
)

// ShowOven implements session.DisplaySink.
func (w *World) ShowOven(d session.Display) {
	a := w.actors[d.ActorID]
	if !a.online() {
		return
	}
	w.send(a, protocol.OvenInfoMsg{
		Type:            protocol.TypeOvenInfo,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		OvenID:          d.OvenID,
		ETASeconds:      d.Estimate.ETASeconds,
		ETAText:         estimate.FormatETA(d.Estimate.ETASeconds),
		FuelNeeded:      d.Estimate.FuelNeeded,
		FuelItem:        d.FuelItem,
		TotalStacks:     d.TotalStacks,
		Enabled:         d.Enabled,
	})
}

// HideOven implements session.DisplaySink.
func (w *World) HideOven(actorID, ovenID string) {
	a := w.actors[actorID]
	if !a.online() {
		return
	}
	w.send(a, protocol.OvenClosedMsg{Type: protocol.TypeOvenClosed, ProtocolVersion: protocol.Version, OvenID: ovenID})
}

var ErrOvenNotFound = errors.New("oven not found")

// OvenView is a read-only snapshot of one oven.
type OvenView struct {
	OvenID      string             `json:"oven_id"`
	Kind        string             `json:"kind"`
	Owner       string             `json:"owner"`
	On          bool               `json:"on"`
	Temperature float64            `json:"temperature"`
	FuelItem    string             `json:"fuel_item"`
	Estimate    estimate.Estimate  `json:"estimate"`
	ETAText     string             `json:"eta_text"`
	Slots       []protocol.SlotObs `json:"slots"`
}

type estimateReq struct {
	OvenID string // empty lists every oven
	Resp   chan estimateResp
}

type estimateResp struct {
	Ovens []OvenView
	Err   error
}

// RequestEstimate returns the current estimate of one oven from the world loop goroutine.
func (w *World) RequestEstimate(ctx context.Context, ovenID string) (OvenView, error) {
	if ovenID == "" {
		return OvenView{}, ErrOvenNotFound
	}
	views, err := w.requestOvens(ctx, ovenID)
	if err != nil {
		return OvenView{}, err
	}
	return views[0], nil
}

// RequestOvens lists every oven ordered by id.
func (w *World) RequestOvens(ctx context.Context) ([]OvenView, error) {
	return w.requestOvens(ctx, "")
}

func (w *World) requestOvens(ctx context.Context, ovenID string) ([]OvenView, error) {
	req := estimateReq{OvenID: ovenID, Resp: make(chan estimateResp, 1)}
	select {
	case w.estimateReq <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp.Ovens, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *World) handleEstimateReq(req estimateReq) {
	resp := estimateResp{}
	defer func() {
		select {
		case req.Resp <- resp:
		default:
		}
	}()
	if req.OvenID != "" {
		o := w.ovens[req.OvenID]
		if o == nil {
			resp.Err = ErrOvenNotFound
			return
		}
		resp.Ovens = []OvenView{w.view(o)}
		return
	}
	resp.Ovens = []OvenView{}
	for _, id := range slices.Sorted(maps.Keys(w.ovens)) {
		resp.Ovens = append(resp.Ovens, w.view(w.ovens[id]))
	}
}

func (w *World) view(o *Oven) OvenView {
	est := estimate.Compute(o, w.cats)
	return OvenView{
		OvenID:      o.ID(),
		Kind:        o.Kind(),
		Owner:       o.owner,
		On:          o.on,
		Temperature: o.Temperature(),
		FuelItem:    o.FuelItem(),
		Estimate:    est,
		ETAText:     estimate.FormatETA(est.ETASeconds),
		Slots:       o.list(),
	}
}
