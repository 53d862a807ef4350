package world

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"furnacesplit.ai/internal/protocol"
)

func (w *World) handleJoin(req JoinRequest) {
	var resp JoinResponse
	defer func() {
		if req.Resp == nil {
			return
		}
		select {
		case req.Resp <- resp:
		default:
		}
	}()

	id := strings.TrimSpace(req.ActorID)
	if id == "" || strings.ContainsAny(id, "@, ") {
		resp.Code, resp.Message = protocol.ErrBadRequest, "invalid actor_id"
		return
	}
	a := w.actors[id]
	if a.online() {
		resp.Code, resp.Message = protocol.ErrConflict, "actor already connected"
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}
	if a == nil {
		a = w.newActor(id, name)
		w.actors[id] = a
	}
	a.name = name
	a.out = req.Out
	a.inv.MarkDirty()

	if err := w.sess.InitActor(context.Background(), id); err != nil {
		w.log.Warn().Err(err).Str("actor", id).Msg("options load failed, using defaults")
	}
	w.log.Info().Str("actor", id).Str("name", name).Msg("actor joined")

	resp.Welcome = protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		ActorID:         id,
		InventoryID:     a.inv.ID(),
		TickRateHz:      w.tune.TickRateHz,
		OvenKinds:       w.cats.Ovens.Kinds,
		Catalogs: protocol.CatalogDigests{
			ItemsDigest: w.cats.Items.Digest,
			OvensDigest: w.cats.Ovens.Digest,
		},
	}
}

func (w *World) handleLeave(id string) {
	a := w.actors[id]
	if a == nil {
		return
	}
	a.out = nil
	a.open = ""
	w.sess.OnActorLeft(id)
	w.log.Info().Str("actor", id).Msg("actor left")
}
