package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"furnacesplit.ai/internal/metrics"
	persistlog "furnacesplit.ai/internal/persistence/log"
	"furnacesplit.ai/internal/persistence/optionsdb"
	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/catalogs"
	"furnacesplit.ai/internal/sim/tuning"
	"furnacesplit.ai/internal/sim/world"
)

// newServedWorld places one filled furnace, starts the loop and serves the router.
func newServedWorld(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	require.NoError(t, err)
	tune := tuning.Defaults()
	tune.StarterItems = map[string]int{"metal.ore": 250}

	reg := prometheus.NewRegistry()
	w, err := world.New(tune, cats, world.Deps{Logger: zerolog.Nop(), Metrics: metrics.NewPrometheus(reg, "")})
	require.NoError(t, err)

	out := make(chan []byte, 256)
	resp := make(chan world.JoinResponse, 1)
	w.StepOnce([]world.JoinRequest{{ActorID: "A1", Out: out, Resp: resp}}, nil, nil)
	require.Empty(t, (<-resp).Code)

	act := func(ops ...protocol.ActOp) protocol.ResultMsg {
		w.StepOnce(nil, nil, []world.ActionEnvelope{{ActorID: "A1", Act: protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Ops: ops}}})
		var last protocol.ResultMsg
		for len(out) > 0 {
			b := <-out
			if base, _ := protocol.DecodeBase(b); base.Type == protocol.TypeResult {
				require.NoError(t, json.Unmarshal(b, &last))
			}
		}
		return last
	}
	ovenID := act(protocol.ActOp{Op: protocol.OpPlaceOven, Kind: "furnace"}).OvenID
	act(protocol.ActOp{Op: protocol.OpLoot, OvenID: ovenID})
	require.Equal(t, protocol.ResultHandled, act(protocol.ActOp{Op: protocol.OpMove, OvenID: ovenID}).Result)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	srv := httptest.NewServer(newRouter(w, reg, zerolog.Nop()))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, ovenID
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func TestRouter_Estimate(t *testing.T) {
	srv, ovenID := newServedWorld(t)

	code, body := get(t, srv.URL+"/v1/ovens/"+ovenID+"/estimate")
	require.Equal(t, http.StatusOK, code)
	var view world.OvenView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, 630.0, view.Estimate.ETASeconds)
	require.Equal(t, 252.0, view.Estimate.FuelNeeded)
	require.Equal(t, "10m30s", view.ETAText)

	code, _ = get(t, srv.URL+"/v1/ovens/FURNACE@9,9,9/estimate")
	require.Equal(t, http.StatusNotFound, code)

	code, body = get(t, srv.URL+"/v1/ovens/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), ovenID)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newServedWorld(t)

	code, body := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", string(body))

	code, body = get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `furnacesplit_split_attempts_total{result="handled"} 1`)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		auditActor, auditOven = "", ""
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestAuditCommand_Filters(t *testing.T) {
	dir := t.TempDir()
	l := persistlog.NewAuditLogger(dir)
	require.NoError(t, l.WriteSplit(persistlog.SplitAudit{AttemptID: "a", Actor: "A1", Oven: "FURNACE@1,0,0", Moved: 250}))
	require.NoError(t, l.WriteSplit(persistlog.SplitAudit{AttemptID: "b", Actor: "A2", Oven: "FURNACE@1,0,0", Moved: 10}))
	require.NoError(t, l.Close())

	got := execute(t, "audit", "--data", dir, "--actor", "A2")
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 1)
	var rec persistlog.SplitAudit
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "b", rec.AttemptID)
}

func TestOptionsCommand_Lists(t *testing.T) {
	dir := t.TempDir()
	store, err := optionsdb.Open(filepath.Join(dir, "options.sqlite"))
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), optionsdb.Record{
		ActorID: "A1", Enabled: true, TotalStacks: map[string]int{"furnace": 4, "campfire": 2},
	}))
	require.NoError(t, store.Close())

	got := execute(t, "options", "--data", dir)
	require.Contains(t, got, "ACTOR")
	require.Contains(t, got, "campfire=2 furnace=4")
}

func TestBot_FillPutsFuelFirst(t *testing.T) {
	botFuel = "wood"
	b := &bot{ovenID: "FURNACE@1,0,0", inventory: []protocol.SlotObs{
		{Slot: 0, Item: "metal.ore", Count: 600},
		{Slot: 1, Item: "sulfur.ore", Count: 400},
		{Slot: 2, Item: "wood", Count: 500},
	}}
	ops := b.fill()
	require.Len(t, ops, 5)
	require.Equal(t, protocol.OpLoot, ops[0].Op)
	require.Equal(t, protocol.ActOp{ID: "fuel", Op: protocol.OpMove, OvenID: "FURNACE@1,0,0", FromSlot: 2, ToSlot: 0}, ops[1])
	require.Equal(t, 0, ops[2].FromSlot)
	require.Equal(t, 1, ops[3].FromSlot)
	require.Equal(t, protocol.OpToggle, ops[4].Op)
}
