// Package world hosts ovens and actor inventories in a deterministic,
// single-goroutine tick loop and routes actor moves through the splitter
// session.
package world

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"furnacesplit.ai/internal/metrics"
	"furnacesplit.ai/internal/persistence/snapshot"
	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/catalogs"
	"furnacesplit.ai/internal/sim/session"
	"furnacesplit.ai/internal/sim/tuning"
	"furnacesplit.ai/internal/sim/world/logic/ids"
)

// Deps are the optional collaborators handed to the splitter session.
type Deps struct {
	Store   session.OptionsStore
	Audit   session.AuditSink
	Metrics metrics.Collector
	Logger  zerolog.Logger
}

type JoinRequest struct {
	ActorID string
	Name    string
	Out     chan []byte
	Resp    chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Code    string
	Message string
}

type ActionEnvelope struct {
	ActorID string
	Act     protocol.ActMsg
}

type actor struct {
	id   string
	name string
	inv  *Slots
	out  chan []byte // nil while offline
	open string      // oven the actor is looking into
}

func (a *actor) online() bool { return a != nil && a.out != nil }

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	tune tuning.Tuning
	cats *catalogs.Catalogs
	sess *session.Session
	log  zerolog.Logger

	tick atomic.Uint64

	actors      map[string]*actor
	ovens       map[string]*Oven
	nextOvenNum int

	inbox       chan ActionEnvelope
	join        chan JoinRequest
	leave       chan string
	estimateReq chan estimateReq
	stop        chan struct{}
	stopOnce    sync.Once

	snapshotSink chan<- snapshot.SnapshotV1
}

func New(tune tuning.Tuning, cats *catalogs.Catalogs, deps Deps) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	if err := tune.Validate(); err != nil {
		return nil, err
	}
	for _, kind := range tune.CompatibleOvens {
		if _, ok := cats.Ovens.Defs[kind]; !ok {
			return nil, fmt.Errorf("compatible oven %q missing from oven catalog", kind)
		}
	}
	for item := range tune.StarterItems {
		if _, ok := cats.Items.Defs[item]; !ok {
			return nil, fmt.Errorf("starter item %q missing from item catalog", item)
		}
	}

	w := &World{
		tune:        tune,
		cats:        cats,
		log:         deps.Logger.With().Str("component", "world").Logger(),
		actors:      map[string]*actor{},
		ovens:       map[string]*Oven{},
		inbox:       make(chan ActionEnvelope, 1024),
		join:        make(chan JoinRequest, 64),
		leave:       make(chan string, 64),
		estimateReq: make(chan estimateReq, 64),
		stop:        make(chan struct{}),
	}
	w.sess = session.New(session.Config{
		Tuning:    tune,
		Materials: cats,
		Store:     deps.Store,
		Audit:     deps.Audit,
		Display:   w,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})
	return w, nil
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) TickRateHz() int     { return w.tune.TickRateHz }

// Oven implements session.Lookup.
func (w *World) Oven(id string) (session.Oven, bool) {
	o, ok := w.ovens[id]
	if !ok {
		return nil, false
	}
	return o, true
}

// ActorOnline implements session.Lookup.
func (w *World) ActorOnline(id string) bool { return w.actors[id].online() }

func (w *World) newActor(id, name string) *actor {
	a := &actor{id: id, name: name, inv: newSlots(ids.InventoryID(id), w.tune.ActorInventorySlots)}
	for _, item := range slices.Sorted(maps.Keys(w.tune.StarterItems)) {
		a.inv.add(item, w.tune.StarterItems[item], w.cats.Items.Defs[item].StackSize)
	}
	return a
}

func (w *World) placeOvenAt(kind, owner string) (*Oven, error) {
	def, ok := w.cats.Ovens.Defs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown oven kind %q", kind)
	}
	w.nextOvenNum++
	o := newOven(ids.OvenID(kind, w.nextOvenNum, 0, 0), def, owner)
	w.ovens[o.ID()] = o
	return o, nil
}
