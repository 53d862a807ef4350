// Package session owns the per-actor state around the splitter: options,
// the looter registry and the queue of ovens whose display needs a recompute.
//
// A Session is driven from the world loop goroutine and is not safe for
// concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/rs/zerolog"

	"furnacesplit.ai/internal/metrics"
	auditlog "furnacesplit.ai/internal/persistence/log"
	"furnacesplit.ai/internal/persistence/optionsdb"
	"furnacesplit.ai/internal/sim/estimate"
	"furnacesplit.ai/internal/sim/split"
	"furnacesplit.ai/internal/sim/tuning"
)

var (
	ErrUnknownActor    = errors.New("unknown actor")
	ErrUnsupportedOven = errors.New("unsupported oven")
	ErrNoLootSource    = errors.New("current loot source invalid")
)

// Oven is a split.Oven with a stable identity in the host world.
type Oven interface {
	split.Oven
	ID() string
}

// Options are the persisted splitter settings of one actor.
type Options struct {
	Enabled     bool
	TotalStacks map[string]int
}

func (o Options) clone() Options {
	return Options{Enabled: o.Enabled, TotalStacks: maps.Clone(o.TotalStacks)}
}

// Display is what an actor looking into an oven is shown.
type Display struct {
	ActorID     string
	OvenID      string
	Estimate    estimate.Estimate
	TotalStacks int
	Enabled     bool
	FuelItem    string
}

type DisplaySink interface {
	ShowOven(d Display)
	HideOven(actorID, ovenID string)
}

type OptionsStore interface {
	Load(ctx context.Context, actorID string) (optionsdb.Record, bool, error)
	Save(ctx context.Context, recs ...optionsdb.Record) error
}

type AuditSink interface {
	WriteSplit(rec auditlog.SplitAudit) error
}

// Lookup resolves ids still alive in the host world at drain time.
type Lookup interface {
	Oven(id string) (Oven, bool)
	ActorOnline(id string) bool
}

type Config struct {
	Tuning    tuning.Tuning
	Materials split.Materials

	// Optional collaborators.
	Store   OptionsStore
	Audit   AuditSink
	Display DisplaySink
	Metrics metrics.Collector

	Logger zerolog.Logger
}

// lootSource is what the registry remembers about an open oven.
type lootSource struct {
	ovenID   string
	kind     string
	capacity int
}

type Session struct {
	tune    tuning.Tuning
	mats    split.Materials
	store   OptionsStore
	audit   AuditSink
	display DisplaySink
	metrics metrics.Collector
	log     zerolog.Logger

	options map[string]*Options
	looters map[string][]string   // oven id -> actor ids in open order
	looting map[string]lootSource // actor id -> oven currently open
	queue   []string

	tick uint64
}

func New(cfg Config) *Session {
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	return &Session{
		tune:    cfg.Tuning,
		mats:    cfg.Materials,
		store:   cfg.Store,
		audit:   cfg.Audit,
		display: cfg.Display,
		metrics: m,
		log:     cfg.Logger.With().Str("component", "session").Logger(),
		options: map[string]*Options{},
		looters: map[string][]string{},
		looting: map[string]lootSource{},
	}
}

func (s *Session) defaultOptions() *Options {
	return &Options{Enabled: true, TotalStacks: maps.Clone(s.tune.DefaultTotalStacks)}
}

// InitActor makes actorID known, loading stored options or seeding defaults.
// A store failure still seeds defaults so the actor can play; the error is
// returned for the caller to report.
func (s *Session) InitActor(ctx context.Context, actorID string) error {
	if _, ok := s.options[actorID]; ok {
		return nil
	}
	if s.store == nil {
		s.options[actorID] = s.defaultOptions()
		return nil
	}
	rec, ok, err := s.store.Load(ctx, actorID)
	if err != nil || !ok {
		s.options[actorID] = s.defaultOptions()
		if err != nil {
			return fmt.Errorf("load options for %s: %w", actorID, err)
		}
		return nil
	}
	opts := &Options{Enabled: rec.Enabled, TotalStacks: rec.TotalStacks}
	if opts.TotalStacks == nil {
		opts.TotalStacks = map[string]int{}
	}
	s.options[actorID] = opts
	return nil
}

// Options returns a copy of the options of actorID.
func (s *Session) Options(actorID string) (Options, bool) {
	o, ok := s.options[actorID]
	if !ok {
		return Options{}, false
	}
	return o.clone(), true
}

func (s *Session) Enabled(actorID string) (bool, error) {
	o, ok := s.options[actorID]
	if !ok {
		return false, ErrUnknownActor
	}
	return o.Enabled, nil
}

func (s *Session) SetEnabled(actorID string, enabled bool) error {
	o, ok := s.options[actorID]
	if !ok {
		return ErrUnknownActor
	}
	o.Enabled = enabled
	s.requeueLooted(actorID)
	return nil
}

// TotalStacks returns the slot budget of actorID for the oven it has open.
func (s *Session) TotalStacks(actorID string) (int, error) {
	o, src, err := s.lootOption(actorID)
	if err != nil {
		return 0, err
	}
	return o.TotalStacks[src.kind], nil
}

// SetTotalStacks sets the slot budget for the kind of the oven actorID has
// open, clamped to [0, capacity]. It returns the stored value.
func (s *Session) SetTotalStacks(actorID string, n int) (int, error) {
	o, src, err := s.lootOption(actorID)
	if err != nil {
		return 0, err
	}
	n = max(0, min(n, src.capacity))
	o.TotalStacks[src.kind] = n
	s.requeueLooted(actorID)
	return n, nil
}

func (s *Session) lootOption(actorID string) (*Options, lootSource, error) {
	o, ok := s.options[actorID]
	if !ok {
		return nil, lootSource{}, ErrUnknownActor
	}
	src, ok := s.looting[actorID]
	if !ok || !s.tune.Compatible(src.kind) {
		return nil, lootSource{}, ErrNoLootSource
	}
	if _, ok := o.TotalStacks[src.kind]; !ok {
		return nil, lootSource{}, fmt.Errorf("%w %q", ErrUnsupportedOven, src.kind)
	}
	return o, src, nil
}

// Save writes the options of every known actor to the store.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil || len(s.options) == 0 {
		return nil
	}
	ids := make([]string, 0, len(s.options))
	for id := range s.options {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recs := make([]optionsdb.Record, 0, len(ids))
	for _, id := range ids {
		o := s.options[id]
		recs = append(recs, optionsdb.Record{ActorID: id, Enabled: o.Enabled, TotalStacks: maps.Clone(o.TotalStacks)})
	}
	if err := s.store.Save(ctx, recs...); err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	return nil
}

// planBudget is the slot budget used when splitting into oven.
func (s *Session) planBudget(o *Options, oven split.Oven) int {
	if n, ok := o.TotalStacks[oven.Kind()]; ok {
		return n
	}
	n := 2
	if oven.AllowsByproduct() {
		n++
	}
	return n
}

// displayBudget is the slot budget shown for oven.
func (s *Session) displayBudget(o *Options, oven split.Oven) int {
	if n, ok := o.TotalStacks[oven.Kind()]; ok {
		return n
	}
	if oven.AllowsByproduct() {
		return oven.Capacity() - 1
	}
	return oven.Capacity() - 2
}
