package session

import (
	"github.com/google/uuid"

	"furnacesplit.ai/internal/metrics"
	auditlog "furnacesplit.ai/internal/persistence/log"
	"furnacesplit.ai/internal/sim/split"
)

type MoveResult int

const (
	// NotHandled leaves the move to the host's default behaviour.
	NotHandled MoveResult = iota
	// Handled means the splitter performed the move (possibly as a no-op).
	Handled
	// Blocked means the move must not happen at all.
	Blocked
)

func (r MoveResult) String() string {
	switch r {
	case Handled:
		return "HANDLED"
	case Blocked:
		return "BLOCKED"
	default:
		return "NOT_HANDLED"
	}
}

// Move is one actor attempt to move a stack into a container slot.
type Move struct {
	ActorID     string
	Source      split.Inventory
	SourceIndex int
	// SourceOven is set when the stack leaves an oven.
	SourceOven Oven
	// Target is nil when the destination is not an oven.
	Target Oven
	// TargetIsSourceRoot is set when the stack stays in its own container.
	TargetIsSourceRoot bool
}

// OnMove intercepts a move. When the actor has splitting enabled and the
// target oven can process the stack, the stack is spread over the actor's
// slot budget and Handled is returned. Any oven kind is split; only compatible
// kinds are queued for a display recompute.
func (s *Session) OnMove(m Move) MoveResult {
	defer s.queueMoveOven(m)

	if m.Target == nil {
		return NotHandled
	}
	return s.split(m)
}

func (s *Session) queueMoveOven(m Move) {
	switch {
	case m.Target != nil:
		s.queueIfCompatible(m.Target)
	case m.SourceOven != nil:
		s.queueIfCompatible(m.SourceOven)
	}
}

func (s *Session) split(m Move) MoveResult {
	opts, ok := s.options[m.ActorID]
	if !ok || !opts.Enabled {
		return NotHandled
	}
	if m.TargetIsSourceRoot || m.Source == nil {
		return s.declined()
	}
	stack, ok := m.Source.Slot(m.SourceIndex)
	if !ok {
		return s.declined()
	}
	mat, ok := s.mats.Material(stack.Item)
	if !ok || mat.Cook == nil || !mat.Cook.CanCook(m.Target.Temperature()) {
		return s.declined()
	}

	req := split.Request{
		Source:      m.Source,
		SourceIndex: m.SourceIndex,
		Stack:       stack,
		Target:      m.Target,
		SlotBudget:  s.planBudget(opts, m.Target),
	}
	plan := split.BuildPlan(req, s.mats)
	moved, err := split.Execute(plan, req)

	result := metrics.ResultHandled
	switch {
	case err != nil:
		result = metrics.ResultBlocked
	case plan.Partial:
		result = metrics.ResultPartial
	case plan.Empty():
		result = metrics.ResultNoop
	}
	s.metrics.RecordSplit(result, plan.SlotCount, moved)

	after, _ := m.Source.Slot(m.SourceIndex)
	s.writeAudit(m, req, plan, moved, after.Amount, err)

	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("actor", m.ActorID).
		Str("oven", m.Target.ID()).
		Str("item", stack.Item).
		Int("amount", stack.Amount).
		Int("budget", req.SlotBudget).
		Int("slots", plan.SlotCount).
		Int("moved", moved).
		Str("result", result).
		Msg("split")

	if err != nil {
		return Blocked
	}
	return Handled
}

func (s *Session) declined() MoveResult {
	s.metrics.RecordSplit(metrics.ResultNotHandled, 0, 0)
	return NotHandled
}

func (s *Session) writeAudit(m Move, req split.Request, plan split.Plan, moved, sourceAfter int, execErr error) {
	if s.audit == nil {
		return
	}
	rec := auditlog.SplitAudit{
		AttemptID:    uuid.NewString(),
		Tick:         s.tick,
		Actor:        m.ActorID,
		Oven:         m.Target.ID(),
		OvenKind:     m.Target.Kind(),
		Item:         req.Stack.Item,
		SourceBefore: req.Stack.Amount,
		SlotBudget:   req.SlotBudget,
		SlotCount:    plan.SlotCount,
		ExistingSum:  plan.ExistingSum,
		Total:        plan.Total,
		Base:         plan.Base,
		Remainder:    plan.Remainder,
		Partial:      plan.Partial,
		Moved:        moved,
		SourceAfter:  sourceAfter,
	}
	for _, e := range plan.Entries {
		ae := auditlog.AuditEntry{Slot: e.Index, Delta: e.Delta}
		if e.Existing != nil {
			ae.Existing = e.Existing.Amount
		}
		rec.Entries = append(rec.Entries, ae)
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	if err := s.audit.WriteSplit(rec); err != nil {
		s.log.Error().Err(err).Str("attempt", rec.AttemptID).Msg("write split audit")
	}
}
