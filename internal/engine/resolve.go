package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Mode selects how duplicate groups are resolved.
type Mode int

const (
	ModeDryRun Mode = iota
	ModeBatchConfirm
	ModeInteractive
)

var modeNames = [...]string{
	ModeDryRun:       "dry-run",
	ModeBatchConfirm: "batch-confirm",
	ModeInteractive:  "interactive",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// ChoiceKind distinguishes the per-group answers in interactive mode.
type ChoiceKind int

const (
	ChoiceKeep ChoiceKind = iota
	ChoiceSkip
	ChoiceAbort
)

// Choice is a chooser's answer for one group.
type Choice struct {
	Kind  ChoiceKind
	Index int // member to keep, for ChoiceKeep
}

// Keep keeps group member i and deletes the rest.
func Keep(i int) Choice { return Choice{Kind: ChoiceKeep, Index: i} }

// Skip leaves every member of the group in place.
func Skip() Choice { return Choice{Kind: ChoiceSkip} }

// Abort stops processing the remaining groups.
func Abort() Choice { return Choice{Kind: ChoiceAbort} }

// ErrInvalidKeeper is returned by NewDecision for an out-of-range index.
var ErrInvalidKeeper = errors.New("keeper index out of range")

// Decision is a finalized resolution for one group. The zero value is not
// valid; use NewDecision.
type Decision struct {
	Group  DuplicateGroup
	Delete []int
	Keeper int
}

// NewDecision keeps member keeper of g and marks every other member for
// deletion. The keeper is never in the delete set.
func NewDecision(g DuplicateGroup, keeper int) (Decision, error) {
	if keeper < 0 || keeper >= len(g.Files) {
		return Decision{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidKeeper, keeper, len(g.Files))
	}
	del := make([]int, 0, len(g.Files)-1)
	for i := range g.Files {
		if i != keeper {
			del = append(del, i)
		}
	}
	g.Keeper = keeper
	return Decision{Group: g, Keeper: keeper, Delete: del}, nil
}

// Preview is the aggregate shown for a batch confirmation. Files counts
// every name to be removed, hardlink names included.
type Preview struct {
	Decisions []Decision
	Groups    int
	Files     int
	Bytes     int64
}

func newPreview(decisions []Decision) Preview {
	p := Preview{Decisions: decisions, Groups: len(decisions)}
	for _, d := range decisions {
		for _, idx := range d.Delete {
			p.Files += 1 + len(d.Group.Files[idx].Links)
		}
		p.Bytes += d.Group.Size * int64(len(d.Delete))
	}
	return p
}

// Confirmer answers the single yes/no question of batch-confirm mode.
type Confirmer interface {
	Confirm(ctx context.Context, p Preview) (bool, error)
}

// Chooser answers the per-group question of interactive mode. pos is
// 1-based. An error is treated as an abort.
type Chooser interface {
	Choose(ctx context.Context, g DuplicateGroup, pos, total int) (Choice, error)
}

// ResolverConfig controls the resolution stage.
type ResolverConfig struct {
	Confirmer Confirmer // required for ModeBatchConfirm
	Chooser   Chooser   // required for ModeInteractive
	Deleter   *Deleter
	Mode      Mode
}

// Resolver turns duplicate groups into decisions and, outside dry-run,
// hands them to the deleter. It runs on a single goroutine.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver validates cfg and returns a resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	switch cfg.Mode {
	case ModeDryRun:
	case ModeBatchConfirm:
		if cfg.Confirmer == nil {
			return nil, errors.New("batch-confirm mode needs a confirmer")
		}
	case ModeInteractive:
		if cfg.Chooser == nil {
			return nil, errors.New("interactive mode needs a chooser")
		}
	default:
		return nil, fmt.Errorf("unknown mode %d", cfg.Mode)
	}
	if cfg.Mode != ModeDryRun && cfg.Deleter == nil {
		cfg.Deleter = NewDeleter(DeleterConfig{})
	}
	return &Resolver{cfg: cfg}, nil
}

// Resolve processes groups in order and records every outcome in rep.
func (r *Resolver) Resolve(ctx context.Context, groups []DuplicateGroup, rep *RunReport) {
	switch r.cfg.Mode {
	case ModeDryRun:
		for _, g := range groups {
			rep.addUndecided(g, StatusWouldDelete)
		}
	case ModeBatchConfirm:
		r.resolveBatch(ctx, groups, rep)
	case ModeInteractive:
		r.resolveInteractive(ctx, groups, rep)
	}
}

func (r *Resolver) resolveBatch(ctx context.Context, groups []DuplicateGroup, rep *RunReport) {
	decisions := make([]Decision, len(groups))
	for i, g := range groups {
		// The grouper's keeper is always in range.
		decisions[i], _ = NewDecision(g, g.Keeper)
	}
	if len(decisions) == 0 {
		return
	}

	ok, err := r.cfg.Confirmer.Confirm(ctx, newPreview(decisions))
	if err != nil || !ok {
		if err != nil {
			rep.Aborted = true
			rep.AbortReason = err.Error()
		} else {
			rep.Declined = true
		}
		slog.Debug("batch deletion not confirmed", "groups", len(decisions), "err", err)
		for _, d := range decisions {
			rep.addPlan(d, StatusDeclined)
		}
		return
	}

	for i, d := range decisions {
		if err := ctx.Err(); err != nil {
			r.abortRemaining(rep, groups[i:], err.Error())
			return
		}
		rep.addOutcome(r.cfg.Deleter.Apply(d))
	}
}

func (r *Resolver) resolveInteractive(ctx context.Context, groups []DuplicateGroup, rep *RunReport) {
	total := len(groups)
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			r.abortRemaining(rep, groups[i:], err.Error())
			return
		}

		dec, choice, err := r.choose(ctx, g, i+1, total)
		if err != nil {
			r.abortRemaining(rep, groups[i:], err.Error())
			return
		}

		switch choice.Kind {
		case ChoiceSkip:
			rep.addUndecided(g, StatusSkipped)
		case ChoiceAbort:
			r.abortRemaining(rep, groups[i:], "aborted by user")
			return
		default:
			rep.addOutcome(r.cfg.Deleter.Apply(dec))
		}
	}
}

// choose asks until the chooser returns a usable answer. An out-of-range
// keeper is asked again rather than replaced with the default.
func (r *Resolver) choose(ctx context.Context, g DuplicateGroup, pos, total int) (Decision, Choice, error) {
	for {
		choice, err := r.cfg.Chooser.Choose(ctx, g, pos, total)
		if err != nil {
			return Decision{}, Choice{}, err
		}
		switch choice.Kind {
		case ChoiceSkip, ChoiceAbort:
			return Decision{}, choice, nil
		case ChoiceKeep:
			dec, err := NewDecision(g, choice.Index)
			if err == nil {
				return dec, choice, nil
			}
			slog.Debug("invalid keeper choice", "group", pos, "index", choice.Index)
		default:
			slog.Debug("invalid choice kind", "group", pos, "kind", choice.Kind)
		}
		if err := ctx.Err(); err != nil {
			return Decision{}, Choice{}, err
		}
	}
}

func (r *Resolver) abortRemaining(rep *RunReport, remaining []DuplicateGroup, reason string) {
	rep.Aborted = true
	rep.AbortReason = reason
	for _, g := range remaining {
		rep.addUndecided(g, StatusPending)
	}
}
