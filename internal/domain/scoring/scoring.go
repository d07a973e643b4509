// Package scoring implements the weekly attendance scoring policy.
//
// Each attendance event contributes slotWeight * timingAdjustment to the
// member's weekly total. The policy is a pure function of its inputs:
// identical event sets always produce identical scores, which is what makes
// weekly recomputation idempotent.
package scoring

import (
	"context"
	"fmt"
	"time"
)

// Default policy constants, overridable via options.
const (
	defaultGrace      = 10 * time.Minute
	defaultDecay      = 60 * time.Minute
	defaultDecayFloor = 0.4
)

// Event abstracts the attendance fields the policy needs.
type Event struct {
	SlotType    string
	ScheduledAt time.Time
	ArrivedAt   time.Time
}

// Policy scores one member's events for one week.
type Policy interface {
	// Score returns the weekly total for the given events. The slice may
	// be empty; absence scores zero. An unknown slot type is a
	// configuration error, never a silent zero.
	Score(ctx context.Context, events []Event) (float64, error)
}

// Option applies a configuration option to the WeightedPolicy.
type Option func(*WeightedPolicy)

// WithSlotWeights sets the base weight per slot type.
func WithSlotWeights(weights map[string]float64) Option {
	return func(p *WeightedPolicy) {
		p.slotWeights = make(map[string]float64, len(weights))
		for slot, w := range weights {
			if w >= 0 {
				p.slotWeights[slot] = w
			}
		}
	}
}

// WithGrace sets the lateness allowance with no penalty.
func WithGrace(grace time.Duration) Option {
	return func(p *WeightedPolicy) {
		if grace >= 0 {
			p.grace = grace
		}
	}
}

// WithDecay sets the window past the grace threshold over which the timing
// multiplier decays linearly from 1 to the floor.
func WithDecay(decay time.Duration) Option {
	return func(p *WeightedPolicy) {
		if decay > 0 {
			p.decay = decay
		}
	}
}

// WithDecayFloor sets the minimum timing multiplier, clamped to [0,1].
func WithDecayFloor(floor float64) Option {
	return func(p *WeightedPolicy) {
		if floor >= 0 && floor <= 1 {
			p.floor = floor
		}
	}
}

// WeightedPolicy implements Policy with configured slot weights and a
// linear lateness decay.
type WeightedPolicy struct {
	slotWeights map[string]float64
	grace       time.Duration
	decay       time.Duration
	floor       float64
}

// NewWeightedPolicy creates a policy with the given options.
func NewWeightedPolicy(opts ...Option) *WeightedPolicy {
	p := &WeightedPolicy{
		slotWeights: make(map[string]float64),
		grace:       defaultGrace,
		decay:       defaultDecay,
		floor:       defaultDecayFloor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Score computes the weekly total for one member.
func (p *WeightedPolicy) Score(ctx context.Context, events []Event) (float64, error) {
	var total float64
	for _, ev := range events {
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("scoring cancelled: %w", ctx.Err())
		default:
		}

		weight, ok := p.slotWeights[ev.SlotType]
		if !ok {
			return 0, fmt.Errorf("%w: slot type %q", ErrMissingWeight, ev.SlotType)
		}
		total += weight * p.timingAdjustment(ev.ArrivedAt, ev.ScheduledAt)
	}
	return total, nil
}

// timingAdjustment is monotonically non-increasing in lateness: 1 inside the
// grace window, then a linear ramp down to the floor over the decay window.
func (p *WeightedPolicy) timingAdjustment(arrived, scheduled time.Time) float64 {
	late := arrived.Sub(scheduled)
	if late <= p.grace {
		return 1
	}
	over := late - p.grace
	if over >= p.decay {
		return p.floor
	}
	frac := float64(over) / float64(p.decay)
	return 1 - frac*(1-p.floor)
}
