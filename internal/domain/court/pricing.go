package court

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRuleGap means the requested interval straddles a rule boundary:
	// partial pricing is never applied.
	ErrRuleGap = errors.New("requested interval straddles a price rule boundary")
	// ErrNoPriceRule means no rule touches the requested interval at all.
	ErrNoPriceRule = errors.New("no price rule covers the requested interval")
)

// TieBreak selects the winner when a tenant has configured overlapping
// price rules for the same weekday. The data model permits overlap (rules
// are edited live); resolution stays deterministic either way.
type TieBreak int

const (
	// TieBreakEarliestCreated picks the rule with the earliest CreatedAt,
	// lowest ID on equal timestamps. This is the default.
	TieBreakEarliestCreated TieBreak = iota
	// TieBreakLatestCreated picks the most recently created rule instead,
	// for tenants that treat newer rules as overrides.
	TieBreakLatestCreated
)

// Quote is a resolved price/deposit pair, snapshotted onto bookings at
// creation time.
type Quote struct {
	Price   int64
	Deposit int64
	RuleID  string
}

// ResolvePrice maps a requested [start, end) on a court to the applicable
// price and deposit. The interval must already be expressed in the
// tenant's local wall-clock: day is the weekday of the requested start,
// minutes are since local midnight. The interval must lie entirely within
// a single rule's band; straddling a boundary fails with ErrRuleGap.
// Pure: no side effects, deterministic for a given rule set and tie-break.
func ResolvePrice(rules []PriceRule, day time.Weekday, startMinute, endMinute int, tieBreak TieBreak) (Quote, error) {
	if startMinute < 0 || endMinute > minutesPerDay || startMinute >= endMinute {
		return Quote{}, fmt.Errorf("invalid requested interval [%d,%d)", startMinute, endMinute)
	}

	var winner *PriceRule
	touched := false
	for i := range rules {
		rule := rules[i]
		if !rule.ActiveOn(day) {
			continue
		}
		if rule.StartMinute < endMinute && startMinute < rule.EndMinute {
			touched = true
		}
		if rule.StartMinute > startMinute || endMinute > rule.EndMinute {
			continue
		}
		if winner == nil || wins(rule, *winner, tieBreak) {
			winner = &rules[i]
		}
	}

	if winner == nil {
		if touched {
			return Quote{}, fmt.Errorf("%w: [%d,%d) on %s", ErrRuleGap, startMinute, endMinute, day)
		}
		return Quote{}, fmt.Errorf("%w: [%d,%d) on %s", ErrNoPriceRule, startMinute, endMinute, day)
	}

	return Quote{Price: winner.Price, Deposit: winner.Deposit, RuleID: winner.ID}, nil
}

func wins(candidate, current PriceRule, tieBreak TieBreak) bool {
	switch tieBreak {
	case TieBreakLatestCreated:
		if !candidate.CreatedAt.Equal(current.CreatedAt) {
			return candidate.CreatedAt.After(current.CreatedAt)
		}
	default:
		if !candidate.CreatedAt.Equal(current.CreatedAt) {
			return candidate.CreatedAt.Before(current.CreatedAt)
		}
	}

	return candidate.ID < current.ID
}
