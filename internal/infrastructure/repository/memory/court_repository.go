package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtsync/booking/internal/domain/court"
)

type CourtRepository struct {
	mu     sync.RWMutex
	items  map[string]court.Court
	orders []string
	rules  map[string][]court.PriceRule
}

func NewCourtRepository(courts []court.Court, rules []court.PriceRule) *CourtRepository {
	items := make(map[string]court.Court, len(courts))
	orders := make([]string, 0, len(courts))
	for _, c := range courts {
		items[c.ID] = cloneCourt(c)
		orders = append(orders, c.ID)
	}

	byCourt := make(map[string][]court.PriceRule)
	for _, rule := range rules {
		byCourt[rule.CourtID] = append(byCourt[rule.CourtID], cloneRule(rule))
	}

	return &CourtRepository{
		items:  items,
		orders: orders,
		rules:  byCourt,
	}
}

func (r *CourtRepository) GetByID(_ context.Context, courtID string) (court.Court, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[courtID]
	if !ok {
		return court.Court{}, false, nil
	}

	return cloneCourt(c), true, nil
}

func (r *CourtRepository) ListByComplex(_ context.Context, complexID string) ([]court.Court, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]court.Court, 0, len(r.orders))
	for _, id := range r.orders {
		if c := r.items[id]; c.ComplexID == complexID {
			out = append(out, cloneCourt(c))
		}
	}

	return out, nil
}

func (r *CourtRepository) ListPriceRules(_ context.Context, courtID string) ([]court.PriceRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := r.rules[courtID]
	out := make([]court.PriceRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, cloneRule(rule))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

// ReplacePriceRules swaps the rule set of a court. Used by tests to
// exercise snapshot immutability under live rule edits.
func (r *CourtRepository) ReplacePriceRules(courtID string, rules []court.PriceRule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]court.PriceRule, 0, len(rules))
	for _, rule := range rules {
		next = append(next, cloneRule(rule))
	}
	r.rules[courtID] = next
}

func cloneCourt(c court.Court) court.Court {
	out := c
	out.Schedule = make(court.Schedule, len(c.Schedule))
	for day, intervals := range c.Schedule {
		out.Schedule[day] = append([]court.OpenInterval(nil), intervals...)
	}

	return out
}

func cloneRule(rule court.PriceRule) court.PriceRule {
	out := rule
	out.Weekdays = append([]time.Weekday(nil), rule.Weekdays...)

	return out
}
