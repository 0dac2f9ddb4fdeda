package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kondapalli/db"
	"kondapalli/utils"
)

// CounterStore is an atomic named sequence.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Init(ctx context.Context, key string, value int64) error
}

type dayCounter interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// Sequencer hands out order numbers of the form KO<YYMMDD><NNN>, where NNN
// restarts at 001 every local day.
type Sequencer struct {
	counters CounterStore
	orders   dayCounter
	loc      *time.Location
	now      func() time.Time
}

func NewSequencer(counters CounterStore, orders dayCounter, loc *time.Location) *Sequencer {
	return &Sequencer{counters: counters, orders: orders, loc: loc, now: time.Now}
}

func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("KO%s%03d", day.Format("060102"), seq)
}

// Next reserves the next number for today. A day's counter is seeded from
// the orders already stored for that day, so the first number issued is
// always the day's order count plus one.
func (s *Sequencer) Next(ctx context.Context) (string, error) {
	now := s.now().In(s.loc)
	key := "orders:" + now.Format("060102")

	seq, err := s.counters.Increment(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		start, end := utils.DayBounds(now, s.loc)
		count, cerr := s.orders.CountCreatedBetween(ctx, start, end)
		if cerr != nil {
			return "", fmt.Errorf("count today's orders: %w", cerr)
		}
		if ierr := s.counters.Init(ctx, key, count); ierr != nil {
			return "", fmt.Errorf("seed counter %s: %w", key, ierr)
		}
		seq, err = s.counters.Increment(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("increment counter %s: %w", key, err)
	}
	return FormatOrderNumber(now, seq), nil
}
