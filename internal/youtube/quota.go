package youtube

import (
	"fmt"
	"sync"
	"time"

	"github.com/adilhusain01/campayn/internal/model"
)

const dateLayout = "2006-01-02"

// QuotaTracker accounts weighted call units against a daily ceiling.
//
// The counter resets lazily: every Reserve and Status call compares the
// current date in loc with the stored one. Units are reserved before a
// request and only committed once the provider answers, so concurrent
// callers can never overspend the budget between check and increment.
type QuotaTracker struct {
	mu        sync.Mutex
	limit     int
	used      int
	reserved  int
	requests  int
	resetDate string
	loc       *time.Location
	now       func() time.Time
}

// NewQuotaTracker creates a tracker with the given daily limit. A nil loc
// means UTC and a nil now means time.Now.
func NewQuotaTracker(limit int, loc *time.Location, now func() time.Time) *QuotaTracker {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	q := &QuotaTracker{limit: limit, loc: loc, now: now}
	q.resetDate = q.today()
	return q
}

func (q *QuotaTracker) today() string {
	return q.now().In(q.loc).Format(dateLayout)
}

// rollover must be called with mu held.
func (q *QuotaTracker) rollover() {
	if today := q.today(); today != q.resetDate {
		q.used = 0
		q.requests = 0
		q.resetDate = today
	}
}

// Reservation holds quota units for one in-flight request.
type Reservation struct {
	q    *QuotaTracker
	cost int
	once sync.Once
}

// Reserve claims cost units or fails with ErrQuotaExceeded.
func (q *QuotaTracker) Reserve(cost int) (*Reservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.used+q.reserved+cost > q.limit {
		return nil, fmt.Errorf("%w: used %d/%d, cost %d", ErrQuotaExceeded, q.used+q.reserved, q.limit, cost)
	}
	q.reserved += cost
	return &Reservation{q: q, cost: cost}, nil
}

// Commit moves the reserved units into the used counter.
func (r *Reservation) Commit() {
	r.once.Do(func() {
		r.q.mu.Lock()
		r.q.reserved -= r.cost
		r.q.used += r.cost
		r.q.requests++
		r.q.mu.Unlock()
	})
}

// Release returns the reserved units unused. No-op after Commit.
func (r *Reservation) Release() {
	r.once.Do(func() {
		r.q.mu.Lock()
		r.q.reserved -= r.cost
		r.q.mu.Unlock()
	})
}

// Status returns a snapshot of today's consumption.
func (q *QuotaTracker) Status() model.QuotaStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	pct := 0
	if q.limit > 0 {
		pct = int(float64(q.used)/float64(q.limit)*100 + 0.5)
	}
	return model.QuotaStatus{
		Used:          q.used,
		Limit:         q.limit,
		Remaining:     q.limit - q.used,
		Percentage:    pct,
		RequestsToday: q.requests,
		ResetDate:     q.resetDate,
	}
}
