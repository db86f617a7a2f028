package monitor

import (
	"sync"
	"time"
)

// DecisionPoint is one decision cycle as plotted by the decision chart.
type DecisionPoint struct {
	Time      time.Time `json:"time"`
	Turn      float64   `json:"turn"`
	Speed     float64   `json:"speed"`
	SpeedMult float64   `json:"speed_mult"`
}

// DecisionRing is a fixed-capacity ring buffer of recent decisions. Writers
// are the reactor loop; readers are chart handlers.
type DecisionRing struct {
	mu     sync.Mutex
	points []DecisionPoint
	next   int
	full   bool
}

// NewDecisionRing creates a ring holding up to capacity points.
func NewDecisionRing(capacity int) *DecisionRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &DecisionRing{points: make([]DecisionPoint, capacity)}
}

// Add appends a point, evicting the oldest when full.
func (r *DecisionRing) Add(p DecisionPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[r.next] = p
	r.next = (r.next + 1) % len(r.points)
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the buffered points oldest-first.
func (r *DecisionRing) Snapshot() []DecisionPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]DecisionPoint, r.next)
		copy(out, r.points[:r.next])
		return out
	}

	out := make([]DecisionPoint, 0, len(r.points))
	out = append(out, r.points[r.next:]...)
	out = append(out, r.points[:r.next]...)
	return out
}

// Len returns the number of buffered points.
func (r *DecisionRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.points)
	}
	return r.next
}
