package rate

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// DefaultCooldown is how long a method stays hidden after a failed tariff.
const DefaultCooldown = 5 * time.Minute

// UnavailableNotice is shown once per session while FANBox is cooling down.
const UnavailableNotice = "Serviciul FANBox este temporar indisponibil. Vă rugăm să alegeți o altă metodă de livrare."

// Health remembers which methods are cooling down after remote failures.
// Entries expire on their own, so a method heals without intervention.
type Health struct {
	degraded *ttlcache.Cache[string, time.Time]
	cooldown time.Duration
}

// NewHealth creates a tracker with the given cooldown.
func NewHealth(cooldown time.Duration) *Health {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Health{
		degraded: ttlcache.New[string, time.Time](
			ttlcache.WithTTL[string, time.Time](cooldown),
			ttlcache.WithDisableTouchOnHit[string, time.Time](),
		),
		cooldown: cooldown,
	}
}

// Degraded reports whether the method is cooling down.
func (h *Health) Degraded(methodID string) bool {
	return h.degraded.Get(methodID) != nil
}

// MarkDegraded starts (or restarts) the cooldown. It reports whether the
// method was healthy before.
func (h *Health) MarkDegraded(methodID string) bool {
	wasHealthy := !h.Degraded(methodID)
	h.degraded.Set(methodID, time.Now(), h.cooldown)
	return wasHealthy
}

// Restore ends the cooldown early.
func (h *Health) Restore(methodID string) {
	h.degraded.Delete(methodID)
}

// sessionTTL bounds how long per-session notice state is kept.
const sessionTTL = 24 * time.Hour

type noticeState struct {
	shown   bool
	pending []shipper.Notice
}

// Notices queues one-off shopper notices per checkout session.
type Notices struct {
	mu       sync.Mutex
	sessions *ttlcache.Cache[string, noticeState]
}

// NewNotices creates an empty notice board.
func NewNotices() *Notices {
	return &Notices{
		sessions: ttlcache.New[string, noticeState](ttlcache.WithTTL[string, noticeState](sessionTTL)),
	}
}

// Raise queues n for the session unless a notice was already shown to it.
func (n *Notices) Raise(session string, notice shipper.Notice) {
	if session == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	st := n.load(session)
	if st.shown {
		return
	}
	st.shown = true
	st.pending = append(st.pending, notice)
	n.sessions.Set(session, st, ttlcache.DefaultTTL)
}

// Take returns and clears the queued notices of the session.
func (n *Notices) Take(session string) []shipper.Notice {
	if session == "" {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	st := n.load(session)
	if len(st.pending) == 0 {
		return nil
	}
	out := st.pending
	st.pending = nil
	n.sessions.Set(session, st, ttlcache.DefaultTTL)
	return out
}

// Reset allows the session to be notified again.
func (n *Notices) Reset(session string) {
	if session == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sessions.Delete(session)
}

func (n *Notices) load(session string) noticeState {
	if item := n.sessions.Get(session); item != nil {
		return item.Value()
	}
	return noticeState{}
}
