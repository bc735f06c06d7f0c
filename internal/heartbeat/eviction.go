package heartbeat

import "time"

// EvictionPolicy selects registry entries to forget.
type EvictionPolicy interface {
	ShouldEvict(status Status, now time.Time) bool
}

type inactiveAfter time.Duration

// EvictInactiveAfter forgets instances that are inactive and silent for longer than d.
func EvictInactiveAfter(d time.Duration) EvictionPolicy {
	return inactiveAfter(d)
}

func (p inactiveAfter) ShouldEvict(status Status, now time.Time) bool {
	return !status.Active && now.Sub(status.LastSentAt) > time.Duration(p)
}
