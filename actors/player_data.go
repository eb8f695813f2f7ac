package actors

import "time"

// PlayerData is the per-client streaming extension: how many actors the
// client currently holds, shared across every actor.
type PlayerData struct {
	numStreamed int
	lastStream  time.Time
}

func (d *PlayerData) Increment() {
	d.numStreamed++
}

func (d *PlayerData) Decrement() {
	d.numStreamed--
}

func (d *PlayerData) Count() int {
	return d.numStreamed
}

func (d *PlayerData) Reset() {
	d.numStreamed = 0
	d.lastStream = time.Time{}
}

// due reports whether the proximity check for this client should run at now.
func (d *PlayerData) due(now time.Time, rate time.Duration) bool {
	if !d.lastStream.IsZero() && now.Sub(d.lastStream) < rate {
		return false
	}
	d.lastStream = now
	return true
}
