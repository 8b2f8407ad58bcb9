package capturesvc

import "time"

// Debouncer tracks a trailing-edge debounce with a max-wait ceiling.
// It holds no timer; callers ask for the deadline and schedule their own.
type Debouncer struct {
	wait    time.Duration
	maxWait time.Duration

	pending bool
	first   time.Time
	last    time.Time
}

func NewDebouncer(wait, maxWait time.Duration) Debouncer {
	return Debouncer{wait: wait, maxWait: maxWait}
}

// Call records an input at now.
func (d *Debouncer) Call(now time.Time) {
	if !d.pending {
		d.pending = true
		d.first = now
	}
	d.last = now
}

func (d *Debouncer) Pending() bool {
	return d.pending
}

// Deadline is the time a pending call fires: wait after the last call, but no later than
// maxWait after the first one. A non-positive maxWait disables the ceiling.
func (d *Debouncer) Deadline() (time.Time, bool) {
	if !d.pending {
		return time.Time{}, false
	}
	deadline := d.last.Add(d.wait)
	if d.maxWait > 0 {
		if ceiling := d.first.Add(d.maxWait); ceiling.Before(deadline) {
			deadline = ceiling
		}
	}
	return deadline, true
}

func (d *Debouncer) Due(now time.Time) bool {
	deadline, ok := d.Deadline()
	return ok && !now.Before(deadline)
}

func (d *Debouncer) Cancel() {
	d.pending = false
	d.first = time.Time{}
	d.last = time.Time{}
}

func (d *Debouncer) SetTimings(wait, maxWait time.Duration) {
	d.wait = wait
	d.maxWait = maxWait
}
