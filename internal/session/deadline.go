package session

import "time"

// deadline is a cancellable timer token. A fired callback receives its own token so it
// can check, under the owner's lock, that it was not replaced in the meantime.
type deadline struct {
	timer *time.Timer
}

func afterFunc(after time.Duration, fn func(d *deadline)) *deadline {
	d := &deadline{}
	d.timer = time.AfterFunc(after, func() { fn(d) })
	return d
}

func (d *deadline) Cancel() {
	if d != nil {
		d.timer.Stop()
	}
}
