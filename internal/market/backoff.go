package market

import "time"

// Backoff yields exponentially growing reconnect delays between Initial and Max.
// It is not safe for concurrent use.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	next    time.Duration
}

// Next returns the delay to wait before the upcoming attempt.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Initial
	}
	d := b.next
	b.next = min(b.next*2, b.Max)
	return d
}

// Reset restarts the sequence at Initial.
func (b *Backoff) Reset() { b.next = 0 }
