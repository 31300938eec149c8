package breakers

import (
	"errors"
	"time"

	cb "github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// Settings configures a breaker.
type Settings struct {
	Name             string
	FailureThreshold int
	OpenFor          time.Duration
}

type Breaker struct{ cb *cb.CircuitBreaker }

func New(s Settings) *Breaker {
	threshold := uint32(3)
	if s.FailureThreshold > 0 {
		threshold = uint32(s.FailureThreshold)
	}
	st := cb.Settings{Name: s.Name}
	st.Interval = 60 * time.Second
	st.Timeout = s.OpenFor
	if st.Timeout <= 0 {
		st.Timeout = 60 * time.Second
	}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker. Rejections surface as ErrOpen.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return v, err
}

// State reports "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }
