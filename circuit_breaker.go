package riakhttp

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/rkv/riakhttp/rest"
)

// NewCircuitBreakerConfig returns a function that creates circuit
// breakers for nodes, suitable for Config.NewCircuitBreaker. The
// breaker trips once at least 3 requests were seen and 60% of them
// failed.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[*rest.Response] {
	return func(nodeAddr string) *gobreaker.CircuitBreaker[*rest.Response] {
		settings := gobreaker.Settings{
			Name:        nodeAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[*rest.Response](settings)
	}
}
