/*
Package resilience provides a circuit breaker for remote dependencies.

The headless window keeps one breaker per host it fetches pages and scripts
from. Once a host has failed Threshold times in a row, further fetches fail
fast with ErrOpen until Cooldown has passed; then a single probe is let
through and its outcome closes or reopens the circuit.

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                    [failure]
	                                                        v
	                                                       Open

# Usage

	hosts := resilience.NewGroup(resilience.DefaultSettings())
	err := hosts.Do(u.Host, func() error {
		return fetch(u)
	})
	if errors.Is(err, resilience.ErrOpen) {
		// skipped
	}
*/
package resilience
