package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by stores that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a check that pings p.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}
}

// ParserCheck returns a check that parses a canary query, verifying that
// the active operator set still accepts it after a configuration reload.
func ParserCheck(parse func(query string) error, canary string) CheckFunc {
	return func(ctx context.Context) error {
		if err := parse(canary); err != nil {
			return fmt.Errorf("canary query %q rejected: %w", canary, err)
		}
		return nil
	}
}
