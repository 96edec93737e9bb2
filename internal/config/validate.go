package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/regioniq/insight-cli/internal/lens"
)

// Validate checks the settings a command mode needs. Modes: insight, serve,
// import, migrate, offline. offline skips the store checks.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "insight", "import", "migrate":
		problems = append(problems, c.storeProblems()...)
	case "serve":
		problems = append(problems, c.storeProblems()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RateLimit <= 0 {
			problems = append(problems, "server.rate_limit must be > 0")
		}
		if c.Server.RateBurst < 1 {
			problems = append(problems, "server.rate_burst must be >= 1")
		}
		if c.Server.MaxQueryCost <= 0 {
			problems = append(problems, "server.max_query_cost must be > 0")
		}
	case "offline":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Engine.HorizonYear < 2000 || c.Engine.HorizonYear > 2100 {
		problems = append(problems, fmt.Sprintf("engine.horizon_year %d must be between 2000 and 2100", c.Engine.HorizonYear))
	}
	if _, err := lens.ParseAssetLens(c.Engine.DefaultLens); err != nil {
		problems = append(problems, fmt.Sprintf("engine.default_lens %q is not a known lens", c.Engine.DefaultLens))
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storeProblems() []string {
	var problems []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be postgres or sqlite", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Store.Pool.MinConns > c.Store.Pool.MaxConns && c.Store.Pool.MaxConns > 0 {
		problems = append(problems, "store.pool.min_conns must be <= max_conns")
	}
	return problems
}
