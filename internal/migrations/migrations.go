// Package migrations holds coffer's schema migrations: the transformation
// each released schema version applies to the state document, in both
// directions. Units are registered in version order; the registry does
// not care, but reading this package top to bottom should tell the
// schema's history.
package migrations

import (
	"github.com/cofferapp/coffer/pkg/types"
)

// Schema versions this build knows how to produce.
const (
	// CurrentVersion is the newest schema, on the beta channel.
	CurrentVersion = "1.3"

	// CurrentStableVersion is the newest schema on the stable channel.
	CurrentStableVersion = "1.2"
)

// All returns every migration unit in version order.
func All() []types.Migration {
	return []types.Migration{
		newFeatureFlags(),
		newBudgetPeriod(),
		newInsights(),
	}
}

// RegisterAll registers every unit with the given registry.
func RegisterAll(reg types.Registry) error {
	for _, m := range All() {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// asInt reads a JSON number that arrives as float64 after a decode or as
// int when built in memory.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
