// Package engine holds the migration core: the registry that plans paths
// through the version graph, the pure compatibility checker, and the
// executor that applies a plan to the live document.
package engine

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/cofferapp/coffer/pkg/schemaver"
	"github.com/cofferapp/coffer/pkg/types"
)

// Registry catalogs migration units as a directed graph over canonical
// version strings. It is built once at startup and read-only afterwards;
// registration is not safe for concurrent use.
type Registry struct {
	// units in registration order. Path search iterates this slice, so
	// equal-length paths tie-break on first registration. With several
	// shortest paths the pick is deterministic but topology-dependent;
	// Validate flags the topologies where that matters.
	units []types.Migration

	// edges indexes canonical "from>to" pairs for duplicate detection.
	edges map[string]struct{}
}

var _ types.Registry = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{edges: make(map[string]struct{})}
}

// canon maps a version spelling to its graph node: "1.1" and "1.1.0" are
// the same version, so they must be the same node. Malformed versions
// collapse to the zero version's node.
func canon(v string) string {
	return schemaver.ParseLenient(v).Canonical()
}

// Register adds a migration edge. Two units covering the same version
// pair would make path results ambiguous, so the second registration is
// rejected with ErrDuplicateMigration.
func (r *Registry) Register(m types.Migration) error {
	key := canon(m.FromVersion()) + ">" + canon(m.ToVersion())
	if _, exists := r.edges[key]; exists {
		return fmt.Errorf("%w: %s to %s", types.ErrDuplicateMigration, m.FromVersion(), m.ToVersion())
	}
	r.edges[key] = struct{}{}
	r.units = append(r.units, m)
	return nil
}

// ForwardPath returns the fewest-step sequence of units whose Forward
// calls carry a document from one version up to another.
func (r *Registry) ForwardPath(from, to string) ([]types.Migration, error) {
	return r.search(from, to, func(m types.Migration) (string, string) {
		return canon(m.FromVersion()), canon(m.ToVersion())
	})
}

// BackwardPath returns the fewest-step sequence of units whose Backward
// calls carry a document from one version down to another. A unit's
// Backward converts a document at ToVersion back to FromVersion, so the
// walk enters each edge at its ToVersion.
func (r *Registry) BackwardPath(from, to string) ([]types.Migration, error) {
	return r.search(from, to, func(m types.Migration) (string, string) {
		return canon(m.ToVersion()), canon(m.FromVersion())
	})
}

// hop records how a node was reached during search.
type hop struct {
	unit types.Migration
	prev string
}

// search runs a breadth-first walk from one version to another. ends
// orients each edge: it returns the node the edge is entered at and the
// node it exits to for the direction being searched. Fewest steps wins
// because every unit applied is another chance to lose data.
func (r *Registry) search(from, to string, ends func(types.Migration) (string, string)) ([]types.Migration, error) {
	src, dst := canon(from), canon(to)
	if src == dst {
		return nil, nil
	}

	visited := map[string]hop{src: {}}
	queue := []string{src}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, m := range r.units {
			entry, exit := ends(m)
			if entry != node {
				continue
			}
			if _, seen := visited[exit]; seen {
				continue
			}
			visited[exit] = hop{unit: m, prev: node}
			if exit == dst {
				return rebuild(visited, src, dst), nil
			}
			queue = append(queue, exit)
		}
	}

	return nil, fmt.Errorf("%w: %s to %s", types.ErrNoPath, from, to)
}

// rebuild walks the visited map back from the destination and returns the
// units in application order.
func rebuild(visited map[string]hop, src, dst string) []types.Migration {
	var path []types.Migration
	for node := dst; node != src; {
		h := visited[node]
		path = append(path, h.unit)
		node = h.prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Validate reports every topology problem at once: unparseable version
// attributes, and versions reachable by more than one edge, which would
// make backward path selection depend on registration order.
func (r *Registry) Validate() error {
	var err error

	byTo := make(map[string][]types.Migration)
	for _, m := range r.units {
		if _, e := schemaver.Parse(m.FromVersion()); e != nil {
			err = multierr.Append(err, fmt.Errorf("unit %s to %s: from version: %v", m.FromVersion(), m.ToVersion(), e))
		}
		if _, e := schemaver.Parse(m.ToVersion()); e != nil {
			err = multierr.Append(err, fmt.Errorf("unit %s to %s: to version: %v", m.FromVersion(), m.ToVersion(), e))
		}
		key := canon(m.ToVersion())
		byTo[key] = append(byTo[key], m)
	}

	for to, units := range byTo {
		if len(units) < 2 {
			continue
		}
		froms := make([]string, len(units))
		for i, m := range units {
			froms[i] = m.FromVersion()
		}
		err = multierr.Append(err, fmt.Errorf("version %s is reachable from %v; backward paths through it depend on registration order", to, froms))
	}

	return err
}
