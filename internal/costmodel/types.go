package costmodel

import (
	"fmt"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/optimizer"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// relationToStarlark converts a relation to a struct with table and alias
// fields.
func relationToStarlark(r algebra.Relation) starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("relation"), starlark.StringDict{
		"table": starlark.String(r.Table),
		"alias": starlark.String(r.Alias),
	})
}

// subtreeToStarlark exposes a subtree to a cost script. heuristic is the
// weight the built-in estimator would assign.
func subtreeToStarlark(s optimizer.Subtree, heuristic float64) starlark.Value {
	rels := make([]starlark.Value, len(s.Relations))
	tables := make([]starlark.Value, len(s.Relations))
	for i, r := range s.Relations {
		rels[i] = relationToStarlark(r)
		tables[i] = starlark.String(r.Table)
	}
	return starlarkstruct.FromStringDict(starlark.String("subtree"), starlark.StringDict{
		"relations":   starlark.NewList(rels),
		"tables":      starlark.NewList(tables),
		"selections":  starlark.MakeInt(s.Selections),
		"equi_joined": starlark.Bool(s.EquiJoined),
		"heuristic":   starlark.Float(heuristic),
	})
}

// toWeight converts the value returned by estimate() to a weight.
func toWeight(v starlark.Value) (float64, error) {
	switch val := v.(type) {
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return 0, fmt.Errorf("weight %s out of range", val)
		}
		return float64(i64), nil
	case starlark.Float:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("estimate must return a number, got %s", v.Type())
	}
}

// columnsBuiltin returns columns(table): the number of catalog columns of
// table, or None when the table is unknown.
func columnsBuiltin(cat core.Catalog) *starlark.Builtin {
	return starlark.NewBuiltin("columns", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var table string
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &table); err != nil {
			return nil, err
		}
		if cat == nil {
			return starlark.None, nil
		}
		cols, ok := cat.Lookup(table)
		if !ok {
			return starlark.None, nil
		}
		return starlark.MakeInt(len(cols)), nil
	})
}
