// Package order assigns sequential positions to records within a grouping scope,
// eg. the modules of a course or the contents of a module.
package order

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
)

// Store is a collection of ordered records.
type Store interface {
	// MaxOrder returns the highest order among the records in scope.
	// The result is invalid (null) when the scope holds no record.
	MaxOrder(ctx context.Context, scope Scope, exec ...core.DBExecutor) (null.Int, error)
}

// Assigner computes the order of new records of one Store.
//
// The max-then-increment read is not atomic with the insert that follows it:
// concurrent creations in the same scope may be given the same order.
type Assigner struct {
	store Store
}

func NewAssigner(store Store) *Assigner {
	return &Assigner{store: store}
}

// Assign returns the order of a new record in scope.
// An explicit order (valid current) is returned as is; otherwise the order
// follows the highest one in scope, starting at 0 when the scope is empty.
func (a *Assigner) Assign(ctx context.Context, scope Scope, current null.Int, exec ...core.DBExecutor) (int, error) {
	if current.Valid {
		return current.Int, nil
	}

	max, err := a.store.MaxOrder(ctx, scope, exec...)
	if err != nil {
		return 0, errors.Wrapf(err, "finding max order in scope %s", scope)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int + 1, nil
}
