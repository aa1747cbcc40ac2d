package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/order"
)

// orderedRecord is the order of a record along with its grouping field values.
type orderedRecord struct {
	values map[string]string
	order  int
}

// orderStore finds the max order of one table's records.
type orderStore struct {
	db      *DB
	fields  []string
	records func() []orderedRecord // called with the DB read lock held
}

var _ order.Store = (*orderStore)(nil) // interface compliance check

func (store *orderStore) MaxOrder(_ context.Context, scope order.Scope, _ ...core.DBExecutor) (null.Int, error) {
	if err := scope.CheckFields(store.fields...); err != nil {
		return null.Int{}, err
	}

	store.db.RLock()
	defer store.db.RUnlock()

	var max null.Int
	for _, rec := range store.records() {
		if inScope(scope, rec.values) && (!max.Valid || rec.order > max.Int) {
			max = null.IntFrom(rec.order)
		}
	}
	return max, nil
}

func inScope(scope order.Scope, values map[string]string) bool {
	for _, fld := range scope.Fields() {
		if values[fld.Name] != fld.Value {
			return false
		}
	}
	return true
}
