package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/order"
)

type orderStore struct {
	repository
	table  string
	fields []string
}

var _ order.Store = (*orderStore)(nil) // interface compliance check

// NewOrderStore returns the order.Store of the "order" column of table,
// grouping records by any of forFields.
func NewOrderStore(db *sqlx.DB, table string, forFields ...string) order.Store {
	return &orderStore{repository: newRepository(db), table: table, fields: forFields}
}

func (store *orderStore) MaxOrder(ctx context.Context, scope order.Scope, exec ...core.DBExecutor) (null.Int, error) {
	if err := scope.CheckFields(store.fields...); err != nil {
		return null.Int{}, err
	}

	q := store.sb.Select(`MAX("order")`).From(store.table)
	if fields := scope.Fields(); len(fields) > 0 {
		eq := make(sq.Eq, len(fields))
		for _, fld := range fields {
			eq[fld.Name] = fld.Value
		}
		q = q.Where(eq)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return null.Int{}, errors.Wrap(err, "building query")
	}

	var max null.Int
	if err = store.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&max); err != nil {
		return null.Int{}, errors.Wrapf(err, "selecting max order of %s", store.table)
	}
	return max, nil
}
