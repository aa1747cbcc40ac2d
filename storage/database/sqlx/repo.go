package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/educa/core"
)

// repository holds what every sqlx repository needs: a default executor
// and a statement builder using the driver's placeholders.
type repository struct {
	exec core.DBExecutor
	sb   sq.StatementBuilderType
}

func newRepository(db *sqlx.DB) repository {
	return repository{
		exec: db,
		sb:   sq.StatementBuilder.PlaceholderFormat(placeholderFormat(db.DriverName())),
	}
}

func placeholderFormat(driverName string) sq.PlaceholderFormat {
	if sqlx.BindType(driverName) == sqlx.DOLLAR {
		return sq.Dollar
	}
	return sq.Question
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// selectAll runs q and scans the resulting rows into dest, a pointer to a slice of structs.
func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, q sq.Sqlizer, dest interface{}) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return sqlx.StructScan(rows, dest)
}

// exists reports whether q selects any row.
func (repo repository) exists(ctx context.Context, exec core.DBExecutor, q sq.Sqlizer) (bool, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	found := rows.Next()
	return found, rows.Err()
}

// execute runs q and returns the number of affected rows.
func (repo repository) execute(ctx context.Context, exec core.DBExecutor, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var res sql.Result
	if res, err = exec.ExecContext(ctx, query, args...); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
