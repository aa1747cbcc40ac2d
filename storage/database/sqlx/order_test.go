package sqlxrepos

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/order"
	testutil "github.com/trezcool/educa/tests"
)

func TestOrderStore_MaxOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	users := NewUserRepository(db)
	repo := NewCourseRepository(db)

	owner := testutil.CreateUser(t, users, "Jane Doe", "janedoe", "jane@test.cd", "", nil, true)
	sub := testutil.CreateSubject(t, repo, "Programming", "programming")
	c1 := testutil.CreateCourse(t, repo, owner, sub, "Go", "go")
	c2 := testutil.CreateCourse(t, repo, owner, sub, "Python", "python")
	empty := testutil.CreateCourse(t, repo, owner, sub, "Rust", "rust")
	testutil.CreateModule(t, repo, c1, "a", 0)
	testutil.CreateModule(t, repo, c1, "b", 4)
	testutil.CreateModule(t, repo, c1, "c", 2)
	m := testutil.CreateModule(t, repo, c2, "d", 7)
	testutil.CreateContent(t, repo, owner, m, "text", 3)

	tests := []struct {
		name  string
		store order.Store
		scope order.Scope
		want  null.Int
	}{
		{name: "max not count", store: repo.ModuleOrders(), scope: course.ModuleScope(c1.ID), want: null.IntFrom(4)},
		{name: "other scope", store: repo.ModuleOrders(), scope: course.ModuleScope(c2.ID), want: null.IntFrom(7)},
		{name: "empty scope", store: repo.ModuleOrders(), scope: course.ModuleScope(empty.ID)},
		{name: "global", store: repo.ModuleOrders(), scope: order.GlobalScope, want: null.IntFrom(7)},
		{name: "contents", store: repo.ContentOrders(), scope: course.ContentScope(m.ID), want: null.IntFrom(3)},
		{name: "empty table scope", store: NewOrderStore(db, "contents", course.ContentScopeField), scope: course.ContentScope("none")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.store.MaxOrder(ctx, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		_, err := repo.ModuleOrders().MaxOrder(ctx, course.ContentScope(m.ID))
		assert.True(t, errors.Is(err, order.ErrUnknownField))
	})

	t.Run("assign within transaction", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		assigner := order.NewAssigner(repo.ModuleOrders())
		ord, err := assigner.Assign(ctx, course.ModuleScope(empty.ID), null.Int{}, tx)
		require.NoError(t, err)
		assert.Equal(t, 0, ord)

		_, err = repo.CreateModule(ctx, course.Module{CourseID: empty.ID, Title: "first", Order: ord}, tx)
		require.NoError(t, err)
		ord, err = assigner.Assign(ctx, course.ModuleScope(empty.ID), null.Int{}, tx)
		require.NoError(t, err)
		assert.Equal(t, 1, ord)
	})
}

func TestOrderStore_PostgresQuery(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	store := NewOrderStore(sqlx.NewDb(mockDB, "postgres"), "modules", course.ModuleScopeField)
	query := regexp.QuoteMeta(`SELECT MAX("order") FROM modules WHERE course_id = $1`)

	mock.ExpectQuery(query).WithArgs("c1").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(5)))
	got, err := store.MaxOrder(context.Background(), course.ModuleScope("c1"))
	require.NoError(t, err)
	assert.Equal(t, null.IntFrom(5), got)

	mock.ExpectQuery(query).WithArgs("c2").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	got, err = store.MaxOrder(context.Background(), course.ModuleScope("c2"))
	require.NoError(t, err)
	assert.False(t, got.Valid)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(query).WithArgs("c3").WillReturnError(dbErr)
	_, err = store.MaxOrder(context.Background(), course.ModuleScope("c3"))
	assert.Equal(t, dbErr, errors.Cause(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
