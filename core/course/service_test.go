package course_test

import (
	"context"
	"io"
	"io/ioutil"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/course"
	inmemdb "github.com/trezcool/educa/storage/database/inmem"
)

type mediaMock struct {
	saved   map[string][]byte
	deleted []string
}

var _ core.FileStorage = (*mediaMock)(nil)

func (m *mediaMock) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	path := "files/" + filename
	m.saved[path] = data
	return path, nil
}

func (m *mediaMock) Delete(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *mediaMock) URL(path string) string {
	return "/media/" + path
}

func newService(t *testing.T) (*course.Service, *mediaMock, course.Course) {
	t.Helper()
	media := new(mediaMock)
	svc := course.NewService(nil, inmemdb.NewCourseRepository(inmemdb.Open()), media)
	c, err := svc.CreateCourse(context.Background(), "owner", course.NewCourse{Title: "Go", Slug: "go"})
	require.NoError(t, err)
	return svc, media, c
}

func moduleOrders(t *testing.T, svc *course.Service, c course.Course) map[string]int {
	t.Helper()
	modules, err := svc.QueryModules(context.Background(), c)
	require.NoError(t, err)
	orders := make(map[string]int, len(modules))
	for _, m := range modules {
		orders[m.Title] = m.Order
	}
	return orders
}

func TestService_CreateModule(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newService(t)
	other, err := svc.CreateCourse(ctx, "owner", course.NewCourse{Title: "Py", Slug: "py"})
	require.NoError(t, err)

	steps := []struct {
		course course.Course
		title  string
		order  null.Int
		want   int
	}{
		{course: c, title: "first", want: 0},
		{course: c, title: "second", want: 1},
		{course: other, title: "other first", want: 0},
		{course: c, title: "explicit", order: null.IntFrom(10), want: 10},
		{course: c, title: "after explicit", want: 11},
		{course: c, title: "explicit zero", order: null.IntFrom(0), want: 0},
		{course: c, title: "after explicit zero", want: 12},
	}
	for _, step := range steps {
		m, err := svc.CreateModule(ctx, step.course, course.NewModule{Title: step.title, Order: step.order})
		require.NoError(t, err)
		assert.Equal(t, step.want, m.Order, step.title)
		assert.Equal(t, step.course.ID, m.CourseID, step.title)
	}
}

func TestService_UpdateModules(t *testing.T) {
	ctx := context.Background()

	t.Run("creates in order", func(t *testing.T) {
		svc, _, c := newService(t)
		modules, err := svc.UpdateModules(ctx, c, []course.ModuleForm{{Title: "a"}, {Title: "b"}, {Title: "skipped", Delete: true}})
		require.NoError(t, err)
		require.Len(t, modules, 2)
		assert.Equal(t, "a", modules[0].Title)
		assert.Equal(t, 0, modules[0].Order)
		assert.Equal(t, "b", modules[1].Title)
		assert.Equal(t, 1, modules[1].Order)
	})

	t.Run("gaps are not filled", func(t *testing.T) {
		svc, _, c := newService(t)
		modules, err := svc.UpdateModules(ctx, c, []course.ModuleForm{{Title: "a"}, {Title: "b"}, {Title: "c"}})
		require.NoError(t, err)
		require.Len(t, modules, 3)

		// delete the last one: its order is reused
		_, err = svc.UpdateModules(ctx, c, []course.ModuleForm{{ID: modules[2].ID, Delete: true}, {Title: "d"}})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "d": 2}, moduleOrders(t, svc, c))

		// delete a middle one: the gap stays
		_, err = svc.UpdateModules(ctx, c, []course.ModuleForm{{ID: modules[1].ID, Delete: true}, {Title: "e"}})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 0, "d": 2, "e": 3}, moduleOrders(t, svc, c))
	})

	t.Run("updates keep order", func(t *testing.T) {
		svc, _, c := newService(t)
		m, err := svc.CreateModule(ctx, c, course.NewModule{Title: "a", Order: null.IntFrom(5)})
		require.NoError(t, err)

		modules, err := svc.UpdateModules(ctx, c, []course.ModuleForm{{ID: m.ID, Title: "renamed", Description: "desc"}})
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, course.Module{ID: m.ID, CourseID: c.ID, Title: "renamed", Description: "desc", Order: 5}, modules[0])
	})

	t.Run("module of another course", func(t *testing.T) {
		svc, _, c := newService(t)
		other, err := svc.CreateCourse(ctx, "owner", course.NewCourse{Title: "Py", Slug: "py"})
		require.NoError(t, err)
		m, err := svc.CreateModule(ctx, other, course.NewModule{Title: "a"})
		require.NoError(t, err)

		_, err = svc.UpdateModules(ctx, c, []course.ModuleForm{{ID: m.ID, Delete: true}})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "forms[0].id", verr.Fields[0].Field)

		got, err := svc.GetModule(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	})
}

func TestService_ReorderModules(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newService(t)
	other, err := svc.CreateCourse(ctx, "owner", course.NewCourse{Title: "Py", Slug: "py"})
	require.NoError(t, err)

	a, err := svc.CreateModule(ctx, c, course.NewModule{Title: "a"})
	require.NoError(t, err)
	b, err := svc.CreateModule(ctx, c, course.NewModule{Title: "b"})
	require.NoError(t, err)
	foreign, err := svc.CreateModule(ctx, other, course.NewModule{Title: "foreign"})
	require.NoError(t, err)

	require.NoError(t, svc.ReorderModules(ctx, c, course.Reorder{a.ID: 1, b.ID: 0, foreign.ID: 9, "missing": 3}))
	assert.Equal(t, map[string]int{"a": 1, "b": 0}, moduleOrders(t, svc, c))
	assert.Equal(t, map[string]int{"foreign": 0}, moduleOrders(t, svc, other))

	err = svc.ReorderModules(ctx, c, course.Reorder{a.ID: -1})
	var verr *core.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestService_Contents(t *testing.T) {
	ctx := context.Background()
	svc, media, c := newService(t)
	m1, err := svc.CreateModule(ctx, c, course.NewModule{Title: "m1"})
	require.NoError(t, err)
	m2, err := svc.CreateModule(ctx, c, course.NewModule{Title: "m2"})
	require.NoError(t, err)

	text, err := svc.CreateContent(ctx, "owner", m1, course.NewItem{Kind: course.KindText, Title: "t", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 0, text.Order)
	assert.Equal(t, "hello", text.Item.Content)
	assert.Equal(t, "owner", text.Item.OwnerID)

	video, err := svc.CreateContent(ctx, "owner", m1, course.NewItem{Kind: course.KindVideo, Title: "v", URL: "https://example.com/v", Content: "dropped"})
	require.NoError(t, err)
	assert.Equal(t, 1, video.Order)
	assert.Empty(t, video.Item.Content)

	other, err := svc.CreateContent(ctx, "owner", m2, course.NewItem{Kind: course.KindText, Title: "t2", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, other.Order)

	path, err := svc.SaveFile(ctx, "doc.pdf", nopReader{})
	require.NoError(t, err)
	file, err := svc.CreateContent(ctx, "owner", m1, course.NewItem{Kind: course.KindFile, Title: "f", File: path})
	require.NoError(t, err)
	assert.Equal(t, 2, file.Order)
	assert.Equal(t, "/media/files/doc.pdf", svc.FileURL(file.Item.File))

	_, err = svc.CreateContent(ctx, "owner", m1, course.NewItem{Kind: "audio", Title: "a"})
	assert.Equal(t, course.ErrUnknownKind, err)

	contents, err := svc.QueryContents(ctx, m1)
	require.NoError(t, err)
	require.Len(t, contents, 3)
	assert.Equal(t, []string{text.ID, video.ID, file.ID}, []string{contents[0].ID, contents[1].ID, contents[2].ID})

	t.Run("update item", func(t *testing.T) {
		newPath, err := svc.SaveFile(ctx, "doc2.pdf", nopReader{})
		require.NoError(t, err)
		it, err := svc.UpdateItem(ctx, file.Item, course.NewItem{Kind: course.KindFile, Title: "f2", File: newPath})
		require.NoError(t, err)
		assert.Equal(t, "f2", it.Title)
		assert.Equal(t, newPath, it.File)
		assert.Equal(t, []string{path}, media.deleted)

		_, err = svc.UpdateItem(ctx, it, course.NewItem{Kind: course.KindText, Title: "t"})
		assert.Equal(t, course.ErrItemNotFound, err)
	})

	t.Run("delete content", func(t *testing.T) {
		media.deleted = nil
		cnt, err := svc.GetContent(ctx, file.ID)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteContent(ctx, cnt))
		assert.Equal(t, []string{cnt.Item.File}, media.deleted)

		_, err = svc.GetItem(ctx, cnt.Item.ID)
		assert.Equal(t, course.ErrItemNotFound, err)

		// the deleted order is reused, the module's max being 1 again
		again, err := svc.CreateContent(ctx, "owner", m1, course.NewItem{Kind: course.KindText, Title: "t3", Content: "y"})
		require.NoError(t, err)
		assert.Equal(t, 2, again.Order)
	})

	t.Run("reorder", func(t *testing.T) {
		require.NoError(t, svc.ReorderContents(ctx, m1, course.Reorder{text.ID: 5, other.ID: 7}))
		cnt, err := svc.GetContent(ctx, text.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, cnt.Order)
		cnt, err = svc.GetContent(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, cnt.Order)
	})

	t.Run("delete course", func(t *testing.T) {
		media.deleted = nil
		require.NoError(t, svc.DeleteCourse(ctx, c))
		_, err := svc.GetCourse(ctx, c.ID)
		assert.Equal(t, course.ErrCourseNotFound, err)
		_, err = svc.GetItem(ctx, text.Item.ID)
		assert.Equal(t, course.ErrItemNotFound, err)
		_, err = svc.GetModule(ctx, m2.ID)
		assert.Equal(t, course.ErrModuleNotFound, err)
		assert.Empty(t, media.deleted)
	})
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }
