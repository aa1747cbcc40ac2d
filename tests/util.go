package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/user"
	"github.com/trezcool/educa/storage/database"
)

// OpenDB opens a migrated in-memory SQLite database, closed at the end of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo course.Repository, title, slug string) course.Subject {
	t.Helper()
	sub, err := repo.CreateSubject(context.Background(), course.Subject{Title: title, Slug: slug})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	owner user.User,
	sub course.Subject,
	title, slug string,
	createdAt ...time.Time,
) course.Course {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCourse(context.Background(), course.Course{
		OwnerID:   owner.ID,
		SubjectID: sub.ID,
		Title:     title,
		Slug:      slug,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateModule(t *testing.T, repo course.Repository, c course.Course, title string, ord int) course.Module {
	t.Helper()
	m, err := repo.CreateModule(context.Background(), course.Module{CourseID: c.ID, Title: title, Order: ord})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return m
}

// CreateContent creates a text item owned by owner and adds it to module m at ord.
func CreateContent(t *testing.T, repo course.Repository, owner user.User, m course.Module, title string, ord int) course.Content {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	it, err := repo.CreateItem(ctx, course.Item{
		OwnerID:   owner.ID,
		Kind:      course.KindText,
		Title:     title,
		Content:   title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateContent() failed: %v", err)
	}
	cnt, err := repo.CreateContent(ctx, course.Content{ModuleID: m.ID, Item: it, Order: ord})
	if err != nil {
		t.Fatalf("CreateContent() failed: %v", err)
	}
	return cnt
}
