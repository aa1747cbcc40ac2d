package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/user"
)

// DB is a non persistent database. A single lock guards all the tables
// so that deletions can cascade.
type DB struct {
	sync.RWMutex

	users    map[string]*user.User
	subjects map[string]*course.Subject
	courses  map[string]*course.Course
	modules  map[string]*course.Module
	items    map[string]*course.Item
	contents map[string]*contentRow
}

// contentRow is a course.Content referencing its item.
type contentRow struct {
	ID       string
	ModuleID string
	ItemID   string
	Order    int
}

func Open() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		subjects: make(map[string]*course.Subject),
		courses:  make(map[string]*course.Course),
		modules:  make(map[string]*course.Module),
		items:    make(map[string]*course.Item),
		contents: make(map[string]*contentRow),
	}
}

func newID() string {
	return uuid.New().String()
}
