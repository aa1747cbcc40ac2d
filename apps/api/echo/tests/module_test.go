package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/user"
	"github.com/trezcool/educa/tests"
)

func moduleOrders(t *testing.T, e env, c course.Course) map[string]int {
	t.Helper()
	modules, err := e.crsRepo.QueryModules(context.Background(), c.ID)
	require.NoError(t, err)
	orders := make(map[string]int, len(modules))
	for _, m := range modules {
		orders[m.Title] = m.Order
	}
	return orders
}

func Test_moduleApi_query(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, e.usrRepo, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	maths := testutil.CreateSubject(t, e.crsRepo, "Mathematics", "mathematics")
	algebra := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Algebra", "algebra")
	rings := testutil.CreateModule(t, e.crsRepo, algebra, "Rings", 1)
	groups := testutil.CreateModule(t, e.crsRepo, algebra, "Groups", 0)

	path := "/api/courses/" + algebra.ID + "/modules"
	tests := []httpTest{
		{name: "no token", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "not owner", path: path, token: e.getToken(t, other), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "ok", path: path, token: e.getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, groups, rings)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			rec := e.serve(tt)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, string(tt.wantData), rec.Body.String())
			}
		})
	}
}

func Test_moduleApi_create(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, e.usrRepo, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	maths := testutil.CreateSubject(t, e.crsRepo, "Mathematics", "mathematics")
	algebra := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Algebra", "algebra")

	token := e.getToken(t, teacher)
	path := "/api/courses/" + algebra.ID + "/modules"
	tests := []struct {
		httpTest
		wantOrder int
	}{
		{httpTest: httpTest{name: "not owner", body: []byte(`{"title":"Groups"}`), token: e.getToken(t, other), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}},
		{httpTest: httpTest{name: "no title", body: []byte(`{"title":" "}`), token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"title":"this field is required"}`)}},
		{httpTest: httpTest{name: "negative order", body: []byte(`{"title":"Groups","order":-1}`), token: token, wantCode: http.StatusBadRequest}},
		{httpTest: httpTest{name: "first", body: []byte(`{"title":"Groups"}`), token: token, wantCode: http.StatusCreated}, wantOrder: 0},
		{httpTest: httpTest{name: "next", body: []byte(`{"title":"Rings"}`), token: token, wantCode: http.StatusCreated}, wantOrder: 1},
		{httpTest: httpTest{name: "explicit", body: []byte(`{"title":"Fields","order":10}`), token: token, wantCode: http.StatusCreated}, wantOrder: 10},
		{httpTest: httpTest{name: "after explicit", body: []byte(`{"title":"Modules","order":null}`), token: token, wantCode: http.StatusCreated}, wantOrder: 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = path
			rec := e.serve(tt.httpTest)
			checkCodeAndData(t, tt.httpTest, rec)
			if tt.wantCode == http.StatusCreated {
				var m course.Module
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
				assert.Equal(t, tt.wantOrder, m.Order)
				assert.Equal(t, algebra.ID, m.CourseID)
			}
		})
	}
}

func Test_moduleApi_updateFormset(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	maths := testutil.CreateSubject(t, e.crsRepo, "Mathematics", "mathematics")
	algebra := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Algebra", "algebra")
	calculus := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Calculus", "calculus")
	limits := testutil.CreateModule(t, e.crsRepo, calculus, "Limits", 0)

	token := e.getToken(t, teacher)
	path := "/api/courses/" + algebra.ID + "/modules"
	put := func(t *testing.T, body string) *httpTest {
		t.Helper()
		tt := httpTest{method: http.MethodPut, path: path, body: []byte(body), token: token}
		rec := e.serve(tt)
		tt.wantCode = rec.Code
		tt.wantData = rec.Body.Bytes()
		return &tt
	}

	t.Run("creates in order", func(t *testing.T) {
		tt := put(t, `{"forms":[{"title":"Groups"},{"title":"Rings"},{"title":"Ignored","delete":true}]}`)
		require.Equal(t, http.StatusOK, tt.wantCode, string(tt.wantData))
		assert.Equal(t, map[string]int{"Groups": 0, "Rings": 1}, moduleOrders(t, e, algebra))
	})

	t.Run("invalid forms", func(t *testing.T) {
		tt := put(t, `{"forms":[{"title":"Fields"},{"title":"","order":-1}]}`)
		assert.Equal(t, http.StatusBadRequest, tt.wantCode)
		assert.JSONEq(t, `{"forms[1].title":"this field is required","forms[1].order":"order must be 0 or greater"}`, string(tt.wantData))
		assert.Len(t, moduleOrders(t, e, algebra), 2)
	})

	t.Run("module of another course", func(t *testing.T) {
		tt := put(t, `{"forms":[{"title":"Fields"},{"id":"`+limits.ID+`","title":"Limits"}]}`)
		assert.Equal(t, http.StatusBadRequest, tt.wantCode)
		assert.JSONEq(t, `{"forms[1].id":"module not found"}`, string(tt.wantData))
		assert.Len(t, moduleOrders(t, e, algebra), 2)
	})

	t.Run("update, delete & create", func(t *testing.T) {
		modules, err := e.crsRepo.QueryModules(context.Background(), algebra.ID)
		require.NoError(t, err)
		require.Len(t, modules, 2)
		groups, rings := modules[0], modules[1]

		tt := put(t, `{"forms":[`+
			`{"id":"`+groups.ID+`","title":"Groups & Subgroups"},`+
			`{"id":"`+rings.ID+`","title":"Rings","delete":true},`+
			`{"title":"Fields"}]}`)
		require.Equal(t, http.StatusOK, tt.wantCode, string(tt.wantData))
		assert.Equal(t, map[string]int{"Groups & Subgroups": 0, "Fields": 1}, moduleOrders(t, e, algebra))
		assert.Equal(t, map[string]int{"Limits": 0}, moduleOrders(t, e, calculus))
	})
}

func Test_moduleApi_reorder(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	maths := testutil.CreateSubject(t, e.crsRepo, "Mathematics", "mathematics")
	algebra := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Algebra", "algebra")
	calculus := testutil.CreateCourse(t, e.crsRepo, teacher, maths, "Calculus", "calculus")
	groups := testutil.CreateModule(t, e.crsRepo, algebra, "Groups", 0)
	rings := testutil.CreateModule(t, e.crsRepo, algebra, "Rings", 1)
	limits := testutil.CreateModule(t, e.crsRepo, calculus, "Limits", 0)

	token := e.getToken(t, teacher)
	path := "/api/courses/" + algebra.ID + "/modules/order"
	tests := []httpTest{
		{
			name:     "negative",
			body:     marchallObj(t, course.Reorder{groups.ID: -1}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{groups.ID: "order must be 0 or greater"}),
		},
		{
			name:     "malformed",
			body:     []byte(`["nope"]`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ok",
			body:     marchallObj(t, course.Reorder{groups.ID: 1, rings.ID: 0, limits.ID: 5, "unknown": 3}),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"saved":"OK"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = path
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}

	assert.Equal(t, map[string]int{"Groups": 1, "Rings": 0}, moduleOrders(t, e, algebra))
	assert.Equal(t, map[string]int{"Limits": 0}, moduleOrders(t, e, calculus))
}
