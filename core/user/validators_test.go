package user

import "testing"

func Test_checkPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		usrName string
		uname   string
		email   string
		want    string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 12!xyz", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcd123!xyz", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcd123xyz", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Teacher01!", uname: "teacher01", want: pwdAttrSimTag},
		{name: "similar to name", pwd: "Jane.Doe#1", usrName: "Jane Doe", want: pwdAttrSimTag},
		{name: "valid", pwd: "Gr8-Pa$$word", usrName: "Jane Doe", uname: "janedoe", email: "jane@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkPassword(tt.pwd, tt.usrName, tt.uname, tt.email); got != tt.want {
				t.Errorf("checkPassword() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		perm  string
		want  bool
	}{
		{name: "no roles", perm: PermAddCourse},
		{name: "student", roles: []string{RoleStudent}, perm: PermAddCourse},
		{name: "teacher add course", roles: []string{RoleTeacher}, perm: PermAddCourse, want: true},
		{name: "teacher delete course", roles: []string{RoleTeacher}, perm: PermDeleteCourse, want: true},
		{name: "teacher add subject", roles: []string{RoleTeacher}, perm: PermAddSubject},
		{name: "admin add subject", roles: []string{RoleAdmin}, perm: PermAddSubject, want: true},
		{name: "principal", roles: []string{RoleAdminPrincipal}, perm: PermChangeCourse, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.roles, tt.perm); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}
