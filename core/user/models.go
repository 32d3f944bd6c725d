package user

import (
	"net/url"
	"time"

	"github.com/trezcool/masomo-portal/core"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var AllRoles = []string{RoleUser, RoleAdmin}

// HasRole applies the access policy: an admin satisfies every role,
// any other role satisfies only an exact match.
func HasRole(current, required string) bool {
	if current == "" {
		return false
	}
	return current == RoleAdmin || current == required
}

// Ref is an embedded copy of a user referenced by another record (author, recipient).
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Course    string    `json:"course,omitempty"`
	IsActive  bool      `json:"isActive"`
	LastLogin time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) HasRole(role string) bool { return HasRole(u.Role, role) }

func (u User) Ref() Ref { return Ref{ID: u.ID, Name: u.Name} }

// Credentials are posted to the auth endpoint on login.
type Credentials struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Username = core.CleanString(c.Username, true /* lower */)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"notblank"`
	Username        string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
	Course          string `json:"course,omitempty"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Course = core.CleanString(nu.Course)
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left untouched.
type UpdateUser struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,notblank"`
	Username        *string `json:"username,omitempty" validate:"omitempty,min=3,alphanum_"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Role            *string `json:"role,omitempty" validate:"omitempty,role"`
	Course          *string `json:"course,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
	Password        string  `json:"password,omitempty"`
	PasswordConfirm string  `json:"passwordConfirm,omitempty" validate:"required_with=Password,eqfield=Password"`
}

// Apply copies the set fields onto usr.
func (uu UpdateUser) Apply(usr *User) {
	if uu.Name != nil {
		usr.Name = core.CleanString(*uu.Name)
	}
	if uu.Username != nil {
		usr.Username = core.CleanString(*uu.Username, true /* lower */)
	}
	if uu.Email != nil {
		usr.Email = core.CleanString(*uu.Email, true /* lower */)
	}
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.Course != nil {
		usr.Course = core.CleanString(*uu.Course)
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	Course      string    `query:"course"`
	IsActive    *bool     `query:"isActive"`
	CreatedFrom time.Time `query:"createdFrom"`
	CreatedTo   time.Time `query:"createdTo"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// Match applies AND on the set fields; Search is a case-insensitive match on Name, Username or Email.
func (qf QueryFilter) Match(u User) bool {
	if qf.Search != "" &&
		!core.ContainsFold(u.Name, qf.Search) &&
		!core.ContainsFold(u.Username, qf.Search) &&
		!core.ContainsFold(u.Email, qf.Search) {
		return false
	}
	if qf.Role != "" && u.Role != qf.Role {
		return false
	}
	if qf.Course != "" && u.Course != qf.Course {
		return false
	}
	if qf.IsActive != nil && u.IsActive != *qf.IsActive {
		return false
	}
	return core.InRange(u.CreatedAt, qf.CreatedFrom, qf.CreatedTo)
}

func (qf QueryFilter) Encode(q url.Values) {
	core.SetString(q, "search", qf.Search)
	core.SetString(q, "role", qf.Role)
	core.SetString(q, "course", qf.Course)
	core.SetBool(q, "isActive", qf.IsActive)
	core.SetTime(q, "createdFrom", qf.CreatedFrom)
	core.SetTime(q, "createdTo", qf.CreatedTo)
}

func ParseQueryFilter(q url.Values) (QueryFilter, error) {
	qf := QueryFilter{
		Search: q.Get("search"),
		Role:   q.Get("role"),
		Course: q.Get("course"),
	}
	qf.Clean()
	var err error
	if qf.IsActive, err = core.QueryBool(q, "isActive"); err != nil {
		return qf, err
	}
	if qf.CreatedFrom, err = core.QueryTime(q, "createdFrom"); err != nil {
		return qf, err
	}
	qf.CreatedTo, err = core.QueryTime(q, "createdTo")
	return qf, err
}

// Comparators keyed by sortable field.
var Comparators = map[string]core.Comparator[User]{
	"name":      func(a, b User) int { return core.CompareFold(a.Name, b.Name) },
	"username":  func(a, b User) int { return core.CompareFold(a.Username, b.Username) },
	"email":     func(a, b User) int { return core.CompareFold(a.Email, b.Email) },
	"role":      func(a, b User) int { return core.CompareFold(a.Role, b.Role) },
	"createdAt": func(a, b User) int { return core.CompareTime(a.CreatedAt, b.CreatedAt) },
	"updatedAt": func(a, b User) int { return core.CompareTime(a.UpdatedAt, b.UpdatedAt) },
}

const DefaultSortField = "name"
