package mockstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

// userRecord is a user as persisted by the mock layer, with its password hash.
type userRecord struct {
	user.User
	PasswordHash []byte `json:"passwordHash,omitempty"`
}

func (r userRecord) GetID() string { return r.ID }

func (r *userRecord) setPassword(pwd string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	r.PasswordHash = hash
	return nil
}

func (r userRecord) checkPassword(pwd string) bool {
	return len(r.PasswordHash) > 0 && bcrypt.CompareHashAndPassword(r.PasswordHash, []byte(pwd)) == nil
}

var userSorting = func() sorting[userRecord] {
	cmps := make(map[string]core.Comparator[userRecord], len(user.Comparators))
	for field, cmp := range user.Comparators {
		cmp := cmp
		cmps[field] = func(a, b userRecord) int { return cmp(a.User, b.User) }
	}
	return sorting[userRecord]{comparators: cmps, defaultField: user.DefaultSortField, defaultOrder: core.SortAsc}
}()

var (
	errUsernameTaken = core.FieldError{Field: "username", Error: "username already taken"}
	errEmailTaken    = core.FieldError{Field: "email", Error: "email already taken"}
)

type UserStore struct {
	coll       *collection[userRecord]
	validator  *core.Validator
	bcryptCost int
}

var _ user.Service = (*UserStore)(nil)

func users(recs []userRecord) []user.User {
	usrs := make([]user.User, len(recs))
	for i, r := range recs {
		usrs[i] = r.User
	}
	return usrs
}

func (s *UserStore) GetUsers(ctx context.Context, filter user.QueryFilter, pr core.PageRequest) (core.Page[user.User], error) {
	filter.Clean()
	page, err := s.coll.page(ctx, func(r userRecord) bool { return filter.Match(r.User) }, pr, userSorting)
	if err != nil {
		return core.Page[user.User]{}, err
	}
	return core.Page[user.User]{
		Data:    users(page.Data),
		Total:   page.Total,
		Page:    page.Page,
		Limit:   page.Limit,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
	}, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (user.User, error) {
	rec, err := s.coll.get(ctx, id)
	return rec.User, err
}

func (s *UserStore) GetUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	role = core.CleanString(role, true /* lower */)
	recs, err := s.coll.filter(ctx, func(r userRecord) bool { return r.Role == role })
	if err != nil {
		return nil, err
	}
	core.SortBy(recs, userSorting.comparators[user.DefaultSortField], core.SortAsc, userRecord.GetID)
	return users(recs), nil
}

// checkUniqueness must run inside a mutation to be race free.
func checkUniqueness(recs []userRecord, username, email, excludedID string) error {
	var flds []core.FieldError
	for _, r := range recs {
		if r.ID == excludedID {
			continue
		}
		if username != "" && strings.EqualFold(r.Username, username) {
			flds = append(flds, errUsernameTaken)
		}
		if email != "" && strings.EqualFold(r.Email, email) {
			flds = append(flds, errEmailTaken)
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (s *UserStore) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	nu.Clean()
	if err := s.validator.Struct(nu); err != nil {
		return user.User{}, err
	}

	now := s.coll.now()
	rec := userRecord{User: user.User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		Course:    nu.Course,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	if err := rec.setPassword(nu.Password, s.bcryptCost); err != nil {
		return user.User{}, err
	}

	err := s.coll.mutate(ctx, func(recs []userRecord) ([]userRecord, error) {
		if err := checkUniqueness(recs, rec.Username, rec.Email, ""); err != nil {
			return nil, err
		}
		return append(recs, rec), nil
	})
	if err != nil {
		return user.User{}, err
	}
	return rec.User, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id string, uu user.UpdateUser) (user.User, error) {
	if err := s.validator.Struct(uu); err != nil {
		return user.User{}, err
	}

	var updated user.User
	err := s.coll.mutate(ctx, func(recs []userRecord) ([]userRecord, error) {
		for i := range recs {
			if recs[i].ID != id {
				continue
			}
			rec := recs[i]
			uu.Apply(&rec.User)
			if err := checkUniqueness(recs, rec.Username, rec.Email, id); err != nil {
				return nil, err
			}
			if uu.Password != "" {
				if err := rec.setPassword(uu.Password, s.bcryptCost); err != nil {
					return nil, err
				}
			}
			rec.UpdatedAt = touch(s.coll.now(), rec.UpdatedAt)
			recs[i] = rec
			updated = rec.User
			return recs, nil
		}
		return nil, core.NewNotFoundError(user.Resource, id)
	})
	return updated, err
}

// ToggleUserStatus activates an inactive user and deactivates an active one.
func (s *UserStore) ToggleUserStatus(ctx context.Context, id string) (user.User, error) {
	rec, err := s.coll.update(ctx, id, func(r *userRecord) error {
		r.IsActive = !r.IsActive
		r.UpdatedAt = touch(s.coll.now(), r.UpdatedAt)
		return nil
	})
	return rec.User, err
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	return s.coll.remove(ctx, id)
}

// findByLogin returns the user whose username or email is login.
func (s *UserStore) findByLogin(ctx context.Context, login string) (userRecord, bool, error) {
	recs, err := s.coll.filter(ctx, func(r userRecord) bool {
		return strings.EqualFold(r.Username, login) || (r.Email != "" && strings.EqualFold(r.Email, login))
	})
	if err != nil || len(recs) == 0 {
		return userRecord{}, false, err
	}
	return recs[0], true, nil
}
