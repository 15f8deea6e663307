package service

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/store"
)

func validateUser(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return goerr.Wrap(ErrValidation, "user name cannot be blank")
	}
	if email != "" && !strings.Contains(email, "@") {
		return goerr.Wrap(ErrValidation, "invalid email", goerr.V("email", email))
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, name, email string) (*store.User, error) {
	if err := validateUser(name, email); err != nil {
		return nil, err
	}
	u := &store.User{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, goerr.Wrap(err, "failed to save user")
	}
	s.invalidate(ctx, userKey(u.ID))
	s.log.Info("user created", qrcache.Fields{"id": u.ID})
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id store.ID) (*store.User, error) {
	u, err := cached(ctx, s.log, s.caches.Users, userKey(id), func() (store.User, error) {
		u, err := s.store.FindUser(ctx, id)
		if err != nil {
			return store.User{}, goerr.Wrap(err, "failed to find user", goerr.V("user_id", id))
		}
		return *u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	return cached(ctx, s.log, s.caches.UserLists, allUsersKey, func() ([]store.User, error) {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list users")
		}
		return users, nil
	})
}

func (s *Service) UpdateUser(ctx context.Context, id store.ID, name, email string) (*store.User, error) {
	if err := validateUser(name, email); err != nil {
		return nil, err
	}
	u, err := s.store.FindUser(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find user", goerr.V("user_id", id))
	}
	oldEmail := u.Email
	u.Name, u.Email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, goerr.Wrap(err, "failed to save user", goerr.V("user_id", id))
	}
	s.invalidate(ctx, userKey(id), userByEmailKey(oldEmail), userByEmailKey(u.Email))
	return u, nil
}

// DeleteUser removes the user and its links. Codes stay.
func (s *Service) DeleteUser(ctx context.Context, id store.ID) error {
	u, err := s.store.FindUser(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to find user", goerr.V("user_id", id))
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete user", goerr.V("user_id", id))
	}
	keys := []string{userKey(id), ownerCodesKey(id), userByEmailKey(u.Email)}
	for _, c := range u.CodeIDs {
		keys = append(keys, codeKey(c))
	}
	s.invalidate(ctx, keys...)
	s.log.Info("user deleted", qrcache.Fields{"id": id})
	return nil
}

// SearchUsersByName lists users whose name contains part, ignoring case.
func (s *Service) SearchUsersByName(ctx context.Context, part string) ([]store.User, error) {
	p := strings.TrimSpace(part)
	if p == "" {
		return nil, goerr.Wrap(ErrValidation, "name cannot be blank")
	}
	return cached(ctx, s.log, s.caches.UserLists, usersByNameKey(p), func() ([]store.User, error) {
		users, err := s.store.SearchUsers(ctx, p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search users", goerr.V("name", p))
		}
		return users, nil
	})
}

// FindUserByEmail is cached on hits only; a miss is looked up again next time.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	e := strings.TrimSpace(email)
	if e == "" {
		return nil, goerr.Wrap(ErrValidation, "email cannot be blank")
	}
	u, err := cached(ctx, s.log, s.caches.Users, userByEmailKey(e), func() (store.User, error) {
		u, err := s.store.FindUserByEmail(ctx, e)
		if err != nil {
			return store.User{}, goerr.Wrap(err, "failed to find user by email")
		}
		return *u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
