package service

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/store"
)

// SearchByContent lists codes whose content contains query, ignoring case
// and surrounding space. Results are cached per normalized query until the
// next mutation or ClearSearchCache.
func (s *Service) SearchByContent(ctx context.Context, query string) ([]store.Code, error) {
	s.counter.Increment()
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, goerr.Wrap(ErrValidation, "search content cannot be blank")
	}
	return cached(ctx, s.log, s.caches.CodeLists, contentSearchKey(q), func() ([]store.Code, error) {
		codes, err := s.store.SearchCodes(ctx, q)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search codes", goerr.V("query", q))
		}
		return codes, nil
	})
}

// ClearSearchCache drops the cached result for query only.
func (s *Service) ClearSearchCache(ctx context.Context, query string) error {
	return s.caches.CodeLists.Remove(ctx, contentSearchKey(query))
}

func (s *Service) ListCodes(ctx context.Context) ([]store.Code, error) {
	return cached(ctx, s.log, s.caches.CodeLists, allCodesKey, func() ([]store.Code, error) {
		codes, err := s.store.ListCodes(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list codes")
		}
		return codes, nil
	})
}

func (s *Service) GetCode(ctx context.Context, id store.ID) (*store.Code, error) {
	c, err := cached(ctx, s.log, s.caches.Codes, codeKey(id), func() (store.Code, error) {
		c, err := s.store.FindCode(ctx, id)
		if err != nil {
			return store.Code{}, goerr.Wrap(err, "failed to find code", goerr.V("code_id", id))
		}
		return *c, nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CodesByOwner lists the codes linked to userID. An unknown user is ErrNotFound.
func (s *Service) CodesByOwner(ctx context.Context, userID store.ID) ([]store.Code, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return cached(ctx, s.log, s.caches.CodeLists, ownerCodesKey(userID), func() ([]store.Code, error) {
		codes, err := s.store.CodesByOwner(ctx, userID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list owner codes", goerr.V("user_id", userID))
		}
		return codes, nil
	})
}

// UpdateCode re-renders a stored code from req and saves the new parameters.
// Ownership links are kept.
func (s *Service) UpdateCode(ctx context.Context, id store.ID, req *Request) (*Result, error) {
	p, err := req.params()
	if err != nil {
		return nil, err
	}
	code, err := s.store.FindCode(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find code", goerr.V("code_id", id))
	}
	img, err := s.render(ctx, p)
	if err != nil {
		return nil, err
	}

	code.Content = p.text
	code.Width, code.Height = p.width, p.height
	code.Foreground, code.Background = p.fg.String(), p.bg.String()
	if err := s.store.SaveCode(ctx, code); err != nil {
		return nil, goerr.Wrap(err, "failed to save code", goerr.V("code_id", id))
	}
	s.invalidate(ctx, codeKeys(code)...)

	res := &Result{
		ID:         code.ID,
		Text:       code.Content,
		Image:      img,
		Width:      p.width,
		Height:     p.height,
		Foreground: p.fg,
		Background: p.bg,
		CreatedAt:  code.CreatedAt,
	}
	if len(code.OwnerIDs) > 0 {
		res.OwnerID = code.OwnerIDs[0]
	}
	return res, nil
}

func (s *Service) DeleteCode(ctx context.Context, id store.ID) error {
	code, err := s.store.FindCode(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to find code", goerr.V("code_id", id))
	}
	if err := s.store.DeleteCode(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete code", goerr.V("code_id", id))
	}
	s.invalidate(ctx, codeKeys(code)...)
	s.log.Info("code deleted", qrcache.Fields{"id": id})
	return nil
}

// CodeImage renders a stored code. Counts as a generation call.
func (s *Service) CodeImage(ctx context.Context, id store.ID) ([]byte, error) {
	s.counter.Increment()
	code, err := s.GetCode(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := paramsOf(code)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, p)
}

func codeKeys(c *store.Code) []string {
	keys := []string{codeKey(c.ID)}
	for _, owner := range c.OwnerIDs {
		keys = append(keys, ownerCodesKey(owner), userKey(owner))
	}
	return keys
}
