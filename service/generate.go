package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/raster"
	"github.com/unkn0wn-root/qrcache/store"
)

// GenerateOne validates req, renders it, persists the code and links it to
// owner. owner may be store.NoID. An unknown owner fails before anything is
// persisted.
func (s *Service) GenerateOne(ctx context.Context, req *Request, owner store.ID) (*Result, error) {
	s.counter.Increment()

	p, err := req.params()
	if err != nil {
		return nil, err
	}
	user, err := s.resolveOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	res, err := s.produce(ctx, p, user)
	if res != nil {
		s.invalidate(ctx, ownerKeys(user)...)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AddCode generates a code owned by userID.
func (s *Service) AddCode(ctx context.Context, userID store.ID, req *Request) (*Result, error) {
	if userID == store.NoID {
		return nil, goerr.Wrap(ErrValidation, "user id is required")
	}
	return s.GenerateOne(ctx, req, userID)
}

// GenerateMany processes reqs in order and stops at the first failure.
// A nil slice is invalid; an empty one yields no results and touches nothing.
// On failure no results are returned and the error is a *BatchError; saved
// codes are not rolled back.
func (s *Service) GenerateMany(ctx context.Context, reqs []*Request, owner store.ID) ([]*Result, error) {
	s.counter.Increment()
	if reqs == nil {
		return nil, goerr.Wrap(ErrValidation, "request list is required")
	}
	if len(reqs) == 0 {
		return []*Result{}, nil
	}

	user, err := s.resolveOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	results := make([]*Result, 0, len(reqs))
	persisted := make([]store.ID, 0, len(reqs))
	defer func() {
		if len(persisted) > 0 {
			s.invalidate(ctx, ownerKeys(user)...)
		}
	}()

	for i, req := range reqs {
		res, err := s.generateItem(ctx, req, user)
		if res != nil {
			persisted = append(persisted, res.ID)
		}
		if err != nil {
			s.log.Warn("batch aborted", qrcache.Fields{
				"batch_id": batchID, "index": i, "persisted": len(persisted), "err": err,
			})
			return nil, &BatchError{BatchID: batchID, Index: i, Persisted: persisted, Err: err}
		}
		results = append(results, res)
	}

	s.log.Info("batch generated", qrcache.Fields{"batch_id": batchID, "count": len(results)})
	return results, nil
}

// Outcome is one item of GenerateManyBestEffort: Result or Err is set.
type Outcome struct {
	Index  int
	Result *Result
	Err    error
}

// GenerateManyBestEffort attempts every item in order and reports each
// outcome. Only a nil list or an unknown owner fail the whole call.
func (s *Service) GenerateManyBestEffort(ctx context.Context, reqs []*Request, owner store.ID) ([]Outcome, error) {
	s.counter.Increment()
	if reqs == nil {
		return nil, goerr.Wrap(ErrValidation, "request list is required")
	}

	user, err := s.resolveOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(reqs))
	ok, saved := 0, 0
	for i, req := range reqs {
		res, err := s.generateItem(ctx, req, user)
		if res != nil {
			saved++
		}
		if err != nil {
			out[i] = Outcome{Index: i, Err: err}
			continue
		}
		out[i] = Outcome{Index: i, Result: res}
		ok++
	}
	if saved > 0 {
		s.invalidate(ctx, ownerKeys(user)...)
	}
	s.log.Info("best-effort batch generated", qrcache.Fields{"count": len(reqs), "ok": ok})
	return out, nil
}

// GenerateSimple renders text at the defaults without persisting it.
func (s *Service) GenerateSimple(ctx context.Context, text string) ([]byte, error) {
	s.counter.Increment()
	p, err := (&Request{Text: text}).params()
	if err != nil {
		return nil, err
	}
	return s.render(ctx, p)
}

func (s *Service) generateItem(ctx context.Context, req *Request, user *store.User) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := req.params()
	if err != nil {
		return nil, err
	}
	return s.produce(ctx, p, user)
}

// produce renders p, persists it and links it to user when set. A code that
// was saved but could not be linked comes back without OwnerID alongside the
// error, so callers can still account for it.
func (s *Service) produce(ctx context.Context, p params, user *store.User) (*Result, error) {
	img, err := s.render(ctx, p)
	if err != nil {
		return nil, err
	}

	code := &store.Code{
		Content:    p.text,
		Width:      p.width,
		Height:     p.height,
		Foreground: p.fg.String(),
		Background: p.bg.String(),
	}
	if err := s.store.SaveCode(ctx, code); err != nil {
		return nil, goerr.Wrap(err, "failed to save code")
	}

	res := &Result{
		ID:         code.ID,
		Text:       p.text,
		Image:      img,
		Width:      p.width,
		Height:     p.height,
		Foreground: p.fg,
		Background: p.bg,
		CreatedAt:  code.CreatedAt,
	}
	if user != nil {
		if err := s.store.Associate(ctx, user.ID, code.ID); err != nil {
			return res, goerr.Wrap(err, "failed to link code to owner",
				goerr.V("user_id", user.ID), goerr.V("code_id", code.ID))
		}
		res.OwnerID = user.ID
	}

	s.log.Info("code generated", qrcache.Fields{"id": res.ID, "size": res.Size(), "owner": res.OwnerID})
	return res, nil
}

// render is memoized by content hash, so repeated inputs skip encoding.
func (s *Service) render(ctx context.Context, p params) ([]byte, error) {
	if raster.Contrast(p.fg, p.bg) < raster.MinContrast {
		s.log.Warn("low contrast colors", qrcache.Fields{"fg": p.fg.String(), "bg": p.bg.String()})
	}
	return cached(ctx, s.log, s.caches.Images, renderKey(p), func() ([]byte, error) {
		m, err := s.encoder.Encode(p.text, p.width, p.height)
		if err != nil {
			return nil, generationError(err, "failed to encode symbol",
				goerr.V("width", p.width), goerr.V("height", p.height))
		}
		img, err := s.raster.Rasterize(m, p.fg, p.bg)
		if err != nil {
			return nil, generationError(err, "failed to rasterize symbol")
		}
		return img, nil
	})
}

func (s *Service) resolveOwner(ctx context.Context, owner store.ID) (*store.User, error) {
	if owner == store.NoID {
		return nil, nil
	}
	u, err := s.store.FindUser(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve owner", goerr.V("user_id", owner))
	}
	return u, nil
}

func ownerKeys(user *store.User) []string {
	if user == nil {
		return nil
	}
	return []string{ownerCodesKey(user.ID), userKey(user.ID)}
}
