package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/store"
)

var errBadRequest = errors.New("bad request")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (store.ID, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return store.NoID, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, r.PathValue(name))
	}
	return store.ID(id), nil
}

// queryOwner reads the optional userId query parameter.
func queryOwner(r *http.Request) (store.ID, error) {
	v := r.URL.Query().Get("userId")
	if v == "" {
		return store.NoID, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return store.NoID, fmt.Errorf("%w: invalid userId %q", errBadRequest, v)
	}
	return store.ID(id), nil
}

func (s *Server) generateSimple(w http.ResponseWriter, r *http.Request) {
	img, err := s.svc.GenerateSimple(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePNG(w, img)
}

func (s *Server) generateOne(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req service.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.GenerateOne(r.Context(), &req, owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromResult(res))
}

func (s *Server) generateBulk(w http.ResponseWriter, r *http.Request) {
	owner, err := queryOwner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var reqs []*service.Request
	if err := decode(w, r, &reqs); err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.svc.GenerateMany(r.Context(), reqs, owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]codeResponse, len(results))
	for i, res := range results {
		out[i] = fromResult(res)
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) listCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.svc.ListCodes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCodes(codes))
}

func (s *Server) searchCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	content := q.Get("content")
	if clear, _ := strconv.ParseBool(q.Get("clearCache")); clear {
		if err := s.svc.ClearSearchCache(r.Context(), content); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	codes, err := s.svc.SearchByContent(r.Context(), content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCodes(codes))
}

func (s *Server) getCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.GetCode(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCode(*c))
}

func (s *Server) updateCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req service.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.UpdateCode(r.Context(), id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromResult(res))
}

func (s *Server) deleteCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteCode(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) codeImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := s.svc.CodeImage(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePNG(w, img)
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.SearchUsersByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) userByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.FindUserByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.UpdateUser(r.Context(), id, req.Name, req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteUser(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ownerCodes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	codes, err := s.svc.CodesByOwner(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCodes(codes))
}

func (s *Server) addCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req service.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.AddCode(r.Context(), id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromResult(res))
}

type statsResponse struct {
	Requests uint64 `json:"requests"`
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{Requests: s.svc.RequestCount()})
}

func (s *Server) resetStats(w http.ResponseWriter, _ *http.Request) {
	s.svc.ResetRequestCount()
	writeJSON(w, http.StatusOK, statsResponse{Requests: 0})
}
