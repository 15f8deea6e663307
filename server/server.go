// Package server exposes the service over HTTP with JSON and PNG responses.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/raster"
	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/store"
)

// maxBody bounds request bodies; a bulk of MaxTextLength texts fits easily.
const maxBody = 4 << 20

type Server struct {
	svc *service.Service
	log qrcache.Logger
	mux *http.ServeMux
}

func New(svc *service.Service, log qrcache.Logger) *Server {
	if log == nil {
		log = qrcache.NopLogger{}
	}
	s := &Server{svc: svc, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/qrcodes/generate", s.generateSimple)
	s.mux.HandleFunc("GET /api/qrcodes/search", s.searchCodes)
	s.mux.HandleFunc("POST /api/qrcodes/bulk", s.generateBulk)
	s.mux.HandleFunc("GET /api/qrcodes", s.listCodes)
	s.mux.HandleFunc("POST /api/qrcodes", s.generateOne)
	s.mux.HandleFunc("GET /api/qrcodes/{id}", s.getCode)
	s.mux.HandleFunc("PUT /api/qrcodes/{id}", s.updateCode)
	s.mux.HandleFunc("DELETE /api/qrcodes/{id}", s.deleteCode)
	s.mux.HandleFunc("GET /api/qrcodes/{id}/image", s.codeImage)

	s.mux.HandleFunc("GET /api/users", s.listUsers)
	s.mux.HandleFunc("POST /api/users", s.createUser)
	s.mux.HandleFunc("GET /api/users/search", s.searchUsers)
	s.mux.HandleFunc("GET /api/users/by-email", s.userByEmail)
	s.mux.HandleFunc("GET /api/users/{id}", s.getUser)
	s.mux.HandleFunc("PUT /api/users/{id}", s.updateUser)
	s.mux.HandleFunc("DELETE /api/users/{id}", s.deleteUser)
	s.mux.HandleFunc("GET /api/users/{id}/qrcodes", s.ownerCodes)
	s.mux.HandleFunc("POST /api/users/{id}/qrcodes", s.addCode)

	s.mux.HandleFunc("GET /api/stats", s.stats)
	s.mux.HandleFunc("POST /api/stats/reset", s.resetStats)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Info("http request", qrcache.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
	})
}

type codeResponse struct {
	ID        store.ID  `json:"id"`
	Data      string    `json:"data"`
	ImageURL  string    `json:"imageUrl"`
	Size      string    `json:"size"`
	Colors    string    `json:"colors"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    *store.ID `json:"userId,omitempty"`
}

func fromResult(r *service.Result) codeResponse {
	out := codeResponse{
		ID:        r.ID,
		Data:      r.Text,
		ImageURL:  r.ImageURL(),
		Size:      r.Size(),
		Colors:    r.Colors(),
		CreatedAt: r.CreatedAt,
	}
	if r.OwnerID != store.NoID {
		id := r.OwnerID
		out.UserID = &id
	}
	return out
}

// fromCode links to the image endpoint instead of inlining stored codes.
func fromCode(c store.Code) codeResponse {
	out := codeResponse{
		ID:        c.ID,
		Data:      c.Content,
		ImageURL:  "/api/qrcodes/" + strconv.FormatInt(int64(c.ID), 10) + "/image",
		Size:      strconv.Itoa(c.Width) + "x" + strconv.Itoa(c.Height),
		Colors:    c.Foreground + "/" + c.Background,
		CreatedAt: c.CreatedAt,
	}
	if len(c.OwnerIDs) > 0 {
		id := c.OwnerIDs[0]
		out.UserID = &id
	}
	return out
}

func fromCodes(codes []store.Code) []codeResponse {
	out := make([]codeResponse, len(codes))
	for i, c := range codes {
		out[i] = fromCode(c)
	}
	return out
}

type errorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", qrcache.Fields{"path": r.URL.Path, "err": err})
	}
	writeJSON(w, status, errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Path:      r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", raster.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
