package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/middleware"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
	"github.com/PaulBabatuyi/filekeeper/internal/service"
)

type handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// flexID accepts a JSON string or number; clients send parentId both ways.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (h *handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (h *handler) error(w http.ResponseWriter, err error) {
	msg := err.Error()
	var status int
	switch errs.KindOf(err) {
	case errs.KindBadRequest, errs.KindConflict:
		status = http.StatusBadRequest
	case errs.KindUnauthorized:
		status = http.StatusUnauthorized
	case errs.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		msg = errs.ErrStoreUnavailable.Message
	}
	h.respond(w, status, map[string]string{"error": msg})
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.error(w, errs.BadRequest("Invalid JSON"))
		return
	}
	user, err := h.svc.CreateUser(r.Context(), body.Email, body.Password)
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusCreated, user)
}

func (h *handler) connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		h.error(w, errs.ErrUnauthorized)
		return
	}
	token, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"token": token})
}

func (h *handler) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.Token(r)); err != nil {
		h.error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.WhoAmI(r.Context(), middleware.Token(r))
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusOK, user)
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var body struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		ParentID flexID `json:"parentId"`
		IsPublic bool   `json:"isPublic"`
		Data     string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.error(w, errs.BadRequest("Invalid JSON"))
		return
	}

	view, err := h.svc.Upload(r.Context(), userID, service.UploadInput{
		Name:     body.Name,
		Type:     body.Type,
		ParentID: string(body.ParentID),
		IsPublic: body.IsPublic,
		Data:     body.Data,
	})
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusCreated, view)
}

func (h *handler) getFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	view, err := h.svc.GetFileMetadata(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusOK, view)
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	parent := models.ParentRef(r.URL.Query().Get("parentId"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	views, err := h.svc.ListFiles(r.Context(), userID, parent, page)
	if err != nil {
		h.error(w, err)
		return
	}
	if views == nil {
		views = []models.FileView{}
	}
	h.respond(w, http.StatusOK, views)
}

func (h *handler) publish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h *handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *handler) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	userID, _ := middleware.UserID(r.Context())
	view, err := h.svc.SetVisibility(r.Context(), userID, chi.URLParam(r, "id"), isPublic)
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusOK, view)
}

func (h *handler) getContent(w http.ResponseWriter, r *http.Request) {
	rc, mimeType, err := h.svc.GetContent(
		r.Context(),
		chi.URLParam(r, "id"),
		r.URL.Query().Get("size"),
		middleware.Token(r),
	)
	if err != nil {
		h.error(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("content stream failed", zap.Error(err))
	}
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	cacheAlive, dbAlive := h.svc.Status(r.Context())
	h.respond(w, http.StatusOK, map[string]bool{"redis": cacheAlive, "db": dbAlive})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	users, files, err := h.svc.Stats(r.Context())
	if err != nil {
		h.error(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int64{"users": users, "files": files})
}
