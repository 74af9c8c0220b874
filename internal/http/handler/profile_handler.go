package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/response"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
)

// AvatarBodyLimit bounds the multipart avatar request, leaving headroom over
// the 5MB image limit for the multipart envelope.
const AvatarBodyLimit = 6 << 20

func (h *UserHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, r, err)
		return
	}
	profile, err := h.userSvc.CreateProfile(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, profile)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userSvc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, r, err)
		return
	}
	profile, err := h.userSvc.UpdateProfile(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

// UploadAvatar expects a multipart form with the image in the "avatar" field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", service.ErrFileTooBig.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "avatar file is required", nil)
		return
	}
	defer file.Close()

	upload, err := h.userSvc.UploadAvatar(r.Context(), userID, file, header.Size)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "user.avatar.upload", userID, "upload", "success")
	response.JSON(w, r, http.StatusOK, upload)
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	profile, err := h.userSvc.DeleteAvatar(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "user.avatar.delete", userID, "delete", "success")
	response.JSON(w, r, http.StatusOK, profile)
}
