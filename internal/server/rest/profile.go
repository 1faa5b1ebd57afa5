package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/otpauth/internal/server/services"
)

const profileImageField = "profile_image"

func (h *Handler) ViewProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	p, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	// Validated by the service, which also treats an empty phone as a clear.
	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.profiles.Update(r.Context(), user.ID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

// UploadImage takes a multipart form with the file in profile_image. The
// content type is sniffed from the bytes, not taken from the client.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxProfileImageSize+(1<<20))
	if err := r.ParseMultipartForm(services.MaxProfileImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, "Image file is too large. Maximum size is 5 MB.")
			return
		}
		writeBadRequest(w, "No image file provided.")
		return
	}

	file, header, err := r.FormFile(profileImageField)
	if err != nil {
		writeBadRequest(w, "No image file provided.")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.writeServiceError(w, r, err)
		return
	}
	contentType := http.DetectContentType(head[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	url, err := h.profiles.UploadImage(r.Context(), user.ID, file, header.Size, contentType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{
		Message:      "Profile image uploaded successfully.",
		ProfileImage: url,
	})
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := h.profiles.DeleteImage(r.Context(), user.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile image deleted successfully.")
}
