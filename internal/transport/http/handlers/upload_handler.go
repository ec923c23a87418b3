package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/storage"
)

const maxUploadSize = 25 << 20

type UploadHandler struct {
	uploads *storage.Uploads
}

func NewUploadHandler(uploads *storage.Uploads) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the multipart "file" field and returns its public URL for use in posts and messages.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	url, ok := saveUpload(w, r, h.uploads)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

func saveUpload(w http.ResponseWriter, r *http.Request, uploads *storage.Uploads) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Expected a multipart file field named \"file\"")
		return "", false
	}
	defer file.Close()

	url, err := uploads.Save(file, header.Filename)
	if err != nil {
		writeServiceError(w, "save upload", err)
		return "", false
	}
	return url, true
}
