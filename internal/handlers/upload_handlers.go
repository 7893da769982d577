package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/campusgate/internal/models"
	"github.com/xelth-com/campusgate/internal/store"
	"github.com/xelth-com/campusgate/internal/uploads"
)

// Uploads are capped well above typical phone camera output
const maxUploadBytes = 15 << 20

// uploadPhoto stores a visitor photo and records its URL on the record
func (r *Router) uploadPhoto(w http.ResponseWriter, req *http.Request) {
	r.handleUpload(w, req, uploads.KindPhoto)
}

// uploadDocument stores an identity document and records its URL
func (r *Router) uploadDocument(w http.ResponseWriter, req *http.Request) {
	r.handleUpload(w, req, uploads.KindDocument)
}

func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request, kind string) {
	visitorID := mux.Vars(req)["id"]

	// The record must exist before a blob is parked under it
	if _, err := r.store.GetVisitor(req.Context(), visitorID); err != nil {
		respondStoreError(w, err)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	url, err := r.uploads.Save(visitorID, kind, header.Filename, file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	// Persist only the URL string; the merge keeps other detail fields
	details := &models.AdditionalDetails{}
	if kind == uploads.KindPhoto {
		details.VisitorPhotoURL = url
	} else {
		details.DocumentURL = url
	}
	if _, err := r.store.UpdateVisitor(req.Context(), visitorID, store.Patch{Details: details}); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}
