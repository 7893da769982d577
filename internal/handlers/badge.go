package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/campusgate/internal/services/badge"
)

// visitorQR returns the visitor's QR receipt as PNG
func (r *Router) visitorQR(w http.ResponseWriter, req *http.Request) {
	v, err := r.store.GetVisitor(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}

	size := 256
	if s := req.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	payload, err := badge.PayloadFor(v)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build QR payload")
		return
	}
	png, err := badge.QRPNG(payload, size)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// visitorPass returns the printable visitor pass as PDF
func (r *Router) visitorPass(w http.ResponseWriter, req *http.Request) {
	v, err := r.store.GetVisitor(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}

	pdf, err := badge.GeneratePassPDF(r.cfg.Badge.SiteName, v)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render pass")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=pass-%s.pdf", v.ID))
	w.Write(pdf)
}
