package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/campusgate/internal/flows"
	"github.com/xelth-com/campusgate/internal/listview"
	"github.com/xelth-com/campusgate/internal/store"
)

// listVisitors returns the filtered, searched and sorted visitor list.
// Query params: search, status (repeatable), department (repeatable),
// sortBy, sortOrder.
func (r *Router) listVisitors(w http.ResponseWriter, req *http.Request) {
	raw, err := r.store.QueryVisitors(req.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	q := req.URL.Query()
	view := listview.Apply(raw, listview.Query{
		Search:     q.Get("search"),
		Status:     splitMulti(q["status"]),
		Department: splitMulti(q["department"]),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	})
	respondJSON(w, http.StatusOK, view)
}

// getVisitor returns a single visitor record by ID
func (r *Router) getVisitor(w http.ResponseWriter, req *http.Request) {
	v, err := r.store.GetVisitor(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// registerVisitor runs step 1 of the entry wizard
func (r *Router) registerVisitor(w http.ResponseWriter, req *http.Request) {
	var in flows.RegistrationInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	v, err := r.flows.Register(req.Context(), in)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

// submitDetails runs step 2 and checks the visitor in
func (r *Router) submitDetails(w http.ResponseWriter, req *http.Request) {
	var in flows.DetailsInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	v, err := r.flows.SubmitAdditionalDetails(req.Context(), mux.Vars(req)["id"], in)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// checkOut moves an In record to Out
func (r *Router) checkOut(w http.ResponseWriter, req *http.Request) {
	v, err := r.flows.CheckOut(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// lookupVisitor finds the registration behind a contact number for the
// quick check-in screen. 404 means "new visitor, register first"; the
// client shows that message and nothing was written.
func (r *Router) lookupVisitor(w http.ResponseWriter, req *http.Request) {
	v, err := r.flows.Lookup(req.Context(), req.URL.Query().Get("contactNumber"))
	if errors.Is(err, flows.ErrNoMatch) {
		respondError(w, http.StatusNotFound, "New Visitor. Please Register First")
		return
	}
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// QuickCheckInRequest is the pre-filled repeat-visit form
type QuickCheckInRequest struct {
	VisitorID      string             `json:"visitorId"`
	PurposeOfVisit string             `json:"purposeOfVisit"`
	Details        flows.DetailsInput `json:"details"`
}

// quickCheckIn records a repeat visit as a new log entry
func (r *Router) quickCheckIn(w http.ResponseWriter, req *http.Request) {
	var in QuickCheckInRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	v, entry, err := r.flows.QuickCheckIn(req.Context(), in.VisitorID, in.Details, in.PurposeOfVisit)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"visitor": v,
		"log":     entry,
	})
}

// todaysVisitors lists the visit log entries checked in today
func (r *Router) todaysVisitors(w http.ResponseWriter, req *http.Request) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	logs, err := r.store.LogsBetween(req.Context(),
		from.Format("2006-01-02T15:04:05.000Z"),
		to.Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// respondFlowError maps flow and store failures onto HTTP statuses
func respondFlowError(w http.ResponseWriter, err error) {
	var verr *flows.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}
	respondStoreError(w, err)
}

// respondStoreError surfaces the store taxonomy: every failure reaches
// the client; nothing is retried here
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Visitor not found")
	case errors.Is(err, store.ErrIllegalTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrWriteRejected):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusServiceUnavailable, "Store unavailable, please retry")
	}
}

// splitMulti accepts both repeated params and comma-separated values
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
