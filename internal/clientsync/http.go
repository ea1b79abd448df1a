package clientsync

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dhafnck/taskforge/internal/domain"
)

// RuleSource supplies the current server-side rule set for diff/pull
// requests, decoupling the HTTP layer from any particular rule store.
type RuleSource func() map[string]domain.RuleContent

// Router builds the client-sync HTTP surface: client registration status,
// diff, and sync endpoints, bound to gorilla/mux.
func Router(svc *Service, rules RuleSource) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/clients/{clientID}/status", statusHandler(svc)).Methods(http.MethodGet)
	r.HandleFunc("/clients/{clientID}/diff", diffHandler(svc, rules)).Methods(http.MethodPost)
	r.HandleFunc("/clients/{clientID}/sync", syncHandler(svc, rules)).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := domain.KindOf(err); ok {
		switch kind {
		case domain.ErrNotFound:
			status = http.StatusNotFound
		case domain.ErrValidation:
			status = http.StatusBadRequest
		case domain.ErrAuthFailure:
			status = http.StatusUnauthorized
		case domain.ErrRateLimited:
			status = http.StatusTooManyRequests
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := mux.Vars(r)["clientID"]
		report, err := svc.Status(clientID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func diffHandler(svc *Service, rules RuleSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := mux.Vars(r)["clientID"]
		var clientState map[string]domain.RuleContent
		if err := json.NewDecoder(r.Body).Decode(&clientState); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		diff, err := svc.Diff(clientID, clientState, rules())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)
	}
}

func syncHandler(svc *Service, rules RuleSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := mux.Vars(r)["clientID"]
		var req domain.SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		req.ClientID = clientID

		result, err := svc.Sync(req, rules(), nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}


