package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/commands"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Select  gocommand.Commander[commands.SelectSectionInput]
	Reload  gocommand.Commander[commands.ReloadSectionInput]
	Action  gocommand.Commander[commands.RunActionInput]
	Logout  gocommand.Commander[commands.LogoutInput]
	Sidebar gocommand.Commander[commands.ToggleSidebarInput]
	State   gocommand.Querier[queries.StateInput, queries.StateView]
	Section gocommand.Querier[queries.SectionDataInput, queries.SectionDataView]
	Events  *dashboard.BroadcastHook
}

// Routes mounts the handlers on a ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", h.HandleState)
	mux.HandleFunc("POST /sections/{id}/select", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSelectSection(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /sections/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSectionData(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /reload", h.HandleReload)
	mux.HandleFunc("POST /actions", h.HandleRunAction)
	mux.HandleFunc("POST /logout", h.HandleLogout)
	mux.HandleFunc("POST /sidebar", h.HandleToggleSidebar)
	if h.Events != nil {
		mux.HandleFunc("GET /events", h.Events.ServeSSE)
		mux.HandleFunc("GET /ws", h.Events.ServeWebSocket)
	}
	return mux
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	view, err := h.State.Query(r.Context(), queries.StateInput{})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleSelectSection(w http.ResponseWriter, r *http.Request, sectionID string) {
	if err := h.Select.Execute(r.Context(), commands.SelectSectionInput{SectionID: sectionID}); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSectionData(w http.ResponseWriter, r *http.Request, sectionID string) {
	view, err := h.Section.Query(r.Context(), queries.SectionDataInput{SectionID: sectionID})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Reload.Execute(r.Context(), commands.ReloadSectionInput{}); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleRunAction runs an action. Destructive and financial actions proceed
// only when the request carries X-Confirm: true.
func (h *Handlers) HandleRunAction(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if Confirmed(r.Header.Get("X-Confirm")) {
		ctx = dashboard.WithConfirmed(ctx)
	}
	var outcome dashboard.ActionOutcome
	if err := h.Action.Execute(ctx, commands.RunActionInput{Request: payload, Outcome: &outcome}); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if Confirmed(r.Header.Get("X-Confirm")) {
		ctx = dashboard.WithConfirmed(ctx)
	}
	if err := h.Logout.Execute(ctx, commands.LogoutInput{}); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	var open bool
	if err := h.Sidebar.Execute(r.Context(), commands.ToggleSidebarInput{Open: &open}); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"sidebar_open": open})
}

// Confirmed parses a confirmation header value.
func Confirmed(value string) bool {
	ok, _ := strconv.ParseBool(value)
	return ok
}

// ErrorBody mirrors the storefront API failure envelope.
type ErrorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse maps a dashboard error onto a status code and body.
func ErrorResponse(err error) (int, ErrorBody) {
	body := ErrorBody{Message: err.Error()}
	var access *dashboard.AccessError
	var validation *dashboard.ValidationError
	var remote *dashboard.RemoteError
	switch {
	case errors.As(err, &access):
		body.Reason = string(access.Reason)
		if access.Reason == dashboard.DenyRoleMismatch {
			return http.StatusForbidden, body
		}
		return http.StatusUnauthorized, body
	case errors.As(err, &validation):
		body.Fields = validation.Fields
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &remote):
		body.Message = remote.Message
		if remote.Status >= 400 && remote.Status < 500 {
			return remote.Status, body
		}
		return http.StatusBadGateway, body
	case errors.Is(err, dashboard.ErrActionCancelled):
		return http.StatusPreconditionRequired, body
	case errors.Is(err, dashboard.ErrNavigationClosed):
		return http.StatusGone, body
	case errors.Is(err, dashboard.ErrNotBooted):
		return http.StatusServiceUnavailable, body
	case errors.Is(err, dashboard.ErrSectionNotFound), errors.Is(err, dashboard.ErrActionNotFound):
		return http.StatusNotFound, body
	}
	return http.StatusInternalServerError, body
}

// WriteError writes the mapped error as JSON.
func WriteError(w http.ResponseWriter, err error) {
	status, body := ErrorResponse(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
