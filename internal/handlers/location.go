package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/diewo77/go-deliveries/httpx"
	"github.com/diewo77/go-deliveries/i18n"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/view"
)

type LocationHandler struct {
	sessions *Sessions
}

func NewLocationHandler(s *Sessions) *LocationHandler {
	return &LocationHandler{sessions: s}
}

// Index renders the page. ?q= sets the search text, ?modal=location opens
// the add form.
func (h *LocationHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	if r.URL.Query().Has("q") {
		ctrl.Locations.Search(r.URL.Query().Get("q"))
	}
	renderPage(w, r, ctrl, 0, map[string]any{
		"ShowModal": r.URL.Query().Get("modal") == "location",
	})
}

// List returns the filtered location list as a fragment or JSON.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	if r.URL.Query().Has("q") {
		ctrl.Locations.Search(r.URL.Query().Get("q"))
	}
	if r.URL.Query().Get("refresh") == "1" {
		ctrl.Locations.FetchAll(r.Context())
	}
	f := ctrl.Formatter(i18n.LangFromContext(r.Context()))
	list := ledger.BuildLocationList(ctrl.Session.Snapshot(), f)
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	if !httpx.IsFragment(r) {
		http.Redirect(w, r, "/?q="+url.QueryEscape(r.URL.Query().Get("q")), http.StatusSeeOther)
		return
	}
	if err := view.RenderPartial(w, r, "location-list", list); err != nil {
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	var in locationForm
	if isJSONBody(r) {
		if !decodeInput(w, r, &in) {
			return
		}
	} else {
		in = locationForm{Name: r.FormValue("name"), Address: r.FormValue("address"), City: r.FormValue("city")}
	}
	if _, err := ctrl.Locations.Add(r.Context(), in.Name, in.Address, in.City); err != nil {
		lang := i18n.LangFromContext(r.Context())
		data := map[string]any{"ShowModal": true, "LocationForm": in}
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			data["Error"] = i18n.T(lang, "name_city_required")
		}
		fail(w, r, ctrl, err, "location_save_failed", data)
		return
	}
	done(w, r, ctrl, http.StatusCreated)
}

func (h *LocationHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctrl := h.sessions.Controller(r)
	if err := ctrl.Deliveries.Select(r.Context(), id); err != nil {
		fail(w, r, ctrl, err, "deliveries_load_failed", nil)
		return
	}
	done(w, r, ctrl, http.StatusOK)
}

// Delete removes a location after confirmation. Without confirmed=1 the
// confirmation page is shown instead.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctrl := h.sessions.Controller(r)
	confirm, prompt := askConfirmation(isConfirmed(r))
	removed, err := ctrl.Locations.Remove(r.Context(), id, confirm)
	if err != nil {
		fail(w, r, ctrl, err, "location_delete_failed", nil)
		return
	}
	if !removed {
		renderConfirm(w, r, *prompt)
		return
	}
	done(w, r, ctrl, http.StatusOK)
}
