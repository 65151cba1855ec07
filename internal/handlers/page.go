package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-deliveries/httpx"
	"github.com/diewo77/go-deliveries/i18n"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/session"
	"github.com/diewo77/go-deliveries/view"
)

// Sessions hands out the ledger controller of the requesting browser.
type Sessions struct {
	registry *ledger.Registry
}

func NewSessions(reg *ledger.Registry) *Sessions {
	return &Sessions{registry: reg}
}

// Controller returns the session's controller. A new session starts by
// loading the location list.
func (s *Sessions) Controller(r *http.Request) *ledger.Controller {
	id, ok := session.IDFromContext(r.Context())
	if !ok {
		id = "anonymous"
	}
	ctrl, created := s.registry.Get(id)
	if created {
		ctrl.Locations.FetchAll(r.Context())
	}
	return ctrl
}

type locationForm struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type pricingView struct {
	KgPerSack    string
	PricePerSack string
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether the client speaks JSON, either by asking for it
// or by sending it.
func wantsJSON(r *http.Request) bool {
	return httpx.WantsJSON(r) || isJSONBody(r)
}

// decodeInput fills dst from a JSON body. Form posts are read with
// FormValue instead.
func decodeInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		lang := i18n.LangFromContext(r.Context())
		if wantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		} else {
			http.Error(w, i18n.T(lang, "invalid_id"), http.StatusBadRequest)
		}
		return 0, false
	}
	return id, true
}

// renderPage writes the whole page, or its JSON model for API clients.
func renderPage(w http.ResponseWriter, r *http.Request, ctrl *ledger.Controller, status int, data map[string]any) {
	lang := i18n.LangFromContext(r.Context())
	f := ctrl.Formatter(lang)
	page := ledger.BuildPage(ctrl.Session.Snapshot(), f, ctrl.Pricing())
	if wantsJSON(r) {
		if status == 0 {
			status = http.StatusOK
		}
		httpx.JSON(w, status, page)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Page"] = page
	pricing := ctrl.Pricing()
	data["Pricing"] = pricingView{KgPerSack: pricing.KgPerSack.String(), PricePerSack: pricing.PricePerSack.String()}
	if _, ok := data["LocationForm"]; !ok {
		data["LocationForm"] = locationForm{}
	}
	if err := view.RenderStatus(w, r, status, "index.html", data); err != nil {
		log.Printf("[handlers] render index: %v", err)
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}

// done answers a successful write: the page model for API clients, a
// redirect back to the page otherwise.
func done(w http.ResponseWriter, r *http.Request, ctrl *ledger.Controller, status int) {
	if wantsJSON(r) {
		renderPage(w, r, ctrl, status, nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail maps a controller error to a status and shows it. failCode is the
// message for store write failures; data carries extra template values.
func fail(w http.ResponseWriter, r *http.Request, ctrl *ledger.Controller, err error, failCode string, data map[string]any) {
	lang := i18n.LangFromContext(r.Context())
	if data == nil {
		data = map[string]any{}
	}
	var (
		status  int
		code    string
		details any
		verr    *ledger.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		status, code, details = http.StatusUnprocessableEntity, "validation_failed", verr.Violations
		data["Errors"] = verr.Violations
	case errors.Is(err, ledger.ErrNoLocationSelected):
		status, code = http.StatusConflict, "select_location_first"
	case errors.Is(err, ledger.ErrBusy):
		status, code = http.StatusConflict, "busy"
	case errors.Is(err, ledger.ErrLocationNotFound):
		status, code = http.StatusNotFound, "locations_not_found"
	default:
		status, code = http.StatusBadGateway, failCode
	}
	if wantsJSON(r) {
		httpx.JSONError(w, status, code, details)
		return
	}
	if _, ok := data["Error"]; !ok && code != "validation_failed" {
		data["Error"] = i18n.T(lang, code)
	}
	renderPage(w, r, ctrl, status, data)
}

// askConfirmation returns a Confirmer approving the action when the request
// carries confirmed=1 and remembering the prompt otherwise.
func askConfirmation(confirmed bool) (ledger.Confirmer, *ledger.Prompt) {
	asked := &ledger.Prompt{}
	return ledger.ConfirmFunc(func(p ledger.Prompt) bool {
		if confirmed {
			return true
		}
		*asked = p
		return false
	}), asked
}

func isConfirmed(r *http.Request) bool {
	return r.FormValue("confirmed") == "1" || r.URL.Query().Get("confirmed") == "1"
}

// renderConfirm shows the confirmation page posting back to the same URL.
func renderConfirm(w http.ResponseWriter, r *http.Request, p ledger.Prompt) {
	lang := i18n.LangFromContext(r.Context())
	prompt := i18n.Tf(lang, p.Code, p.Args...)
	if wantsJSON(r) {
		httpx.JSONError(w, http.StatusConflict, "confirmation_required", map[string]string{"prompt": prompt})
		return
	}
	if err := view.Render(w, r, "confirm.html", map[string]any{
		"Prompt": prompt,
		"Action": r.URL.Path,
	}); err != nil {
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}
