package handlers

import (
	"bytes"
	"log"
	"net/http"

	"github.com/diewo77/go-deliveries/httpx"
	"github.com/diewo77/go-deliveries/i18n"
	"github.com/diewo77/go-deliveries/internal/export"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/view"
)

type DeliveryHandler struct {
	sessions *Sessions
}

func NewDeliveryHandler(s *Sessions) *DeliveryHandler {
	return &DeliveryHandler{sessions: s}
}

type deliveryInput struct {
	Kg          string `json:"kg"`
	Price       string `json:"price"`
	PriceEdited bool   `json:"price_edited"`
	Date        string `json:"date"`
}

// Panel returns the info panel as JSON, or as a fragment for the page
// script.
func (h *DeliveryHandler) Panel(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	f := ctrl.Formatter(i18n.LangFromContext(r.Context()))
	panel := ledger.BuildInfoPanel(ctrl.Session.Snapshot(), f, ctrl.Pricing())
	if !httpx.IsFragment(r) {
		httpx.JSON(w, http.StatusOK, panel)
		return
	}
	pricing := ctrl.Pricing()
	if err := view.RenderPartial(w, r, "info-panel", map[string]any{
		"Panel":   panel,
		"Pricing": pricingView{KgPerSack: pricing.KgPerSack.String(), PricePerSack: pricing.PricePerSack.String()},
	}); err != nil {
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}

// Create adds a delivery to the selected location. A price the user typed
// (price_edited) is kept; otherwise the price follows the quantity.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	var in deliveryInput
	if isJSONBody(r) {
		if !decodeInput(w, r, &in) {
			return
		}
	} else {
		in = deliveryInput{
			Kg:          r.FormValue("kg"),
			Price:       r.FormValue("price"),
			PriceEdited: r.FormValue("price_edited") == "1",
			Date:        r.FormValue("date"),
		}
	}
	ctrl.Deliveries.SetKg(in.Kg)
	if in.PriceEdited {
		ctrl.Deliveries.EditPrice(in.Price)
	}
	if _, err := ctrl.Deliveries.Add(r.Context(), in.Kg, in.Price, in.Date); err != nil {
		fail(w, r, ctrl, err, "delivery_add_failed", nil)
		return
	}
	done(w, r, ctrl, http.StatusCreated)
}

// Delete removes a delivery after confirmation.
func (h *DeliveryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctrl := h.sessions.Controller(r)
	confirm, prompt := askConfirmation(isConfirmed(r))
	removed, err := ctrl.Deliveries.Remove(r.Context(), id, confirm)
	if err != nil {
		fail(w, r, ctrl, err, "delivery_delete_failed", nil)
		return
	}
	if !removed {
		renderConfirm(w, r, *prompt)
		return
	}
	done(w, r, ctrl, http.StatusOK)
}

// Filter applies the start/end bounds, or clears them when action=reset.
func (h *DeliveryHandler) Filter(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	var in struct {
		Start  string `json:"start"`
		End    string `json:"end"`
		Action string `json:"action"`
	}
	if isJSONBody(r) {
		if !decodeInput(w, r, &in) {
			return
		}
	} else {
		in.Start, in.End, in.Action = r.FormValue("start"), r.FormValue("end"), r.FormValue("action")
	}
	var err error
	if in.Action == "reset" {
		err = ctrl.Deliveries.ResetFilter(r.Context())
	} else {
		err = ctrl.Deliveries.ApplyFilter(r.Context(), in.Start, in.End)
	}
	if err != nil {
		fail(w, r, ctrl, err, "deliveries_load_failed", nil)
		return
	}
	done(w, r, ctrl, http.StatusOK)
}

// Export downloads the selected location's log for the active filter.
func (h *DeliveryHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Controller(r)
	lang := i18n.LangFromContext(r.Context())
	ctrl.Deliveries.Reload(r.Context())
	snap := ctrl.Session.Snapshot()
	if snap.Selected == nil {
		fail(w, r, ctrl, ledger.ErrNoLocationSelected, "export_failed", nil)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDeliveries(&buf, *snap.Selected, snap.Panel, ctrl.Formatter(lang)); err != nil {
		log.Printf("[handlers] export location %d: %v", snap.Selected.ID, err)
		http.Error(w, i18n.T(lang, "export_failed"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(*snap.Selected, ctrl.Today())+`"`)
	_, _ = buf.WriteTo(w)
}
