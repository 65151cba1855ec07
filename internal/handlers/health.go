package handlers

import (
	"log"
	"net/http"

	"github.com/diewo77/go-deliveries/httpx"
	"github.com/diewo77/go-deliveries/internal/store"
)

type HealthHandler struct {
	store store.TableStore
}

func NewHealthHandler(st store.TableStore) *HealthHandler {
	return &HealthHandler{store: st}
}

// Live reports that the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the table store.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		log.Printf("[health] store ping: %v", err)
		httpx.JSONError(w, http.StatusServiceUnavailable, "store_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "ok"})
}
