package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/notify"
	"github.com/kombinator/garant/internal/receipts"
	"github.com/kombinator/garant/internal/warranty"
)

// NotificationsHandler serves the expiring-soon view behind the bell badge.
type NotificationsHandler struct {
	receipts *receipts.Service
}

func NewNotificationsHandler(svc *receipts.Service) *NotificationsHandler {
	return &NotificationsHandler{receipts: svc}
}

func (h *NotificationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.ExpiringSoon)
}

type notification struct {
	ReceiptID   uuid.UUID `json:"receipt_id"`
	ProductName string    `json:"product_name"`
	DaysLeft    int       `json:"days_left"`
	Label       string    `json:"label"`
}

type notificationsResponse struct {
	Notifications []notification `json:"notifications"`
	Count         int            `json:"count"`
}

func (h *NotificationsHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, common.ErrAuthRequired)
		return
	}

	recs, err := h.receipts.List(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now()
	expiring := notify.ExpiringSoon(recs, now, warranty.HorizonDays)

	out := make([]notification, 0, len(expiring))
	for _, rec := range expiring {
		out = append(out, notification{
			ReceiptID:   rec.ID,
			ProductName: rec.ProductName,
			DaysLeft:    warranty.DaysUntil(rec.WarrantyExpiration, now),
			Label:       warranty.Label(rec.WarrantyExpiration, now),
		})
	}
	respondJSON(w, http.StatusOK, notificationsResponse{Notifications: out, Count: len(out)})
}
