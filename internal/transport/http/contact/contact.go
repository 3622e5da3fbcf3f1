package contact

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kikorobot/storefront/internal/service/models/notification"
	"github.com/kikorobot/storefront/internal/service/services/notifysvc"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	SendContact(ctx context.Context, c notification.Contact) error
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitContact dispatches a contact form submission.
func SubmitContact(w http.ResponseWriter, r *http.Request, service service) {
	var c notification.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to decode request body")
		slog.Error("Error decoding contact submission", "error", err)

		return
	}

	if err := service.SendContact(r.Context(), c); err != nil {
		if errors.Is(err, notifysvc.ErrValidation) {
			respond.Error(w, http.StatusBadRequest, "Name, email, and message are required")

			return
		}

		respond.Error(w, http.StatusInternalServerError, "Failed to send email")
		slog.Error("Error sending contact email", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, response{
		Success: true,
		Message: "Email sent successfully!",
	})
}
