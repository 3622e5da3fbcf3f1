package feedback

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
	SendFeedback(ctx context.Context, f notification.Feedback) error
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitFeedback dispatches a feature feedback submission.
func SubmitFeedback(w http.ResponseWriter, r *http.Request, service service) {
	var f notification.Feedback
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to decode request body")
		slog.Error("Error decoding feedback submission", "error", err)

		return
	}

	if err := service.SendFeedback(r.Context(), f); err != nil {
		switch {
		case errors.Is(err, notifysvc.ErrValidation):
			respond.Error(w, http.StatusBadRequest, "Feature and description are required")
		case errors.Is(err, notifysvc.ErrNotification):
			respond.Error(w, http.StatusInternalServerError, "Failed to send email, but feedback was saved locally")
		default:
			respond.Error(w, http.StatusInternalServerError, "Failed to submit feedback")
			slog.Error("Error sending feedback email", "error", err)
		}

		return
	}

	respond.JSON(w, http.StatusOK, response{
		Success: true,
		Message: "Feedback submitted successfully!",
	})
}
