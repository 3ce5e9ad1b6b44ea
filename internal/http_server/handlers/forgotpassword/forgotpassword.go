package forgotPassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "segreta/internal/lib/api/response"
	sl "segreta/internal/lib/logger"
	"segreta/internal/passreset"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// Ответ для существующего и несуществующего email одинаковый, чтобы по нему
// нельзя было перечислять аккаунты.
const genericMessage = "If an account with this email exists, you will receive a password reset link shortly."

func New(
	log *slog.Logger,
	validate *validator.Validate,
	resetService *passreset.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgotPassword.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := resetService.RequestReset(ctx, req.Email); err != nil {
			if errors.Is(err, passreset.ErrRateLimited) {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, resp.Error("A password reset email was already sent recently. Please check your email or wait 5 minutes before requesting another."))

				return
			}

			log.Error("failed to request password reset", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("password reset requested")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  genericMessage,
		})
	}
}
