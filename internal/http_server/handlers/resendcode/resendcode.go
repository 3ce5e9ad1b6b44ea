package resendCode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "segreta/internal/lib/api/response"
	sl "segreta/internal/lib/logger"
	"segreta/internal/verification"

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

func New(
	log *slog.Logger,
	validate *validator.Validate,
	verifier *verification.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resendCode.New"

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

		if err := verifier.ResendCode(ctx, req.Email); err != nil {
			if errors.Is(err, verification.ErrRateLimited) {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, resp.Error("A code was sent recently. Please wait a minute before requesting another."))

				return
			}
			if errors.Is(err, verification.ErrInvalidEmail) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Please enter a valid email address"))

				return
			}

			log.Error("failed to resend verification code", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("verification code resent")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "A new verification code has been sent to your email.",
		})
	}
}
