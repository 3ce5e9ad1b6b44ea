package resetPassword

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
	Token           string `json:"token" validate:"required"`
	Pass            string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// NewCheck проверяет токен из ссылки до того, как пользователь введет
// новый пароль.
func NewCheck(
	log *slog.Logger,
	resetService *passreset.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetPassword.NewCheck"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := r.URL.Query().Get("token")
		if token == "" {
			log.Warn("missing reset token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid or missing reset token."))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := resetService.CheckToken(ctx, token); err != nil {
			if errors.Is(err, passreset.ErrInvalidOrExpired) {
				log.Info("invalid or expired reset token")

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid or expired reset token."))

				return
			}

			log.Error("failed to check reset token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	resetService *passreset.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetPassword.New"

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

		err = resetService.ConsumeAndReset(ctx, req.Token, req.Pass, req.ConfirmPassword)
		if err != nil {
			switch {
			case errors.Is(err, passreset.ErrPasswordMismatch):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Passwords do not match"))
			case errors.Is(err, passreset.ErrPasswordTooShort):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Password must be at least 6 characters long"))
			case errors.Is(err, passreset.ErrInvalidOrExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid or expired reset token"))
			default:
				log.Error("failed to reset password", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("password reset successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Password reset successfully! You can now log in with your new password.",
		})
	}
}
