package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"segreta/internal/auth"
	resp "segreta/internal/lib/api/response"
	sl "segreta/internal/lib/logger"
	"segreta/internal/verification"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Pass     string `json:"password" validate:"required,min=6"`
}

type Response struct {
	resp.Response
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	verifier *verification.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		userID, err := authService.RegisterNewUser(ctx, req.Email, req.Username, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("User already exists!"))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User registered", slog.Int64("id", userID))

		if verifier.Bypassed() {
			ResponseOK(w, r, userID, "User created successfully! (Demo mode - no verification needed)")

			return
		}

		if err := verifier.IssueCode(ctx, req.Email); err != nil {
			log.Error("Failed to issue verification code", sl.Err(err))

			ResponseOK(w, r, userID, "User created successfully! There was an issue sending the verification code. You can request a new one.")

			return
		}

		ResponseOK(w, r, userID, "User created successfully! We have sent a verification code to your email.")
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, userID int64, message string) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response: resp.OK(),
		UserID:   userID,
		Message:  message,
	})
}
