package secret

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "segreta/internal/lib/api/response"
	sl "segreta/internal/lib/logger"
	"segreta/internal/middleware/authn"
	"segreta/internal/models"
	"segreta/internal/secrets"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type CreateResponse struct {
	resp.Response
	Message string        `json:"message"`
	Secret  models.Secret `json:"secret"`
}

func NewList(
	log *slog.Logger,
	secretService *secrets.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.secret.NewList"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := secretService.List(ctx)
		if err != nil {
			log.Error("failed to list secrets", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if list == nil {
			list = []models.Secret{}
		}

		render.JSON(w, r, list)
	}
}

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	secretService *secrets.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.secret.NewCreate"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Please log in first"))

			return
		}

		var req CreateRequest

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

		saved, err := secretService.Create(ctx, userID, req.Title, req.Content, req.IsAnonymous)
		if err != nil {
			if errors.Is(err, secrets.ErrNotVerified) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Please verify your email before posting secrets."))

				return
			}
			if errors.Is(err, secrets.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to create secret", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed to save secret. Please try again."))

			return
		}

		log.Info("secret created", slog.Int64("id", saved.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{
			Response: resp.OK(),
			Message:  "Secret shared successfully!",
			Secret:   saved,
		})
	}
}
