package quiz

import (
	"log/slog"
	"net/http"

	resp "segreta/internal/lib/api/response"
	sl "segreta/internal/lib/logger"
	quizlib "segreta/internal/quiz"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type MatchRequest struct {
	Answers []string `json:"answers"`
}

type MatchResponse struct {
	Text string `json:"text"`
}

func NewQuestions(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, quizlib.Questions())
	}
}

func NewMatch(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quiz.NewMatch"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req MatchRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		match := quizlib.FlowerMatch(req.Answers)

		render.JSON(w, r, MatchResponse{
			Text: quizlib.RenderHTML(match),
		})
	}
}
