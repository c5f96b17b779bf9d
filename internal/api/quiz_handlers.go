package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rbuysse/quizbox/internal/service"
)

type createQuizRequest struct {
	QuizType     string          `json:"quiz_type"`
	QuestionText string          `json:"question_text"`
	AnswerText   json.RawMessage `json:"answer_text"`
	ThemeID      *uint           `json:"theme_id"`
}

type createThemeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// pathID parses a numeric path value. Anything else is treated as a missing resource.
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.themes.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (s *Server) createTheme(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req createThemeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	theme, err := s.admin.CreateTheme(r.Context(), identity.UserID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

func (s *Server) themeQuizzes(w http.ResponseWriter, r *http.Request) {
	themeID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "theme not found")
		return
	}

	quizzes, err := s.quizzes.ListByTheme(r.Context(), themeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req createQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	quizID, err := s.quizzes.Create(r.Context(), identity.UserID, service.CreateQuizInput{
		QuizType:     service.QuizType(req.QuizType),
		QuestionText: req.QuestionText,
		Answer:       req.AnswerText,
		ThemeID:      req.ThemeID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Quiz created successfully",
		"id":      quizID,
	})
}

func (s *Server) myQuizzes(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	quizzes, err := s.quizzes.ListOwned(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) defaultQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.quizzes.ListDefault(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) getQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}

	quiz, err := s.quizzes.Get(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}
