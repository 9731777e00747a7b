// Package web exposes the plan service as a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/review"
	"github.com/conorfennell/studylog/internal/service"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	svc      *service.PlanService
	router   *mux.Router
	validate *validator.Validate
	handler  http.Handler
}

// NewServer creates and configures a new server. allowedOrigins feeds
// the CORS middleware; "*" allows everything.
func NewServer(svc *service.PlanService, allowedOrigins []string) *Server {
	s := &Server{
		svc:      svc,
		router:   mux.NewRouter(),
		validate: validator.New(),
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/plans", s.handleListPlans).Methods(http.MethodGet)
	r.HandleFunc("/plans", s.handleCreatePlan).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}", s.handleGetPlan).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}", s.handleDeletePlan).Methods(http.MethodDelete)

	r.HandleFunc("/plans/{planID}/subjects", s.handleAddSubject).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/subjects/{subjectID}", s.handleDeleteSubject).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/subjects/{subjectID}/topics", s.handleAddTopic).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/subjects/{subjectID}/topics/{topicID}", s.handleDeleteTopic).Methods(http.MethodDelete)

	r.HandleFunc("/plans/{planID}/subjects/{subjectID}/topics/{topicID}/sessions", s.handleRegisterSession).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/subjects/{subjectID}/topics/{topicID}/revisions/{revisionID}/complete", s.handleCompleteRevision).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/subjects/{subjectID}/topics/{topicID}/revisions/{revisionID}", s.handleDeleteRevision).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/revisions/due", s.handlePendingRevisions).Methods(http.MethodGet)

	r.HandleFunc("/plans/{planID}/exams", s.handleAddMockExam).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/exams/{examID}", s.handleDeleteMockExam).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/history", s.handleResetHistory).Methods(http.MethodDelete)

	r.HandleFunc("/plans/{planID}/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}/stats/subjects", s.handleSubjectStats).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}/stats/timeline", s.handleTimeline).Methods(http.MethodGet)

	r.HandleFunc("/plans/{planID}/decks", s.handleAddDeck).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/decks/{deckID}", s.handleDeleteDeck).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/subdecks", s.handleAddSubDeck).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/subdecks/{subDeckID}", s.handleDeleteSubDeck).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/subdecks/{subDeckID}/cards", s.handleAddCard).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/subdecks/{subDeckID}/cards/{cardID}", s.handleDeleteCard).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/decks/due", s.handleDueCounts).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/sources", s.handleAddSource).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/sources", s.handleListSources).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}/decks/{deckID}/sources/{sourceID}", s.handleDeleteSource).Methods(http.MethodDelete)
	r.HandleFunc("/plans/{planID}/sync", s.handleSync).Methods(http.MethodPost)

	r.HandleFunc("/plans/{planID}/study/sessions", s.handleStartReview).Methods(http.MethodPost)
	r.HandleFunc("/study/sessions/{sessionID}/next", s.handleNextCard).Methods(http.MethodGet)
	r.HandleFunc("/study/sessions/{sessionID}/answer", s.handleAnswerCard).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrTopicNotFound),
		errors.Is(err, domain.ErrRevisionNotFound),
		errors.Is(err, domain.ErrDeckNotFound),
		errors.Is(err, domain.ErrSubDeckNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrExamNotFound),
		errors.Is(err, domain.ErrSourceNotFound),
		errors.Is(err, domain.ErrNothingDue):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRevisionCompleted),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrSourceExists),
		errors.Is(err, review.ErrNotInFocus):
		status = http.StatusConflict
	case errors.Is(err, review.ErrUnknownRating):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decode parses the JSON body into dst and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListPlans())
}

type createPlanRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, s.svc.CreatePlan(req.Name))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.GetPlan(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePlan(mux.Vars(r)["planID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	subject, err := s.svc.AddSubject(mux.Vars(r)["planID"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteSubject(v["planID"], v["subjectID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	topic, err := s.svc.AddTopic(v["planID"], v["subjectID"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteTopic(v["planID"], v["subjectID"], v["topicID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type registerSessionRequest struct {
	QuestionsTotal   int   `json:"questionsTotal" validate:"min=0"`
	QuestionsCorrect int   `json:"questionsCorrect" validate:"min=0,ltefield=QuestionsTotal"`
	Offsets          []int `json:"offsets"`
	TheoryFinished   bool  `json:"theoryFinished"`
}

func (s *Server) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	var req registerSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	topic, err := s.svc.RegisterSession(v["planID"], v["subjectID"], v["topicID"],
		req.QuestionsTotal, req.QuestionsCorrect, req.Offsets, req.TheoryFinished)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

type completeRevisionRequest struct {
	QuestionsTotal   int `json:"questionsTotal" validate:"min=0"`
	QuestionsCorrect int `json:"questionsCorrect" validate:"min=0,ltefield=QuestionsTotal"`
}

func (s *Server) handleCompleteRevision(w http.ResponseWriter, r *http.Request) {
	var req completeRevisionRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	topic, err := s.svc.CompleteRevision(v["planID"], v["subjectID"], v["topicID"], v["revisionID"],
		req.QuestionsTotal, req.QuestionsCorrect)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleDeleteRevision(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteRevision(v["planID"], v["subjectID"], v["topicID"], v["revisionID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePendingRevisions(w http.ResponseWriter, r *http.Request) {
	pending, err := s.svc.PendingRevisions(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

type mockExamRequest struct {
	Institution      string `json:"institution" validate:"required"`
	Year             int    `json:"year"`
	QuestionsTotal   int    `json:"questionsTotal" validate:"min=0"`
	QuestionsCorrect int    `json:"questionsCorrect" validate:"min=0,ltefield=QuestionsTotal"`
	Duration         string `json:"duration"`
}

func (s *Server) handleAddMockExam(w http.ResponseWriter, r *http.Request) {
	var req mockExamRequest
	if !s.decode(w, r, &req) {
		return
	}
	exam, err := s.svc.AddMockExam(mux.Vars(r)["planID"], domain.MockExam{
		Institution:      req.Institution,
		Year:             req.Year,
		QuestionsTotal:   req.QuestionsTotal,
		QuestionsCorrect: req.QuestionsCorrect,
		Duration:         req.Duration,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exam)
}

func (s *Server) handleDeleteMockExam(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteMockExam(v["planID"], v["examID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResetHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetHistory(mux.Vars(r)["planID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSubjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.SubjectStats(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := s.svc.Timeline(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}
