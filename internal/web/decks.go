package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/dueset"
	"github.com/conorfennell/studylog/internal/review"
)

func (s *Server) handleAddDeck(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	deck, err := s.svc.AddDeck(mux.Vars(r)["planID"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteDeck(v["planID"], v["deckID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddSubDeck(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	sub, err := s.svc.AddSubDeck(v["planID"], v["deckID"], req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleDeleteSubDeck(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteSubDeck(v["planID"], v["deckID"], v["subDeckID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type addCardRequest struct {
	Question  string `json:"question" validate:"required"`
	Answer    string `json:"answer" validate:"required"`
	MediaRef  string `json:"mediaRef"`
	MediaSide string `json:"mediaSide" validate:"omitempty,oneof=question answer"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	card, err := s.svc.AddCard(v["planID"], v["deckID"], v["subDeckID"], domain.CardContent{
		Question: req.Question,
		Answer:   req.Answer,
		MediaRef: req.MediaRef,
		MediaOn:  domain.MediaSide(req.MediaSide),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteCard(v["planID"], v["deckID"], v["subDeckID"], v["cardID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDueCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.DueCounts(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

type addSourceRequest struct {
	Location string `json:"location" validate:"required"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := mux.Vars(r)
	source, err := s.svc.AddSource(v["planID"], v["deckID"], req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, source)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	sources, err := s.svc.Sources(v["planID"], v["deckID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	if err := s.svc.DeleteSource(v["planID"], v["deckID"], v["sourceID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.SyncSources(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type startReviewRequest struct {
	DeckID    string `json:"deckId"`
	SubDeckID string `json:"subDeckId"`
	ErrorDeck bool   `json:"errorDeck"`
	Policy    string `json:"policy" validate:"required,oneof=graduated binary"`
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	var req startReviewRequest
	if !s.decode(w, r, &req) {
		return
	}
	scope := dueset.Scope{DeckID: req.DeckID, SubDeckID: req.SubDeckID, ErrorDeck: req.ErrorDeck}
	state, err := s.svc.StartReview(mux.Vars(r)["planID"], scope, review.PolicyKind(req.Policy))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleNextCard(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.CurrentCard(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type answerRequest struct {
	CardID  string `json:"cardId" validate:"required"`
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=4"`
	Outcome string `json:"outcome" validate:"omitempty,oneof=correct wrong"`
}

func (s *Server) handleAnswerCard(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	outcome := review.Correct
	if req.Outcome == "wrong" {
		outcome = review.Wrong
	}
	state, err := s.svc.AnswerCard(mux.Vars(r)["sessionID"], req.CardID, review.Rating(req.Rating), outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
