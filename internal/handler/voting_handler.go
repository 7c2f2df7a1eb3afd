package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"nextstep-polls/internal/container"
	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/repository"
	"nextstep-polls/internal/service"
	"nextstep-polls/pkg/errors"
	"nextstep-polls/pkg/logger"
)

// VotingHandler serves ballots and vote simulation
type VotingHandler struct {
	polls     *repository.PollRepository
	voting    *service.VotingService
	simulator *service.Simulator
	live      *service.LiveSimulator
	logger    *logger.Logger
	validate  *validator.Validate
}

func NewVotingHandler(c *container.Container) *VotingHandler {
	return &VotingHandler{
		polls:     c.Polls,
		voting:    c.Voting,
		simulator: c.Simulator,
		live:      c.Live,
		logger:    c.GetLogger(),
		validate:  newValidator(),
	}
}

// VoteResponse is returned for an applied or rejected ballot
type VoteResponse struct {
	Outcome  domain.VoteOutcome `json:"outcome"`
	Poll     *domain.Poll       `json:"poll"`
	MyBallot []string           `json:"myBallot"`
}

// SimulationStatus reports whether a live simulation runs for a poll
type SimulationStatus struct {
	PollID  string `json:"pollId"`
	Running bool   `json:"running"`
}

// RegisterRoutes adds the voting routes to the /polls router
func (h *VotingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{pollId}/vote", h.Vote)
	r.Get("/{pollId}/ballot", h.Ballot)
	r.Post("/{pollId}/simulate", h.Simulate)
	r.Get("/{pollId}/simulation", h.SimulationState)
	r.Post("/{pollId}/simulation", h.StartSimulation)
	r.Delete("/{pollId}/simulation", h.StopSimulation)
}

// Vote handles POST /api/polls/{pollId}/vote.
// Applied ballots return 200, a blocked revote 409 and a missing poll 404.
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	pollID := chi.URLParam(r, "pollId")
	res, err := h.voting.Vote(r.Context(), pollID, req.OptionIDs)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to record vote", err))
		return
	}

	switch res.Outcome {
	case domain.VoteNotFound:
		respondError(w, r, h.logger, errors.NewNotFoundError("Poll not found"))
		return
	case domain.VoteRejected:
		appErr := errors.NewRejectedError("You have already voted in this poll")
		appErr.Details = map[string]interface{}{"poll": res.Poll}
		respondError(w, r, h.logger, appErr)
		return
	}

	ballot, err := h.voting.Ballot(r.Context(), pollID)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load ballot", err))
		return
	}
	respondJSON(w, http.StatusOK, VoteResponse{Outcome: res.Outcome, Poll: res.Poll, MyBallot: ballot})
}

// Ballot handles GET /api/polls/{pollId}/ballot
func (h *VotingHandler) Ballot(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")
	ballot, err := h.voting.Ballot(r.Context(), pollID)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load ballot", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pollId":   pollID,
		"myBallot": ballot,
		"voted":    len(ballot) > 0,
	})
}

// Simulate handles POST /api/polls/{pollId}/simulate, one step
func (h *VotingHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSimulate(w, r)
	if !ok {
		return
	}

	poll, err := h.simulator.SimulateStep(r.Context(), chi.URLParam(r, "pollId"), req.Intensity)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to simulate votes", err))
		return
	}
	if poll == nil {
		respondError(w, r, h.logger, errors.NewNotFoundError("Poll not found"))
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

// SimulationState handles GET /api/polls/{pollId}/simulation
func (h *VotingHandler) SimulationState(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")
	respondJSON(w, http.StatusOK, SimulationStatus{PollID: pollID, Running: h.live.Running(pollID)})
}

// StartSimulation handles POST /api/polls/{pollId}/simulation
func (h *VotingHandler) StartSimulation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSimulate(w, r)
	if !ok {
		return
	}

	pollID := chi.URLParam(r, "pollId")
	// the simulator tolerates a missing poll, but starting one is a client error
	poll, err := h.polls.GetPollByID(r.Context(), pollID)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load poll", err))
		return
	}
	if poll == nil {
		respondError(w, r, h.logger, errors.NewNotFoundError("Poll not found"))
		return
	}

	h.live.Start(pollID, time.Duration(req.IntervalMs)*time.Millisecond, req.Intensity, nil)
	respondJSON(w, http.StatusAccepted, SimulationStatus{PollID: pollID, Running: true})
}

// StopSimulation handles DELETE /api/polls/{pollId}/simulation
func (h *VotingHandler) StopSimulation(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")
	h.live.Stop(pollID)
	respondJSON(w, http.StatusOK, SimulationStatus{PollID: pollID, Running: false})
}

func (h *VotingHandler) decodeSimulate(w http.ResponseWriter, r *http.Request) (SimulateRequest, bool) {
	req := SimulateRequest{Intensity: 1}
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondError(w, r, h.logger, err)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, h.logger, validationError(err))
		return req, false
	}
	return req, true
}
