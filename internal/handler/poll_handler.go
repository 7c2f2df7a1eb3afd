package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"nextstep-polls/internal/container"
	"nextstep-polls/internal/domain"
	"nextstep-polls/internal/export"
	"nextstep-polls/internal/repository"
	"nextstep-polls/internal/service"
	"nextstep-polls/pkg/errors"
	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/metrics"
)

// PollHandler serves poll CRUD, search and export
type PollHandler struct {
	polls       *repository.PollRepository
	voting      *service.VotingService
	query       *service.QueryService
	live        *service.LiveSimulator
	metrics     *metrics.Collector
	logger      *logger.Logger
	validate    *validator.Validate
	seedOnReset bool
	now         func() time.Time
}

// NewPollHandler creates a new poll handler
func NewPollHandler(c *container.Container) *PollHandler {
	return &PollHandler{
		polls:       c.Polls,
		voting:      c.Voting,
		query:       c.Query,
		live:        c.Live,
		metrics:     c.Metrics,
		logger:      c.GetLogger(),
		validate:    newValidator(),
		seedOnReset: c.GetConfig().SeedOnStart,
		now:         time.Now,
	}
}

// PollListResponse is returned by the list and trending endpoints
type PollListResponse struct {
	Polls []PollSummary `json:"polls"`
	Count int           `json:"count"`
}

// PollSummary is a poll with its running total
type PollSummary struct {
	domain.Poll
	TotalVotes int `json:"totalVotes"`
}

// RegisterRoutes adds the poll routes to the /polls router
func (h *PollHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/trending", h.Trending)
	r.Get("/stats", h.Stats)
	r.Get("/{pollId}", h.Get)
	r.Put("/{pollId}", h.Upsert)
	r.Post("/{pollId}/duplicate", h.Duplicate)
	r.Get("/{pollId}/export.csv", h.ExportCSV)
}

// List handles GET /api/polls?q=&tag=
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	polls, err := h.query.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("tag"))
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load polls", err))
		return
	}
	respondJSON(w, http.StatusOK, summarize(polls))
}

// Trending handles GET /api/polls/trending?limit=&q=&tag=
func (h *PollHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, h.logger, errors.NewValidationError("limit must be an integer", nil))
			return
		}
		limit = n
	}

	polls, err := h.query.GetTrending(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load polls", err))
		return
	}
	polls = service.FilterPolls(polls, r.URL.Query().Get("q"), r.URL.Query().Get("tag"))
	respondJSON(w, http.StatusOK, summarize(polls))
}

// Stats handles GET /api/polls/stats
func (h *PollHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load polls", err))
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Get handles GET /api/polls/{pollId}
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.loadPoll(w, r)
	if !ok {
		return
	}
	ballot, err := h.voting.Ballot(r.Context(), poll.ID)
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load ballot", err))
		return
	}
	respondJSON(w, http.StatusOK, service.BuildResults(*poll, ballot, h.now()))
}

// Create handles POST /api/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePollRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, h.logger, validationError(err))
		return
	}

	poll, err := h.polls.CreatePoll(r.Context(), req.ToDraft())
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to create poll", err))
		return
	}
	h.metrics.RecordPollCreated()

	w.Header().Set("Location", "/api/polls/"+poll.ID)
	respondJSON(w, http.StatusCreated, poll)
}

// Upsert handles PUT /api/polls/{pollId}. The path id wins over any id in
// the body.
func (h *PollHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var poll domain.Poll
	if err := decodeJSON(w, r, &poll, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	poll.ID = chi.URLParam(r, "pollId")
	if poll.Options == nil {
		poll.Options = []domain.PollOption{}
	}
	if err := validatePoll(poll); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.polls.UpsertPoll(r.Context(), poll); err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to save poll", err))
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

// Duplicate handles POST /api/polls/{pollId}/duplicate
func (h *PollHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	cp, err := h.polls.DuplicatePoll(r.Context(), chi.URLParam(r, "pollId"))
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to duplicate poll", err))
		return
	}
	if cp == nil {
		respondError(w, r, h.logger, errors.NewNotFoundError("Poll not found"))
		return
	}
	h.metrics.RecordPollDuplicated()

	w.Header().Set("Location", "/api/polls/"+cp.ID)
	respondJSON(w, http.StatusCreated, cp)
}

// ExportCSV handles GET /api/polls/{pollId}/export.csv
func (h *PollHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.loadPoll(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", export.CSVContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(*poll, ".csv")+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.ToCSV(*poll)))
}

// Reset handles POST /api/reset. Live simulations are stopped first so none
// writes into the cleared store. The demo polls are reinstalled when seeding
// on start is enabled.
func (h *PollHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.live.StopAll()
	if err := h.polls.Reset(ctx); err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to reset polls", err))
		return
	}

	seeded := false
	if h.seedOnReset {
		var err error
		if seeded, err = h.polls.SeedIfEmpty(ctx); err != nil {
			respondError(w, r, h.logger, errors.NewInternalError("Failed to seed polls", err))
			return
		}
	}

	h.logger.WithField("seeded", seeded).Info("Poll store reset via API")
	respondJSON(w, http.StatusOK, map[string]interface{}{"reset": true, "seeded": seeded})
}

// loadPoll fetches the poll named in the path, writing the error response
// itself when it cannot
func (h *PollHandler) loadPoll(w http.ResponseWriter, r *http.Request) (*domain.Poll, bool) {
	poll, err := h.polls.GetPollByID(r.Context(), chi.URLParam(r, "pollId"))
	if err != nil {
		respondError(w, r, h.logger, errors.NewInternalError("Failed to load poll", err))
		return nil, false
	}
	if poll == nil {
		respondError(w, r, h.logger, errors.NewNotFoundError("Poll not found"))
		return nil, false
	}
	return poll, true
}

func summarize(polls []domain.Poll) PollListResponse {
	out := make([]PollSummary, len(polls))
	for i, p := range polls {
		out[i] = PollSummary{Poll: p, TotalVotes: service.TotalVotes(p)}
	}
	return PollListResponse{Polls: out, Count: len(out)}
}
