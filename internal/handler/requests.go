package handler

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"nextstep-polls/internal/domain"
	"nextstep-polls/pkg/errors"
)

// defaultCreator is attributed to polls created without a creator
var defaultCreator = domain.Creator{ID: "me", Name: "You", AvatarColor: "276 86% 36%"}

// CreatePollRequest is the body of POST /api/polls
type CreatePollRequest struct {
	Title       string              `json:"title" validate:"required,min=6,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Options     []OptionInput       `json:"options" validate:"min=2,max=50,dive"`
	ExpiresAt   *int64              `json:"expiresAt" validate:"omitempty,gt=0"`
	Creator     *domain.Creator     `json:"creator"`
	Tags        []string            `json:"tags" validate:"max=20,dive,max=40"`
	Settings    domain.PollSettings `json:"settings"`
}

// OptionInput is one candidate in a create request. Votes are never accepted.
type OptionInput struct {
	ID    string `json:"id" validate:"max=64"`
	Text  string `json:"text" validate:"required,max=200"`
	Party string `json:"party" validate:"max=100"`
	Image string `json:"image" validate:"omitempty,url"`
}

// VoteRequest is the body of POST /api/polls/{id}/vote
type VoteRequest struct {
	OptionIDs []string `json:"optionIds"`
}

// SimulateRequest is the body of the simulate and simulation endpoints
type SimulateRequest struct {
	Intensity  int `json:"intensity" validate:"gte=0,lte=1000"`
	IntervalMs int `json:"intervalMs" validate:"gte=0,lte=60000"`
}

// Normalize trims text fields and drops blank options and tags
func (r *CreatePollRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	options := make([]OptionInput, 0, len(r.Options))
	for _, o := range r.Options {
		o.Text = strings.TrimSpace(o.Text)
		if o.Text == "" {
			continue
		}
		o.ID = strings.TrimSpace(o.ID)
		o.Party = strings.TrimSpace(o.Party)
		options = append(options, o)
	}
	r.Options = options

	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	r.Tags = tags
}

// ToDraft converts a validated request into a draft with every tally at
// zero. Missing or repeated option ids are replaced with fresh UUIDs.
func (r *CreatePollRequest) ToDraft() domain.PollDraft {
	seen := make(map[string]bool, len(r.Options))
	options := make([]domain.PollOption, len(r.Options))
	for i, o := range r.Options {
		id := o.ID
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		options[i] = domain.PollOption{ID: id, Text: o.Text, Party: o.Party, Image: o.Image}
	}

	creator := r.Creator
	if creator == nil {
		c := defaultCreator
		creator = &c
	}

	var tags []string
	if len(r.Tags) > 0 {
		tags = r.Tags
	}

	return domain.PollDraft{
		Title:       r.Title,
		Description: r.Description,
		Options:     options,
		ExpiresAt:   r.ExpiresAt,
		Creator:     creator,
		Tags:        tags,
		Settings:    r.Settings,
	}
}

// validatePoll checks a full poll submitted for upsert
func validatePoll(p domain.Poll) error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.NewValidationError("Poll title is required", nil)
	}
	seen := make(map[string]bool, len(p.Options))
	for _, o := range p.Options {
		if o.ID == "" {
			return errors.NewValidationError("Every option needs an id", nil)
		}
		if seen[o.ID] {
			return errors.NewValidationError("Option ids must be unique", map[string]interface{}{"id": o.ID})
		}
		seen[o.ID] = true
		if o.Votes < 0 {
			return errors.NewValidationError("Vote counts cannot be negative", map[string]interface{}{"id": o.ID})
		}
	}
	return nil
}

// newValidator returns a validator that reports json field names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into an AppError with one
// detail entry per failing field
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError("Invalid request", map[string]interface{}{"reason": err.Error()})
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldPath(fe)] = describe(fe)
	}
	return errors.NewValidationError("Request validation failed", details)
}

// fieldPath drops the root struct name, e.g. "CreatePollRequest.options[0].text" -> "options[0].text"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("allows at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url":
		return "must be a URL"
	default:
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
}
