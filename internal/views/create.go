package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pollmaster/console/internal/domain"
)

// expiry inputs accepted from the terminal, most specific first.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CreateInput is the raw creation form. Options may contain blanks; they are
// trimmed and filtered before validation, matching what the original form
// submits.
type CreateInput struct {
	Title   string   `validate:"required,min=3,max=200"`
	Options []string `validate:"min=2,max=10,dive,required,max=200"`
	Expiry  string
}

// CreateForm validates creation input and submits it.
type CreateForm struct {
	api      PollAPI
	validate *validator.Validate
}

// NewCreateForm creates the form bound to the gateway client.
func NewCreateForm(api PollAPI) *CreateForm {
	return &CreateForm{
		api:      api,
		validate: validator.New(),
	}
}

// Prepare trims and filters the raw input into the request payload, or
// explains why it is unsubmittable. An expiry in the past is rejected here
// rather than bounced by the backend; an unset expiry is omitted entirely.
func (f *CreateForm) Prepare(input CreateInput, now time.Time) (*domain.CreatePollRequest, error) {
	filtered := make([]string, 0, len(input.Options))
	for _, opt := range input.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			filtered = append(filtered, trimmed)
		}
	}

	cleaned := CreateInput{
		Title:   strings.TrimSpace(input.Title),
		Options: filtered,
		Expiry:  strings.TrimSpace(input.Expiry),
	}
	if err := f.validate.Struct(cleaned); err != nil {
		return nil, describeValidation(err)
	}

	req := &domain.CreatePollRequest{
		Title:   cleaned.Title,
		Options: cleaned.Options,
	}

	if cleaned.Expiry != "" {
		expiry, err := parseExpiry(cleaned.Expiry)
		if err != nil {
			return nil, err
		}
		if !expiry.After(now) {
			return nil, fmt.Errorf("expiry date must be in the future")
		}
		req.ExpiryDate = expiry.UTC().Format(time.RFC3339)
	}

	return req, nil
}

// Submit validates and creates the poll in one step.
func (f *CreateForm) Submit(ctx context.Context, input CreateInput, now time.Time) (*domain.Poll, error) {
	req, err := f.Prepare(input, now)
	if err != nil {
		return nil, err
	}
	return f.api.CreatePoll(ctx, *req)
}

// parseExpiry tries the accepted layouts; bare dates and local datetimes are
// interpreted in the local zone.
func parseExpiry(s string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse expiry date %q", s)
}

// describeValidation turns validator output into a message the form can show
// inline.
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Title":
		return fmt.Errorf("title must be between 3 and 200 characters")
	case "Options":
		if fe.Tag() == "min" {
			return fmt.Errorf("a poll needs at least two non-empty options")
		}
		return fmt.Errorf("a poll can have at most ten options")
	default:
		return fmt.Errorf("option text must be 1-200 characters")
	}
}
