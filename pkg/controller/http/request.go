package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const maxRequestBody = 1 << 20

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &requestValidator{validate: v}
}

// decode reads a JSON body into dst and validates it
func (v *requestValidator) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return goerr.Wrap(fmt.Errorf("%w: %w", model.ErrValidation, err), "invalid JSON body")
	}
	return v.check(dst)
}

func (v *requestValidator) check(dst any) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return goerr.Wrap(err, "failed to validate request")
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs[i] = fmt.Sprintf("%s is required", fe.Field())
		case "min":
			msgs[i] = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return goerr.Wrap(model.ErrValidation, strings.Join(msgs, "; "))
}

type chatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"sessionId"`
	UserRole  string `json:"userRole"`
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit *int   `json:"limit" validate:"omitempty,min=1"`
}

type vectorSearchRequest struct {
	Vector []float32 `json:"vector" validate:"required,min=1"`
	Limit  *int      `json:"limit" validate:"omitempty,min=1"`
	Query  string    `json:"query"`
}

type createKnowledgeRequest struct {
	SourceType string         `json:"source_type" validate:"required"`
	TextChunk  string         `json:"text_chunk" validate:"required"`
	Metadata   map[string]any `json:"metadata"`
}

type indexRunRequest struct {
	SourceType string `json:"source_type"`
}

func limitOf(limit *int) int {
	if limit == nil {
		return 0
	}
	return *limit
}
