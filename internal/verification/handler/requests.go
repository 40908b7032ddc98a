package handler

import (
	"strings"

	"idguardian/internal/session"
	dErrors "idguardian/pkg/domain-errors"
)

// SubmitNameRequest is the HTTP request body for POST /sessions/{id}/name.
type SubmitNameRequest struct {
	FullName string `json:"fullName"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitNameRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "fullName is required")
	}
	if len(r.FullName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "fullName must be at most 200 characters")
	}
	return nil
}

// BackRequest is the HTTP request body for POST /sessions/{id}/back.
type BackRequest struct {
	Step string `json:"step"`

	// Parsed values (populated by Validate)
	parsedStep session.Step
}

// Validate validates and parses the request.
func (r *BackRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	step := session.Step(strings.TrimSpace(r.Step))
	if !step.Valid() {
		return dErrors.New(dErrors.CodeValidation, "step is not a known wizard step")
	}
	r.parsedStep = step
	return nil
}

// ParsedStep returns the validated target step.
func (r *BackRequest) ParsedStep() session.Step {
	return r.parsedStep
}
