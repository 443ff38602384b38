package service

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"familybudget/internal/validation"
)

var (
	// ErrValidation matches every validation.ValidationError
	ErrValidation         = validation.ErrValidation
	ErrDuplicateName      = errors.New("family name already exists")
	ErrInvalidCredentials = errors.New("invalid family name or password")
	ErrAuthentication     = errors.New("authentication failed")
	ErrFamilyNotFound     = errors.New("family not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrPersistence        = errors.New("storage failure")
	ErrTokenIssuance      = errors.New("failed to issue token")
)

var tracer = otel.Tracer("familybudget/internal/service")

// endSpan records err on span before ending it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
