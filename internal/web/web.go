// Package web holds the JSON plumbing shared by the controllers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "ferreteria/internal/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

// NewTraceID tags a request in logs and in the error envelope.
func NewTraceID() string {
	return uuid.New().String()
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Decode reads a JSON body into dst and runs its validate tags. Failures
// come back as a ValidationError listing every offending field.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Code:    apperrors.CodeInvalidField,
			Message: "request body must be valid JSON: " + err.Error(),
		})
	}
	return Validate(dst)
}

func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field: "body", Code: apperrors.CodeInvalidField, Message: err.Error(),
		})
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fieldPath(fe.Namespace()),
			Code:    apperrors.CodeInvalidField,
			Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
		})
	}
	return apperrors.NewValidationError("validation failed", details...)
}

// WriteError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged and answered with a generic message.
func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	resp := ErrorResponse{TraceID: traceID, Timestamp: time.Now().UTC()}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Status = http.StatusUnprocessableEntity
		resp.Code = "VALIDATION_ERROR"
		resp.Message = ve.Message
		resp.Details = ve.Details
		if len(ve.Details) == 1 && ve.Details[0].Field == "body" {
			resp.Status = http.StatusBadRequest
		}
	} else if nf, ok := apperrors.IsNotFoundError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusNotFound, "NOT_FOUND", nf.Message
	} else if ce, ok := apperrors.IsConflictError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusConflict, ce.Code, ce.Message
	} else if fe, ok := apperrors.IsForbiddenError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusForbidden, "FORBIDDEN", fe.Message
	} else if de, ok := apperrors.IsDeadlockError(err); ok {
		resp.Status, resp.Code, resp.Message = http.StatusConflict, "DEADLOCK", de.Message
	} else {
		logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
		resp.Status, resp.Code, resp.Message = http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	}

	WriteJSON(w, logger, resp.Status, resp)
}

// fieldPath drops the root struct name: "CreateSaleRequest.lines[0].quantity"
// becomes "lines[0].quantity".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
