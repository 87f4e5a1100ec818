package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ferreteria/internal/domain"
	apperrors "ferreteria/internal/errors"
	"ferreteria/internal/web"
)

const (
	HeaderOperatorID   = "X-Operator-Id"
	HeaderOperatorName = "X-Operator-Name"
	HeaderOperatorRole = "X-Operator-Role"
)

// Identity reads the operator set by the gateway. Requests without a
// valid id and a known role are rejected before reaching a handler.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(HeaderOperatorID)))
			if err != nil || id <= 0 {
				web.WriteError(w, logger, web.NewTraceID(), apperrors.NewForbiddenError("missing or invalid operator id"))
				return
			}

			role := domain.ParseRole(r.Header.Get(HeaderOperatorRole))
			if role == domain.RoleUnknown {
				logger.Warn("rejected unknown operator role",
					zap.Int("operatorId", id), zap.String("role", r.Header.Get(HeaderOperatorRole)))
				web.WriteError(w, logger, web.NewTraceID(), apperrors.NewForbiddenError("unknown operator role"))
				return
			}

			op := domain.Operator{
				ID:   id,
				Name: strings.TrimSpace(r.Header.Get(HeaderOperatorName)),
				Role: role,
			}
			next.ServeHTTP(w, r.WithContext(web.WithOperator(r.Context(), op)))
		})
	}
}

// Require rejects operators whose role lacks the capability.
func Require(c domain.Capability, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := web.OperatorFrom(r.Context())
			if !op.Can(c) {
				web.WriteError(w, logger, web.NewTraceID(),
					apperrors.NewForbiddenError("operator role "+op.Role.String()+" is not allowed here"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger writes one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
