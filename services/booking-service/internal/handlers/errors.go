package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
)

type errorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Conflict bool   `json:"conflict,omitempty"`
}

// writeError answers with the caller-facing message and category of err.
// Dependency failures are logged with their cause; the caller gets the generic
// message. Unclassified errors are answered in locale.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, locale string, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.MessageOf(err)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Message == "" {
		msg = i18n.Message(locale, i18n.Internal)
	}
	if kind == apperr.KindDependency {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", err,
		)
	}
	httpx.WriteJSON(w, apperr.HTTPStatus(kind), errorResponse{
		Error:    msg,
		Code:     string(kind),
		Conflict: kind == apperr.KindConflict,
	})
}

func methodNotAllowed(w http.ResponseWriter, allow, locale string) {
	w.Header().Set("Allow", allow)
	httpx.WriteJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: i18n.Message(locale, i18n.MethodNotAllowed),
		Code:  "method_not_allowed",
	})
}
