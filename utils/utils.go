package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/nijaru/yt-transcript/errors"
	"github.com/sirupsen/logrus"
)

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithError writes {"error": message} with the status mapped from the
// error's kind. Errors outside the taxonomy become 500s with their text.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("utils.RespondWithError", err)
	}

	fields := logrus.Fields{
		"status_code": appErr.Code(),
		"kind":        appErr.Kind.String(),
		"op":          appErr.Op,
		"error":       appErr.Error(),
	}
	if appErr.Code() >= http.StatusInternalServerError {
		logrus.WithFields(fields).Error("Request failed")
	} else {
		logrus.WithFields(fields).Warn("Request rejected")
	}

	HandleError(w, appErr.Message, appErr.Code())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}

// CollapseWhitespace trims text and folds every run of whitespace into a
// single space. Applying it twice gives the same result as applying it once.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
