package validation

import (
	apperrors "github.com/nijaru/yt-transcript/errors"
)

const MissingVideoIDMessage = "videoId parameter is required"

// ValidateVideoID rejects a missing identifier. Any non-empty value, format
// included, is left for the provider to judge.
func ValidateVideoID(videoID string) (string, error) {
	if videoID == "" {
		return "", apperrors.InvalidRequest("validation.ValidateVideoID", nil, MissingVideoIDMessage)
	}
	return videoID, nil
}
