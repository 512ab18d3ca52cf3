package validation

import (
	"testing"

	apperrors "github.com/nijaru/yt-transcript/errors"
)

func TestValidateVideoID_EdgeCases(t *testing.T) {
	tests := []struct {
		videoID string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"  dQw4w9WgXcQ ", "  dQw4w9WgXcQ ", false},
		{"not-a-real-id!", "not-a-real-id!", false},
		{"", "", true},
		{"   ", "   ", false},
	}

	for _, tt := range tests {
		got, err := ValidateVideoID(tt.videoID)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVideoID(%q) error = %v, wantErr %v", tt.videoID, err, tt.wantErr)
			continue
		}
		if err != nil {
			if apperrors.KindOf(err) != apperrors.KindInvalidRequest {
				t.Errorf("ValidateVideoID(%q) kind = %v", tt.videoID, apperrors.KindOf(err))
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateVideoID(%q) = %q, want %q", tt.videoID, got, tt.want)
		}
	}
}
