package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https url", url: "https://example.com/feed"},
		{name: "valid http url", url: "http://example.com/feed"},
		{name: "empty url", url: "", wantErr: true},
		{name: "missing scheme", url: "example.com/feed", wantErr: true},
		{name: "unsupported scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "missing host", url: "https://", wantErr: true},
		{name: "over length limit", url: "https://example.com/" + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
