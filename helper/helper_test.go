package helper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		input    string
		wantHost string
		wantPort string
		wantErr  bool
	}{
		{"example.com", "example.com", "443", false},
		{"example.com:8443", "example.com", "8443", false},
		{"https://www.example.com/contact", "www.example.com", "443", false},
		{"http://example.com", "example.com", "80", false},
		{"  ", "", "", true},
		{"https://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			host, port, err := HostPort(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestPrettyContent(t *testing.T) {
	html := PrettyContent("text/html; charset=utf-8", []byte("<html><body><p>a</p></body></html>"))
	assert.Contains(t, string(html), "\n")

	js := PrettyContent("application/javascript", []byte("function f(){return 1}"))
	assert.Contains(t, string(js), "return 1")
	assert.Contains(t, string(js), "\n")

	json := PrettyContent("application/json", []byte(`{"a":1}`))
	assert.Equal(t, "{\n  \"a\": 1\n}", string(json))

	broken := []byte(`{"a":`)
	assert.Equal(t, broken, PrettyContent("application/json", broken))

	img := []byte{0x89, 'P', 'N', 'G'}
	assert.Equal(t, img, PrettyContent("image/png", img))
	assert.True(t, strings.HasPrefix(string(PrettyContent("text/plain", []byte("x"))), "x"))
}
