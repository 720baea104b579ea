package common

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDork(t *testing.T) {
	assert.Equal(t, `site:nitj.ac.in intext:"@nitj.ac.in"`, Dork("nitj.ac.in"))
}

func TestNewSearchEngine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{"default", "", "google", false},
		{"google", "Google", "google", false},
		{"duckduckgo", "duckduckgo", "duckduckgo", false},
		{"ddg alias", "ddg", "duckduckgo", false},
		{"unknown", "altavista", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewSearchEngine(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, engine.Name())
		})
	}
}

func TestGoogle_PageURL(t *testing.T) {
	g := &Google{}
	raw := g.PageURL(Dork("example.com"), 20)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", u.Host)
	assert.Equal(t, "/search", u.Path)
	assert.Equal(t, `site:example.com intext:"@example.com"`, u.Query().Get("q"))
	assert.Equal(t, "20", u.Query().Get("start"))
}

func TestGoogle_Unwrap(t *testing.T) {
	g := &Google{}

	tests := []struct {
		name string
		href string
		want string
	}{
		{"wrapped", "/url?q=https://example.com/staff&sa=U&ved=abc", "https://example.com/staff"},
		{"wrapped and escaped", "/url?q=https://example.com/a%3Fid%3D7&sa=U", "https://example.com/a?id=7"},
		{"wrapped without params", "/url?q=https://example.com/", "https://example.com/"},
		{"direct link", "https://example.com/contact", "https://example.com/contact"},
		{"other wrapper passes through", "/aclk?sa=l&adurl=https://ads.example", "/aclk?sa=l&adurl=https://ads.example"},
		{"bad escape keeps raw value", "/url?q=https://example.com/%zz&sa=U", "https://example.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Unwrap(tt.href))
		})
	}
}

func TestDuckDuckGo(t *testing.T) {
	s := &DuckDuckGo{BaseURL: "http://127.0.0.1:1/html/"}

	u, err := url.Parse(s.PageURL("site:example.com", 10))
	require.NoError(t, err)
	assert.Equal(t, "10", u.Query().Get("s"))
	assert.Equal(t, "site:example.com", u.Query().Get("q"))

	assert.Equal(t, "https://example.com/team",
		s.Unwrap("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fteam&rut=123"))
	assert.Equal(t, "https://example.com/team",
		s.Unwrap("https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fteam"))
	assert.Equal(t, "https://example.com/", s.Unwrap("https://example.com/"))
}
