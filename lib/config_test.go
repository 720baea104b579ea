package lib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorkmail/pinning"
)

func TestLoad_Defaults(t *testing.T) {
	v := NewViper()
	v.Set("domain", "Example.COM")

	cfg, err := Load(v)
	require.NoError(t, err)

	want := Defaults
	want.Domain = "example.com"
	assert.Equal(t, &want, cfg)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DORKMAIL_DOMAIN", "nitj.ac.in")
	t.Setenv("DORKMAIL_MAX_RESULTS", "5")
	t.Setenv("DORKMAIL_MIN_DELAY", "2s")
	t.Setenv("DORKMAIL_MAX_DELAY", "4s")
	t.Setenv("DORKMAIL_NO_PIN", "true")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "nitj.ac.in", cfg.Domain)
	assert.Equal(t, 5, cfg.MaxResults)
	assert.Equal(t, 2*time.Second, cfg.MinDelay)
	assert.Equal(t, 4*time.Second, cfg.MaxDelay)
	assert.True(t, cfg.NoPin)
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dorkmail.yaml")
	content := "domain: example.org\nengine: duckduckgo\ntimeout: 20s\npretty: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := NewViper()
	require.NoError(t, ReadConfigFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.Domain)
	assert.Equal(t, "duckduckgo", cfg.Engine)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.True(t, cfg.Pretty)

	require.Error(t, ReadConfigFile(NewViper(), filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestConfiguration_Validate(t *testing.T) {
	const fp = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	valid := func() Configuration {
		c := Defaults
		c.Domain = "example.com"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr error
		errText string
	}{
		{name: "valid", mutate: func(*Configuration) {}},
		{name: "missing domain", mutate: func(c *Configuration) { c.Domain = " " }, wantErr: ErrMissingDomain},
		{name: "url instead of domain", mutate: func(c *Configuration) { c.Domain = "https://example.com" }, errText: "bare host"},
		{name: "zero quota", mutate: func(c *Configuration) { c.MaxResults = 0 }, errText: "max results"},
		{name: "unknown engine", mutate: func(c *Configuration) { c.Engine = "altavista" }, errText: "unknown search engine"},
		{name: "zero timeout", mutate: func(c *Configuration) { c.Timeout = 0 }, errText: "timeout"},
		{name: "inverted delays", mutate: func(c *Configuration) { c.MinDelay = 5 * time.Second }, errText: "delay range"},
		{name: "bad pin", mutate: func(c *Configuration) { c.Pin = "abc" }, wantErr: pinning.ErrInvalidFingerprint},
		{name: "pin with pinning disabled", mutate: func(c *Configuration) { c.Pin = fp; c.NoPin = true }, errText: "cannot be combined"},
		{name: "pin is normalized", mutate: func(c *Configuration) { c.Pin = strings.ToUpper(fp) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := c.Validate()
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.ErrorContains(t, err, tt.errText)
			default:
				require.NoError(t, err)
			}
		})
	}

	c := valid()
	c.Pin = strings.ToUpper(fp)
	require.NoError(t, c.Validate())
	assert.Equal(t, fp, c.Pin)
}
