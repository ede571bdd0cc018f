package cliconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"--hostfile", "hosts.txt"})
	require.NoError(t, err)
	assert.Equal(t, "hosts.txt", cfg.Hostfile)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PProf)
}

func TestParse_ShortFlags(t *testing.T) {
	cfg, err := Parse([]string{"-f", "hosts.txt", "-p", "9999", "-t", "45"})
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestParse_MissingHostfile(t *testing.T) {
	_, err := Parse([]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostfile")
}

func TestParse_LogLevelNormalisation(t *testing.T) {
	cfg, err := Parse([]string{"--hostfile", "hosts.txt", "--log-level", "WARNING"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
