package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, hclog.Info, lvl)

	lvl, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, hclog.Warn, lvl)

	lvl, err = ParseLevel("off")
	require.NoError(t, err)
	assert.Equal(t, hclog.Off, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_NamePrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Name: "metadata.programs.xbmc4gamers", Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("unhandled action: browse")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "metadata.programs.xbmc4gamers: unhandled action: browse")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Name: "addon", JSON: true, Output: &buf})
	require.NoError(t, err)

	log.Info("hello", "handle", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["@message"])
	assert.Equal(t, "addon", line["@module"])
	assert.EqualValues(t, 7, line["handle"])
}
