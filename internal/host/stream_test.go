package host

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/metadata"
	"github.com/John-Robertt/progmeta/internal/plugin"
)

func TestStream_Events(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)

	item := &plugin.ListItem{
		Label:    "Pac-Man",
		Category: plugin.CategoryProgram,
		Info: domain.Record{
			domain.FieldTitle: domain.Scalar("Pac-Man"),
			domain.FieldGenre: domain.List("Arcade", "Puzzle"),
		},
	}
	require.NoError(t, s.SetResolvedURL(3, true, item))
	require.NoError(t, s.SetResolvedURL(4, false, nil))
	require.NoError(t, s.EndOfDirectory(5))

	lines := readLines(t, buf.Bytes())
	require.Len(t, lines, 3)
	assert.Equal(t, `{"event":"resolved","handle":3,"succeeded":true,"item":{"label":"Pac-Man","category":"program","info":{"title":"Pac-Man","genre":["Arcade","Puzzle"]}}}`, lines[0])
	assert.Equal(t, `{"event":"resolved","handle":4,"succeeded":false}`, lines[1])
	assert.Equal(t, `{"event":"end_of_directory","handle":5}`, lines[2])
}

func TestStream_WithPlugin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Halo")
	doc := metadata.DocumentPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(doc), 0o755))
	require.NoError(t, os.WriteFile(doc, []byte(`<game><title>Halo</title><release_date>15 Nov 2001</release_date></game>`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, plugin.New(NewStream(&buf), nil).GetDetails(filepath.Join(root, "default.xbe"), 1))

	var ev Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, EventResolved, ev.Event)
	require.NotNil(t, ev.Succeeded)
	assert.True(t, *ev.Succeeded)
	require.NotNil(t, ev.Item)
	assert.Equal(t, domain.Scalar("2001-11-15"), ev.Item.Info[domain.FieldReleaseDate])
}

func readLines(t *testing.T, b []byte) []string {
	t.Helper()
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	require.NoError(t, sc.Err())
	return out
}
