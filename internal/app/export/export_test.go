package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/nfo"
)

type staticLister []domain.Program

func (l staticLister) List(context.Context) ([]domain.Program, error) { return l, nil }

type errLister struct{}

func (errLister) List(context.Context) ([]domain.Program, error) { return nil, errors.New("boom") }

func prog(dir, title string) domain.Program {
	info := domain.Record{}
	if title != "" {
		info[domain.FieldTitle] = domain.Scalar(title)
	}
	return domain.Program{Path: filepath.Join(dir, "default.xbe"), Dir: dir, Info: info}
}

func TestRun_WritesOneDirectoryPerProgram(t *testing.T) {
	out := t.TempDir()
	lib := staticLister{
		prog("/g/Halo", "Halo: Combat Evolved"),
		prog("/g/NoTitle", ""),
		prog("/g/Halo2", "halo: combat evolved"),
	}

	sum, err := Run(context.Background(), lib, out)
	require.NoError(t, err)
	assert.Empty(t, sum.Failed)
	assert.Empty(t, sum.Skipped)
	assert.Equal(t, []string{
		filepath.Join(out, "Halo- Combat Evolved", nfo.FileName),
		filepath.Join(out, "NoTitle", nfo.FileName),
		filepath.Join(out, "halo- combat evolved (2)", nfo.FileName),
	}, sum.Written)

	b, err := os.ReadFile(sum.Written[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "<title>Halo: Combat Evolved</title>")
}

func TestRun_SuffixSkipsNamesTakenByTitles(t *testing.T) {
	out := t.TempDir()
	lib := staticLister{
		prog("/g/A1", "A"),
		prog("/g/A2", "A (2)"),
		prog("/g/A3", "a"),
	}

	sum, err := Run(context.Background(), lib, out)
	require.NoError(t, err)
	assert.Empty(t, sum.Skipped)
	assert.Empty(t, sum.Failed)
	assert.Equal(t, []string{
		filepath.Join(out, "A", nfo.FileName),
		filepath.Join(out, "A (2)", nfo.FileName),
		filepath.Join(out, "a (3)", nfo.FileName),
	}, sum.Written)
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{}
	got := []string{
		uniqueName(used, "Halo"),
		uniqueName(used, "Halo (2)"),
		uniqueName(used, "HALO"),
		uniqueName(used, "halo (2)"),
		uniqueName(used, "Halo"),
	}
	assert.Equal(t, []string{"Halo", "Halo (2)", "HALO (3)", "halo (2) (2)", "Halo (4)"}, got)
}

func TestRun_ExistingFilesAreSkipped(t *testing.T) {
	out := t.TempDir()
	lib := staticLister{prog("/g/Halo", "Halo")}

	dst := filepath.Join(out, "Halo", nfo.FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("hand edited"), 0o644))

	sum, err := Run(context.Background(), lib, out)
	require.NoError(t, err)
	assert.Empty(t, sum.Written)
	assert.Equal(t, []string{dst}, sum.Skipped)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hand edited", string(b))
}

func TestRun_TargetDirectoryConflictIsItemFailure(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "Halo", nfo.FileName), 0o755))

	sum, err := Run(context.Background(), staticLister{prog("/g/Halo", "Halo"), prog("/g/Pac", "Pac")}, out)
	require.NoError(t, err)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, "/g/Halo/default.xbe", filepath.ToSlash(sum.Failed[0].Path))
	assert.Len(t, sum.Written, 1)
}

func TestRun_ListErrorIsReturned(t *testing.T) {
	_, err := Run(context.Background(), errLister{}, t.TempDir())
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Halo":              "Halo",
		"  Pac   Man  ":     "Pac Man",
		"A/B\\C":            "A-B-C",
		`What? "Quoted" <>`: "What Quoted",
		"Trailing...":       "Trailing",
		"..":                "untitled",
		"":                  "untitled",
		"Tab\tName\n":       "Tab Name",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug(in), "input %q", in)
	}
}
