package metadata

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/progmeta/internal/domain"
)

const fullDoc = `<?xml version="1.0" encoding="UTF-8"?>
<game>
  <type>game</type>
  <system>xbox</system>
  <title>Halo: Combat Evolved</title>
  <developer>Bungie</developer>
  <publisher>Microsoft Game Studios</publisher>
  <features_general>Players 1-4, System Link 2-16, Dolby Digital</features_general>
  <features_online>Content Download</features_online>
  <esrb>Mature</esrb>
  <genre>Shooter, Action</genre>
  <release_date>15 Nov 2001</release_date>
  <year>2001</year>
  <rating>9.7</rating>
  <platform>Xbox, PC</platform>
  <exclusive>Yes</exclusive>
  <overview>Earth is under attack.</overview>
</game>`

func TestLoad_AllFields(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, fullDoc)

	res, err := Load(root)
	require.NoError(t, err)

	want := domain.Record{
		domain.FieldMediaType:      domain.Scalar("game"),
		domain.FieldSystem:         domain.Scalar("xbox"),
		domain.FieldTitle:          domain.Scalar("Halo: Combat Evolved"),
		domain.FieldDeveloper:      domain.Scalar("Bungie"),
		domain.FieldPublisher:      domain.Scalar("Microsoft Game Studios"),
		domain.FieldGeneralFeature: domain.List("Players 1-4", "System Link 2-16", "Dolby Digital"),
		domain.FieldOnlineFeature:  domain.List("Content Download"),
		domain.FieldESRB:           domain.Scalar("Mature"),
		domain.FieldGenre:          domain.List("Shooter", "Action"),
		domain.FieldReleaseDate:    domain.Scalar("2001-11-15"),
		domain.FieldYear:           domain.Scalar("2001"),
		domain.FieldRating:         domain.Scalar("9.7"),
		domain.FieldPlatform:       domain.List("Xbox", "PC"),
		domain.FieldExclusive:      domain.Scalar("Yes"),
		domain.FieldOverview:       domain.Scalar("Earth is under attack."),
	}
	assert.Equal(t, want, res.Record)
	assert.Equal(t, domain.DateParsed, res.ReleaseDate.State)
	assert.Equal(t, "15 Nov 2001", res.ReleaseDate.Source)
}

func TestLoad_OnlyTitle(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game><title>Pac-Man</title></game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Record{domain.FieldTitle: domain.Scalar("Pac-Man")}, res.Record)
	assert.Equal(t, domain.DateAbsent, res.ReleaseDate.State)
}

func TestLoad_SubsetYieldsExactlyPresentKeys(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game>
  <title>Pac-Man</title>
  <developer></developer>
  <publisher/>
  <genre>Arcade, Puzzle</genre>
  <year>1980</year>
</game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldTitle, domain.FieldGenre, domain.FieldYear}, res.Record.Keys())
	assert.Equal(t, domain.List("Arcade", "Puzzle"), res.Record[domain.FieldGenre])
}

func TestLoad_ScalarsAreVerbatim(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "<game><title>  Pac-Man \n</title><overview>Tom &amp; Jerry <![CDATA[<raw>]]></overview></game>")

	res, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar("  Pac-Man \n"), res.Record[domain.FieldTitle])
	assert.Equal(t, domain.Scalar("Tom & Jerry <raw>"), res.Record[domain.FieldOverview])
}

func TestLoad_DuplicateTagsFirstWins(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game><title>First</title><title>Second</title><year></year><year>1999</year></game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar("First"), res.Record[domain.FieldTitle])
	// 第一个 <year> 为空：字段缺失，不会退而使用后面的重复标签。
	assert.False(t, res.Record.Has(domain.FieldYear))
}

func TestLoad_OnlyDirectChildrenAndTextBeforeFirstChild(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game>
  <info><title>Nested</title></info>
  <overview>Intro<b>bold</b>tail</overview>
</game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.False(t, res.Record.Has(domain.FieldTitle))
	assert.Equal(t, domain.Scalar("Intro"), res.Record[domain.FieldOverview])
}

func TestLoad_ReleaseDateFallback(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game><release_date>June 2003</release_date></game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar(domain.EpochDate), res.Record[domain.FieldReleaseDate])
	assert.Equal(t, domain.DateFallback, res.ReleaseDate.State)
}

func TestLoad_Trailer(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, `<game><title>Pac-Man</title></game>`)

	res, err := Load(root)
	require.NoError(t, err)
	assert.False(t, res.Record.Has(domain.FieldTrailer))

	trailer := filepath.Join(root, "_resources", "media", "preview.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(trailer), 0o755))
	// 零字节文件同样算存在：不校验内容。
	require.NoError(t, os.WriteFile(trailer, nil, 0o644))

	res, err = Load(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar(trailer), res.Record[domain.FieldTrailer])
}

func TestLoad_MissingDocumentIsFatal(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "err=%v", err)
}

func TestLoad_MalformedDocumentIsFatal(t *testing.T) {
	cases := map[string]string{
		"unclosed":   `<game><title>Pac-Man</title>`,
		"mismatched": `<game><title>Pac-Man</year></game>`,
		"empty":      ``,
		"two roots":  `<game/><game/>`,
		"junk":       `<game/>junk`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeDoc(t, root, doc)

			res, err := Load(root)
			require.Error(t, err)
			assert.True(t, IsSyntax(err), "err=%v", err)
			assert.Nil(t, res.Record)
			assert.Contains(t, err.Error(), DocumentName)
		})
	}
}

func TestParse_Latin1Declaration(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><game><title>Caf\xe9</title></game>"

	res, err := Parse(strings.NewReader(doc), "")
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar("Café"), res.Record[domain.FieldTitle])
}

func TestParse_EmptyRootDirUsesWorkingDirectory(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)
	require.NoError(t, os.MkdirAll(filepath.Join(ResourcesDir, "media"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ResourcesDir, "media", "preview.mp4"), []byte("x"), 0o644))

	res, err := Parse(strings.NewReader(`<game><title>Halo</title></game>`), "")
	require.NoError(t, err)
	assert.Equal(t, domain.Scalar(filepath.Join(ResourcesDir, "media", "preview.mp4")), res.Record[domain.FieldTrailer])
}

func TestParse_NamespacedElementsDoNotMatch(t *testing.T) {
	doc := `<game xmlns="urn:x"><title>Pac-Man</title></game>`

	res, err := Parse(strings.NewReader(doc), "")
	require.NoError(t, err)
	assert.Empty(t, res.Record)
}

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Arcade, Puzzle", []string{"Arcade", "Puzzle"}},
		{"Arcade", []string{"Arcade"}},
		{"Arcade,Puzzle", []string{"Arcade,Puzzle"}},
		{" Arcade ,  Puzzle ", []string{"Arcade", "Puzzle"}},
		{"A,  B, C", []string{"A", "B", "C"}},
	}
	for _, c := range cases {
		got := SplitList(c.in)
		assert.Equal(t, c.want, got, "in=%q", c.in)

		// 再次 join/split 结果不变。
		assert.Equal(t, got, SplitList(strings.Join(got, ListSeparator)), "in=%q", c.in)
	}
}

func writeDoc(t *testing.T, root, doc string) {
	t.Helper()
	path := DocumentPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}
