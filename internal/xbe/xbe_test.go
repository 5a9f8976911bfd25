package xbe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// image 构造一个最小 XBE：头部 + 位于 certOff 的证书。
func image(base, certOff, titleID uint32) []byte {
	b := make([]byte, certOff+0x10)
	copy(b, magic)
	binary.LittleEndian.PutUint32(b[offBaseAddr:], base)
	binary.LittleEndian.PutUint32(b[offCertAddr:], base+certOff)
	binary.LittleEndian.PutUint32(b[certOff+offTitleID:], titleID)
	return b
}

func TestTitleID(t *testing.T) {
	id, err := TitleID(bytes.NewReader(image(0x10000, 0x178, 0x4D530004)))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4D530004), id)
	assert.Equal(t, "4D530004", FormatID(id))
}

func TestFormatID_NoPadding(t *testing.T) {
	assert.Equal(t, "ABC", FormatID(0xabc))
	assert.Equal(t, "0", FormatID(0))
}

func TestTitleID_Invalid(t *testing.T) {
	good := image(0x10000, 0x178, 1)

	badMagic := append([]byte(nil), good...)
	copy(badMagic, "MZ\x00\x00")

	certBelowBase := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(certBelowBase[offCertAddr:], 0x100)

	certPastEnd := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(certPastEnd[offCertAddr:], 0x10000+0x1000)

	cases := map[string][]byte{
		"too short":       []byte("XBEH"),
		"bad magic":       badMagic,
		"cert below base": certBelowBase,
		"cert past end":   certPastEnd,
	}
	for name, b := range cases {
		_, err := TitleID(bytes.NewReader(b))
		assert.True(t, errors.Is(err, ErrNotXBE), "%s: err=%v", name, err)
	}
}

func TestUniqueID_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.xbe")
	require.NoError(t, os.WriteFile(path, image(0x10000, 0x200, 0x0000ABCD), 0o644))

	id, err := UniqueID(path)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", id)

	_, err = UniqueID(filepath.Join(t.TempDir(), "missing.xbe"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
