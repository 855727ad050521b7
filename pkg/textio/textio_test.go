package textio

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-05 12:30:45.123")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 30, 45, 123_000_000, time.UTC), ts)

	ts, err = ParseTimestamp("  2024-03-05 12:30:45.123  ")
	require.NoError(t, err)
	assert.Equal(t, 123_000_000, ts.Nanosecond())

	_, err = ParseTimestamp("2024-03-05")
	assert.Error(t, err)
	_, err = ParseTimestamp("not a timestamp")
	assert.Error(t, err)
}

func TestDecodingReaderUTF8Passthrough(t *testing.T) {
	src := bytes.NewReader([]byte("héllo"))
	r, err := DecodingReader(src, "utf-8")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(out))
}

func TestDecodingReaderLatin1(t *testing.T) {
	// 0xE9 is é in ISO 8859-1
	src := bytes.NewReader([]byte{0x61, 0xE9, 0x62})
	r, err := DecodingReader(src, "latin-1")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "aéb", string(out))
}

func TestDecodingReaderGBK(t *testing.T) {
	// 0xC4 0xE3 is the GBK encoding of U+4F60
	src := bytes.NewReader([]byte{0xC4, 0xE3})
	r, err := DecodingReader(src, "gbk")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "你", string(out))
}

func TestDecodingReaderRejectsUnknown(t *testing.T) {
	_, err := DecodingReader(bytes.NewReader(nil), "ebcdic")
	assert.Error(t, err)
}
