package platform

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newMemPlatform(t *testing.T) *Default {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewDefault(fs, logrus.NewEntry(logrus.New()))
}

func TestDefaultCwdOnMemFs(t *testing.T) {
	p := newMemPlatform(t)
	cwd, err := p.Cwd()
	require.NoError(t, err)
	require.Equal(t, "/", cwd)
}

func TestDefaultReadFileUTF8(t *testing.T) {
	p := newMemPlatform(t)
	require.NoError(t, afero.WriteFile(p.Fs, "/a/b.js", []byte("module.exports = 1;"), 0o644))

	res, err := p.ReadFile("/a/b.js", EncodingUTF8)
	require.NoError(t, err)
	require.Equal(t, "module.exports = 1;", res.Text)
	require.Nil(t, res.Bytes)
}

func TestDefaultReadFileNoneEncoding(t *testing.T) {
	p := newMemPlatform(t)
	require.NoError(t, afero.WriteFile(p.Fs, "/a/b.snapshot", []byte{0x01, 0x02, 0x03}, 0o644))

	res, err := p.ReadFile("/a/b.snapshot", EncodingNone)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, res.Bytes)
	require.Empty(t, res.Text)
}

func TestDefaultReadFileMissing(t *testing.T) {
	p := newMemPlatform(t)
	_, err := p.ReadFile("/missing.js", EncodingUTF8)
	require.Error(t, err)
}

func TestDefaultRealpathMissing(t *testing.T) {
	p := newMemPlatform(t)
	_, err := p.Realpath("/nope.js")
	require.Error(t, err)
}

func TestDefaultRealpathExisting(t *testing.T) {
	p := newMemPlatform(t)
	require.NoError(t, afero.WriteFile(p.Fs, "/pkg/index.js", []byte("1"), 0o644))

	got, err := p.Realpath("/pkg/index.js")
	require.NoError(t, err)
	require.Equal(t, "/pkg/index.js", got)
}

func TestCapabilityMissingErrorStrings(t *testing.T) {
	p := &Default{}
	_, err := p.Cwd()
	require.EqualError(t, err, "platform cwd api not installed")

	_, err = p.Realpath("/x")
	require.EqualError(t, err, "platform api 'path_realpath' not installed")

	_, err = p.ReadFile("/x", EncodingUTF8)
	require.EqualError(t, err, "platform api 'read_file' not installed")
}
