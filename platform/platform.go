// Package platform is the embedder-replaceable facade for filesystem and
// stdio access that the module subsystem needs: cwd, realpath, file
// reads, stdio streams, and a fatal-error hook. The default
// implementation is backed by an afero.Fs so tests can substitute an
// in-memory filesystem.
package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Encoding selects how ReadFile interprets file bytes.
type Encoding int

const (
	// EncodingNone returns raw bytes, used for snapshots and binary data.
	EncodingNone Encoding = iota
	// EncodingUTF8 validates and decodes the file as UTF-8.
	EncodingUTF8
	// EncodingCESU8 returns the file bytes unchanged as a string; they are
	// neither validated nor converted from CESU-8.
	EncodingCESU8
)

// ReadResult is the outcome of a ReadFile call: either Bytes (encoding
// none) or Text (utf8/cesu8) is populated.
type ReadResult struct {
	Bytes []byte
	Text  string
}

// ErrCapabilityMissing names the missing-capability condition. The
// capability errors Default returns carry their own messages and do not
// wrap it.
var ErrCapabilityMissing = errors.New("platform capability not installed")

// Platform is the minimal capability set the module subsystem requires.
type Platform interface {
	Cwd() (string, error)
	Realpath(path string) (string, error)
	ReadFile(path string, encoding Encoding) (ReadResult, error)
	Stdout() io.Writer
	Stderr() io.Writer
	// Fatal logs the invariant violation and terminates the process; it
	// does not return.
	Fatal(code int)
}

// OutOfMemoryExitCode is the sentinel fatal() code for out-of-memory
// conditions, mirrored from the engine's platform contract.
const OutOfMemoryExitCode = 134

// Default is the filesystem-backed Platform implementation.
type Default struct {
	Fs     afero.Fs
	Log    *logrus.Entry
	stdout io.Writer
	stderr io.Writer
}

// NewDefault returns a Default platform rooted at fs (os.Stdout/Stderr
// are used for stdio).
func NewDefault(fs afero.Fs, log *logrus.Entry) *Default {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Default{Fs: fs, Log: log, stdout: os.Stdout, stderr: os.Stderr}
}

func (d *Default) Cwd() (string, error) {
	if d.Fs == nil {
		return "", fmtCapabilityError("cwd")
	}
	if aferoOS, ok := d.Fs.(*afero.OsFs); ok {
		_ = aferoOS
		return os.Getwd()
	}
	// in-memory filesystems have no notion of a real cwd; default to root.
	return "/", nil
}

func (d *Default) Realpath(path string) (string, error) {
	if d.Fs == nil {
		return "", fmtCapabilityErrorNamed("path_realpath")
	}
	if osFs, ok := d.Fs.(*afero.OsFs); ok {
		_ = osFs
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", err
		}
		return resolved, nil
	}
	// in-memory filesystems: verify existence and return the cleaned path
	// ("." and ".." segments and repeated separators removed).
	clean := filepath.Clean(path)
	if exists, err := afero.Exists(d.Fs, clean); err != nil || !exists {
		return "", errors.New("path does not exist")
	}
	return clean, nil
}

func (d *Default) ReadFile(path string, encoding Encoding) (ReadResult, error) {
	if d.Fs == nil {
		return ReadResult{}, fmtCapabilityErrorNamed("read_file")
	}
	data, err := afero.ReadFile(d.Fs, path)
	if err != nil {
		return ReadResult{}, err
	}
	switch encoding {
	case EncodingNone:
		return ReadResult{Bytes: data}, nil
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return ReadResult{}, errors.New("file is not valid UTF-8")
		}
		return ReadResult{Text: string(data)}, nil
	case EncodingCESU8:
		return ReadResult{Text: string(data)}, nil
	default:
		return ReadResult{}, errors.New("unsupported encoding")
	}
}

func (d *Default) Stdout() io.Writer {
	if d.stdout != nil {
		return d.stdout
	}
	return os.Stdout
}

func (d *Default) Stderr() io.Writer {
	if d.stderr != nil {
		return d.stderr
	}
	return os.Stderr
}

func (d *Default) Fatal(code int) {
	d.Log.WithField("code", code).Error("platform: unrecoverable invariant violation")
	os.Exit(code)
}

func fmtCapabilityError(name string) error {
	return fmt.Errorf("platform %s api not installed", name)
}

func fmtCapabilityErrorNamed(name string) error {
	return fmt.Errorf("platform api '%s' not installed", name)
}
