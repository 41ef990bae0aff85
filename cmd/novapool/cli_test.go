package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novapool/internal/storage"
)

func runCLI(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []string{"--workdir", "/work", "--frames", "2"}
	err := run(append(base, args...), &out, io.Discard, fs)
	return strings.TrimSpace(out.String()), err
}

func TestCLI_AllocWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := runCLI(t, fs, "alloc", "3")
	require.NoError(t, err)
	require.Equal(t, "0", out)

	_, err = runCLI(t, fs, "write", "1", "hello pages")
	require.NoError(t, err)

	// a fresh process sees what the previous one flushed
	out, err = runCLI(t, fs, "read", "1")
	require.NoError(t, err)
	require.Equal(t, "hello pages", out)

	out, err = runCLI(t, fs, "dump", "1")
	require.NoError(t, err)
	require.Contains(t, out, "=== Page 1 ===")
	require.Contains(t, out, "..hello pages")

	out, err = runCLI(t, fs, "read", "2")
	require.NoError(t, err)
	require.Equal(t, "", out)

	out, err = runCLI(t, fs, "alloc", "1")
	require.NoError(t, err)
	require.Equal(t, "3", out)
}

func TestCLI_Stats(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := runCLI(t, fs, "alloc", "4")
	require.NoError(t, err)

	out, err := runCLI(t, fs, "stats")
	require.NoError(t, err)
	require.Contains(t, out, "frames=2 unpinned=2 pages=4")
	require.Contains(t, out, "hits=0 misses=0")
}

func TestCLI_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := runCLI(t, fs)
	require.Error(t, err)

	_, err = runCLI(t, fs, "read", "0")
	require.ErrorIs(t, err, storage.ErrPageNotFound)

	_, err = runCLI(t, fs, "bogus")
	require.ErrorContains(t, err, "unknown command")

	_, err = runCLI(t, fs, "read", "x")
	require.ErrorContains(t, err, "bad page id")

	_, err = runCLI(t, fs, "--policy", "mru", "stats")
	require.ErrorContains(t, err, "unknown replacement policy")
}

func TestRecord_TooLarge(t *testing.T) {
	p := storage.NewPage()
	require.ErrorIs(t, putRecord(p, make([]byte, storage.PageSize)), ErrRecordTooLarge)

	require.NoError(t, putRecord(p, []byte("ok")))
	data, err := getRecord(p)
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), data)
}
