package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// An empty stdin string runs with no stdin at all, as if from a terminal.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var in io.Reader
	if stdin != "" {
		in = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	code := Execute(args, in, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func dryRunArgs(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")
	return out, []string{"--dry-run", out, "--settle-delay", "0s", "--journal", filepath.Join(dir, "journal.db")}
}

func TestTextFromArguments(t *testing.T) {
	out, args := dryRunArgs(t)

	r := run(t, "", append(args, "text", "hello", "world")...)

	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Text sent to printer.")

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1B, 0x40, 0x1D, 0x49, 0xF0, 0x19, 0x1D, 0x76, 0x30, 0x00, 0x30, 0x00}, written[:12])
	assert.Equal(t, []byte{0x0A, 0x0A, 0x0A, 0x0A}, written[len(written)-4:])
}

func TestTextFromStdin(t *testing.T) {
	out, args := dryRunArgs(t)

	r := run(t, "piped\ntext\n", append(args, "text")...)

	require.Equal(t, exitOK, r.code, r.stderr)
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(12))
}

func TestPipedStdinWinsOverArguments(t *testing.T) {
	out, args := dryRunArgs(t)

	r := run(t, "  \n", append(args, "text", "ignored")...)

	assert.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "No input received.")
	assert.NoFileExists(t, out)
}

func TestTextWithoutInput(t *testing.T) {
	out, args := dryRunArgs(t)

	r := run(t, "   \n", append(args, "text")...)

	assert.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "No input received.")
	assert.NoFileExists(t, out)
}

func TestImage(t *testing.T) {
	out, args := dryRunArgs(t)
	path := filepath.Join(t.TempDir(), "square.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 20, 20))))
	require.NoError(t, f.Close())

	r := run(t, "", append(args, "image", path)...)

	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Image sent to printer.")
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	// init, start, 8 byte header, 48*20 rows, end
	assert.Len(t, written, 2+4+8+48*20+4)
}

func TestImageMissingFile(t *testing.T) {
	_, args := dryRunArgs(t)

	r := run(t, "", append(args, "image", "/does/not/exist.png")...)

	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "Failed to open '/does/not/exist.png'")
}

func TestQR(t *testing.T) {
	out, args := dryRunArgs(t)

	r := run(t, "", append(args, "qr", "https://example.com")...)

	require.Equal(t, exitOK, r.code, r.stderr)
	assert.FileExists(t, out)
}

func TestStatusNeedsReplies(t *testing.T) {
	_, args := dryRunArgs(t)

	r := run(t, "", append(args, "status")...)

	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "Couldn't query printer status")
}

func TestHistory(t *testing.T) {
	_, args := dryRunArgs(t)
	require.Equal(t, exitOK, run(t, "", append(args, "text", "one")...).code)
	require.Equal(t, exitError, run(t, "", append(args, "status")...).code)

	r := run(t, "", append(args, "history", "--limit", "5")...)

	require.Equal(t, exitOK, r.code, r.stderr)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "status", entries[0]["kind"])
	assert.NotEmpty(t, entries[0]["error"])
	assert.Equal(t, "print", entries[1]["kind"])
}

func TestHistoryWithoutJournal(t *testing.T) {
	r := run(t, "", "history")

	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "No journal configured")
}

func TestUsage(t *testing.T) {
	r := run(t, "")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "Usage: thermalprint")

	r = run(t, "", "dance")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, `Unknown command "dance"`)

	r = run(t, "", "--no-such-flag", "status")
	assert.Equal(t, exitUsage, r.code)

	_, args := dryRunArgs(t)
	r = run(t, "", append(args, "image")...)
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "Usage: thermalprint image PATH")

	r = run(t, "", "--help")
	assert.Equal(t, exitOK, r.code)
}

func TestInvalidConfig(t *testing.T) {
	r := run(t, "", "--width", "-1", "status")

	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "invalid configuration")
}

func TestMissingAddress(t *testing.T) {
	r := run(t, "", "status")

	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "rfcomm transport needs an address")
}
