package cmd_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastly713/quorum/cmd"
)

// execute runs the root command with args and returns stdout and stderr.
// Flag values are reset first since the command tree is shared between
// runs.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := cmd.GetRootCmd()
	resetFlags(root)
	if sub, _, err := root.Find(args); err == nil {
		resetFlags(sub)
	}

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for p := c.Parent(); p != nil; p = p.Parent() {
		p.PersistentFlags().VisitAll(reset)
	}
}

func useFileStore(t *testing.T) {
	t.Helper()
	t.Setenv("QUORUM_STORAGE_DRIVER", "file")
	t.Setenv("QUORUM_STORAGE_PATH", filepath.Join(t.TempDir(), "chat.json"))
}

// TestFullRoundTrip simulates the full user journey: Split -> partial delete -> Combine
func TestFullRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	// 1. Split into files
	out, _, err := execute(t, "split", "meet at the old mill at noon", "-n", "5", "-t", "3", "-d", tmpDir)
	require.NoError(t, err, "Split command failed")
	assert.Contains(t, out, "Any 3 of these 5 shares")

	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.share"))
	require.NoError(t, err)
	require.Len(t, matches, 5, "Should have created 5 share files")

	// 2. Lose two of them
	require.NoError(t, os.Remove(matches[0]))
	require.NoError(t, os.Remove(matches[3]))

	// 3. Combine the rest
	out, stderr, err := execute(t, "combine", "--dir", tmpDir)
	require.NoError(t, err, "Combine command failed")
	assert.Equal(t, "meet at the old mill at noon\n", out)
	assert.NotContains(t, stderr, "fewer shares")
}

func TestSplitPrintsShares(t *testing.T) {
	out, _, err := execute(t, "split", "hi", "-n", "3", "-t", "2", "--pad", "8")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.True(t, strings.HasPrefix(l, []string{"01", "02", "03"}[i]), l)
	}

	out, _, err = execute(t, "combine", lines[0], lines[2])
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestSplitReadsStdin(t *testing.T) {
	root := cmd.GetRootCmd()
	root.SetIn(strings.NewReader("from stdin\n"))
	defer root.SetIn(nil)

	out, _, err := execute(t, "split", "-n", "2", "-t", "2")
	require.NoError(t, err)

	out, _, err = execute(t, append([]string{"combine"}, strings.Fields(out)...)...)
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", out)
}

func TestHeaderlessRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	_, _, err := execute(t, "split", "paranoid mode", "-n", "3", "-t", "2", "-d", tmpDir, "--headerless")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.share"))
	require.NoError(t, err)
	require.Len(t, matches, 3)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.NotContains(t, string(content), "QUORUM")

	require.NoError(t, os.Remove(matches[1]))

	out, _, err := execute(t, "combine", "--dir", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "paranoid mode\n", out)
}

func TestBelowThresholdWarns(t *testing.T) {
	tmpDir := t.TempDir()

	_, _, err := execute(t, "split", "not enough", "-n", "3", "-t", "3", "-d", tmpDir)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.share"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(matches[0]))

	out, stderr, err := execute(t, "combine", "--dir", tmpDir)
	require.NoError(t, err)
	assert.NotEqual(t, "not enough\n", out)
	assert.Contains(t, stderr, "fewer shares than threshold")
}

func TestCarrierRoundTrip(t *testing.T) {
	carrierDir := t.TempDir()
	shareDir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	carrier := filepath.Join(carrierDir, "cat.png")
	f, err := os.Create(carrier)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	_, _, err = execute(t, "split", "hidden in plain sight", "-n", "3", "-t", "2", "-d", shareDir, "--carrier", carrier)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(shareDir, "*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.NoError(t, os.Remove(matches[2]))

	out, _, err := execute(t, "combine", "--dir", shareDir)
	require.NoError(t, err)
	assert.Equal(t, "hidden in plain sight\n", out)
}

func TestSplitValidation(t *testing.T) {
	_, _, err := execute(t, "split", "x", "-n", "2", "-t", "3")
	assert.Error(t, err)

	_, _, err = execute(t, "split", "x", "-n", "300", "-t", "2")
	assert.Error(t, err)

	_, _, err = execute(t, "combine")
	assert.Error(t, err)
}

func TestChatFlow(t *testing.T) {
	useFileStore(t)

	for _, p := range [][]string{{"a@x", "alice"}, {"b@x", "bob"}, {"c@x", "carol"}} {
		out, _, err := execute(t, "chat", "join", "--as", p[0], "--name", p[1])
		require.NoError(t, err)
		assert.Contains(t, out, "Joined as "+p[1])
	}

	out, _, err := execute(t, "chat", "send", "--as", "a@x", "lunch", "at", "one?")
	require.NoError(t, err)
	assert.Contains(t, out, "a@x: lunch at one?")
	assert.Contains(t, out, "to 3 participants")

	// Bob holds 2 of 3 shares on his first read.
	out, _, err = execute(t, "chat", "read", "--as", "b@x")
	require.NoError(t, err)
	assert.Contains(t, out, "[locked 2/3]")
	assert.NotContains(t, out, "lunch at one?")

	// Carol's read completes the quorum.
	out, _, err = execute(t, "chat", "read", "--as", "c@x")
	require.NoError(t, err)
	assert.Contains(t, out, "a@x: lunch at one?")
	assert.NotContains(t, out, "locked")

	out, _, err = execute(t, "chat", "read", "--as", "b@x")
	require.NoError(t, err)
	assert.Contains(t, out, "lunch at one?")
}

func TestChatErrors(t *testing.T) {
	useFileStore(t)

	_, _, err := execute(t, "chat", "read")
	assert.ErrorContains(t, err, "--as is required")

	_, _, err = execute(t, "chat", "join", "--as", "a@x")
	require.NoError(t, err)
	_, _, err = execute(t, "chat", "join", "--as", "a@x")
	assert.Error(t, err)

	_, _, err = execute(t, "chat", "send", "--as", "a@x", "   ")
	assert.ErrorContains(t, err, "message is empty")

	_, _, err = execute(t, "chat", "send", "--as", "mallory@x", "hi")
	assert.ErrorContains(t, err, "not a participant")

	out, _, err := execute(t, "chat", "read", "--as", "a@x")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages yet.")
}

func TestSplitRecordsHolders(t *testing.T) {
	tmpDir := t.TempDir()

	_, _, err := execute(t, "split", "for the board", "-n", "3", "-t", "2", "-d", tmpDir, "--holders", "ann,bob,cy")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(tmpDir, "message_2_of_3.share"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"participant"`)
	assert.Contains(t, string(content), `"bob"`)

	_, _, err = execute(t, "split", "x", "-n", "3", "-t", "2", "-d", t.TempDir(), "--holders", "ann,bob")
	assert.ErrorContains(t, err, "--holders")
}

func TestMetricsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.prom")

	_, _, err := execute(t, "split", "counted", "-n", "2", "-t", "2", "--metrics-out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quorum_shares_generated_total")
}
