package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png" // Register PNG decoder
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Beastly713/quorum/pkg/format"
	"github.com/Beastly713/quorum/pkg/shamir"
	"github.com/Beastly713/quorum/pkg/stego"
)

// unlabeled groups shares that carry no header.
const unlabeled = ""

var sourceDir string

var combineCmd = &cobra.Command{
	Use:   "combine [share...]",
	Short: "Recover a message from its shares",
	Long: `Combine reconstructs a message from share strings given as arguments,
or from the .share files and carrier PNGs found in --dir.

Files that carry a header are grouped by message ID. Combining fewer
shares than the threshold does not fail: it prints garbage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			secret, err := shamir.DeriveSecret(args)
			if err != nil {
				return fmt.Errorf("failed to combine shares: %w", err)
			}
			fmt.Fprintln(out, string(secret))
			return nil
		}

		if sourceDir == "" {
			return errors.New("provide share strings or --dir")
		}

		// 1. Gather share files
		groups, headers, err := scanShares(sourceDir)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return fmt.Errorf("no valid shares found in %s", sourceDir)
		}

		ids := make([]string, 0, len(groups))
		for id := range groups {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		// 2. Reconstruct each message
		for _, id := range ids {
			shares := groups[id]
			if h, ok := headers[id]; ok && len(shares) < h.Threshold {
				logger.Warn("fewer shares than threshold, output will be garbage",
					"message", id, "found", len(shares), "threshold", h.Threshold)
			}

			secret, err := shamir.DeriveSecret(shares)
			if err != nil {
				return fmt.Errorf("failed to combine shares for %q: %w", id, err)
			}

			if len(groups) == 1 {
				fmt.Fprintln(out, string(secret))
			} else {
				fmt.Fprintf(out, "%s: %s\n", displayID(id), secret)
			}
		}
		return nil
	},
}

// scanShares reads every share container in dir, grouped by message ID.
func scanShares(dir string) (map[string][]string, map[string]*format.Header, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory: %w", err)
	}

	groups := make(map[string][]string)
	headers := make(map[string]*format.Header)

	for _, e := range entries {
		if e.IsDir() || !shareFileName(e.Name()) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		r, err := readShareFile(path)
		if err != nil {
			logger.Warn("skipping file", "file", e.Name(), "error", err)
			continue
		}

		id := unlabeled
		if r.Header != nil {
			id = r.Header.MessageID
			headers[id] = r.Header
		}
		groups[id] = append(groups[id], r.Share)
	}

	return groups, headers, nil
}

func readShareFile(path string) (*format.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.ToLower(filepath.Ext(path)) == ".png" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("invalid image: %w", err)
		}
		data, err = stego.Extract(img)
		if err != nil {
			return nil, err
		}
	}

	return format.ReadAny(data)
}

// shareFileName reports whether name looks like a share container.
func shareFileName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == format.Extension || ext == ".png"
}

func displayID(id string) string {
	if id == unlabeled {
		return "(headerless)"
	}
	return id
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringVar(&sourceDir, "dir", "", "Directory to scan for .share files and carrier images")
}
