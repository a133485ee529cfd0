package cmd

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Support JPEG carriers
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Beastly713/quorum/pkg/crypto/secrets"
	"github.com/Beastly713/quorum/pkg/format"
	"github.com/Beastly713/quorum/pkg/metrics"
	"github.com/Beastly713/quorum/pkg/shamir"
	"github.com/Beastly713/quorum/pkg/stego"
)

var (
	totalShares  int
	threshold    int
	padLength    int
	destDir      string
	baseName     string
	carrierPath  string
	holders      string
	isHeaderless bool
)

var splitCmd = &cobra.Command{
	Use:   "split [text]",
	Short: "Split a message into threshold shares",
	Long: `Split a message into N shares. Any T of them recover it.
The message is read from the argument, or from stdin when omitted.

Without --destination the shares are printed one per line. With it,
each share is written to its own .share file, or hidden inside a copy
of the --carrier PNG.

Example:
  quorum split "meet at noon" -n 5 -t 3 -d ./shares`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// 1. Read the message
		var text []byte
		if len(args) == 1 && args[0] != "-" {
			text = []byte(args[0])
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read message from stdin: %w", err)
			}
			text = bytes.TrimRight(data, "\r\n")
		}
		plain := secrets.WrapSecret(text)
		defer plain.Destroy()

		pad := padLength
		if !cmd.Flags().Changed("pad") {
			pad = appConfig.Sharing.PadLength
		}

		// 2. Split
		start := time.Now()
		shares, err := shamir.GenerateShares(plain.Bytes(), totalShares, threshold, shamir.WithPadLength(pad))
		if err != nil {
			return fmt.Errorf("failed to split message: %w", err)
		}
		metrics.RecordSplit(len(shares), time.Since(start))
		logger.Debug("split message", "shares", len(shares), "threshold", threshold, "pad", pad)

		if destDir == "" {
			for _, s := range shares {
				fmt.Fprintln(out, s)
			}
			return nil
		}

		// 3. Write share files
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}

		var names []string
		if holders != "" {
			names = strings.Split(holders, ",")
			if len(names) != totalShares {
				return fmt.Errorf("--holders lists %d names for %d shares", len(names), totalShares)
			}
		}

		var carrier image.Image
		if carrierPath != "" {
			carrier, err = loadCarrier(carrierPath)
			if err != nil {
				return err
			}
		}

		messageID := uuid.NewString()
		timestamp := time.Now().Unix()

		for i, s := range shares {
			index := i + 1
			header := &format.Header{
				MessageID: messageID,
				Timestamp: timestamp,
				Index:     index,
				Total:     totalShares,
				Threshold: threshold,
			}
			if names != nil {
				header.Participant = strings.TrimSpace(names[i])
			}

			var buf bytes.Buffer
			if err := format.NewWriter(&buf).Write(header, s, isHeaderless); err != nil {
				return fmt.Errorf("failed to encode share %d: %w", index, err)
			}

			name := fmt.Sprintf("%s_%d_of_%d", baseName, index, totalShares)
			var outPath string
			if carrier != nil {
				outPath = filepath.Join(destDir, name+".png")
				err = writeStegoShare(outPath, carrier, buf.Bytes())
			} else {
				outPath = filepath.Join(destDir, name+format.Extension)
				err = os.WriteFile(outPath, buf.Bytes(), 0o600)
			}
			if err != nil {
				return fmt.Errorf("failed to write share %d: %w", index, err)
			}

			fmt.Fprintf(out, "Created %s\n", filepath.Base(outPath))
		}

		fmt.Fprintf(out, "Done! Any %d of these %d shares recover the message.\n", threshold, totalShares)
		return nil
	},
}

func loadCarrier(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open carrier: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode carrier %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writeStegoShare(path string, carrier image.Image, payload []byte) error {
	img, err := stego.Embed(carrier, payload)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().IntVarP(&totalShares, "shares", "n", 0, "Total number of shares to make")
	splitCmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "Number of shares required to recover the message")
	splitCmd.Flags().IntVar(&padLength, "pad", 128, "Pad the encoded message to a multiple of this many bits (0-1024, default from config)")
	splitCmd.Flags().StringVarP(&destDir, "destination", "d", "", "Directory to write share files to (default: print shares)")
	splitCmd.Flags().StringVar(&baseName, "name", "message", "Base name for share files")
	splitCmd.Flags().StringVar(&carrierPath, "carrier", "", "PNG or JPEG image to hide each share file in")
	splitCmd.Flags().StringVar(&holders, "holders", "", "Comma-separated names to record in each share header, one per share")
	splitCmd.Flags().BoolVar(&isHeaderless, "headerless", false, "Write only the share string, no metadata header")

	splitCmd.MarkFlagRequired("shares")
	splitCmd.MarkFlagRequired("threshold")
}
