package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Beastly713/quorum/pkg/share"
)

// Writer handles the writing of a single share file.
type Writer struct {
	w io.Writer
}

// NewWriter creates a new Writer around an io.Writer (usually an os.File).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write serializes the header and share string to the underlying writer.
// If headerless is true, only the share string is written.
func (sw *Writer) Write(header *Header, shareString string, headerless bool) error {
	// 1. The body must be a well formed share whose id matches the header
	parsed, err := share.Parse(shareString)
	if err != nil {
		return err
	}

	if !headerless {
		if err := header.Validate(); err != nil {
			return fmt.Errorf("invalid header: %w", err)
		}
		if int(parsed.ID) != header.Index {
			return fmt.Errorf("share id %d does not match header index %d", parsed.ID, header.Index)
		}

		// 2. Magic text, telling the reader how many *more* shares they need
		magicText := fmt.Sprintf(MagicHeader, header.Total, header.Index, header.Threshold-1)
		if _, err := fmt.Fprint(sw.w, magicText); err != nil {
			return fmt.Errorf("failed to write magic header: %w", err)
		}

		if _, err := fmt.Fprintln(sw.w, HeaderMarker); err != nil {
			return fmt.Errorf("failed to write header marker: %w", err)
		}

		// 3. Header JSON
		headerBytes, err := json.Marshal(header)
		if err != nil {
			return fmt.Errorf("failed to marshal header: %w", err)
		}
		if _, err := sw.w.Write(headerBytes); err != nil {
			return fmt.Errorf("failed to write json header: %w", err)
		}
		if _, err := fmt.Fprintln(sw.w); err != nil {
			return err
		}

		if _, err := fmt.Fprintln(sw.w, BodyMarker); err != nil {
			return fmt.Errorf("failed to write body marker: %w", err)
		}
	}

	// 4. The share itself, newline terminated
	if _, err := fmt.Fprintln(sw.w, shareString); err != nil {
		return fmt.Errorf("failed to write share: %w", err)
	}

	return nil
}
