package format

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Beastly713/quorum/pkg/share"
)

// maxShareFileSize caps how much of a share file is read.
const maxShareFileSize = 1 << 20

// Reader holds a parsed share file.
type Reader struct {
	// Header is nil for headerless files.
	Header *Header

	// Share is the validated share string from the body.
	Share string
}

// NewReader parses a share file with a header.
func NewReader(r io.Reader) (*Reader, error) {
	bufReader := bufio.NewReader(io.LimitReader(r, maxShareFileSize))

	// 1. Scan for the Header Marker
	foundHeader := false
	for i := 0; i < 50; i++ { // limit scan to 50 lines to prevent infinite loops on garbage files
		line, err := bufReader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read stream while looking for header: %w", err)
		}
		if strings.TrimSpace(line) == HeaderMarker {
			foundHeader = true
			break
		}
	}

	if !foundHeader {
		return nil, fmt.Errorf("invalid format: could not find %q marker", HeaderMarker)
	}

	// 2. Read the JSON content until the Body Marker
	var jsonBuilder bytes.Buffer
	for {
		line, err := bufReader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read stream while reading header json: %w", err)
		}
		if strings.TrimSpace(line) == BodyMarker {
			break
		}
		jsonBuilder.WriteString(line)
	}

	// 3. Unmarshal and validate the Header
	header := &Header{}
	if err := json.Unmarshal(jsonBuilder.Bytes(), header); err != nil {
		return nil, fmt.Errorf("failed to parse header json: %w", err)
	}
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("header validation failed: %w", err)
	}

	// 4. The body is the share string
	body, err := io.ReadAll(bufReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read share body: %w", err)
	}
	parsed, err := share.Parse(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, err
	}
	if int(parsed.ID) != header.Index {
		return nil, fmt.Errorf("share id %d does not match header index %d", parsed.ID, header.Index)
	}

	return &Reader{Header: header, Share: parsed.String()}, nil
}

// ReadAny accepts either a share file with a header or a headerless file
// holding only the share string.
func ReadAny(data []byte) (*Reader, error) {
	if bytes.Contains(data, []byte(HeaderMarker)) {
		return NewReader(bytes.NewReader(data))
	}

	parsed, err := share.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}
	return &Reader{Share: parsed.String()}, nil
}
