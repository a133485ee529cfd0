package format_test

import (
	"bytes"
	"testing"

	"github.com/Beastly713/quorum/pkg/format"
)

// FuzzNewReader feeds random byte streams into the parser.
// We don't care IF it fails (garbage in, garbage out),
// we only care that it fails GRACEFULLY (returns error, doesn't panic).
func FuzzNewReader(f *testing.F) {
	validFile := []byte(`# THIS FILE IS A QUORUM SHARE...
-- HEADER --
{"messageId":"m","timestamp":123,"index":1,"total":5,"threshold":3}
-- BODY --
01a1b2c3
`)
	f.Add(validFile)
	f.Add([]byte("random garbage"))
	f.Add([]byte("-- HEADER --"))
	f.Add([]byte("01abcd"))

	f.Fuzz(func(t *testing.T, data []byte) {
		r, err := format.NewReader(bytes.NewReader(data))
		if err == nil && r.Header == nil {
			t.Fatal("NewReader returned no header without an error")
		}

		if _, err := format.ReadAny(data); err != nil {
			return
		}
	})
}
