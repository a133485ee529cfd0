package secrets

// Secret wraps a byte slice that contains sensitive data (e.g. a message
// plaintext before it is split). It provides a mechanism to zero out the
// memory when no longer needed.
type Secret struct {
	data []byte
}

// FromString copies s into a new Secret. The caller's string is immutable
// and cannot be wiped; only the copy can.
func FromString(s string) *Secret {
	return &Secret{data: []byte(s)}
}

// WrapSecret creates a Secret from an existing byte slice.
// WARNING: The original slice is still accessible; use this only when necessary.
func WrapSecret(data []byte) *Secret {
	return &Secret{data: data}
}

// Bytes returns the raw bytes of the secret.
// Use with caution and ensure the Secret is destroyed after use.
func (s *Secret) Bytes() []byte {
	return s.data
}

// Len reports the size of the secret in bytes.
func (s *Secret) Len() int {
	return len(s.data)
}

// Destroy overwrites the secret data with zeros to prevent memory leaks.
// It is idempotent.
func (s *Secret) Destroy() {
	if s.data != nil {
		clear(s.data)
		s.data = nil
	}
}
