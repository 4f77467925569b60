// Package backup implements encrypted whole-datastore backups: a codec that
// seals/opens an opaque byte image through the cipher service, a snapshotter
// that produces and applies the image through the repositories, and an
// optional S3 store for the sealed blobs.
package backup

import (
	"context"

	"github.com/savelyev/securesms/internal/server/audit"
	"github.com/savelyev/securesms/internal/server/cipher"
)

// Codec encrypts and decrypts backup images. It treats the image as opaque
// bytes and never touches the datastore itself.
type Codec struct {
	cipher *cipher.Service
	sink   audit.Sink
}

func NewCodec(c *cipher.Service, sink audit.Sink) *Codec {
	return &Codec{cipher: c, sink: sink}
}

// Export seals a raw datastore image. Fails with common.ErrKeyUnavailable
// when no encryption key is configured.
func (c *Codec) Export(ctx context.Context, rawImage []byte) ([]byte, error) {
	blob, err := c.cipher.Encrypt(rawImage)
	if err != nil {
		return nil, err
	}
	c.sink.Record(ctx, "backup_exported", map[string]any{"size": len(rawImage)})
	return blob, nil
}

// Import opens a sealed backup. Fails with common.ErrKeyUnavailable or
// common.ErrInvalidCiphertext; the caller applies the returned image and is
// responsible for doing so atomically.
func (c *Codec) Import(ctx context.Context, sealed []byte) ([]byte, error) {
	raw, err := c.cipher.Decrypt(sealed)
	if err != nil {
		return nil, err
	}
	c.sink.Record(ctx, "backup_imported", map[string]any{"size": len(raw)})
	return raw, nil
}
