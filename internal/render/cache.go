package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mind-engage/worksheets/internal/storage"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// Cache serves rendered PDFs from a BlobStore, rendering on a miss. Keys
// include updated_at, so an edited worksheet never hits a stale entry.
type Cache struct {
	renderer *PDFRenderer
	store    storage.BlobStore
	log      *zap.Logger
}

func NewCache(r *PDFRenderer, store storage.BlobStore, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{renderer: r, store: store, log: log}
}

func Key(w worksheet.Worksheet, opts Options) string {
	variant := "sheet"
	if opts.AnswerKey {
		variant = "key"
	}
	return fmt.Sprintf("pdf/%s/%d-%s.pdf", w.ID, w.UpdatedAt, variant)
}

func (c *Cache) Render(ctx context.Context, w worksheet.Worksheet, opts Options) ([]byte, error) {
	key := Key(w, opts)
	if rc, err := c.store.Get(ctx, key); err == nil {
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err == nil {
			return b, nil
		}
		c.log.Warn("read cached pdf", zap.String("key", key), zap.Error(err))
	} else if !errors.Is(err, storage.ErrNotExist) {
		c.log.Warn("pdf cache lookup", zap.String("key", key), zap.Error(err))
	}

	b, err := c.renderer.Render(ctx, w, opts)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Put(ctx, key, bytes.NewReader(b), int64(len(b)), "application/pdf"); err != nil {
		c.log.Warn("store pdf", zap.String("key", key), zap.Error(err))
	}
	return b, nil
}
