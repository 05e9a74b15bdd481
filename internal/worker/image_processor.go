package worker

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/models"
	"github.com/PaulBabatuyi/filekeeper/internal/storage"
)

// ImageProcessor regenerates the derived assets for an image record.
type ImageProcessor struct {
	store  storage.ContentStore
	logger *zap.Logger
}

func NewImageProcessor(store storage.ContentStore, logger *zap.Logger) *ImageProcessor {
	return &ImageProcessor{store: store, logger: logger}
}

// GenerateAll produces every configured width beside the original. The
// widths run as independent concurrent sub-tasks; a failure for one width is
// logged and does not block the others. Output paths are deterministic, so
// rerunning overwrites byte-identical assets and redelivered jobs are safe.
func (ip *ImageProcessor) GenerateAll(f *models.FileRecord) error {
	rc, err := ip.store.Read(f.StorageKey)
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	defer rc.Close()

	img, err := imaging.Decode(rc)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	format, err := imaging.FormatFromFilename(f.Name)
	if err != nil {
		format = imaging.PNG
	}

	var wg sync.WaitGroup
	for _, width := range models.ThumbnailWidths {
		wg.Add(1)
		go func(width int) {
			defer wg.Done()
			if err := ip.generate(f.StorageKey, img, format, width); err != nil {
				ip.logger.Error("thumbnail generation failed",
					zap.String("file_id", f.ID),
					zap.Int("width", width),
					zap.Error(err),
				)
			}
		}(width)
	}
	wg.Wait()
	return nil
}

func (ip *ImageProcessor) generate(key string, img image.Image, format imaging.Format, width int) error {
	// Height 0 preserves the aspect ratio.
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return ip.store.Write(models.DerivedKey(key, width), buf.Bytes())
}
