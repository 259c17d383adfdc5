package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns raw upload bytes into an image.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (image.Image, error)
}

// ImageDecoder decodes every format registered with the image package.
type ImageDecoder struct{}

func (ImageDecoder) Decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return img, nil
}

// IsImage reports whether the entry's media type is an image type. The type
// comes from the name's extension, falling back to content sniffing.
func IsImage(e Entry) bool {
	return strings.HasPrefix(MediaType(e), "image/")
}

// MediaType returns the entry's MIME type without parameters.
func MediaType(e Entry) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(e.Name)))
	if t == "" && len(e.Data) > 0 {
		t = http.DetectContentType(e.Data)
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
