package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

// shellTypes are the uploads the interactive shell accepts (png, jpg, jpeg).
var shellTypes = []string{"image/png", "image/jpeg"}

// Decode sniffs and decodes an upload. Any failure is ErrDecode.
func Decode(data []byte) (diagnosis.Image, error) {
	if len(data) == 0 {
		return diagnosis.Image{}, fmt.Errorf("%w: empty upload", diagnosis.ErrDecode)
	}
	mime := mimetype.Detect(data)

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return diagnosis.Image{}, fmt.Errorf("%w: %s: %w", diagnosis.ErrDecode, mime.String(), err)
	}
	return diagnosis.Image{Pixels: img, Format: format, MIME: mime.String()}, nil
}

// AllowShellUpload reports whether the sniffed type is one the shell accepts.
func AllowShellUpload(data []byte) bool {
	return mimetype.EqualsAny(mimetype.Detect(data).String(), shellTypes...)
}

// Decoder adapts Decode to diagnosis.Decoder.
type Decoder struct{}

func (Decoder) Decode(data []byte) (diagnosis.Image, error) { return Decode(data) }
