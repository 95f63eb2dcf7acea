package diagnosis

import (
	"context"
	"image"
	"time"
)

// Image is a decoded upload.
type Image struct {
	Pixels image.Image
	Format string
	MIME   string
}

// Decoder turns uploaded bytes into an Image.
type Decoder interface {
	Decode(data []byte) (Image, error)
}

// ImageStore writes decoded images to transient files. The release func
// removes the file and is safe to call more than once.
type ImageStore interface {
	Save(img Image) (path string, release func(), err error)
}

// ImageHost turns a transient file into a reference the remote model can
// fetch: a data URL or an object-store URL.
type ImageHost interface {
	Reference(ctx context.Context, path string) (ref string, release func(), err error)
}

// Renderer produces the PDF export of a report.
type Renderer interface {
	Render(report, focus string, confidence int, at time.Time) ([]byte, error)
}
