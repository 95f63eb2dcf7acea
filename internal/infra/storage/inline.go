package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// maxInlineBytes keeps data URLs under what Groq accepts for base64 images.
const maxInlineBytes = 4 << 20

// Inline hands the image to the model as a base64 data URL. It needs no
// infrastructure and is the default when MinIO is disabled.
type Inline struct{}

func (Inline) Reference(_ context.Context, localPath string) (string, func(), error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", func() {}, err
	}
	if len(data) > maxInlineBytes {
		return "", func() {}, fmt.Errorf("image is %d bytes, inline limit is %d", len(data), maxInlineBytes)
	}
	mt := mimetype.Detect(data)
	ref := "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
	return ref, func() {}, nil
}
