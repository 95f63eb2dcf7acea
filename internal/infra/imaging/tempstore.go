package imaging

import (
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

// TempStore writes uploads as PNG files under Dir. Names carry a timestamp
// and a random suffix so concurrent requests never share a path.
type TempStore struct {
	Dir string
	Now func() time.Time
}

func NewTempStore(dir string) *TempStore {
	return &TempStore{Dir: dir, Now: time.Now}
}

func (s *TempStore) Save(img diagnosis.Image) (string, func(), error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", func() {}, err
	}
	path := filepath.Join(s.Dir, s.name())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", func() {}, err
	}
	release := removeOnce(path)
	if err := png.Encode(f, img.Pixels); err != nil {
		f.Close()
		release()
		return "", func() {}, fmt.Errorf("encode transient png: %w", err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", func() {}, err
	}
	return path, release, nil
}

func (s *TempStore) name() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return fmt.Sprintf("temp_%d_%s.png", now().UnixNano(), uuid.NewString()[:8])
}

func removeOnce(path string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("Warning: failed to remove transient file %s: %v", path, err)
			}
		})
	}
}
