// Package uploads keeps workout images on local disk under generated names.
package uploads

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

var (
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidName     = errors.New("invalid image name")
	ErrImageNotFound   = errors.New("image not found")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var validName = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|webp)$`)

const sniffLen = 512

type DiskStore struct {
	rootPath string
	maxBytes int64
	newName  func() string
}

func NewDiskStore(rootPath string, maxBytes int64) (*DiskStore, error) {
	if rootPath == "" {
		return nil, errors.New("uploads root path cannot be empty")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	exists, err := pkg.PathExists(rootPath, true)
	if err != nil {
		return nil, fmt.Errorf("check uploads dir: %w", err)
	}
	if !exists {
		if err := os.MkdirAll(rootPath, 0o750); err != nil {
			return nil, fmt.Errorf("create uploads dir: %w", err)
		}
	}
	return &DiskStore{
		rootPath: rootPath,
		maxBytes: maxBytes,
		newName:  uuid.NewString,
	}, nil
}

func (s *DiskStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs the content type, then writes the image under a fresh name, which is returned.
func (s *DiskStore) Save(ctx context.Context, src io.Reader) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "uploads.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	br := bufio.NewReaderSize(src, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read image head: %w", err)
	}
	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := s.newName() + ext
	span.SetAttributes(attribute.String("image.name", name), attribute.String("image.type", contentType))

	dst, err := os.OpenFile(filepath.Join(s.rootPath, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	// one byte over the limit is enough to know it is too large
	written, err := io.Copy(dst, io.LimitReader(br, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(dst.Name()); rmErr != nil {
			log.Errorf("remove partial upload %s: %s", name, rmErr)
		}
		return "", err
	}

	log.Debugf("uploads: saved image %s (%d bytes)", name, written)
	return name, nil
}

func (s *DiskStore) path(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.rootPath, name), nil
}

func (s *DiskStore) Open(name string) (*os.File, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrImageNotFound
	}
	return f, err
}

func (s *DiskStore) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
