package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var (
	ErrNoFile          = errors.New("uploads: no file uploaded")
	ErrUploadTooLarge  = errors.New("uploads: file exceeds the size limit")
	ErrUnsupportedType = errors.New("uploads: file type is not allowed")
)

// Request is a single uploaded file.
type Request struct {
	Filename string
	Reader   io.Reader
	// Size is the declared size, zero when unknown.
	Size int64
}

// Validate checks the request before any bytes are read.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required.ErrorObject(validation.NewError("microsite.uploads.filename_required", "filename is required"))),
		validation.Field(&r.Reader, validation.NotNil.ErrorObject(validation.NewError("microsite.uploads.file_required", "file is required"))),
		validation.Field(&r.Size, validation.Min(int64(0))),
	)
}

// Result holds the public URLs of the stored image.
type Result struct {
	URL   string `json:"url"`
	Thumb string `json:"thumb,omitempty"`
}

// Service stores uploaded images, resized, under a public directory.
type Service struct {
	cfg    runtimeconfig.UploadsConfig
	logger interfaces.Logger
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid based file prefix.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService returns an upload service for cfg.
func NewService(cfg runtimeconfig.UploadsConfig, opts ...Option) *Service {
	defaults := runtimeconfig.DefaultConfig().Uploads
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = defaults.PublicPrefix
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaults.MaxBytes
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = defaults.AllowedTypes
	}
	if cfg.ThumbWidth <= 0 {
		cfg.ThumbWidth = defaults.ThumbWidth
	}
	if cfg.MainWidth <= 0 {
		cfg.MainWidth = defaults.MainWidth
	}
	if cfg.BannerWidth <= 0 {
		cfg.BannerWidth = defaults.BannerWidth
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = defaults.JPEGQuality
	}
	s := &Service{
		cfg:    cfg,
		logger: logging.NoOp(),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dir is the directory files are written to.
func (s *Service) Dir() string { return s.cfg.Dir }

// PublicPrefix is the URL prefix stored files are served under.
func (s *Service) PublicPrefix() string { return s.cfg.PublicPrefix }

// MaxBytes is the size limit of a single upload.
func (s *Service) MaxBytes() int64 { return s.cfg.MaxBytes }

// Upload validates, resizes and stores the image in req.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	if req.Reader == nil {
		return nil, ErrNoFile
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Size > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, req.Size)
	}

	data, err := io.ReadAll(io.LimitReader(req.Reader, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, s.cfg.MaxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !s.allowed(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	base := baseName(req.Filename)
	prefix := s.newID() + "_" + base
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	logger := logging.WithFields(s.logger, map[string]any{
		"filename":  req.Filename,
		"mime_type": mtype.String(),
		"bytes":     len(data),
	})

	if mtype.Is("image/webp") {
		name := prefix + ".webp"
		if err := writeAtomic(filepath.Join(s.cfg.Dir, name), data); err != nil {
			return nil, err
		}
		logger.Info("uploads.stored", "file", name)
		return &Result{URL: s.publicURL(name)}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	width := s.cfg.MainWidth
	if isBanner(base) {
		width = s.cfg.BannerWidth
	}
	ext := ".png"
	if mtype.Is("image/jpeg") {
		ext = ".jpg"
	}

	mainName := prefix + ext
	thumbName := prefix + "-thumb" + ext
	if err := s.store(filepath.Join(s.cfg.Dir, mainName), resize(src, width), ext); err != nil {
		return nil, err
	}
	if err := s.store(filepath.Join(s.cfg.Dir, thumbName), resize(src, s.cfg.ThumbWidth), ext); err != nil {
		_ = os.Remove(filepath.Join(s.cfg.Dir, mainName))
		return nil, err
	}

	logger.Info("uploads.stored", "file", mainName, "thumb", thumbName)
	return &Result{URL: s.publicURL(mainName), Thumb: s.publicURL(thumbName)}, nil
}

// LocalPath maps a public upload URL to its file on disk.
func (s *Service) LocalPath(url string) (string, bool) {
	prefix := strings.TrimSuffix(s.cfg.PublicPrefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.Contains(name, "..") {
		return "", false
	}
	return filepath.Join(s.cfg.Dir, filepath.FromSlash(name)), true
}

func (s *Service) allowed(mtype *mimetype.MIME) bool {
	for _, allowed := range s.cfg.AllowedTypes {
		if mtype.Is(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (s *Service) publicURL(name string) string {
	return path.Join("/", s.cfg.PublicPrefix, name)
}

func (s *Service) store(target string, img image.Image, ext string) error {
	var buf bytes.Buffer
	var err error
	if ext == ".jpg" {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.cfg.JPEGQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return err
	}
	return writeAtomic(target, buf.Bytes())
}

// resize scales src down to width, keeping the aspect ratio. Images already
// narrower than width are returned unchanged.
func resize(src image.Image, width int) image.Image {
	bounds := src.Bounds()
	if width <= 0 || bounds.Dx() <= width {
		return src
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func baseName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	normalized, err := slug.Default().Normalize(name)
	if err != nil || normalized == "" {
		return "image"
	}
	return normalized
}

func isBanner(base string) bool {
	lower := strings.ToLower(base)
	return strings.Contains(lower, "banner") || strings.Contains(lower, "hero")
}

func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
