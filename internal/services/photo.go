package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

const (
	maxPhotoFileSize = 10 * 1024 * 1024

	optimizedMaxWidth  = 1920
	optimizedMaxHeight = 1080
	optimizedQuality   = 85

	thumbnailMaxSize = 300
	thumbnailQuality = 80
)

var supportedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// PhotoResult holds the paths written for one record's photo.
type PhotoResult struct {
	OriginalPath  string
	OptimizedPath string
	ThumbnailPath string
}

type PhotoService interface {
	Validate(path string) error
	Process(recordID uint, srcPath string) (*PhotoResult, error)
	Stage(recordID uint, srcPath string) (*PhotoResult, error)
	Promote(recordID uint) error
	DiscardStaged(recordID uint) error
	Remove(recordID uint) error
	Placeholder(width, height int) ([]byte, error)
}

type photoService struct {
	photosDir string
	log       *logger.Logger
	fontFace  font.Face
}

func NewPhotoService(photosDir string, log *logger.Logger) (PhotoService, error) {
	serviceLog := log.With("service", "PhotoService")

	if strings.TrimSpace(photosDir) == "" {
		return nil, fmt.Errorf("photos directory is empty")
	}
	if err := os.MkdirAll(photosDir, 0o755); err != nil {
		return nil, types.NewStorageError("create photos directory", err)
	}

	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse placeholder font: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{Size: 28})

	return &photoService{
		photosDir: photosDir,
		log:       serviceLog,
		fontFace:  face,
	}, nil
}

func (ps *photoService) Validate(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedPhotoExtensions[ext] {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return types.NewStorageError("stat photo", err)
	}
	if info.Size() > maxPhotoFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", types.ErrTooLarge, info.Size(), maxPhotoFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return types.NewStorageError("open photo", err)
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("%w: not a decodable image: %v", types.ErrUnsupportedFormat, err)
	}
	return nil
}

// Process writes the original copy, the optimized JPEG and the thumbnail
// under the record's photo directory. Resize and encode parameters are fixed,
// so re-processing the same input yields the same artifacts. The source
// upload is never modified.
func (ps *photoService) Process(recordID uint, srcPath string) (*PhotoResult, error) {
	return ps.processInto(ps.recordDir(recordID), srcPath)
}

// Stage processes a replacement photo next to the record's live directory
// without touching it, so a failed write leaves the current artifacts intact.
// The returned paths are the live ones the files occupy after Promote.
func (ps *photoService) Stage(recordID uint, srcPath string) (*PhotoResult, error) {
	staging := ps.stagingDir(recordID)
	if err := os.RemoveAll(staging); err != nil {
		return nil, types.NewStorageError("clear photo staging directory", err)
	}
	staged, err := ps.processInto(staging, srcPath)
	if err != nil {
		return nil, err
	}
	live := ps.recordDir(recordID)
	return &PhotoResult{
		OriginalPath:  filepath.Join(live, filepath.Base(staged.OriginalPath)),
		OptimizedPath: filepath.Join(live, filepath.Base(staged.OptimizedPath)),
		ThumbnailPath: filepath.Join(live, filepath.Base(staged.ThumbnailPath)),
	}, nil
}

// Promote replaces the record's live artifacts with the staged ones. The old
// directory is dropped wholesale, so an original with a different extension
// does not linger. Nothing staged is a no-op.
func (ps *photoService) Promote(recordID uint) error {
	staging := ps.stagingDir(recordID)
	if _, err := os.Stat(staging); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewStorageError("stat photo staging directory", err)
	}
	live := ps.recordDir(recordID)
	if err := os.RemoveAll(live); err != nil {
		return types.NewStorageError("remove old photo directory", err)
	}
	if err := os.Rename(staging, live); err != nil {
		return types.NewStorageError("promote staged photos", err)
	}
	return nil
}

func (ps *photoService) DiscardStaged(recordID uint) error {
	if err := os.RemoveAll(ps.stagingDir(recordID)); err != nil {
		return types.NewStorageError("discard staged photos", err)
	}
	return nil
}

func (ps *photoService) processInto(dir, srcPath string) (*PhotoResult, error) {
	if err := ps.Validate(srcPath); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewStorageError("create photo directory", err)
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	originalPath := filepath.Join(dir, "original"+ext)
	if err := copyFile(srcPath, originalPath); err != nil {
		return nil, types.NewStorageError("copy original photo", err)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return nil, types.NewStorageError("open photo", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", types.ErrUnsupportedFormat, err)
	}

	optimizedPath := filepath.Join(dir, "photo.jpg")
	optimized := scaleToFit(img, optimizedMaxWidth, optimizedMaxHeight)
	if err := writeJPEG(optimizedPath, optimized, optimizedQuality); err != nil {
		return nil, types.NewStorageError("write optimized photo", err)
	}

	thumbnailPath := filepath.Join(dir, "thumb.jpg")
	thumbnail := scaleToFit(img, thumbnailMaxSize, thumbnailMaxSize)
	if err := writeJPEG(thumbnailPath, thumbnail, thumbnailQuality); err != nil {
		return nil, types.NewStorageError("write thumbnail", err)
	}

	ps.log.Debug("Photo processed", "original", originalPath)
	return &PhotoResult{
		OriginalPath:  originalPath,
		OptimizedPath: optimizedPath,
		ThumbnailPath: thumbnailPath,
	}, nil
}

func (ps *photoService) Remove(recordID uint) error {
	dir := ps.recordDir(recordID)
	if err := os.RemoveAll(dir); err != nil {
		return types.NewStorageError("remove photo directory", err)
	}
	return nil
}

// Placeholder renders the panel shown in reports when a record's photo file
// is missing or unreadable.
func (ps *photoService) Placeholder(width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)

	dc.SetColor(color.NRGBA{R: 0xEC, G: 0xEC, B: 0xEC, A: 0xFF})
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF})
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(width)-2, float64(height)-2)
	dc.Stroke()
	dc.DrawLine(0, 0, float64(width), float64(height))
	dc.DrawLine(float64(width), 0, 0, float64(height))
	dc.Stroke()

	dc.SetFontFace(ps.fontFace)
	dc.SetColor(color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xFF})
	label := "FOTO INDISPONIVEL"
	tw, th := dc.MeasureString(label)
	dc.SetColor(color.NRGBA{R: 0xEC, G: 0xEC, B: 0xEC, A: 0xFF})
	dc.DrawRectangle(float64(width)/2-tw/2-10, float64(height)/2-th, tw+20, th*2)
	dc.Fill()
	dc.SetColor(color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xFF})
	dc.DrawString(label, float64(width)/2-tw/2, float64(height)/2+th/2)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (ps *photoService) recordDir(recordID uint) string {
	return filepath.Join(ps.photosDir, fmt.Sprintf("inspection_%d", recordID))
}

func (ps *photoService) stagingDir(recordID uint) string {
	return ps.recordDir(recordID) + ".staging"
}

// scaleToFit bounds an image to maxW x maxH preserving aspect ratio. Images
// already inside the bounds are returned as-is; there is no upscaling.
func scaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
