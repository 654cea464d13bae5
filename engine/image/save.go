package image

import (
	"bufio"
	"fmt"
	stdimage "image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// encodeFunc writes an image to w in a single file format.
type encodeFunc func(w io.Writer, img stdimage.Image) error

// encoders maps lower case file extensions to their encoder.
var encoders = map[string]encodeFunc{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img stdimage.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

func encodeTIFF(w io.Writer, img stdimage.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Encode writes img to w in the format named by ext (".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff").
//
// Parameters:
//   - w: the destination
//   - ext: the file extension selecting the encoder, case insensitive
//   - img: the image to encode
//
// Returns:
//   - error: ErrUnsupportedFormat or an encoder error
func Encode(w io.Writer, ext string, img stdimage.Image) error {
	enc, ok := encoders[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return enc(w, img)
}

// Save encodes img to the file at path, choosing the encoder from the file extension.
// The file is not created when the extension is unsupported.
//
// Parameters:
//   - path: the output file path
//   - img: the image to write
//
// Returns:
//   - error: ErrUnsupportedFormat, a file error or an encoder error
func Save(path string, img stdimage.Image) (err error) {
	ext := filepath.Ext(path)
	if _, ok := encoders[strings.ToLower(ext)]; !ok {
		return fmt.Errorf("%s: %w: %q", path, ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, ext, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return w.Flush()
}
