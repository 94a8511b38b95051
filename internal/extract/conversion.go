package extract

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// toPNG renders the first page of a PDF, or decodes any supported image
// format (JPEG, PNG, GIF, HEIC/HEIF), into PNG bytes for the vision
// model. Invoices are overwhelmingly single-page, so only the first PDF
// page is rendered.
func toPNG(data []byte, contentType string) ([]byte, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	if strings.Contains(ct, "pdf") {
		return renderPDF(data)
	}
	if ct == "image/png" && !sniffHEIC(data) {
		return data, nil
	}
	return decodeImage(data, ct)
}

func renderPDF(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf page: %w", err)
	}
	return encodePNG(img)
}

func decodeImage(data []byte, contentType string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	if sniffHEIC(data) || strings.Contains(contentType, "hei") {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding heic image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// sniffHEIC checks the ftyp box brands used by HEIC/HEIF containers,
// which phones upload with unreliable content types.
func sniffHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
