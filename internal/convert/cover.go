package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// TextCoverFileName is the cover drawn when page one has no usable image.
	TextCoverFileName = "cover.png"

	coverJPEGFileName = "cover.jpg"
	coverJP2FileName  = "cover.jp2"

	coverWidth       = 400
	coverHeight      = 600
	coverTitleLines  = 2
	coverTitleTop    = 50
	coverLineStep    = 40
	coverTextMargin  = 30
	coverBorderInset = 20
	coverBorderWidth = 2

	errCoverImages = "failed to extract images from %s: %w"
	errCoverText   = "failed to read first page of %s: %w"
	errCoverWrite  = "failed to write cover %s: %w"
)

var (
	coverBorderColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

	configDirOnce sync.Once
)

// PageTextExtractor returns the text layer of one 1-based PDF page.
type PageTextExtractor interface {
	ExtractPageText(ctx context.Context, path string, pageNumber int) (string, error)
}

// PageCover is a CoverExtractor working from the first page of a PDF. The
// first JPEG, JPEG 2000 or PNG-renderable image on that page is saved as
// the cover. Otherwise a text cover is drawn from the page's first two lines.
type PageCover struct {
	text PageTextExtractor
}

// NewPageCover creates a PageCover. A nil text extractor selects PDFTextExtractor.
func NewPageCover(text PageTextExtractor) *PageCover {
	if text == nil {
		text = PDFTextExtractor{}
	}

	return &PageCover{text: text}
}

// ExtractCover writes the cover into outputDir and returns its file name, or
// "" when page one has neither an image nor text.
func (p *PageCover) ExtractCover(ctx context.Context, path, outputDir string) (string, error) {
	err := os.MkdirAll(outputDir, outputDirPerm)
	if err != nil {
		return "", fmt.Errorf(errCreateOutputDir, outputDir, err)
	}

	name, imageErr := saveEmbeddedCover(path, outputDir)
	if imageErr == nil && name != "" {
		return name, nil
	}

	pageText, err := p.text.ExtractPageText(ctx, path, 1)
	if err != nil {
		return "", errors.Join(imageErr, fmt.Errorf(errCoverText, path, err))
	}

	title := coverTitle(pageText)
	if len(title) == 0 {
		return "", imageErr
	}

	var encoded bytes.Buffer

	err = png.Encode(&encoded, renderTextCover(title))
	if err != nil {
		return "", fmt.Errorf(errCoverWrite, TextCoverFileName, err)
	}

	coverPath := filepath.Join(outputDir, TextCoverFileName)

	err = os.WriteFile(coverPath, encoded.Bytes(), outputFilePerm)
	if err != nil {
		return "", fmt.Errorf(errCoverWrite, coverPath, err)
	}

	return TextCoverFileName, nil
}

// saveEmbeddedCover copies the first cover-worthy image of page one into
// outputDir.
func saveEmbeddedCover(path, outputDir string) (name string, err error) {
	// pdfcpu panics on some malformed documents.
	defer func() {
		if recovered := recover(); recovered != nil {
			name = ""
			err = fmt.Errorf("pdf image extraction panic on %s: %v", path, recovered)
		}
	}()

	configDirOnce.Do(api.DisableConfigDir)

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf(errCoverImages, path, err)
	}

	defer func() { _ = file.Close() }()

	pages, err := api.ExtractImagesRaw(file, []string{"1"}, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf(errCoverImages, path, err)
	}

	for _, images := range pages {
		for _, objectNumber := range slices.Sorted(maps.Keys(images)) {
			img := images[objectNumber]
			if img.Reader == nil || img.Thumb || img.IsImgMask {
				continue
			}

			fileName := coverFileName(img.FileType)
			if fileName == "" {
				continue
			}

			data, readErr := io.ReadAll(img)
			if readErr != nil || len(data) == 0 {
				continue
			}

			coverPath := filepath.Join(outputDir, fileName)

			err = os.WriteFile(coverPath, data, outputFilePerm)
			if err != nil {
				return "", fmt.Errorf(errCoverWrite, coverPath, err)
			}

			return fileName, nil
		}
	}

	return "", nil
}

func coverFileName(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return coverJPEGFileName
	case "jpx", "jp2":
		return coverJP2FileName
	case "png":
		return TextCoverFileName
	default:
		return ""
	}
}

// coverTitle returns the non-blank lines among the first two lines of pageText.
func coverTitle(pageText string) []string {
	lines := strings.Split(pageText, "\n")
	if len(lines) > coverTitleLines {
		lines = lines[:coverTitleLines]
	}

	title := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			title = append(title, trimmed)
		}
	}

	return title
}

// renderTextCover draws the title lines centred on a white page inside a
// gray border.
func renderTextCover(title []string) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, coverWidth, coverHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: canvas, Src: image.Black, Face: face}

	top := coverTitleTop

	for _, line := range title {
		line = fitLine(drawer, line)
		left := (coverWidth - drawer.MeasureString(line).Ceil()) / 2

		drawer.Dot = fixed.P(left, top+face.Ascent)
		drawer.DrawString(line)

		top += coverLineStep
	}

	drawBorder(canvas)

	return canvas
}

// fitLine shortens line until it fits between the text margins.
func fitLine(drawer *font.Drawer, line string) string {
	maxWidth := coverWidth - 2*coverTextMargin
	runes := []rune(line)

	for len(runes) > 0 && drawer.MeasureString(string(runes)).Ceil() > maxWidth {
		runes = runes[:len(runes)-1]
	}

	return string(runes)
}

func drawBorder(canvas *image.RGBA) {
	minX, minY := coverBorderInset, coverBorderInset
	maxX, maxY := coverWidth-coverBorderInset, coverHeight-coverBorderInset

	for offset := range coverBorderWidth {
		for x := minX; x <= maxX; x++ {
			canvas.SetRGBA(x, minY+offset, coverBorderColor)
			canvas.SetRGBA(x, maxY-offset, coverBorderColor)
		}

		for y := minY; y <= maxY; y++ {
			canvas.SetRGBA(minX+offset, y, coverBorderColor)
			canvas.SetRGBA(maxX-offset, y, coverBorderColor)
		}
	}
}
