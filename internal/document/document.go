// Package document is the PDF boundary: splitting multi-page scan PDFs into
// per-page images (go-fitz) and assembling attempt images into page-per-image
// PDFs (gofpdf). The core engine treats both directions as value-producing
// services.
package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/jung-kurt/gofpdf"

	"scanmark/internal/raster"
)

// PageCount returns the number of pages in a PDF.
func PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPages rasterizes every page of a PDF into PNG files under outDir,
// named {base}-0.png, {base}-1.png, ... and returns the paths in page order.
func RenderPages(path string, dpi float64, outDir string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	base := filepath.Base(path)
	base = base[:len(base)-len(filepath.Ext(base))]

	paths := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("render %s page %d: %w", path, n, err)
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s-%d.png", base, n))
		if err := raster.Save(img, out); err != nil {
			return nil, err
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// WriteImagePDF assembles the given image files into a PDF with one page
// per image, each page sized to its image.
func WriteImagePDF(path string, imagePaths []string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("write pdf %s: no images", path)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	opts := gofpdf.ImageOptions{}
	for _, img := range imagePaths {
		info := pdf.RegisterImageOptions(img, opts)
		if pdf.Err() {
			return fmt.Errorf("register image %s: %s", img, pdf.Error())
		}
		w, h := info.Extent()
		orientation := "P"
		if w > h {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(img, 0, 0, w, h, false, opts, 0, "")
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}
