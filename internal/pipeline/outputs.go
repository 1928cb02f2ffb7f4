package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"scanmark/internal/assessment"
	"scanmark/internal/document"
	"scanmark/internal/export"
	"scanmark/internal/raster"
)

// WriteOutputs writes every attempt page, rotated upright, into outDir
// under the stable filename convention. Returns the written paths in
// attempt/page order.
func (p *Pipeline) WriteOutputs(a *assessment.Assessment, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	var written []string
	for _, att := range a.Attempts() {
		var grade *int
		if g, ok := att.Grade(); ok {
			grade = &g
		}
		for i, pg := range att.Pages() {
			img, err := raster.Load(pg.Path)
			if err != nil {
				return nil, err
			}
			img = raster.Rotate(img, pg.Rotation)
			name := export.FormatName(att.IDs(), grade, i, ".png")
			path := filepath.Join(outDir, name)
			if err := raster.Save(img, path); err != nil {
				return nil, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

// WriteGroupPDFs produces one PDF per index group (copy or question), one
// page per attempt: each attempt's pages are rotated upright, scaled, and
// merged into a single sheet. Group iteration order is the index's
// first-insertion order, so output is deterministic.
func (p *Pipeline) WriteGroupPDFs(groups []assessment.Group, prefix, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}
	sheetDir := filepath.Join(outDir, "sheets")
	if err := os.MkdirAll(sheetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", sheetDir, err)
	}

	var written []string
	for _, group := range groups {
		var sheets []string
		for i, att := range group.Attempts {
			sheet, err := p.mergeAttempt(att)
			if err != nil {
				return nil, err
			}
			path := filepath.Join(sheetDir, fmt.Sprintf("%s%s-attempt%d.png", prefix, group.Key, i))
			if err := raster.Save(sheet, path); err != nil {
				return nil, err
			}
			sheets = append(sheets, path)
		}
		pdfPath := filepath.Join(outDir, fmt.Sprintf("%s%s.pdf", prefix, group.Key))
		if err := document.WriteImagePDF(pdfPath, sheets); err != nil {
			return nil, err
		}
		written = append(written, pdfPath)
	}
	return written, nil
}

func (p *Pipeline) mergeAttempt(att *assessment.Attempt) (image.Image, error) {
	pages := att.Pages()
	imgs := make([]image.Image, 0, len(pages))
	rotations := make([]int, 0, len(pages))
	for _, pg := range pages {
		img, err := raster.Load(pg.Path)
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
		rotations = append(rotations, pg.Rotation)
	}
	return raster.Merge(imgs, rotations, p.cfg.Scale)
}
