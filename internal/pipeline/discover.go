// Package pipeline orchestrates a batch run: discover scan sources, resolve
// pages in parallel, commit results to the Assessment in input order, and
// write the renamed output pages.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scanmark/internal/document"
)

// Source is one input file: a single-page image or a multi-page PDF whose
// pages have been rendered to images. Every page of a source belongs to the
// same attempt.
type Source struct {
	Path  string
	Pages []string
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Discover expands the given files and directories into scan sources in
// stable sorted path order. PDFs are rasterized into per-page images under
// pageDir at the given dpi. Stable ordering here is what makes the whole
// run deterministic, so directory contents are always sorted.
func Discover(inputs []string, pageDir string, dpi float64) ([]Source, error) {
	var paths []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", in, err)
		}
		if !info.IsDir() {
			paths = append(paths, in)
			continue
		}
		err = filepath.WalkDir(in, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != in {
					return filepath.SkipDir
				}
				return nil
			}
			if supported(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
	}
	sort.Strings(paths)

	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".pdf") {
			n, err := document.PageCount(p)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				// A blank PDF has nothing to resolve; not an error.
				continue
			}
			pages, err := document.RenderPages(p, dpi, pageDir)
			if err != nil {
				return nil, err
			}
			sources = append(sources, Source{Path: p, Pages: pages})
			continue
		}
		sources = append(sources, Source{Path: p, Pages: []string{p}})
	}
	return sources, nil
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExts[ext] || ext == ".pdf"
}
