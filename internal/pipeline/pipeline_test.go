package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"scanmark/internal/barcode"
	"scanmark/internal/config"
	"scanmark/internal/resolve"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubDecoder maps a page's width to a fixed barcode set, so each test
// fixture image selects its own decode result.
type stubDecoder struct {
	byWidth map[int][]barcode.Barcode
}

func (d *stubDecoder) Decode(_ context.Context, img image.Image) []barcode.Barcode {
	return d.byWidth[img.Bounds().Dx()]
}

func identifierCode(payload string) []barcode.Barcode {
	// Centroid in the top-right quadrant of any fixture page: upright.
	pts := []image.Point{{X: 60, Y: 4}, {X: 70, Y: 4}, {X: 70, Y: 14}, {X: 60, Y: 14}}
	return []barcode.Barcode{{Symbology: barcode.SymbologyQR, Payload: payload, Points: pts}}
}

// writePNG writes a white width x 100 page image and returns its path.
func writePNG(t *testing.T, dir, name string, width int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Workers = 3
	return cfg
}

func TestRun_AttemptPerSourceInInputOrder(t *testing.T) {
	dir := t.TempDir()
	// Named so sorted discovery order is a.png, b.png, c.png.
	writePNG(t, dir, "a.png", 80)
	writePNG(t, dir, "b.png", 81)
	writePNG(t, dir, "c.png", 82)

	dec := &stubDecoder{byWidth: map[int][]barcode.Barcode{
		80: identifierCode("1|1|1"),
		81: identifierCode("2|1|1"),
		82: identifierCode("3|1|1"),
	}}
	p := New(testConfig(t), dec, nil)

	result, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	attempts := result.Attempts()
	require.Len(t, attempts, 3)
	for i, wantCopy := range []string{"1", "2", "3"} {
		assert.Equal(t, wantCopy, attempts[i].IDs().Copy, "attempt %d", i)
		assert.Len(t, attempts[i].Pages(), 1)
	}
	assert.Equal(t, 3, result.CopyCount())
}

func TestRun_OrderIndependentOfWorkerCount(t *testing.T) {
	dir := t.TempDir()
	var byWidth = map[int][]barcode.Barcode{}
	for i := 0; i < 12; i++ {
		w := 60 + i
		writePNG(t, dir, fmt.Sprintf("page-%02d.png", i), w)
		byWidth[w] = identifierCode(fmt.Sprintf("%d|1|1", i))
	}

	run := func(workers int) []string {
		cfg := testConfig(t)
		cfg.Workers = workers
		p := New(cfg, &stubDecoder{byWidth: byWidth}, nil)
		result, err := p.Run(context.Background(), []string{dir})
		require.NoError(t, err)
		var copies []string
		for _, a := range result.Attempts() {
			copies = append(copies, a.IDs().Copy)
		}
		return copies
	}

	assert.Equal(t, run(1), run(8), "attempt order must not depend on worker count")
}

func TestRun_UnreadablePageDegrades(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "good.png", 80)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644))

	dec := &stubDecoder{byWidth: map[int][]barcode.Barcode{80: identifierCode("1|1|1")}}
	p := New(testConfig(t), dec, nil)

	result, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	require.Len(t, result.Attempts(), 2)
	assert.Len(t, result.ValidAttempts(), 1)
	assert.Len(t, result.InvalidAttempts(), 1)
}

func TestRun_TruncatedImageKeepsDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "page.png", 80)
	// Cut the file after the header: dimensions stay readable, the raster
	// does not.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:40], 0o644))

	p := New(testConfig(t), &stubDecoder{}, nil)
	result, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	require.Len(t, result.Attempts(), 1)
	pg := result.Attempts()[0].Pages()[0]
	assert.Equal(t, 80, pg.Width)
	assert.Equal(t, 100, pg.Height)
	// Portrait fallback from the real dimensions, not the zero-size guess.
	assert.Equal(t, 0, pg.Rotation)
}

func TestRun_ProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 80)
	writePNG(t, dir, "b.png", 81)

	p := New(testConfig(t), &stubDecoder{}, nil)
	var calls []int
	p.OnPage = func(done, total int, path string) {
		calls = append(calls, done)
		assert.Equal(t, 2, total)
	}
	// One worker keeps the callback sequential for this assertion.
	p.cfg.Workers = 1

	_, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestRun_CancelledContextCommitsNothing(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 80)
	writePNG(t, dir, "b.png", 81)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig(t), &stubDecoder{}, nil)
	result, err := p.Run(ctx, []string{dir})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Attempts(), "cancelled run must commit only the completed prefix")
}

func TestMergePages(t *testing.T) {
	grade := 7
	pages := []resolve.Page{
		{IDs: resolve.Identifiers{Copy: "5"}},
		{IDs: resolve.Identifiers{Copy: "9", Question: "2"}, Grade: &grade},
		{IDs: resolve.Identifiers{Attempt: "1"}},
	}
	ids, g := mergePages(pages)
	assert.Equal(t, resolve.Identifiers{Copy: "5", Question: "2", Attempt: "1"}, ids)
	require.NotNil(t, g)
	assert.Equal(t, 7, *g)
}

func TestDiscover_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", 80)
	writePNG(t, dir, "a.png", 80)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cache"), 0o755))
	writePNG(t, filepath.Join(dir, ".cache"), "hidden.png", 80)

	sources, err := Discover([]string{dir}, filepath.Join(dir, "pages"), 300)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, filepath.Join(dir, "a.png"), sources[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.png"), sources[1].Path)
}
