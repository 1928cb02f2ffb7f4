package barcode

import (
	"context"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
	multiqrcode "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/oned"
	"go.uber.org/zap"

	"scanmark/internal/raster"
)

// Engine decodes every recognizable code on a page image. It runs a QR pass
// and a Code128 pass (the linear top-center code) and concatenates whatever
// both find. Decode failures mean "no codes here", never a batch failure:
// the resolver downstream degrades missing codes to unset fields.
type Engine struct {
	logger *zap.Logger
	qr     multi.MultipleBarcodeReader
	linear gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewEngine builds a decoding engine. The logger is used for per-page decode
// diagnostics only; pass zap.NewNop() to silence it.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger: logger,
		qr:     multiqrcode.NewQRCodeMultiReader(),
		linear: oned.NewCode128Reader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns all codes found on the page, QR results first. When the
// plain pass finds nothing, it retries once on an Otsu-binarized copy, which
// recovers codes on grey or unevenly lit scans. The retry is skipped when
// ctx is already cancelled.
func (e *Engine) Decode(ctx context.Context, img image.Image) []Barcode {
	codes := e.decodeFrom(img)
	if len(codes) == 0 && ctx.Err() == nil {
		codes = e.decodeFrom(raster.Binarize(img))
		if len(codes) > 0 {
			e.logger.Debug("decoded codes only after binarization", zap.Int("codes", len(codes)))
		}
	}
	return codes
}

func (e *Engine) decodeFrom(img image.Image) []Barcode {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		e.logger.Debug("binary bitmap construction failed", zap.Error(err))
		return nil
	}

	var codes []Barcode
	if results, err := e.qr.DecodeMultiple(bmp, e.hints); err == nil {
		for _, r := range results {
			codes = append(codes, fromResult(r))
		}
	}
	// NotFoundException on either pass: that symbology is absent from the page.
	if r, err := e.linear.Decode(bmp, e.hints); err == nil {
		codes = append(codes, fromResult(r))
	}
	return codes
}

// fromResult maps a gozxing result to our decoded-barcode model, rounding
// the result points into integer page pixel coordinates.
func fromResult(r *gozxing.Result) Barcode {
	sym := SymbologyOther
	switch r.GetBarcodeFormat() {
	case gozxing.BarcodeFormat_QR_CODE:
		sym = SymbologyQR
	case gozxing.BarcodeFormat_CODE_128:
		sym = SymbologyLinear
	}
	pts := r.GetResultPoints()
	points := make([]image.Point, 0, len(pts))
	for _, p := range pts {
		points = append(points, image.Pt(int(p.GetX()+0.5), int(p.GetY()+0.5)))
	}
	return Barcode{Symbology: sym, Payload: r.GetText(), Points: points}
}
