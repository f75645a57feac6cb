// Package qrdetect extracts QR payload strings from page images. Detection is
// layered: a zxing-based reader restricted to the QR symbology runs over four
// rotations first, and two lighter decoders act as a fallback when it finds
// nothing. No network or business-rule validation happens here.
package qrdetect

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/liyue201/goqr"
	"github.com/makiuchi-d/gozxing"
	zxingmulti "github.com/makiuchi-d/gozxing/multi"
	zxmulti "github.com/makiuchi-d/gozxing/multi/qrcode"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	tqr "github.com/tuotoo/qrcode"

	"github.com/avelter/qrscan/internal/logging"
)

// Detector decodes QR codes from images.
type Detector struct {
	logger      logging.Logger
	multiReader zxingmulti.MultipleBarcodeReader
	reader      gozxing.Reader
	hints       map[gozxing.DecodeHintType]interface{}
}

// New creates a detector. The zxing readers are restricted to the QR
// symbology; letting them probe other symbologies trips decoder faults on
// dense print artwork.
func New(logger logging.Logger) *Detector {
	return &Detector{
		logger:      logger.With(logging.Field{Key: "component", Value: "qrdetect"}),
		multiReader: zxmulti.NewQRCodeMultiReader(),
		reader:      zxqr.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{gozxing.BarcodeFormat_QR_CODE},
			gozxing.DecodeHintType_TRY_HARDER:       true,
		},
	}
}

// Detect returns the unique, trimmed payload strings found on the image.
// Order is not significant.
func (d *Detector) Detect(img image.Image) []string {
	gray := toGray(img)

	found := d.decodePrimary(gray)
	if len(found) > 0 {
		d.logger.Info("primary decoder found QR codes", logging.Field{Key: "count", Value: len(found)})
		return setToSlice(found)
	}

	found = d.decodeFallback(gray)
	if len(found) > 0 {
		d.logger.Info("fallback decoder found QR codes", logging.Field{Key: "count", Value: len(found)})
	}
	return setToSlice(found)
}

// DetectWithEnhancement runs Detect and, if nothing was found, retries once
// on a contrast-enhanced, lightly blurred copy of the image.
func (d *Detector) DetectWithEnhancement(img image.Image) []string {
	payloads := d.Detect(img)
	if len(payloads) > 0 {
		return payloads
	}

	d.logger.Info("retrying detection on enhanced image")
	enhanced := enhanceForQR(toGray(img))
	return d.Detect(enhanced)
}

// decodePrimary runs the zxing readers over the four rotations the pipeline
// tolerates. A fault on one rotation is logged and the remaining rotations
// still run.
func (d *Detector) decodePrimary(gray *image.Gray) map[string]struct{} {
	rotations := []image.Image{
		gray,
		imaging.Rotate270(gray), // 90 degrees clockwise
		imaging.Rotate180(gray),
		imaging.Rotate90(gray), // 90 degrees counter-clockwise
	}

	found := make(map[string]struct{})
	for idx, frame := range rotations {
		payloads, err := d.decodeFrame(frame)
		if err != nil {
			d.logger.Debug("zxing decode produced no result",
				logging.Field{Key: "rotation", Value: idx},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		for _, p := range payloads {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				found[trimmed] = struct{}{}
			}
		}
	}
	return found
}

func (d *Detector) decodeFrame(frame image.Image) (payloads []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			payloads = nil
			err = fmt.Errorf("decoder fault: %v", r)
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(frame)
	if err != nil {
		return nil, fmt.Errorf("binarize frame: %w", err)
	}

	results, err := d.multiReader.DecodeMultiple(bmp, d.hints)
	if err == nil {
		for _, res := range results {
			payloads = append(payloads, decodePayload([]byte(res.GetText())))
		}
		return payloads, nil
	}

	res, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return nil, err
	}
	return []string{decodePayload([]byte(res.GetText()))}, nil
}

// decodeFallback tries the secondary decoders: multi-code recognition first,
// then the single-code reader.
func (d *Detector) decodeFallback(gray *image.Gray) map[string]struct{} {
	found := make(map[string]struct{})

	codes, err := goqr.Recognize(gray)
	if err != nil {
		d.logger.Debug("goqr recognize failed", logging.Field{Key: "error", Value: err.Error()})
	}
	for _, code := range codes {
		if data := strings.TrimSpace(decodePayload(code.Payload)); data != "" {
			found[data] = struct{}{}
		}
	}
	if len(found) > 0 {
		return found
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		d.logger.Warn("encoding frame for single-code decoder", logging.Field{Key: "error", Value: err.Error()})
		return found
	}
	matrix, err := tqr.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		d.logger.Debug("single-code decode failed", logging.Field{Key: "error", Value: err.Error()})
		return found
	}
	if data := strings.TrimSpace(matrix.Content); data != "" {
		found[data] = struct{}{}
	}
	return found
}

// decodePayload interprets raw QR payload bytes as UTF-8, falling back to
// Latin-1 with substitution. Text decoding never fails.
func decodePayload(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}
