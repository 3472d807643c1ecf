package qr

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	DefaultSize = 280

	maxSize = 2048
)

var (
	ErrEmptyData   = errors.New("qr code data is empty")
	ErrInvalidSize = errors.New("invalid size")
)

// RenderOptions controls how a QR code is drawn.
type RenderOptions struct {
	// Size is the width and height of the image in pixels. Zero uses
	// DefaultSize.
	Size int

	// Margin draws the quiet zone around the code.
	Margin bool

	ForegroundColor color.Color
	BackgroundColor color.Color

	RecoveryLevel qrcode.RecoveryLevel
}

// DefaultRenderOptions are the options used for payment QR codes.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		Size:            DefaultSize,
		Margin:          true,
		ForegroundColor: color.Black,
		BackgroundColor: color.White,
		RecoveryLevel:   qrcode.Medium,
	}
}

// Code is an encoded QR code ready to be rendered.
type Code struct {
	content string
	opts    RenderOptions
	qr      *qrcode.QRCode
}

// Encode encodes content as a QR code. Nil opts uses DefaultRenderOptions.
func Encode(content string, opts *RenderOptions) (*Code, error) {
	if len(strings.TrimSpace(content)) == 0 {
		return nil, ErrEmptyData
	}

	resolved := *DefaultRenderOptions()
	if opts != nil {
		resolved = *opts
		if resolved.Size == 0 {
			resolved.Size = DefaultSize
		}
		if resolved.ForegroundColor == nil {
			resolved.ForegroundColor = color.Black
		}
		if resolved.BackgroundColor == nil {
			resolved.BackgroundColor = color.White
		}
	}

	if resolved.Size < 0 || resolved.Size > maxSize {
		return nil, ErrInvalidSize
	}

	encoded, err := qrcode.New(content, resolved.RecoveryLevel)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding qr code")
	}
	encoded.DisableBorder = !resolved.Margin
	encoded.ForegroundColor = resolved.ForegroundColor
	encoded.BackgroundColor = resolved.BackgroundColor

	return &Code{
		content: content,
		opts:    resolved,
		qr:      encoded,
	}, nil
}

// GeneratePaymentQr encodes the QR payload of a created payment.
func GeneratePaymentQr(resp *sablepay.CreatePaymentResponse, opts *RenderOptions) (*Code, error) {
	if resp == nil {
		return nil, ErrEmptyData
	}
	return Encode(resp.QrPayload(), opts)
}

// Content returns the encoded text.
func (c *Code) Content() string {
	return c.content
}

// Size returns the rendered image size in pixels.
func (c *Code) Size() int {
	return c.opts.Size
}

// ToPng renders the code as a PNG image.
func (c *Code) ToPng() ([]byte, error) {
	png, err := c.qr.PNG(c.opts.Size)
	if err != nil {
		return nil, errors.Wrap(err, "error rendering qr code png")
	}
	return png, nil
}

// ToDataUrl renders the code as a PNG embedded in a data URL, suitable for an
// <img> src attribute.
func (c *Code) ToDataUrl() (string, error) {
	png, err := c.ToPng()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ToSvg renders the code as an SVG document made of one path per dark
// module.
func (c *Code) ToSvg() string {
	bitmap := c.qr.Bitmap()
	modules := len(bitmap)
	size := float64(c.opts.Size)
	moduleSize := size / float64(modules)

	var path strings.Builder
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			fmt.Fprintf(&path, "M%[1]f,%[2]f h%[3]f v%[3]f h-%[3]fz", float64(x)*moduleSize, float64(y)*moduleSize, moduleSize)
		}
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`, c.opts.Size)
	fmt.Fprintf(&svg, `<rect width="100%%" height="100%%" fill="%s"/>`, hexColor(c.opts.BackgroundColor))
	fmt.Fprintf(&svg, `<path d="%s" fill="%s" shape-rendering="crispEdges"/>`, path.String(), hexColor(c.opts.ForegroundColor))
	svg.WriteString(`</svg>`)
	return svg.String()
}

func hexColor(c color.Color) string {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return fmt.Sprintf("#%.2x%.2x%.2x", rgba.R, rgba.G, rgba.B)
}
