package qr

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

func TestEncode_Validation(t *testing.T) {
	_, err := Encode("", nil)
	assert.Equal(t, ErrEmptyData, err)

	_, err = Encode("   ", nil)
	assert.Equal(t, ErrEmptyData, err)

	_, err = Encode("https://pay.sablepay.io/p/pay_1", &RenderOptions{Size: -1})
	assert.Equal(t, ErrInvalidSize, err)

	_, err = Encode("https://pay.sablepay.io/p/pay_1", &RenderOptions{Size: maxSize + 1})
	assert.Equal(t, ErrInvalidSize, err)

	_, err = GeneratePaymentQr(nil, nil)
	assert.Equal(t, ErrEmptyData, err)
}

func TestGeneratePaymentQr_PrefersQrData(t *testing.T) {
	resp := &sablepay.CreatePaymentResponse{
		PaymentId:  "pay_1",
		PaymentUrl: "https://pay.sablepay.io/p/pay_1",
		QrData:     "sablepay:pay_1",
	}

	code, err := GeneratePaymentQr(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "sablepay:pay_1", code.Content())

	resp.QrData = ""
	code, err = GeneratePaymentQr(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, resp.PaymentUrl, code.Content())
	assert.Equal(t, DefaultSize, code.Size())
}

func TestToPng(t *testing.T) {
	code, err := Encode("https://pay.sablepay.io/p/pay_1", nil)
	require.NoError(t, err)

	raw, err := code.ToPng()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestToDataUrl(t *testing.T) {
	code, err := Encode("https://pay.sablepay.io/p/pay_1", &RenderOptions{Size: 128, Margin: true})
	require.NoError(t, err)

	dataUrl, err := code.ToDataUrl()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataUrl, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataUrl, "data:image/png;base64,"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestToSvg(t *testing.T) {
	code, err := Encode("https://pay.sablepay.io/p/pay_1", &RenderOptions{
		Size:            200,
		ForegroundColor: color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff},
		BackgroundColor: color.White,
	})
	require.NoError(t, err)

	svg := code.ToSvg()
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, `width="200"`)
	assert.Contains(t, svg, `fill="#112233"`)
	assert.Contains(t, svg, `fill="#ffffff"`)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#000000", hexColor(color.Black))
	assert.Equal(t, "#ffffff", hexColor(color.White))
	assert.Equal(t, "#0a0b0c", hexColor(color.RGBA{R: 10, G: 11, B: 12, A: 255}))
}
