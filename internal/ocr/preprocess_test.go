package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一张指定灰度值条纹的测试图
func grayImage(values ...uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(values), 1))
	for x, v := range values {
		img.SetNRGBA(x, 0, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	return img
}

func TestPreprocess_StretchesContrast(t *testing.T) {
	// 低对比度输入（100..180）拉伸后覆盖全量程
	src := grayImage(100, 140, 180)
	out := Preprocess(src)
	require.NotNil(t, out)

	min, max := luminanceRange(out)
	assert.Equal(t, uint8(0), min)
	assert.Equal(t, uint8(255), max)
}

func TestPreprocess_ProducesGrayscale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 30, B: 90, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 240, B: 60, A: 255})

	out := Preprocess(src)
	for x := 0; x < 2; x++ {
		c := out.NRGBAAt(x, 0)
		assert.Equal(t, c.R, c.G)
		assert.Equal(t, c.G, c.B)
	}
}

func TestAutocontrast_UniformImageUnchanged(t *testing.T) {
	// 全同亮度无动态范围，拉伸没有意义，原样返回
	src := grayImage(128, 128, 128)
	out := autocontrast(src)

	for x := 0; x < 3; x++ {
		assert.Equal(t, uint8(128), out.NRGBAAt(x, 0).R)
	}
}

func TestAutocontrast_PreservesOrdering(t *testing.T) {
	src := grayImage(60, 90, 120, 200)
	out := autocontrast(src)

	prev := out.NRGBAAt(0, 0).R
	for x := 1; x < 4; x++ {
		cur := out.NRGBAAt(x, 0).R
		assert.GreaterOrEqual(t, cur, prev, "stretching must keep pixel ordering")
		prev = cur
	}
}

func TestLuminanceRange(t *testing.T) {
	min, max := luminanceRange(grayImage(30, 200, 90))
	assert.Equal(t, uint8(30), min)
	assert.Equal(t, uint8(200), max)
}

func TestStretch_Bounds(t *testing.T) {
	// min=50 scale=255/150
	scale := 255.0 / 150.0
	assert.Equal(t, uint8(0), stretch(50, 50, scale))
	assert.Equal(t, uint8(255), stretch(200, 50, scale))
}
