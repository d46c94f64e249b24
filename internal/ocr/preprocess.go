package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocess 识别前的页面图像预处理：灰度化后做线性对比度拉伸
// 等价于PIL的autocontrast：把最暗/最亮像素拉伸到0/255
func Preprocess(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	return autocontrast(gray)
}

// autocontrast 扫描灰度直方图的最小/最大亮度并线性拉伸
func autocontrast(img *image.NRGBA) *image.NRGBA {
	min, max := luminanceRange(img)
	if max <= min {
		return img
	}

	scale := 255.0 / float64(max-min)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := stretch(c.R, min, scale)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func luminanceRange(img *image.NRGBA) (uint8, uint8) {
	min := uint8(255)
	max := uint8(0)
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// 灰度图RGB相等，取R通道即可
			v := row[(x-bounds.Min.X)*4]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

func stretch(v, min uint8, scale float64) uint8 {
	s := float64(v-min) * scale
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s + 0.5)
}
