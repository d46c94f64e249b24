package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"strings"

	"github.com/docuflow/backend-go/internal/logger"
	"github.com/otiai10/gosseract/v2"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"
	"go.uber.org/zap"
)

// Engine 光学识别引擎
// 识别失败返回error，由摄取任务显式分支处理，识别失败不中止摄取
type Engine interface {
	Recognize(ctx context.Context, pdfPath string) (string, error)
	Ready() bool
}

// NoopEngine OCR未启用时的占位实现
type NoopEngine struct{}

func (n *NoopEngine) Recognize(ctx context.Context, pdfPath string) (string, error) {
	return "", fmt.Errorf("ocr engine not configured")
}

func (n *NoopEngine) Ready() bool {
	return false
}

// TesseractEngine 基于tesseract的OCR引擎
// 每页：栅格化(300 DPI) -> 灰度+自动对比度拉伸 -> 多语言识别，页间以换行拼接
type TesseractEngine struct {
	languages []string
	dpi       int
}

// NewTesseractEngine 创建OCR引擎
func NewTesseractEngine(languages []string, dpi int) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"pol", "eng"}
	}
	if dpi <= 0 {
		// 300 DPI是识别准确率与开销的经验折中
		dpi = 300
	}
	return &TesseractEngine{
		languages: languages,
		dpi:       dpi,
	}
}

func (e *TesseractEngine) Ready() bool {
	return true
}

// Recognize 对PDF全部页面执行OCR
func (e *TesseractEngine) Recognize(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("打开PDF文件失败: %w", err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return "", fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取PDF页数失败: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("设置OCR语言失败: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := e.recognizePage(client, pdfReader, i)
		if err != nil {
			return "", fmt.Errorf("第%d页OCR失败: %w", i, err)
		}

		builder.WriteString(text)
		builder.WriteString("\n")
		logger.Debug("ocr page processed", zap.Int("page", i))
	}

	return builder.String(), nil
}

func (e *TesseractEngine) recognizePage(client *gosseract.Client, pdfReader *model.PdfReader, pageNum int) (string, error) {
	page, err := pdfReader.GetPage(pageNum)
	if err != nil {
		return "", fmt.Errorf("获取页面失败: %w", err)
	}

	device := render.NewImageDevice()
	device.OutputWidth = e.outputWidth(page)

	img, err := device.Render(page)
	if err != nil {
		return "", fmt.Errorf("页面栅格化失败: %w", err)
	}

	// 灰度 + 对比度拉伸（避免硬二值化破坏噪声扫描件的字符边缘）
	enhanced := Preprocess(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, enhanced); err != nil {
		return "", fmt.Errorf("编码页面图像失败: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("加载页面图像失败: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("文本识别失败: %w", err)
	}
	return text, nil
}

// outputWidth 按目标DPI换算页面渲染宽度（PDF单位为1/72英寸的点）
func (e *TesseractEngine) outputWidth(page *model.PdfPage) int {
	box, err := page.GetMediaBox()
	if err != nil || box == nil {
		// A4宽度兜底
		return 595 * e.dpi / 72
	}
	widthPoints := box.Urx - box.Llx
	if widthPoints <= 0 {
		return 595 * e.dpi / 72
	}
	return int(widthPoints * float64(e.dpi) / 72.0)
}
