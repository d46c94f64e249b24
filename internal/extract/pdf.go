package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// PDFExtractor 基于unipdf的文本层提取器
type PDFExtractor struct{}

// NewPDFExtractor 创建PDF提取器
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages 提取PDF每页文本，按页序返回
// 单页提取失败不中断整个文档，跳过该页继续
func (e *PDFExtractor) ExtractPages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开PDF文件失败: %w", err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("获取PDF页数失败: %w", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			pages = append(pages, "")
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			pages = append(pages, "")
			continue
		}

		text, err := ex.ExtractText()
		if err != nil {
			pages = append(pages, "")
			continue
		}

		pages = append(pages, text)
	}

	return pages, nil
}

// StrippedLength 所有页文本拼接后去除首尾空白的长度
func StrippedLength(pages []string) int {
	var builder strings.Builder
	for _, p := range pages {
		builder.WriteString(p)
	}
	return len(strings.TrimSpace(builder.String()))
}

// LooksScanned 判断文档是否为扫描件
// 文本层过短视为扫描件，触发OCR回退；阈值是启发式的，见配置说明
func LooksScanned(pages []string, threshold int) bool {
	return StrippedLength(pages) < threshold
}

// JoinPages 按页拼接文本，页间以换行分隔
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n")
}
