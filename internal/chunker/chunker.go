package chunker

import (
	"strings"
	"unicode/utf8"
)

// Document 待分块的输入文本及其元数据
type Document struct {
	Text     string
	Metadata map[string]string
}

// Chunk 分块后的文本片段，携带来源元数据
type Chunk struct {
	Index    int
	Text     string
	Metadata map[string]string
}

// DefaultSeparators 默认分隔符，从粗（空行）到细（硬切分）依次尝试
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker 递归字符分块器
// 按分隔符优先级递归切分，合并过小的相邻片段，块间携带重叠
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New 创建分块器
func New(chunkSize, overlap int, separators ...string) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
		separators:   separators,
	}
}

// Split 将文档切分为多个chunk
// 空输入不产生任何chunk；每个chunk复制文档元数据
func (c *Chunker) Split(doc Document) []Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	fragments := c.fragments(doc.Text, c.separators)
	texts := c.merge(fragments)

	chunks := make([]Chunk, 0, len(texts))
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:    len(chunks),
			Text:     trimmed,
			Metadata: copyMetadata(doc.Metadata),
		})
	}
	return chunks
}

// fragments 递归切分，产出每段不超过chunkSize的片段
// 使用SplitAfter保留分隔符，片段拼接可无损还原原文
func (c *Chunker) fragments(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return hardCut(text, c.chunkSize)
	}

	sep := separators[0]
	if sep == "" {
		return hardCut(text, c.chunkSize)
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// 当前分隔符切不开，降级到更细的分隔符
		return c.fragments(text, separators[1:])
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) > c.chunkSize {
			out = append(out, c.fragments(part, separators[1:])...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// merge 滑动窗口合并片段：窗口内总长不超过chunkSize，
// 产出chunk时保留尾部不超过chunkOverlap的片段作为下一块的起始
func (c *Chunker) merge(fragments []string) []string {
	var chunks []string
	var window []string
	windowLen := 0

	flush := func() {
		if windowLen == 0 {
			return
		}
		chunks = append(chunks, strings.Join(window, ""))
	}

	for _, frag := range fragments {
		fragLen := utf8.RuneCountInString(frag)

		if windowLen > 0 && windowLen+fragLen > c.chunkSize {
			flush()
			// 收缩窗口至重叠预算内，且为新片段腾出空间
			for windowLen > c.chunkOverlap || (windowLen > 0 && windowLen+fragLen > c.chunkSize) {
				windowLen -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}

		window = append(window, frag)
		windowLen += fragLen
	}
	flush()

	return chunks
}

// hardCut 按rune硬切分，最细粒度的兜底
func hardCut(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func copyMetadata(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
