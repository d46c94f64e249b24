package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	c := New(1200, 400)

	assert.Nil(t, c.Split(Document{Text: ""}))
	assert.Nil(t, c.Split(Document{Text: "   \n\n  \t "}))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New(1200, 400)

	chunks := c.Split(Document{Text: "  krótki dokument  "})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "krótki dokument", chunks[0].Text)
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	c := New(100, 20)

	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString(strings.Repeat("słowo ", 8))
		sb.WriteString("\n\n")
	}

	chunks := c.Split(Document{Text: sb.String()})
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), 100,
			"chunk %d exceeds size limit", chunk.Index)
	}
}

func TestSplit_IndexesAreSequential(t *testing.T) {
	c := New(50, 10)

	text := strings.Repeat("paragraf pierwszy\n\n", 10)
	chunks := c.Split(Document{Text: text})
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestSplit_OverlapBetweenChunks(t *testing.T) {
	// 段落长42（40字符+空行分隔符），窗口100，重叠预算50：
	// 产出chunk后窗口应保留上一块的最后一个段落
	c := New(100, 50)

	paraA := strings.Repeat("a", 40)
	paraB := strings.Repeat("b", 40)
	paraC := strings.Repeat("c", 40)
	text := paraA + "\n\n" + paraB + "\n\n" + paraC

	chunks := c.Split(Document{Text: text})
	require.Len(t, chunks, 2)

	assert.Contains(t, chunks[0].Text, paraA)
	assert.Contains(t, chunks[0].Text, paraB)
	// 第二块以上一块的尾段开头
	assert.Contains(t, chunks[1].Text, paraB)
	assert.Contains(t, chunks[1].Text, paraC)
}

func TestSplit_FullCoverage(t *testing.T) {
	// 每个段落都必须出现在至少一个chunk中，切分不丢内容
	c := New(80, 20)

	paragraphs := []string{
		"umowa o pracę zawarta dnia",
		"wynagrodzenie miesięczne wynosi",
		"pracownik zobowiązuje się do",
		"okres wypowiedzenia wynosi",
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := c.Split(Document{Text: text})
	require.NotEmpty(t, chunks)

	joined := ""
	for _, chunk := range chunks {
		joined += chunk.Text + "\n"
	}
	for _, p := range paragraphs {
		assert.Contains(t, joined, p)
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	// 无任何分隔符的连续文本按rune硬切分
	c := New(100, 0)

	text := strings.Repeat("x", 250)
	chunks := c.Split(Document{Text: text})
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len(chunks[0].Text))
	assert.Equal(t, 100, len(chunks[1].Text))
	assert.Equal(t, 50, len(chunks[2].Text))

	var rebuilt strings.Builder
	for _, chunk := range chunks {
		rebuilt.WriteString(chunk.Text)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplit_HardCutCountsRunesNotBytes(t *testing.T) {
	c := New(10, 0)

	text := strings.Repeat("ż", 25)
	chunks := c.Split(Document{Text: text})
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 5, utf8.RuneCountInString(chunks[2].Text))
}

func TestSplit_MetadataCopiedPerChunk(t *testing.T) {
	c := New(50, 10)

	meta := map[string]string{"category": "Umowy", "document_id": "doc-1"}
	text := strings.Repeat("treść dokumentu\n\n", 10)

	chunks := c.Split(Document{Text: text, Metadata: meta})
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, "Umowy", chunk.Metadata["category"])
		assert.Equal(t, "doc-1", chunk.Metadata["document_id"])
	}

	// 每个chunk持有独立副本，修改一个不影响其他
	chunks[0].Metadata["category"] = "zmienione"
	assert.Equal(t, "Umowy", chunks[1].Metadata["category"])
	assert.Equal(t, "Umowy", meta["category"])
}

func TestNew_ClampsInvalidParameters(t *testing.T) {
	c := New(0, -5)
	assert.Equal(t, 1200, c.chunkSize)
	assert.Equal(t, 0, c.chunkOverlap)

	// 重叠不小于块大小时回退为块大小的四分之一
	c = New(100, 200)
	assert.Equal(t, 100, c.chunkSize)
	assert.Equal(t, 25, c.chunkOverlap)
}
