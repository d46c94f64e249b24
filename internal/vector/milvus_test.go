package vector

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex(t *testing.T) {
	index, err := vectorIndex()
	require.NoError(t, err)
	require.NotNil(t, index)

	// 主选HNSW，构建失败才退回IVF_FLAT
	assert.Contains(t, []entity.IndexType{entity.HNSW, entity.IvfFlat}, index.IndexType())
}

func TestCategoryFilterExpr(t *testing.T) {
	assert.Equal(t, "", categoryFilterExpr(nil))
	assert.Equal(t, "", categoryFilterExpr([]string{}))

	assert.Equal(t, `category in ["Umowy"]`, categoryFilterExpr([]string{"Umowy"}))
	assert.Equal(t, `category in ["Umowy", "Medyczne"]`,
		categoryFilterExpr([]string{"Umowy", "Medyczne"}))
}

func TestCategoryFilterExpr_QuotesSpecialCharacters(t *testing.T) {
	// 类目值来自请求方，引号必须被转义，不能拼出可注入的表达式
	expr := categoryFilterExpr([]string{`um"owy`})
	assert.Equal(t, `category in ["um\"owy"]`, expr)
}
