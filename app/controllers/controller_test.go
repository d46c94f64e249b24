package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/beego/beego/v2/server/web"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/embedding"
	"github.com/docuflow/backend-go/internal/queue"
	"github.com/docuflow/backend-go/internal/rag"
	"github.com/docuflow/backend-go/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	web.BConfig.RunMode = web.PROD
	// 控制器从Ctx.Input.RequestBody读取JSON
	web.BConfig.CopyRequestBody = true
	os.Exit(m.Run())
}

// fakeEmbedder 返回固定向量
type fakeEmbedder struct {
	vector []float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }
func (f *fakeEmbedder) Ready() bool     { return true }

// fakeGenerator 返回固定答案
type fakeGenerator struct {
	answer string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	return f.answer, nil
}

func (f *fakeGenerator) Ready() bool { return true }

func ragTestConfig() *config.Config {
	return &config.Config{
		Vector: config.VectorStoreConfig{Collection: "test_index"},
		Knowledge: config.KnowledgeConfig{
			SearchTopK:     3,
			ScoreThreshold: 0.55,
		},
		AI: config.AIConfig{RequestTimeoutSeconds: 5},
	}
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	web.BeeApp.Handlers.ServeHTTP(rec, req)
	return rec
}

func postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(req)
}

func TestRAGController_QueryAnswersThroughInjectedService(t *testing.T) {
	// 依赖必须在按请求新建的控制器实例中存活，丢失会在此panic成500
	store := vector.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), "test_index", []vector.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Category: "Umowy", Text: "wynagrodzenie 3200 zł", Vector: []float32{1, 0, 0}},
	}))

	service := rag.NewService(&fakeEmbedder{vector: []float32{1, 0, 0}}, store,
		&fakeGenerator{answer: "Wynagrodzenie wynosi 3200 zł."}, ragTestConfig())
	web.Router("/t/rag/query", NewRAGController(service, store), "post:Query")

	rec := postJSON("/t/rag/query", `{"question":"ile wynosi wynagrodzenie?","categories_to_search":["Umowy"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp rag.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Wynagrodzenie wynosi 3200 zł.", resp.Answer)
	assert.Equal(t, []string{"doc-1"}, resp.SourceDocumentIDs)
}

func TestRAGController_QueryShortCircuitOnNoMatch(t *testing.T) {
	store := vector.NewMemoryStore()
	service := rag.NewService(&fakeEmbedder{vector: []float32{1, 0, 0}}, store,
		&rag.NoopGenerator{}, ragTestConfig())
	web.Router("/t/rag-empty/query", NewRAGController(service, store), "post:Query")

	// NoopGenerator生成必错：200证明零命中路径没有触发生成
	rec := postJSON("/t/rag-empty/query", `{"question":"pytanie"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp rag.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rag.NoMatchAnswer, resp.Answer)
	assert.Empty(t, resp.SourceDocumentIDs)
}

func TestRAGController_ProviderFailureReturns503(t *testing.T) {
	// 嵌入服务不可用映射为503+JSON detail，而不是panic后的空500
	store := vector.NewMemoryStore()
	service := rag.NewService(&embedding.NoopEmbedder{}, store, &rag.NoopGenerator{}, ragTestConfig())
	web.Router("/t/rag-down/query", NewRAGController(service, store), "post:Query")

	rec := postJSON("/t/rag-down/query", `{"question":"pytanie"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "retrieval/generation failed")
}

func TestRAGController_QueryValidation(t *testing.T) {
	store := vector.NewMemoryStore()
	service := rag.NewService(&fakeEmbedder{vector: []float32{1}}, store, &rag.NoopGenerator{}, ragTestConfig())
	web.Router("/t/rag-validate/query", NewRAGController(service, store), "post:Query")

	rec := postJSON("/t/rag-validate/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")

	rec = postJSON("/t/rag-validate/query", `not-json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRAGController_Collections(t *testing.T) {
	store := vector.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), "test_index", []vector.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Text: "t", Vector: []float32{1}},
	}))

	service := rag.NewService(&fakeEmbedder{vector: []float32{1}}, store, &rag.NoopGenerator{}, ragTestConfig())
	web.Router("/t/rag/collections", NewRAGController(service, store), "get:Collections")

	rec := serve(httptest.NewRequest(http.MethodGet, "/t/rag/collections", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Collections []string `json:"collections"`
		Count       int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"test_index"}, resp.Collections)
	assert.Equal(t, 1, resp.Count)
}

func multipartUpload(t *testing.T, path, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="doc.bin"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return serve(req)
}

func TestDocumentController_UploadRejectsNonPDF(t *testing.T) {
	// 非PDF在触碰存储/队列之前被拒绝
	web.Router("/t/document/upload", NewDocumentController(nil, nil, nil, nil), "post:Upload")

	rec := multipartUpload(t, "/t/document/upload", "text/plain")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only PDF files are supported.")
}

func TestDocumentController_UploadRequiresFile(t *testing.T) {
	web.Router("/t/document-nofile/upload", NewDocumentController(nil, nil, nil, nil), "post:Upload")

	rec := postJSON("/t/document-nofile/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
}

func TestHealthController_ReportsQueueDown(t *testing.T) {
	// 队列不可达必须如实上报false
	q := queue.New(config.RedisConfig{Host: "127.0.0.1", Port: "1"}, "health:test")
	t.Cleanup(func() { q.Close() })
	web.Router("/t/health", NewHealthController(q), "get:Health")

	rec := serve(httptest.NewRequest(http.MethodGet, "/t/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "API Gateway is running", resp["status"])
	assert.Equal(t, false, resp["redis_queue_status"])
}

func proxyConfig(coreURL string) *config.Config {
	return &config.Config{
		RAGCore: config.RAGCoreConfig{URL: coreURL},
		AI:      config.AIConfig{RequestTimeoutSeconds: 5},
	}
}

func TestQueryProxy_ForwardsCoreResponse(t *testing.T) {
	core := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"ok","source_files":["doc-1"]}`))
	}))
	t.Cleanup(core.Close)

	web.Router("/t/proxy/query", NewQueryProxyController(proxyConfig(core.URL)), "post:Query")

	rec := postJSON("/t/proxy/query", `{"question":"pytanie"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"answer":"ok"`)
}

func TestQueryProxy_CoreErrorMapsTo503(t *testing.T) {
	core := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(core.Close)

	web.Router("/t/proxy-5xx/query", NewQueryProxyController(proxyConfig(core.URL)), "post:Query")

	rec := postJSON("/t/proxy-5xx/query", `{"question":"pytanie"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "RAG Core Service returned status 500")
}

func TestQueryProxy_CoreUnreachableMapsTo503(t *testing.T) {
	core := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	coreURL := core.URL
	core.Close()

	web.Router("/t/proxy-down/query", NewQueryProxyController(proxyConfig(coreURL)), "post:Query")

	rec := postJSON("/t/proxy-down/query", `{"question":"pytanie"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "RAG Core Service Unavailable")
}

func TestQueryProxy_Validation(t *testing.T) {
	web.Router("/t/proxy-validate/query", NewQueryProxyController(proxyConfig("http://127.0.0.1:1")), "post:Query")

	rec := postJSON("/t/proxy-validate/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}
