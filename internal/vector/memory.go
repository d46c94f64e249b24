package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 进程内向量存储
// 用于测试和无Milvus的本地运行，语义与Store契约一致
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Chunk
}

// NewMemoryStore 创建内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Chunk),
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("upsert batch is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]Chunk)
		s.collections[collection] = coll
	}
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("chunk id is empty")
		}
		coll[chunk.ID] = chunk
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	categorySet := make(map[string]struct{}, len(req.Categories))
	for _, c := range req.Categories {
		categorySet[c] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[req.Collection]
	matches := make([]Match, 0)
	for _, chunk := range coll {
		if len(categorySet) > 0 {
			if _, ok := categorySet[chunk.Category]; !ok {
				continue
			}
		}
		score := cosineSimilarity(req.Vector, chunk.Vector)
		if score < req.ScoreThreshold {
			continue
		}
		matches = append(matches, Match{
			Text:       chunk.Text,
			DocumentID: chunk.DocumentID,
			Category:   chunk.Category,
			Score:      score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Ready() bool {
	return true
}

// Count 集合内chunk数量，测试用
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// IDs 集合内全部chunk id，测试用
func (s *MemoryStore) IDs(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
