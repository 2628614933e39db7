package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore はプロセス内メモリ上のStore実装です
// 外部ミドルウェアなしでのテストと小規模な動作確認に使用します
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // ベクトルID -> Record
}

// NewMemoryStore は新しいMemoryStoreを作成します
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Exists は同一性フィルタに一致するベクトルが存在するかを返します
func (m *MemoryStore) Exists(_ context.Context, filter IdentityFilter) (bool, error) {
	if err := filter.Validate(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		if rec.DocumentID == filter.DocumentID && rec.UserID == filter.UserID {
			return true, nil
		}
	}
	return false, nil
}

// Upsert はバッチを保存します
// バッチの (document, user) に既存ベクトルがある場合は書き込み全体をスキップします
func (m *MemoryStore) Upsert(ctx context.Context, records []Record) error {
	filter, err := ValidateBatch(records)
	if err != nil {
		return err
	}

	exists, err := m.Exists(ctx, filter)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return nil
}

// Delete は同一性フィルタに一致するベクトルをすべて削除します
func (m *MemoryStore) Delete(_ context.Context, filter IdentityFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.records {
		if rec.DocumentID == filter.DocumentID && rec.UserID == filter.UserID {
			delete(m.records, id)
		}
	}
	return nil
}

// Query はユーザー所有のベクトルに限定して近傍topK件を返します
func (m *MemoryStore) Query(_ context.Context, vector []float32, userID string, topK int) ([]Match, error) {
	return m.query(vector, topK, func(rec Record) bool {
		return rec.UserID == userID
	})
}

// QueryForDocument はドキュメント単位に限定して近傍topK件を返します
func (m *MemoryStore) QueryForDocument(_ context.Context, vector []float32, documentID string, topK int) ([]Match, error) {
	return m.query(vector, topK, func(rec Record) bool {
		return rec.DocumentID == documentID
	})
}

func (m *MemoryStore) query(vector []float32, topK int, keep func(Record) bool) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, rec := range m.records {
		if !keep(rec) {
			continue
		}
		matches = append(matches, Match{
			ID:         rec.ID,
			DocumentID: rec.DocumentID,
			UserID:     rec.UserID,
			Ordinal:    rec.Ordinal,
			Text:       rec.Metadata[MetadataKeyText],
			Score:      cosineSimilarity(vector, rec.Vector),
		})
	}

	// 類似度降順、同点はordinal昇順
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Ordinal < matches[j].Ordinal
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len は保存済みベクトル数を返します
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// cosineSimilarity は2つのベクトルのコサイン類似度を計算します
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

// インターフェース実装の確認
var _ Store = (*MemoryStore)(nil)
