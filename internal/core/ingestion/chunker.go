package ingestion

import "fmt"

const (
	// DefaultChunkSize はデフォルトのチャンクサイズ（文字数）
	DefaultChunkSize = 1000

	// DefaultChunkOverlap はデフォルトのオーバーラップ（文字数）
	DefaultChunkOverlap = 200
)

// Chunk はドキュメントを分割したチャンクを表します
// Start/End は元テキストに対するrune単位のオフセットです
type Chunk struct {
	DocumentID string
	Ordinal    int
	Text       string
	Start      int
	End        int
}

// Chunker はテキストを固定長の重なり付きセグメントに分割します
// 分割は (text, size, overlap) に対して決定的です
// トークン境界の途中で切れることは許容します（意味的分割は行わない）
type Chunker struct {
	size    int
	overlap int
}

// NewChunker は新しいChunkerを作成します
// overlapがsize以上の場合は前進が保証できないためエラーを返します
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got overlap=%d size=%d", overlap, size)
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// Split はテキストをチャンク列に分割します
// 空テキストは空スライスを返します（エラーではない）
// 非空テキストは必ず1件以上のチャンクを生成します
func (c *Chunker) Split(documentID, text string) []Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.size - c.overlap

	var chunks []Chunk
	for start := 0; start < n; start += step {
		end := start + c.size
		if end > n {
			end = n
		}

		chunks = append(chunks, Chunk{
			DocumentID: documentID,
			Ordinal:    len(chunks),
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})

		if end == n {
			break
		}
	}

	return chunks
}

// Size はチャンクサイズを返します
func (c *Chunker) Size() int {
	return c.size
}

// Overlap はオーバーラップ文字数を返します
func (c *Chunker) Overlap() int {
	return c.overlap
}
