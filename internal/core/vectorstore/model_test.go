package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID(t *testing.T) {
	assert.Equal(t, "doc-1_chunk0", RecordID("doc-1", 0))
	assert.Equal(t, "doc-1_chunk12", RecordID("doc-1", 12))

	// 同じ (documentID, ordinal) からは常に同じIDが導出される
	assert.Equal(t, RecordID("doc-1", 3), RecordID("doc-1", 3))
}

func TestNewIdentityFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  map[string]string
		wantErr bool
	}{
		{
			name: "正しいキー構成",
			filter: map[string]string{
				"document_id": "doc-1",
				"user_id":     "user-1",
			},
			wantErr: false,
		},
		{
			name: "document_idのみ",
			filter: map[string]string{
				"document_id": "doc-1",
			},
			wantErr: true,
		},
		{
			name: "user_idのみ",
			filter: map[string]string{
				"user_id": "user-1",
			},
			wantErr: true,
		},
		{
			name: "余分なキーを含む",
			filter: map[string]string{
				"document_id": "doc-1",
				"user_id":     "user-1",
				"class":       "resume",
			},
			wantErr: true,
		},
		{
			name: "キー名が異なる",
			filter: map[string]string{
				"resume_id": "doc-1",
				"user_id":   "user-1",
			},
			wantErr: true,
		},
		{
			name:    "空のフィルタ",
			filter:  map[string]string{},
			wantErr: true,
		},
		{
			name: "値が空文字列",
			filter: map[string]string{
				"document_id": "",
				"user_id":     "user-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewIdentityFilter(tt.filter)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidIdentityFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.filter["document_id"], f.DocumentID)
			assert.Equal(t, tt.filter["user_id"], f.UserID)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	rec := func(docID, userID string, ordinal int) Record {
		return Record{
			ID:         RecordID(docID, ordinal),
			DocumentID: docID,
			UserID:     userID,
			Ordinal:    ordinal,
			Vector:     []float32{0.1, 0.2},
		}
	}

	t.Run("単一ドキュメントのバッチは許可される", func(t *testing.T) {
		filter, err := ValidateBatch([]Record{
			rec("doc-1", "user-1", 0),
			rec("doc-1", "user-1", 1),
		})
		require.NoError(t, err)
		assert.Equal(t, "doc-1", filter.DocumentID)
		assert.Equal(t, "user-1", filter.UserID)
	})

	t.Run("空バッチはエラー", func(t *testing.T) {
		_, err := ValidateBatch(nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("ドキュメント混在はエラー", func(t *testing.T) {
		_, err := ValidateBatch([]Record{
			rec("doc-1", "user-1", 0),
			rec("doc-2", "user-1", 0),
		})
		assert.ErrorIs(t, err, ErrMixedBatch)
	})

	t.Run("ユーザー混在はエラー", func(t *testing.T) {
		_, err := ValidateBatch([]Record{
			rec("doc-1", "user-1", 0),
			rec("doc-1", "user-2", 1),
		})
		assert.ErrorIs(t, err, ErrMixedBatch)
	})
}
