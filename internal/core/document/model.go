package document

// Class はドキュメントの種別を表します
// 種別ごとに独立したEmbedderとベクトルインデックスを使用します
type Class string

const (
	// ClassResume は履歴書ドキュメント
	ClassResume Class = "resume"

	// ClassJobDescription は求人票ドキュメント
	ClassJobDescription Class = "job_description"
)

// Valid は既知のドキュメントクラスかどうかを返します
func (c Class) Valid() bool {
	return c == ClassResume || c == ClassJobDescription
}

// Document は取り込み対象のドキュメントを表します
// 作成後は不変として扱います
type Document struct {
	ID      string
	OwnerID string
	Class   Class
	RawText string
}
