package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	// DefaultMaxTextLength は抽出テキストの最大文字数（rune数）
	// 履歴書として現実的な長さを大きく超える入力を切り詰めます
	DefaultMaxTextLength = 200_000
)

var (
	// ErrUnsupportedFileType は対応していないファイル形式のエラー
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyDocument は抽出結果が空だった場合のエラー
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Loader はアップロードされたファイルをプレーンテキストに変換します
type Loader struct {
	maxTextLength int
}

// LoaderOption は Loader のオプション設定
type LoaderOption func(*Loader)

// WithMaxTextLength は抽出テキストの最大文字数を上書きします
func WithMaxTextLength(n int) LoaderOption {
	return func(l *Loader) {
		l.maxTextLength = n
	}
}

// NewLoader は新しいLoaderを作成します
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{maxTextLength: DefaultMaxTextLength}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile はファイル名の拡張子から形式を判定し、テキストを抽出します
// 対応形式: .pdf / .docx / .txt
func (l *Loader) LoadFile(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return l.load(extractPDFText(data))
	case ".docx":
		return l.load(extractDocxText(data))
	case ".txt":
		return l.load(string(data), nil)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(filename))
	}
}

// load は抽出結果の共通後処理（UTF-8検証・長さ制限・空チェック）を行います
func (l *Loader) load(text string, err error) (string, error) {
	if err != nil {
		return "", err
	}

	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}

	if utf8.RuneCountInString(text) > l.maxTextLength {
		runes := []rune(text)
		text = string(runes[:l.maxTextLength])
	}

	return text, nil
}

// extractPDFText はPDFから全ページのプレーンテキストを抽出します
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// ページ単位の抽出失敗はスキップして続行
			continue
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// extractDocxText はdocxから本文テキストを抽出します
func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxTags(doc.Editable().GetContent()), nil
}

// stripDocxTags はdocx本文のXMLタグを除去して素のテキストにします
func stripDocxTags(content string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			// 段落の切れ目をスペースとして保つ
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ReadAll はアップロードストリームを読み切ります（サイズ上限付き）
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", maxBytes)
	}
	return data, nil
}
