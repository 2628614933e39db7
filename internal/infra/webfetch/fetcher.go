package webfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jinford/resume-match/internal/core/document"
)

const (
	// DefaultTimeout はHTTP取得のデフォルトタイムアウト
	DefaultTimeout = 15 * time.Second

	// MaxResponseBytes は読み込むレスポンス本文の上限
	MaxResponseBytes = 4 << 20 // 4MiB

	userAgent = "resume-match/1.0"
)

// Fetcher は求人票URLからプレーンテキストを取得するHTTP実装です
// 取得や解析に失敗した場合はエラーではなくプレースホルダ本文に縮退します
// （URL形式の不正のみ呼び出し側のエラーとして返します）
type Fetcher struct {
	client  *http.Client
	maxBody int64
	logger  *slog.Logger
}

// FetcherOption は Fetcher のオプション設定
type FetcherOption func(*Fetcher)

// WithHTTPClient はHTTPクライアントを差し替える
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout はHTTP取得のタイムアウトを上書きする
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = timeout
	}
}

// WithMaxBodyBytes は読み込むレスポンス本文の上限を上書きする
func WithMaxBodyBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// WithLogger は Fetcher にロガーを設定する
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher は新しい Fetcher を作成します
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		maxBody: MaxResponseBytes,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FetchJobDescription は求人票ページを取得し、本文のプレーンテキストを返します
// 通信エラーや非2xx応答、本文の抽出失敗時はFallbackJobDescriptionを返します
func (f *Fetcher) FetchJobDescription(ctx context.Context, rawURL string) (string, error) {
	if err := document.ValidateJobURL(rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", document.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("job description fetch failed", "url", rawURL, "error", err)
		return document.FallbackJobDescription, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("job description fetch returned non-2xx status", "url", rawURL, "status", resp.StatusCode)
		return document.FallbackJobDescription, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		f.logger.Warn("failed to read job description body", "url", rawURL, "error", err)
		return document.FallbackJobDescription, nil
	}

	text := ExtractText(string(body))
	if text == "" {
		f.logger.Warn("job description page contained no text", "url", rawURL)
		return document.FallbackJobDescription, nil
	}

	f.logger.Info("job description fetched", "url", rawURL, "textLen", len(text))
	return text, nil
}

// ExtractText はHTMLから可視テキストを抽出して空白を正規化します
// script/style/noscript の内容は除外します
func ExtractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// HTMLとして解析できない場合は生テキストとして扱う
		return normalizeWhitespace(rawHTML)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalizeWhitespace(sb.String())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// インターフェース実装の確認
var _ document.JobDescriptionFetcher = (*Fetcher)(nil)
