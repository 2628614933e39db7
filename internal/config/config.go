package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings + マッチングチェーン用LLM）
	OpenAI OpenAIConfig

	// チャンク分割設定
	Chunking ChunkingConfig

	// 検索設定
	Retrieval RetrievalConfig

	// 求人票取得設定
	JDFetch JDFetchConfig

	// ログ設定
	Log LogConfig
}

// LogConfig はログ出力設定
type LogConfig struct {
	Level  string // debug / info / warn / error
	Format string // json / text
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig はOpenAI API設定（Embeddings + LLM）
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	LLMModel           string // マッチングチェーンの各ステージで使用するモデル名
	Temperature        float64
}

// ChunkingConfig はチャンク分割設定
type ChunkingConfig struct {
	ChunkSize    int // チャンクサイズ（文字数）
	ChunkOverlap int // オーバーラップ（文字数）、ChunkSize未満であること
}

// RetrievalConfig は類似チャンク検索設定
type RetrievalConfig struct {
	TopK             int // 検索で取得する上位チャンク数
	ContextMaxTokens int // 検索コンテキストの最大トークン数
}

// JDFetchConfig は求人票URL取得設定
type JDFetchConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "resumematch"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "resumematch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			LLMModel:           getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),
			Temperature:        getEnvAsFloat("OPENAI_LLM_TEMPERATURE", 0.0),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Retrieval: RetrievalConfig{
			TopK:             getEnvAsInt("RETRIEVAL_TOP_K", 5),
			ContextMaxTokens: getEnvAsInt("RETRIEVAL_CONTEXT_MAX_TOKENS", 8000),
		},
		JDFetch: JDFetchConfig{
			Timeout:      time.Duration(getEnvAsInt("JD_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
			MaxBodyBytes: int64(getEnvAsInt("JD_FETCH_MAX_BODY_BYTES", 2<<20)),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be less than CHUNK_SIZE (%d)",
			cfg.Chunking.ChunkOverlap, cfg.Chunking.ChunkSize)
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
