package config

import (
	"fmt"
	"os"
	"strconv"
)

// OAuthClientはプロバイダーごとのクライアント資格情報。
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	RedisAddr     string // Redisアドレス（localhost:6379）
	RedisPassword string // Redisパスワード（空でも可）
	RedisDB       int    // RedisのDB番号

	JWTSecret          string // JWT署名シークレット（base64、256bit以上）
	AccessTokenMinutes int    // access tokenの寿命（分）
	RefreshTokenDays   int    // refresh tokenの寿命（日）

	OAuthCallbackURL      string // このサーバーのコールバックURL（/login/oauth2/code）
	AuthorizedRedirectURI string // ログイン完了後に戻すフロントのURL

	GoogleClient OAuthClient
	KakaoClient  OAuthClient
	NaverClient  OAuthClient
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	accessMinutes, err := mustAtoi("JWT_ACCESS_TOKEN_MINUTES")
	if err != nil {
		return Config{}, err
	}
	refreshDays, err := mustAtoi("JWT_REFRESH_TOKEN_DAYS")
	if err != nil {
		return Config{}, err
	}

	// Redis DB番号は省略可
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		redisDB, err = strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_DB must be number: %w", err)
		}
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMinutes: accessMinutes,
		RefreshTokenDays:   refreshDays,

		OAuthCallbackURL:      os.Getenv("OAUTH2_CALLBACK_URL"),
		AuthorizedRedirectURI: os.Getenv("OAUTH2_AUTHORIZED_REDIRECT_URI"),

		GoogleClient: OAuthClient{
			ClientID:     os.Getenv("OAUTH2_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET"),
		},
		KakaoClient: OAuthClient{
			ClientID:     os.Getenv("OAUTH2_KAKAO_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH2_KAKAO_CLIENT_SECRET"),
		},
		NaverClient: OAuthClient{
			ClientID:     os.Getenv("OAUTH2_NAVER_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH2_NAVER_CLIENT_SECRET"),
		},
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.OAuthCallbackURL == "" {
		return Config{}, fmt.Errorf("OAUTH2_CALLBACK_URL is required")
	}
	if cfg.AuthorizedRedirectURI == "" {
		return Config{}, fmt.Errorf("OAUTH2_AUTHORIZED_REDIRECT_URI is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
