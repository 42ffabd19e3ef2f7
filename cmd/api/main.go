package main

import (
	"encoding/base64"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/middleware"
	"app/internal/oauth"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

func main() {
	// .envは無ければ環境変数だけで動く
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		panic(err)
	}

	//Redis接続（refresh token / blacklist置き場）
	redisClient, err := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		panic(err)
	}

	//TokenProvider。鍵が短ければここで落ちる。
	provider, err := token.NewProvider(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour,
	)
	if err != nil {
		panic(err)
	}

	//Repository生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	tokenStore := infraRepo.NewTokenStoreRedis(redisClient)

	//Usecase生成
	idGen := &uuidGenerator{}
	oauthUC := usecase.NewOAuthUserUsecase(userRepo, idGen)
	sessionUC := usecase.NewSessionUsecase(provider, tokenStore, userRepo)
	userUC := usecase.NewUserUsecase(userRepo)

	//ハンドシェイク状態cookieはJWTと同じ鍵でHMACを付ける
	secretKey, err := base64.StdEncoding.DecodeString(cfg.JWTSecret)
	if err != nil {
		panic(err)
	}
	authReqCache := oauth.NewAuthRequestCache(secretKey)

	//プロバイダーのエンドポイントにclient id/secretを差し込む
	endpoints := oauth.DefaultEndpoints()
	for p, client := range map[model.Provider]config.OAuthClient{
		model.ProviderGoogle: cfg.GoogleClient,
		model.ProviderKakao:  cfg.KakaoClient,
		model.ProviderNaver:  cfg.NaverClient,
	} {
		ep := endpoints[p]
		ep.ClientID = client.ClientID
		ep.ClientSecret = client.ClientSecret
		endpoints[p] = ep
	}

	//Handler生成
	authH := handler.NewAuthHandler(sessionUC, userUC)
	oauthH := handler.NewOAuthHandler(oauthUC, sessionUC, authReqCache, endpoints, cfg.OAuthCallbackURL, cfg.AuthorizedRedirectURI)
	adminH := handler.NewAdminUserHandler(userUC, sessionUC)

	//Server起動
	if err := server.Start(":"+cfg.Port, server.Deps{
		AuthHandler:      authH,
		OAuthHandler:     oauthH,
		AdminUserHandler: adminH,
		AuthJWT:          middleware.AuthJWT(provider, tokenStore, userRepo),
	}); err != nil {
		panic(err)
	}
}
