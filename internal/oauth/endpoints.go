package oauth

import "app/internal/domain/model"

// Endpointsはプロバイダー側の各URLとクライアント資格情報。
// URLは既定値を持ち、client id/secretは設定から注入される。
type Endpoints struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// DefaultEndpointsは各プロバイダーの公開エンドポイント。
func DefaultEndpoints() map[model.Provider]Endpoints {
	return map[model.Provider]Endpoints{
		model.ProviderGoogle: {
			AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:    "https://oauth2.googleapis.com/token",
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:      []string{"openid", "email", "profile"},
		},
		model.ProviderKakao: {
			AuthURL:     "https://kauth.kakao.com/oauth/authorize",
			TokenURL:    "https://kauth.kakao.com/oauth/token",
			UserInfoURL: "https://kapi.kakao.com/v2/user/me",
			Scopes:      []string{"account_email", "profile_nickname"},
		},
		model.ProviderNaver: {
			AuthURL:     "https://nid.naver.com/oauth2.0/authorize",
			TokenURL:    "https://nid.naver.com/oauth2.0/token",
			UserInfoURL: "https://openapi.naver.com/v1/nid/me",
		},
	}
}
