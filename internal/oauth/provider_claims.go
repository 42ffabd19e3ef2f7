package oauth

import (
	"errors"
	"strings"

	"app/internal/domain/model"
)

// プロバイダーからemailが取れない
var ErrEmailMissing = errors.New("oauth email missing")

// claimPathsはプロバイダーごとのclaimの置き場所。
// ネストはパスで表す（kakao_account.email など）。
type claimPaths struct {
	email    []string
	nickname []string
}

// プロバイダーごとのテーブル。分岐はここ1箇所だけ。
var providerClaims = map[model.Provider]claimPaths{
	model.ProviderGoogle: {
		email:    []string{"email"},
		nickname: []string{"name"},
	},
	model.ProviderKakao: {
		email:    []string{"kakao_account", "email"},
		nickname: []string{"properties", "nickname"},
	},
	model.ProviderNaver: {
		email:    []string{"response", "email"},
		nickname: []string{"response", "name"},
	},
}

// ExtractEmailはプロバイダーのattributesから正規のemailを取り出す。
// 見つからない・空ならErrEmailMissing。
func ExtractEmail(provider model.Provider, attrs map[string]interface{}) (string, error) {
	paths, ok := providerClaims[provider]
	if !ok {
		return "", model.ErrUnsupportedProvider
	}

	email := lookupString(attrs, paths.email)
	if email == "" {
		return "", ErrEmailMissing
	}
	return email, nil
}

// ExtractNicknameは表示名を取り出す。無ければemailのローカル部にフォールバック。
func ExtractNickname(provider model.Provider, attrs map[string]interface{}, email string) string {
	paths, ok := providerClaims[provider]
	if !ok {
		return localPart(email)
	}

	if nickname := lookupString(attrs, paths.nickname); nickname != "" {
		return nickname
	}
	return localPart(email)
}

// lookupStringはネストしたmapをパスで辿って文字列を返す。
func lookupString(attrs map[string]interface{}, path []string) string {
	var cur interface{} = attrs
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur, ok = m[key]
		if !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return strings.TrimSpace(s)
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
