package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Generate 產生一組隨機 token 與其 sha256
//
// 回傳值:
//
//	raw: 交給使用者的 token (prefix + 64 個十六進位字元)，只顯示一次
//	hash: 存進資料庫的雜湊值
//	err: 亂數來源失敗
func Generate(prefix string) (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = prefix + hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash 回傳 token 的 sha256 十六進位字串，驗證時不比對明文
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
