// Package signer 实现能力 URL 的 HMAC-SHA256 签名与校验原语。
// 密钥由调用方显式注入，本包不读取任何全局状态，可独立测试。
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// CanonicalString 构造参与签名的规范串：
//
//	"{path}?{upload=true&}secret_id={secretID}{&expiry={expiry}}"
//
// upload=true& 这一段只在写入/删除操作时出现，读操作永远没有，
// 因此一条只读能力 URL 无法被重放为写入。
// path 形如 "org/bucket/a/b.txt"，与 URL 中的资源路径一致。
func CanonicalString(path, secretID string, expiry *int64, upload bool) string {
	s := path + "?"
	if upload {
		s += "upload=true&"
	}
	s += "secret_id=" + secretID
	if expiry != nil {
		s += "&expiry=" + strconv.FormatInt(*expiry, 10)
	}
	return s
}

// Sign 用 secret 的原始字节作为密钥，对规范串计算 HMAC-SHA256，
// 返回小写十六进制编码。
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 重新计算签名并做常数时间比较。
func Verify(secret, canonical, signature string) bool {
	expected := Sign(secret, canonical)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Expired 报告可选的过期时间（unix 秒）是否已经过去。
// 过期与签名是否有效无关，先于签名校验判定。
func Expired(expiry *int64, now time.Time) bool {
	return expiry != nil && *expiry < now.Unix()
}
