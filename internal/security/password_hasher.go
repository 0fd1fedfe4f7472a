package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPasswordIterations はPBKDF2の既定反復回数。
	DefaultPasswordIterations = 600000

	passwordHashMethod = "pbkdf2:sha256"
	passwordSaltBytes  = 16
	passwordKeyBytes   = 32
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードからソルト付きハッシュを生成する。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードが保存済みハッシュと一致するかを返す。
	// 不一致はエラーではなくfalseで表す。
	Verify(plaintext, credential string) bool
}

// PBKDF2Hasher はPBKDF2-SHA256によるPasswordHasherの実装。
// ハッシュ形式: "pbkdf2:sha256:<反復回数>$<ソルト>$<16進ハッシュ>"
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher はPBKDF2Hasherを生成する。
// iterationsが0以下の場合はDefaultPasswordIterationsを使用する。
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultPasswordIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Hash は平文パスワードからソルト付きハッシュを生成する。
func (h *PBKDF2Hasher) Hash(plaintext string) (string, error) {
	salt, err := generateSalt()
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(plaintext), []byte(salt), h.iterations, passwordKeyBytes, sha256.New)

	return fmt.Sprintf("%s:%d$%s$%s", passwordHashMethod, h.iterations, salt, hex.EncodeToString(key)), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを返す。
// 形式が不正なハッシュに対してはfalseを返す。
// 反復回数は保存済みハッシュに記録された値を使用する。
func (h *PBKDF2Hasher) Verify(plaintext, credential string) bool {
	method, salt, digest, ok := splitCredential(credential)
	if !ok {
		return false
	}

	iterations, ok := parseMethod(method)
	if !ok {
		return false
	}

	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// splitCredential は "<method>$<salt>$<digest>" を分解する。
func splitCredential(credential string) (method, salt, digest string, ok bool) {
	parts := strings.Split(credential, "$")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// parseMethod は "pbkdf2:sha256:<iterations>" から反復回数を取り出す。
func parseMethod(method string) (int, bool) {
	if !strings.HasPrefix(method, passwordHashMethod+":") {
		return 0, false
	}
	iterations, err := strconv.Atoi(strings.TrimPrefix(method, passwordHashMethod+":"))
	if err != nil || iterations <= 0 {
		return 0, false
	}
	return iterations, true
}

// generateSalt は暗号的に安全なソルトを生成する。
func generateSalt() (string, error) {
	b := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// compile-time interface check
var _ PasswordHasher = (*PBKDF2Hasher)(nil)
