package security

import (
	"strings"
	"testing"
)

// テストでは反復回数を小さくして高速化する
func newTestHasher() *PBKDF2Hasher {
	return NewPBKDF2Hasher(1000)
}

func TestPBKDF2Hasher_Hash_Format(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "pbkdf2:sha256:1000$") {
		t.Errorf("Hash() = %q, want prefix %q", hash, "pbkdf2:sha256:1000$")
	}
	if strings.Count(hash, "$") != 2 {
		t.Errorf("Hash() = %q, want 3 $-separated parts", hash)
	}
	if strings.Contains(hash, "longenough1") {
		t.Error("ハッシュに平文パスワードが含まれてはならない")
	}
}

func TestPBKDF2Hasher_Hash_SaltIsRandom(t *testing.T) {
	h := newTestHasher()

	hash1, _ := h.Hash("same-password")
	hash2, _ := h.Hash("same-password")

	if hash1 == hash2 {
		t.Error("同一パスワードでも異なるハッシュが生成されなければならない")
	}
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !h.Verify("longenough1", hash) {
		t.Error("Verify() = false for correct password, want true")
	}
	if h.Verify("wrongpassword", hash) {
		t.Error("Verify() = true for wrong password, want false")
	}
	if h.Verify("", hash) {
		t.Error("Verify() = true for empty password, want false")
	}
}

func TestPBKDF2Hasher_Verify_UsesStoredIterations(t *testing.T) {
	hash, err := NewPBKDF2Hasher(1000).Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// 反復回数の設定が変わっても既存ハッシュは照合できる
	if !NewPBKDF2Hasher(2000).Verify("longenough1", hash) {
		t.Error("Verify() should use the iteration count stored in the credential")
	}
}

func TestPBKDF2Hasher_Verify_MalformedCredential(t *testing.T) {
	h := newTestHasher()

	credentials := []string{
		"",
		"plaintext",
		"pbkdf2:sha256:1000$salt",
		"scrypt:32768:8:1$salt$abcd",
		"pbkdf2:sha256:abc$salt$abcd",
		"pbkdf2:sha256:0$salt$abcd",
		"pbkdf2:sha256:1000$salt$not-hex",
		"pbkdf2:sha256:1000$salt$",
	}

	for _, c := range credentials {
		if h.Verify("longenough1", c) {
			t.Errorf("Verify(%q) = true, want false", c)
		}
	}
}

func TestNewPBKDF2Hasher_DefaultIterations(t *testing.T) {
	h := NewPBKDF2Hasher(0)
	if h.iterations != DefaultPasswordIterations {
		t.Errorf("iterations = %d, want %d", h.iterations, DefaultPasswordIterations)
	}
}
