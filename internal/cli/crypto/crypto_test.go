package crypto

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateKey_CreateAndReuse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.key")
	// создаст новый ключ вместе с каталогом
	k1, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey create: %v", err)
	}
	if len(k1) != 32 {
		t.Fatalf("key len want 32, got %d", len(k1))
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key: %v", err)
	}
	if st.Mode().Perm()&0o077 != 0 {
		t.Fatalf("key file must not be group/world readable: %v", st.Mode())
	}
	// повторное получение — тот же ключ
	k2, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey reuse: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected same key contents on reuse")
	}
}

func TestLoadOrCreateKey_Errors(t *testing.T) {
	if _, err := LoadOrCreateKey(""); err == nil {
		t.Fatalf("empty path must fail")
	}
	// файл ключа неправильной длины
	path := filepath.Join(t.TempDir(), "bad.key")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatalf("prepare key: %v", err)
	}
	if _, err := LoadOrCreateKey(path); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	ct, nonce, err := Encrypt([]byte(`{"access":"a"}`), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(ct, []byte("access")) {
		t.Fatalf("ciphertext leaks plaintext")
	}
	plain, err := Decrypt(ct, nonce, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plain) != `{"access":"a"}` {
		t.Fatalf("unexpected plaintext %q", plain)
	}
	// чужой ключ — ошибка аутентификации
	if _, err := Decrypt(ct, nonce, bytes.Repeat([]byte{8}, 32)); err == nil {
		t.Fatalf("expected auth error with wrong key")
	}
}
