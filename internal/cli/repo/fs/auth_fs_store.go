package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"DocPlatform/internal/cli/crypto"
	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
)

// AuthFSStore — файловое хранилище пары токенов и контекста пользователя для CLI.
// Пара хранится в зашифрованном виде (AES‑GCM), ключ лежит в отдельном файле.
type AuthFSStore struct {
	tokenFile string
	keyFile   string

	mu sync.Mutex
}

var (
	_ repo.TokenStore       = (*AuthFSStore)(nil)
	_ repo.UserContextStore = (*AuthFSStore)(nil)
)

// sealedFile — формат файла токенов на диске.
type sealedFile struct {
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// NewAuthFSStore создаёт хранилище. Пустые пути заменяются путями по умолчанию
// в пользовательском конфиг-каталоге.
func NewAuthFSStore(tokenFile, keyFile string) (*AuthFSStore, error) {
	if tokenFile == "" || keyFile == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		if tokenFile == "" {
			tokenFile = filepath.Join(dir, "tokens.json")
		}
		if keyFile == "" {
			keyFile = filepath.Join(dir, "token.key")
		}
	}
	return &AuthFSStore{tokenFile: tokenFile, keyFile: keyFile}, nil
}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "DocPlatform"), nil
}

func (s *AuthFSStore) lastLoginPath() string {
	return filepath.Join(filepath.Dir(s.tokenFile), "last_login")
}

// Save атомарно заменяет файл токенов: запись во временный файл и rename.
func (s *AuthFSStore) Save(pair model.TokenPair) error {
	if !pair.Complete() {
		return errors.New("incomplete token pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := crypto.LoadOrCreateKey(s.keyFile)
	if err != nil {
		return fmt.Errorf("token key: %w", err)
	}
	plain, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	ct, nonce, err := crypto.Encrypt(plain, key)
	if err != nil {
		return err
	}
	b, err := json.Marshal(sealedFile{Nonce: nonce, Cipher: ct})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.tokenFile, b)
}

// Load читает и расшифровывает пару токенов.
func (s *AuthFSStore) Load() (model.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.TokenPair{}, repo.ErrNoTokens
		}
		return model.TokenPair{}, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return model.TokenPair{}, repo.ErrNoTokens
	}
	var sf sealedFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return model.TokenPair{}, fmt.Errorf("decode token file: %w", err)
	}
	key, err := crypto.LoadOrCreateKey(s.keyFile)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("token key: %w", err)
	}
	plain, err := crypto.Decrypt(sf.Cipher, sf.Nonce, key)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("decrypt token file: %w", err)
	}
	var pair model.TokenPair
	if err := json.Unmarshal(plain, &pair); err != nil {
		return model.TokenPair{}, fmt.Errorf("decode tokens: %w", err)
	}
	if !pair.Complete() {
		return model.TokenPair{}, repo.ErrNoTokens
	}
	return pair, nil
}

// Clear удаляет файл токенов.
func (s *AuthFSStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveLogin сохраняет логин пользователя в файл.
func (s *AuthFSStore) SaveLogin(login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return errors.New("empty login")
	}
	return writeFileAtomic(s.lastLoginPath(), []byte(login))
}

// LoadLogin читает логин пользователя из файла.
func (s *AuthFSStore) LoadLogin() (string, error) {
	b, err := os.ReadFile(s.lastLoginPath())
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	login := strings.TrimRight(string(b), " \t\r\n")
	if login == "" {
		return "", errors.New("no stored login")
	}
	return login, nil
}

// ClearLogin удаляет сохранённый логин.
func (s *AuthFSStore) ClearLogin() error {
	if err := os.Remove(s.lastLoginPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
