package bootstrap

import (
	"fmt"
	"strings"

	"DocPlatform/internal/cli/repo"
	fsrepo "DocPlatform/internal/cli/repo/fs"
	reposqlite "DocPlatform/internal/cli/repo/sqlite"
	"DocPlatform/internal/config"
)

// OpenTokenStore открывает хранилище токенов, выбранное в конфиге, и
// возвращает (store, cleanup, error). cleanup необходимо вызвать после
// окончания работы, чтобы закрыть соединение с БД.
func OpenTokenStore(cfg *config.Config) (repo.TokenStore, func() error, error) {
	switch cfg.TokenStore {
	case config.StoreSQLite, config.StorePostgres:
		dsn := cfg.TokenDSN
		if cfg.TokenStore == config.StorePostgres && !isPostgresDSN(dsn) {
			return nil, nil, fmt.Errorf("token store postgres needs a postgres:// DSN, got %q", dsn)
		}
		db, err := reposqlite.OpenDB(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open token db: %w", err)
		}
		r, err := reposqlite.NewTokenRepository(db)
		if err != nil {
			if sqlDB, derr := db.DB(); derr == nil {
				_ = sqlDB.Close()
			}
			return nil, nil, fmt.Errorf("migrate token db: %w", err)
		}
		return r, r.Close, nil
	default:
		s, err := fsrepo.NewAuthFSStore(cfg.TokenFile, cfg.TokenKeyFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
}

// OpenUserContext возвращает хранилище последнего логина. Оно всегда
// файловое и лежит рядом с файлом токенов.
func OpenUserContext(cfg *config.Config) (repo.UserContextStore, error) {
	return fsrepo.NewAuthFSStore(cfg.TokenFile, cfg.TokenKeyFile)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
