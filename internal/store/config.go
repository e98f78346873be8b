package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// LoadConfig returns the stored connection configuration of user. A user
// without one gets the zero UserConfig, which selects the local store.
func (s *Store) LoadConfig(ctx context.Context, user string) (ir.UserConfig, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT config FROM user_configs WHERE user_id = ?
	`), user).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.UserConfig{}, nil
	}
	if err != nil {
		return ir.UserConfig{}, opError("load config", err)
	}

	var cfg ir.UserConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return ir.UserConfig{}, opError("load config", fmt.Errorf("decode: %w", err))
	}
	return cfg, nil
}

// SaveConfig replaces the stored configuration of user.
func (s *Store) SaveConfig(ctx context.Context, user string, cfg ir.UserConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return opError("save config", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO user_configs (user_id, config, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at
	`), user, string(data), s.timestamp())
	if err != nil {
		return opError("save config", err)
	}
	return nil
}
