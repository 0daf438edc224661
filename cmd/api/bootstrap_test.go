package main

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/config"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

func gridConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Grid.DefaultTimezone = "Asia/Shanghai"
	cfg.Grid.MaxParticipants = 50
	cfg.Grid.SuggestionCount = 5
	return cfg
}

func TestCheckGridConfig(t *testing.T) {
	zones := tzconv.NewZones()
	require.NoError(t, checkGridConfig(gridConfig(), zones))

	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{"unknown timezone", func(cfg *config.Config) { cfg.Grid.DefaultTimezone = "Mars/Olympus" }},
		{"local timezone", func(cfg *config.Config) { cfg.Grid.DefaultTimezone = "Local" }},
		{"no participants allowed", func(cfg *config.Config) { cfg.Grid.MaxParticipants = 0 }},
		{"negative suggestions", func(cfg *config.Config) { cfg.Grid.SuggestionCount = -1 }},
		{"empty color", func(cfg *config.Config) { cfg.Grid.Palette = []string{"#ff0000", ""} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gridConfig()
			tt.modify(cfg)
			assert.Error(t, checkGridConfig(cfg, zones))
		})
	}
}

type fakeUsers struct {
	err     error
	created *domain.User
}

func (f *fakeUsers) CreateUser(user *domain.User) error {
	f.created = user
	return f.err
}

func TestEnsureInitialAdmin(t *testing.T) {
	cfg := gridConfig()
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "secret"

	users := &fakeUsers{}
	require.NoError(t, ensureInitialAdmin(users, cfg))
	require.NotNil(t, users.created)
	assert.Equal(t, domain.RoleAdmin, users.created.Role)
	assert.Equal(t, "Asia/Shanghai", users.created.PreferredTimezone)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.created.PasswordHash), []byte("secret")))

	// 管理员已经存在
	users = &fakeUsers{err: &pgconn.PgError{ConstraintName: "users_username_key"}}
	assert.NoError(t, ensureInitialAdmin(users, cfg))

	users = &fakeUsers{err: &pgconn.PgError{ConstraintName: "users_email_key"}}
	assert.Error(t, ensureInitialAdmin(users, cfg))

	users = &fakeUsers{err: errors.New("连接已断开")}
	assert.Error(t, ensureInitialAdmin(users, cfg))
}
