package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/config"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
	"golang.org/x/crypto/bcrypt"
)

// checkGridConfig 检查网格相关的配置，默认观察者时区在每次查看网格时都可能用到
func checkGridConfig(cfg *config.Config, zones tzconv.ZoneDatabase) error {
	if _, err := zones.Location(cfg.Grid.DefaultTimezone); err != nil {
		return fmt.Errorf("默认时区无效: %w", err)
	}
	if cfg.Grid.MaxParticipants <= 0 {
		return fmt.Errorf("每个会话的参与者上限必须为正数，当前为 %d", cfg.Grid.MaxParticipants)
	}
	if cfg.Grid.SuggestionCount < 0 {
		return fmt.Errorf("推荐时间段数量不能为负数，当前为 %d", cfg.Grid.SuggestionCount)
	}
	for i, color := range cfg.Grid.Palette {
		if color == "" {
			return fmt.Errorf("调色板第 %d 个颜色为空", i+1)
		}
	}
	return nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	return dbpool, nil
}

type userCreator interface {
	CreateUser(user *domain.User) error
}

// ensureInitialAdmin 确保数据库中存在初始管理员，用户名已存在时视为成功
func ensureInitialAdmin(users userCreator, cfg *config.Config) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("无法生成初始管理员密码哈希: %w", err)
	}

	admin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,

		PreferredTimezone: cfg.Grid.DefaultTimezone,
	}
	if err := users.CreateUser(admin); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
			return nil
		}
		return fmt.Errorf("无法创建初始管理员: %w", err)
	}

	return nil
}

// openMailChannel 连接 rabbitmq 并声明邮件队列，调用方负责关闭返回的连接和通道
func openMailChannel(cfg *config.Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("无法连接到 rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("无法建立通道: %w", err)
	}

	_, err = ch.QueueDeclare(
		"email_queue",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("无法声明队列: %w", err)
	}

	return conn, ch, nil
}

// openRedis 创建 redis 客户端。redis 只用于缓存网格，连接失败只记录警告
func openRedis(cfg *config.Config, logger *slog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("无法连接到 redis，网格缓存将不可用", "error", err)
	}

	return rdb
}
