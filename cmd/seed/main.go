package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/config"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/repository"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/seed"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var sessionID int64
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机组织者, 2: 插入随机会话, 3: 插入随机参与者, 4: 从 YAML 文件导入参与者)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&sessionID, "session-id", 0, "插入或导入参与者的会话 ID")
	flag.StringVar(&file, "file", "participants.yaml", "参与者导入文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的组织者数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomOrganizer(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机组织者", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入组织者", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入组织者成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的会话数量")
		} else {
			users, err := repo.GetAllUsers()
			if err != nil {
				slog.Error("无法获取所有用户", slog.String("error", err.Error()))
				return
			}
			if len(users) == 0 {
				slog.Error("没有可以作为会话所有者的用户")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				// 随机选一个所有者
				owner := users[rand.Intn(len(users))]

				session := utils.GenerateRandomSession(owner.ID)
				if err := repo.CreateSession(session); err != nil {
					slog.Error("无法插入会话", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入会话成功", slog.Int("count", n-cnt))
		}
	case 3:
		session, ok := getSession(repo, sessionID)
		if !ok {
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			p := utils.GenerateRandomParticipant(session, time.Now())
			if err := repo.InsertParticipant(p, cfg.Grid.MaxParticipants); err != nil {
				if errors.Is(err, repository.ErrTooManyParticipants) {
					slog.Error("会话参与者已满", slog.Int64("session_id", sessionID))
					break
				}
				slog.Error("无法插入参与者", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入参与者成功", slog.Int("count", cnt))
	case 4:
		if _, ok := getSession(repo, sessionID); !ok {
			return
		}
		if _, err := seed.ImportParticipants(repo, sessionID, file); err != nil {
			slog.Error("导入参与者失败", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}

func getSession(repo *repository.Repository, sessionID int64) (*domain.Session, bool) {
	if sessionID <= 0 {
		slog.Error("请输入合法的会话 ID")
		return nil, false
	}

	session, err := repo.GetSessionByID(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Error("指定的会话不存在", slog.Int64("session_id", sessionID))
		default:
			slog.Error("无法获取会话", slog.String("error", err.Error()))
		}
		return nil, false
	}

	return session, true
}
