package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/config"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/repository"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/seed"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var modules int
	var randomSeed int64
	var file string
	var name string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机排课实例, 3: 从 CSV 文件插入排课实例)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&modules, "modules", 8, "随机排课实例中的课程数量")
	flag.Int64Var(&randomSeed, "seed", time.Now().UnixNano(), "生成随机排课实例使用的种子")
	flag.StringVar(&file, "file", "./internal/seed/data/modules.csv", "排课实例 CSV 文件路径")
	flag.StringVar(&name, "name", "默认排课实例", "从 CSV 插入的排课实例名称")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

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

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的排课实例数量")
			return
		}

		admin, ok := initialAdmin(repo, cfg)
		if !ok {
			return
		}

		rng := rand.New(rand.NewSource(randomSeed))
		cnt := 0
		for i := 0; i < n; i++ {
			ti := &domain.TimetablingInstance{
				Name:        "随机排课实例" + utils.GenerateRandomID(3, 3),
				Description: fmt.Sprintf("种子 %d 生成的第 %d 个实例", randomSeed, i+1),
				Instance:    *utils.GenerateRandomInstance(rng, modules),
				CreatedBy:   admin.ID,
			}
			if err := repo.CreateTimetablingInstance(ti); err != nil {
				slog.Error("无法插入排课实例", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入排课实例成功", slog.Int("count", cnt), slog.Int64("seed", randomSeed))
	case 3:
		admin, ok := initialAdmin(repo, cfg)
		if !ok {
			return
		}

		seed.SeedInstanceFromCSV(repo, file, name, admin.ID)
	default:
		slog.Error("指定的操作非法")
	}
}

// initialAdmin 排课实例需要一个创建者，使用初始管理员
func initialAdmin(repo *repository.Repository, cfg *config.Config) (*domain.User, bool) {
	admin, err := repo.GetUserByUsername(cfg.InitialAdmin.Username)
	if err != nil {
		slog.Error("无法获取初始管理员，请先启动一次 api 服务", slog.String("error", err.Error()))
		return nil, false
	}
	return admin, true
}
