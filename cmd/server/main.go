package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"eventattendance/internal/cache"
	"eventattendance/internal/config"
	"eventattendance/internal/database"
	"eventattendance/internal/handler"
	"eventattendance/internal/queue"
	"eventattendance/internal/repository"
	"eventattendance/internal/router"
	"eventattendance/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	logger := config.NewLogger()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache selection degrades instead of failing: Redis unreachable at
	// startup means the in-process store serves until the next restart.
	var store cache.Store
	if cacheCfg.Backend == "redis" {
		if rdb := config.NewRedisClient(); rdb != nil {
			store = cache.NewRedis(rdb)
			logger.Info("cache backend: redis")
		} else {
			logger.Warn("redis unreachable, degrading to in-process cache")
		}
	}
	if store == nil {
		store = cache.NewMemory(cacheCfg.SweepInterval)
		logger.Info("cache backend: memory")
	}

	txm := repository.NewTxManager(db)
	eventRepo := repository.NewEventRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	attendanceRepo := repository.NewAttendanceRepo(db)

	var pub service.Publisher
	if cfg.AMQPURL != "" {
		pub = queue.NewPublisher(cfg.AMQPURL, logger)
		go queue.StartAttendanceConsumer(cfg.AMQPURL, logger)
	}

	eventSvc := service.NewEventService(txm, eventRepo, attendanceRepo, store, logger, cacheCfg, cfg.OpTimeout)
	participantSvc := service.NewParticipantService(participantRepo, store, logger, cacheCfg, cfg.OpTimeout)
	attendanceSvc := service.NewAttendanceService(txm, eventRepo, participantRepo, attendanceRepo, store, pub, logger, cacheCfg, cfg.OpTimeout)

	e := echo.New()
	router.RegisterRoutes(e,
		handler.NewEventHandler(eventSvc),
		handler.NewParticipantHandler(participantSvc),
		handler.NewAttendanceHandler(attendanceSvc),
	)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
