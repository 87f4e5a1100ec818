package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ferreteria/internal/audit"
	"ferreteria/internal/catalog"
	"ferreteria/internal/config"
	"ferreteria/internal/credit"
	"ferreteria/internal/customer"
	"ferreteria/internal/infrastructure/logger"
	"ferreteria/internal/infrastructure/mysql"
	"ferreteria/internal/infrastructure/redis"
	"ferreteria/internal/reconcile"
	"ferreteria/internal/sale"
	"ferreteria/internal/server"
	"ferreteria/internal/stock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.AutoMigrate {
		if err := mysql.ApplySchema(ctx, db); err != nil {
			zapLogger.Fatal("applying schema", zap.Error(err))
		}
		zapLogger.Info("schema applied")
	}

	checks := map[string]server.Pinger{"mysql": db}

	var locker redis.Locker = redis.NoopLocker{}
	var publisher reconcile.Publisher = reconcile.NewLogPublisher(zapLogger)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer rdb.Close()

		locker = redis.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		publisher = reconcile.NewRedisPublisher(rdb)
		checks["redis"] = server.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		zapLogger.Warn("redis not configured: credit sales are not serialized across instances and reconcile events go to the log")
	}

	auditSink := audit.NewSink(audit.NewMySQLAuditRepository(db), zapLogger, cfg.Audit.QueueSize, cfg.Audit.Workers)
	defer auditSink.Close()

	customers := customer.NewModule(db, zapLogger)
	catalogModule := catalog.NewModule(db, cfg, auditSink, zapLogger)
	stockModule := stock.NewModule(db, cfg, catalogModule.Service, auditSink, zapLogger)
	creditModule := credit.NewModule(db, customers, auditSink, zapLogger)

	saleCtrl := sale.NewModule(db, cfg, sale.Dependencies{
		Catalog:   catalogModule.Service,
		Stock:     stockModule.Ledger,
		Credit:    creditModule.Ledger,
		Customers: customers,
		Locker:    locker,
		Publisher: publisher,
		Audit:     auditSink,
	}, zapLogger)

	router := server.NewRouter(server.Controllers{
		Sale:    saleCtrl,
		Stock:   stockModule.Controller,
		Catalog: catalogModule.Controller,
		Search:  catalog.NewSearchController(catalogModule.Service, stockModule.Ledger, zapLogger),
		Credit:  creditModule.Controller,
	}, checks, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)
	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("server error", zap.Error(err))
	}
}
