package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/payment"
	"app/internal/server"
	"app/internal/storage"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無ければ無いでよい（本番は環境変数直指定）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.GoEnv == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//決済ゲートウェイ
	gateway := payment.NewMidtransGateway(payment.MidtransConfig{
		ServerKey:  cfg.MidtransServerKey,
		ClientKey:  cfg.MidtransClientKey,
		Production: cfg.MidtransProduction,
	})

	//アップロード保存先
	store := storage.NewFileStore(cfg.StorageDir)

	//Usecase
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, store, logger)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, logger)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo, userRepo, gateway, store, logger)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, gateway, cfg.MidtransServerKey, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, orderItemRepo, userRepo, logger)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, rtRepo, logger)
	reportUC := usecase.NewReportUsecase(orderRepo, orderItemRepo, userRepo, logger)

	//Handler
	cookieSecure := cfg.GoEnv != "dev"
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cookieSecure),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC, userRepo),
		Report:       handler.NewReportHandler(reportUC),
	}

	e := server.New(cfg, logger, handlers, userRepo)

	logger.Info("server start", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
