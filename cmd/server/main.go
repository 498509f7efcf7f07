// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"filedock-go/internal/config"
	"filedock-go/internal/handler"
	"filedock-go/internal/middleware"
	"filedock-go/internal/repository"
	"filedock-go/internal/service"
	"filedock-go/pkg/database"
	"filedock-go/pkg/log"
	"filedock-go/pkg/signer"
	"filedock-go/pkg/storage"
	"filedock-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与本地存储
	database.InitPostgres(cfg.Database.Postgres.DSN)
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store := storage.New(cfg.Storage.Root)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	orgRepo := repository.NewOrganizationRepository(database.DB)
	bucketRepo := repository.NewBucketRepository(database.DB)
	folderRepo := repository.NewFolderRepository(database.DB)
	fileRepo := repository.NewFileRepository(database.DB)
	secretRepo := repository.NewSecretRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, sessionRepo, jwtManager)
	orgService := service.NewOrganizationService(orgRepo, userRepo, secretRepo, signer.Verify)
	bucketService := service.NewBucketService(bucketRepo, orgService, store)
	folderService := service.NewFolderService(folderRepo, bucketRepo, orgService, store)
	fileService := service.NewFileService(fileRepo, folderRepo, bucketRepo, orgService, store)
	fsService := service.NewFSService(orgRepo, bucketRepo, folderRepo, fileRepo, secretRepo, store)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authed := middleware.AuthMiddleware(jwtManager, sessionRepo, userRepo)

	// 7. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewUserHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			me := users.Group("/")
			me.Use(authed)
			{
				me.GET("/me", handler.NewUserHandler(userService).GetProfile)
				me.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// Organization 路由组，需要认证
		orgs := apiV1.Group("/organizations")
		orgs.Use(authed)
		{
			orgHandler := handler.NewOrganizationHandler(orgService)
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.List)
			orgs.GET("/:orgId", orgHandler.Get)

			orgs.GET("/:orgId/members", orgHandler.ListMembers)
			orgs.POST("/:orgId/members", orgHandler.AddMember)
			orgs.PUT("/:orgId/members", orgHandler.UpdateMember)
			orgs.DELETE("/:orgId/members/:userId", orgHandler.RemoveMember)

			orgs.POST("/:orgId/secrets", orgHandler.CreateSecret)
			orgs.GET("/:orgId/secrets", orgHandler.ListSecrets)
			orgs.DELETE("/:orgId/secrets/:secretId", orgHandler.DeleteSecret)

			bucketHandler := handler.NewBucketHandler(bucketService)
			orgs.POST("/:orgId/buckets", bucketHandler.Create)
			orgs.GET("/:orgId/buckets", bucketHandler.List)
		}

		// Bucket / Folder / File 路由组，需要认证
		buckets := apiV1.Group("/buckets")
		buckets.Use(authed)
		{
			bucketHandler := handler.NewBucketHandler(bucketService)
			buckets.PUT("/:bucketId", bucketHandler.Update)
			buckets.DELETE("/:bucketId", bucketHandler.Delete)

			folderHandler := handler.NewFolderHandler(folderService)
			buckets.POST("/:bucketId/folders", folderHandler.Create)
			buckets.GET("/:bucketId/entries", folderHandler.List)
		}

		folders := apiV1.Group("/folders")
		folders.Use(authed)
		{
			folderHandler := handler.NewFolderHandler(folderService)
			folders.DELETE("/:folderId", folderHandler.Delete)

			fileHandler := handler.NewFileHandler(fileService)
			folders.POST("/:folderId/files", fileHandler.Upload)
			folders.GET("/:folderId/files", fileHandler.Search)
		}

		files := apiV1.Group("/files")
		files.Use(authed)
		{
			fileHandler := handler.NewFileHandler(fileService)
			files.GET("/:fileId/download", fileHandler.Download)
			files.DELETE("/:fileId", fileHandler.Delete)
		}

		// SDK 反查：匿名，凭签名证明持有密钥
		apiV1.GET("/sdk/organization", handler.NewOrganizationHandler(orgService).OrganizationFromSecret)
	}

	// 8. 能力 URL 文件访问，匿名路由，身份由签名承载
	fsHandler := handler.NewFSHandler(fsService)
	fs := r.Group("/fs")
	{
		fs.GET("/:orgName/:bucketName/*filePath", fsHandler.Serve)
		fs.PUT("/:orgName/:bucketName/*filePath", fsHandler.Save)
		fs.DELETE("/:orgName/:bucketName/*filePath", fsHandler.Remove)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
