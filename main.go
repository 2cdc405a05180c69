package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"rfid-bridge/internal/checkinout"
	"rfid-bridge/internal/device"
	"rfid-bridge/internal/platform/db"
	"rfid-bridge/internal/platform/schema"
	"rfid-bridge/internal/staging"
	"rfid-bridge/internal/summary"
	"rfid-bridge/internal/users"
)

func main() {
	// .env があれば環境変数へ（無くてもよい）
	_ = godotenv.Load()

	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		log.Println("Usage: go run main.go [dev|release]")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	// スキーマ作成は起動時の必須条件。失敗したら落とす。
	ctx := context.Background()
	if err := schema.Setup(ctx, conn); err != nil {
		log.Fatal(err)
	}
	if seededUsers, seededLogs, err := schema.SeedDemo(ctx, conn); err != nil {
		log.Printf("[WARN] demo seed: %v", err)
	} else {
		if seededUsers {
			log.Println("[INFO] inserted demo users into tbl_user")
		}
		if seededLogs {
			log.Println("[INFO] inserted demo logs into tbl_checkinout")
		}
	}

	// パイプラインの結線: 端末クライアント → ポーラー → ステージング → 取り込み
	sink := staging.NewSink(cfg.Poller.StagingFile)
	client := device.NewHTTPClient(cfg.Device.Host, cfg.Device.Port,
		time.Duration(cfg.Device.TimeoutMS)*time.Millisecond)

	ingestSvc := checkinout.NewService(conn, sink, users.NewStore(conn))
	summarySvc := summary.NewService(sink)

	poller := device.NewPoller(client, sink, cfg.Poller.TailLength,
		func(ctx context.Context, pollID string) {
			if _, err := ingestSvc.IngestFromStaging(ctx); err != nil {
				log.Printf("[ERROR] poll %s: ingest: %v", pollID, err)
			}
		})
	poller.Start(time.Duration(cfg.Poller.IntervalSeconds) * time.Second)
	log.Printf("[INFO] polling %s:%d every %ds (tail=%d)",
		cfg.Device.Host, cfg.Device.Port, cfg.Poller.IntervalSeconds, cfg.Poller.TailLength)

	var reporter *summary.Reporter
	if cfg.Poller.ReportSeconds > 0 {
		reporter = summary.NewReporter(summarySvc)
		reporter.Start(time.Duration(cfg.Poller.ReportSeconds) * time.Second)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1（参照とバッチトリガのみ。登録・編集のUIは持たない）
	api := r.Group("/api/v1")
	users.RegisterRoutes(api, conn)
	checkinout.RegisterRoutes(api, ingestSvc)
	summary.RegisterRoutes(api, summarySvc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")

	poller.Stop()
	if reporter != nil {
		reporter.Stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Fatal(err)
	}
}
