package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs317go/client/internal/config"
	"github.com/rs317go/client/internal/handler"
	gonet "github.com/rs317go/client/internal/net"
	"github.com/rs317go/client/internal/net/packet"
	"github.com/rs317go/client/internal/persist"
	"github.com/rs317go/client/internal/scripting"
	"github.com/rs317go/client/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(host string, port int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           RS317GO  v0.1.0                 \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      317 復古版 · Go 協議客戶端核心       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(連接埠: %d)\033[0m\n\n", host, port)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main client logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/client.toml"
	if p := os.Getenv("RS317GO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Client.Host, cfg.Client.Port)

	// 3. Load the revision framing tables
	printSection("資料載入")

	catalog, err := packet.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load packet catalog: %w", err)
	}
	printStat("協議版本", catalog.Revision())

	// 4. Region byte source: local directory or the postgres blob store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	var source world.Source
	var db *persist.DB
	if cfg.Cache.Source == "database" {
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")

		repo := persist.NewRegionRepo(db)
		if n, err := repo.Count(ctx); err == nil {
			printStat("快取區域", n)
		}
		source = world.NewRepoSource(repo)
	} else {
		source = world.NewDirSource(cfg.Cache.RegionDir)
		printOK("使用本地區域目錄 " + cfg.Cache.RegionDir)
	}
	cancel()

	regions := world.NewRegionStore(source, log)

	// 5. Lua packet plugins
	var luaEngine *scripting.Engine
	if cfg.Scripting.Enabled {
		luaEngine, err = scripting.NewEngine(cfg.Scripting.PluginsDir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		printOK("Lua 插件載入完成")
	}
	fmt.Println()

	// 6. Packet handler registry
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:  cfg,
		Log:     log,
		Regions: regions,
	}
	handler.RegisterAll(pktReg, deps)

	// 7. Connect
	printSection("連線")

	var transport gonet.Transport
	switch cfg.Client.Transport {
	case "websocket":
		transport, err = gonet.DialWebSocket(cfg.Client.WebSocketURL, cfg.Network.DialTimeout)
	default:
		addr := fmt.Sprintf("%s:%d", cfg.Client.Host, cfg.Client.Port)
		transport, err = gonet.DialTCP(addr, cfg.Network.DialTimeout)
	}
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	printOK("連線建立")

	sess := gonet.NewSession(
		transport,
		catalog,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.PacketsPerSecond,
		log,
	)

	// The seed exchange lives in the login layer, outside this core. A dev
	// server that skips the handshake can pin the seed words in config.
	if len(cfg.Client.SessionSeed) == 4 {
		var seed [4]uint32
		copy(seed[:], cfg.Client.SessionSeed)
		sess.EnableEncryption(seed)
		printOK("封包加密已啟用")
	}

	sess.Start()
	printReady("客戶端已啟動，等待封包")
	fmt.Println()

	// 8. Dispatch loop: decoded packets go to the registry and to plugins
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	keepalive := time.NewTicker(50 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case pkt := <-sess.InQueue:
			if err := pktReg.Dispatch(sess, sess.Phase(), pkt); err != nil {
				log.Warn("封包處理失敗", zap.Error(err))
			}
			if luaEngine != nil {
				luaEngine.DispatchPacket(pkt.Opcode, pkt.Payload)
			}

		case <-keepalive.C:
			if err := sess.Send(packet.C_OPCODE_IDLE, nil); err != nil {
				log.Debug("keepalive failed", zap.Error(err))
			}

		case sig := <-sigCh:
			log.Info("收到訊號，關閉中", zap.String("signal", sig.String()))
			sess.Close()
			return nil
		}

		if sess.IsClosed() {
			log.Info("連線已結束")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
