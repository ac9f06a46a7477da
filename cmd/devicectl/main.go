// devicectl runs one simulated fleet device: it registers with a module
// gateway, reports status on an interval, and logs the commands the gateway
// answers with. A small admin endpoint exposes health, state, and metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	internalclient "github.com/bringauto/internal-client-go"
	"github.com/bringauto/internal-client-go/internal/config"
	"github.com/bringauto/internal-client-go/internal/logging"
	"github.com/bringauto/internal-client-go/internal/observability"
	"github.com/bringauto/internal-client-go/internal/session"
)

type agentState struct {
	mu          sync.Mutex
	DeviceName  string
	Connected   bool
	Exchanges   uint64
	LastCommand string
}

func (s *agentState) update(connected bool, command []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Connected = connected
	if command != nil {
		s.Exchanges++
		s.LastCommand = string(command)
	}
}

func (s *agentState) snapshot() (bool, uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Connected, s.Exchanges, s.LastCommand
}

func main() {
	configPath := flag.String("config", "devicectl.toml", "agent config path")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("devicectl")

	cfg, err := loadAgentConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicectl: %v\n", err)
		os.Exit(1)
	}
	profile, err := config.LoadDeviceProfile(cfg.ProfilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicectl: %v\n", err)
		os.Exit(1)
	}

	state := &agentState{DeviceName: profile.Name}
	if cfg.AdminListenAddr != "" {
		go serveAdmin(cfg, state, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runDevice(ctx, cfg, profile, state, logger); err != nil {
		logger.Error().Err(err).Msg("device loop ended")
		os.Exit(1)
	}
}

// runDevice owns the recreate policy: a client that reports a fatal error is
// destroyed and rebuilt after a backoff delay. Registration rejections are
// terminal; the identity has to change before another attempt makes sense.
func runDevice(ctx context.Context, cfg agentConfig, profile config.DeviceProfile, state *agentState, logger zerolog.Logger) error {
	backoff := session.DefaultConfig().Backoff
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 1; ; attempt++ {
		if cfg.MaxRecreateAttempts > 0 && attempt > cfg.MaxRecreateAttempts {
			return fmt.Errorf("gateway unreachable after %d attempts", cfg.MaxRecreateAttempts)
		}

		client, err := internalclient.New(internalclient.Config{
			ModuleID:       profile.ModuleID,
			Hostname:       profile.Hostname,
			Port:           profile.Port,
			DeviceName:     profile.Name,
			DeviceType:     profile.Type,
			DeviceRole:     profile.Role,
			DevicePriority: profile.Priority,
			Session: session.Config{
				ConnectTimeout:   cfg.ConnectTimeout,
				HandshakeTimeout: cfg.HandshakeTimeout,
			},
			Logger: &logger,
		})
		if err != nil {
			return err
		}

		err = client.Connect()
		if err != nil {
			if internalclient.IsRejectError(err) || internalclient.IsProtocolViolation(err) {
				return fmt.Errorf("gateway declined device: %w", err)
			}
			delay := session.NextBackoffDelay(backoff, attempt, rng)
			logger.Warn().Err(err).Dur("retry_in", delay).Msg("connect failed")
			if !sleepCtx(ctx, delay) {
				return nil
			}
			continue
		}
		attempt = 0
		state.update(true, nil)

		err = statusLoop(ctx, client, cfg, state, rng)
		state.update(false, nil)
		_ = client.Destroy()
		if err == nil {
			return nil
		}
		if internalclient.IsRejectError(err) || internalclient.IsProtocolViolation(err) {
			return err
		}
		logger.Warn().Err(err).Msg("session lost, recreating client")
	}
}

func statusLoop(ctx context.Context, client *internalclient.Client, cfg agentConfig, state *agentState, rng *rand.Rand) error {
	ticker := time.NewTicker(cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		status, err := json.Marshal(map[string]any{
			"pressed":   rng.Float64() < 0.5,
			"timestamp": time.Now().Unix(),
		})
		if err != nil {
			return err
		}

		command, err := client.SendStatus(status, cfg.ExchangeTimeout)
		if err != nil {
			return err
		}
		state.update(true, command)
	}
}

func serveAdmin(cfg agentConfig, state *agentState, logger zerolog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(state.DeviceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "device": state.DeviceName})
	})
	r.GET("/status", func(c *gin.Context) {
		connected, exchanges, lastCommand := state.snapshot()
		c.JSON(http.StatusOK, gin.H{
			"device":       state.DeviceName,
			"connected":    connected,
			"exchanges":    exchanges,
			"last_command": lastCommand,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := r.Run(cfg.AdminListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("admin endpoint stopped")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
