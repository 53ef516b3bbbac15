// Command fleetgate-probe signs in against a fleet backend and walks the
// read endpoints, reporting what a terminal would see after boot: session
// restore, login, token validity, vehicle and position counts.
//
// Usage:
//
//	fleetgate-probe -config probe.yaml
//	fleetgate-probe -base-url https://fleet.example -username anna
//
// The password is read from the FLEETGATE_PASSWORD environment variable,
// never from a flag. The store passphrase comes from FLEETGATE_PASSPHRASE
// and defaults to a throwaway value suitable only for probing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	fleetgate "github.com/openfleet/fleetgate"
	"github.com/openfleet/fleetgate/api"
	"github.com/openfleet/fleetgate/store"
)

type probeConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Username  string        `yaml:"username"`
	DataDir   string        `yaml:"data_dir"`
	RedisAddr string        `yaml:"redis_addr"`
	Timeout   time.Duration `yaml:"timeout"`
	Positions string        `yaml:"positions"`
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		baseURL    = flag.String("base-url", "", "backend root URL")
		username   = flag.String("username", "", "sign-in username")
		dataDir    = flag.String("data-dir", "", "session store directory (default: temp dir)")
		redisAddr  = flag.String("redis-addr", "", "redis address; when set, the session store uses redis instead of files")
		positions  = flag.String("positions", "all", "position scope: all, trucks, or trailers")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	cfg := probeConfig{Timeout: 15 * time.Second, Positions: "all"}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fatal("read config: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fatal("parse config: %v", err)
		}
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	if *positions != "all" {
		cfg.Positions = *positions
	}

	if cfg.BaseURL == "" || cfg.Username == "" {
		fatal("base-url and username are required (flags or config file)")
	}
	password := os.Getenv("FLEETGATE_PASSWORD")
	if password == "" {
		fatal("FLEETGATE_PASSWORD must be set")
	}

	logger, err := buildLogger(*debug)
	if err != nil {
		fatal("logger: %v", err)
	}
	defer logger.Sync()

	st, cleanup, err := buildStore(cfg)
	if err != nil {
		fatal("store: %v", err)
	}
	defer cleanup()

	gateCfg := fleetgate.DefaultConfig()
	gateCfg.API.BaseURL = cfg.BaseURL
	gateCfg.API.Timeout = cfg.Timeout
	gateCfg.Metrics.Enabled = true

	manager, err := fleetgate.New().
		WithConfig(gateCfg).
		WithStore(st).
		WithLogger(logger).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fatal("build session manager: %v", err)
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := manager.Restore(ctx); err != nil {
		fatal("restore: %v", err)
	}
	logger.Info("session restored",
		zap.Stringer("state", manager.State()),
		zap.String("device_id", manager.DeviceID()))

	if manager.State() != fleetgate.StateAuthenticated {
		if err := manager.Login(ctx, cfg.Username, password); err != nil {
			fatal("login: %v", err)
		}
		logger.Info("signed in", zap.String("username", cfg.Username))
	} else {
		logger.Info("reusing persisted session")
	}

	fmt.Printf("token valid: %v\n", manager.IsTokenValid())
	if u := manager.CurrentUser(); u != nil {
		fmt.Printf("user: %s <%s> roles=%v\n", u.Username, u.Email, u.Roles)
	}

	client := manager.API()

	vehicles, err := client.Vehicles(ctx)
	if err != nil {
		logger.Warn("vehicles unavailable", zap.Error(err))
	} else {
		fmt.Printf("vehicles: %d\n", len(vehicles))
	}

	filter := api.PositionsAll
	switch cfg.Positions {
	case "trucks":
		filter = api.PositionsTrucks
	case "trailers":
		filter = api.PositionsTrailers
	}
	pos, err := client.Positions(ctx, filter)
	if err != nil {
		logger.Warn("positions unavailable", zap.Error(err))
	} else {
		fmt.Printf("positions (%s): %d\n", cfg.Positions, len(pos))
	}

	countries, err := client.PositionCountries(ctx)
	if err != nil {
		logger.Warn("country counts unavailable", zap.Error(err))
	} else {
		for _, c := range countries {
			fmt.Printf("  %s: %d\n", c.Country, c.Count)
		}
	}

	fmt.Println("metrics:")
	for name, v := range manager.MetricsSnapshot() {
		if v > 0 {
			fmt.Printf("  %s: %d\n", name, v)
		}
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildStore(cfg probeConfig) (store.Store, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s := store.NewRedisStore(client, "fleetgate-probe")
		return s, func() { _ = client.Close() }, nil
	}

	dir := cfg.DataDir
	remove := func() {}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "fleetgate-probe-")
		if err != nil {
			return nil, nil, err
		}
		dir = tmp
		remove = func() { _ = os.RemoveAll(tmp) }
	}

	passphrase := os.Getenv("FLEETGATE_PASSPHRASE")
	if passphrase == "" {
		passphrase = "fleetgate-probe-ephemeral"
	}
	s, err := store.NewFileStore(dir, []byte(passphrase))
	if err != nil {
		remove()
		return nil, nil, err
	}
	return s, func() {
		_ = s.Close()
		remove()
	}, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
