package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"anarchy.ttfm/straight/cmd/gateway/internal/router"
	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/utils"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const ShutdownTimeout = 10 * time.Second

func LoadConfig(filename string) (cfg Config, err error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	err = yaml.Unmarshal(contents, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, c *cli.Command) (err error) {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := cfg.Compile(ctx, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, g := range rt.Registry.All() {
		logger.Info("gateway ready", "id", g.Id(), "hashed_id", g.HashedId(), "active", g.Active())
	}

	err = rt.Registry.ResumeTracking(ctx, rt.Spawn)
	if err != nil {
		logger.Error("failed to resume pending orders", "error", err)
	}

	e := gin.New()
	e.Use(gin.Recovery())
	if c.Bool("debug") {
		e.Use(gin.Logger())
	}
	var r = router.Router{
		Controller:     rt.Controller,
		Metrics:        rt.Metrics,
		Gatherer:       rt.Gatherer,
		OriginPatterns: cfg.WebsocketOrigins,
		Base:           e,
	}
	r.Register()

	server := &http.Server{Addr: cfg.ListenAddress, Handler: e}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := utils.NewContextWithTimeout(ShutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "address", cfg.ListenAddress)
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func parseId(c *cli.Command) (id uint64, err error) {
	id, err = strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse id: %w", err)
	}
	return id, nil
}

var app = cli.Command{
	Name:  "gateway",
	Usage: "Accept orders and push their status to merchants",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration",
			Value: "config.yaml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "set debug mode",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "hashed-id",
			Usage:     "Print the identifier a gateway uses in URLs",
			ArgsUsage: "<gateway id>",
			Action: func(ctx context.Context, c *cli.Command) (err error) {
				id, err := parseId(c)
				if err != nil {
					return err
				}
				fmt.Println(gateway.HashedId(id))
				return nil
			},
		},
		{
			Name:      "sign",
			Usage:     "Print the signature of an order for a keychain id",
			ArgsUsage: "<keychain id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Usage:    "Gateway secret",
					Required: true,
				},
			},
			Action: func(ctx context.Context, c *cli.Command) (err error) {
				id, err := parseId(c)
				if err != nil {
					return err
				}
				fmt.Println(gateway.Sign(c.String("secret"), id))
				return nil
			},
		},
	},
	Action: serve,
}

func main() {
	err := app.Run(context.TODO(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
