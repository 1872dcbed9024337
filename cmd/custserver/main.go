package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"winsbygroup.com/custserver/internal/backup"
	"winsbygroup.com/custserver/internal/config"
	"winsbygroup.com/custserver/internal/logging"
	"winsbygroup.com/custserver/internal/postgres"
	"winsbygroup.com/custserver/internal/server"
	"winsbygroup.com/custserver/internal/sqlite"
	"winsbygroup.com/custserver/internal/version"
)

func main() {
	fmt.Println(version.Banner())

	//
	// Flags
	//
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to dotenv file (ignored if missing)")
	routesFlag := flag.Bool("routes", false, "print routes and exit")
	demoFlag := flag.Bool("demo", false, "load sample data on new database (for demos)")
	schemaFlag := flag.Bool("schema", false, "print the database schema for the configured store and exit")
	backupFlag := flag.Bool("backup", false, "write a compressed SQL dump of the sqlite database and exit")
	flag.Parse()

	//
	// Load configuration
	//
	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.DemoMode = *demoFlag

	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	//
	// Schema inspection mode
	//
	if *schemaFlag {
		if cfg.Store == config.StorePostgres {
			fmt.Println(postgres.Schema())
		} else {
			fmt.Println(sqlite.Schema())
		}
		os.Exit(0)
	}

	//
	// Backup mode
	//
	if *backupFlag {
		if err := runBackup(cfg); err != nil {
			log.Fatalf("backup failed: %v", err)
		}
		os.Exit(0)
	}

	//
	// Build server (Echo, store, services, etc.)
	//
	srv, err := server.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	//
	// Routes inspection mode
	//
	if *routesFlag {
		routes := srv.Echo.Routes()
		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path == routes[j].Path {
				return routes[i].Method < routes[j].Method
			}
			return routes[i].Path < routes[j].Path
		})

		for _, r := range routes {
			fmt.Printf("%-6s %s\n", r.Method, r.Path)
		}

		srv.Close(context.Background())
		os.Exit(0)
	}

	//
	// Normal server startup
	//
	go func() {
		log.WithFields(log.Fields{
			"addr":   cfg.Addr,
			"store":  cfg.Store,
			"events": cfg.Events.Driver,
		}).Info("Custserver listening")
		if err := srv.Echo.StartServer(srv.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Echo.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
	if err := srv.Close(ctx); err != nil {
		log.WithError(err).Error("close failed")
	}
	log.Info("Custserver stopped")
}

func runBackup(cfg *config.Config) error {
	if cfg.Store != config.StoreSQLite {
		return fmt.Errorf("backup requires the sqlite store, not %q", cfg.Store)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.DBPath, false)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := backup.NewService(db, cfg.DBPath).CreateBackup(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d bytes)\n", result.Path, result.Size)
	return nil
}
