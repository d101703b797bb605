// Command migrate manages the storefront schema.
//
//	migrate up
//	migrate down
//	migrate to 1
//	migrate version
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"ms-storefront/internal/config"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/server"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [--dsn DSN] up|down|to <version>|version")
	pflag.PrintDefaults()
}

func run(cfg config.DatabaseConfig, log *logger.Logger, args []string) error {
	return server.Migrate(cfg, log, func(r *migrations.Runner) error {
		switch args[0] {
		case "up":
			return r.RunMigrations()
		case "down":
			return r.MigrateDown()
		case "to":
			if len(args) < 2 {
				return fmt.Errorf("to needs a version")
			}
			v, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}
			return r.MigrateTo(uint(v))
		case "version":
			v, dirty, err := r.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}
	})
}

func main() {
	log := logger.NewWithWriter(os.Stderr)
	cfg := server.LoadConfig(log)

	dsn := pflag.String("dsn", cfg.Database.DSN, "Postgres connection string")
	pflag.Usage = usage
	pflag.Parse()
	if pflag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cfg.Database.DSN = *dsn

	if err := run(cfg.Database, log, pflag.Args()); err != nil {
		log.Error("MIGRATE", err.Error())
		os.Exit(1)
	}
	log.Info("MIGRATE", "done")
}
