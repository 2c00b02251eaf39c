package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/helpdesk/backend/internal/infrastructure/config"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("usage")

// schemaCommand runs against a connected migrator
type schemaCommand struct {
	usage string
	help  string
	run   func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var schemaCommands = map[string]schemaCommand{
	"up": {
		usage: "up",
		help:  "Apply every pending helpdesk schema migration",
		run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
			return m.Up()
		},
	},
	"down": {
		usage: "down",
		help:  "Roll back every migration (drops tenants, tickets and assets)",
		run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
			return m.Down()
		},
	},
	"step": {
		usage: "step <n>",
		help:  "Apply n migrations, negative n rolls back",
		run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
			n, err := intArg(args)
			if err != nil {
				return err
			}
			return m.Steps(n)
		},
	},
	"goto": {
		usage: "goto <version>",
		help:  "Migrate up or down to a version",
		run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
			v, err := versionArg(args)
			if err != nil {
				return err
			}
			return m.GoTo(v)
		},
	},
	"version": {
		usage: "version",
		help:  "Print the applied version and dirty flag",
		run: func(m *migration.Migrator, log *zap.Logger, _ []string) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		},
	},
	"force": {
		usage: "force <version>",
		help:  "Record a version without running it, clears the dirty flag",
		run: func(m *migration.Migrator, log *zap.Logger, args []string) error {
			v, err := intArg(args)
			if err != nil {
				return err
			}
			log.Warn("Forcing schema version", zap.Int("version", v))
			return m.Force(v)
		},
	},
	"drop": {
		usage: "drop --confirm",
		help:  "Drop every object in the helpdesk database",
		run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
			if !hasConfirm(args) {
				return fmt.Errorf("%w: drop requires --confirm", errUsage)
			}
			return m.Drop()
		},
	},
}

func main() {
	dir := flag.String("path", "", "Migrations directory on disk (default: the embedded set)")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      *level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, *dir, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(log *zap.Logger, dir string, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "create":
		return create(log, dir, rest)
	case "list":
		files, err := openSource(dir)
		if err != nil {
			return err
		}
		return list(files)
	}

	cmd, ok := schemaCommands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	files, err := openSource(dir)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, files, log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Running schema command",
		zap.String("command", name),
		zap.String("source", sourceLabel(dir)),
		zap.String("database", cfg.Database.DBName),
	)
	return cmd.run(m, log, rest)
}

func create(log *zap.Logger, dir string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create <name> [description]", errUsage)
	}
	if dir == "" {
		dir = defaultMigrationsDir
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func list(files fs.FS) error {
	names, err := migration.ListMigrations(files)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func openSource(dir string) (fs.FS, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = abs
	}
	return migration.Source(dir)
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing numeric argument", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing version", errUsage)
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a version", errUsage, args[0])
	}
	return uint(v), nil
}

func hasConfirm(args []string) bool {
	for _, a := range args {
		if a == "-confirm" || a == "--confirm" {
			return true
		}
	}
	return false
}

func sourceLabel(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-path dir] [-log-level level] <command> [args]")
	fmt.Fprintln(os.Stderr)
	for _, name := range []string{"up", "down", "step", "goto", "version", "force", "drop"} {
		c := schemaCommands[name]
		fmt.Fprintf(os.Stderr, "  %-22s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(os.Stderr, "  %-22s %s\n", "create <name> [desc]", "Write a new up/down pair under -path (default ./migrations)")
	fmt.Fprintf(os.Stderr, "  %-22s %s\n", "list", "List migrations in the source")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "The database comes from HELPDESK_DATABASE_* (host, port, user, password, dbname, sslmode).")
}
