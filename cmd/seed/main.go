// Command seed fills a tenant with demo sites, budgets, users and tickets.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/helpdesk/backend/internal/infrastructure/config"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	opts := Options{}
	var seed uint64
	flag.StringVar(&opts.TenantSlug, "tenant", "acme", "Tenant slug to seed into (created if missing)")
	flag.StringVar(&opts.TenantName, "tenant-name", "Acme Corp", "Tenant display name")
	flag.IntVar(&opts.Sites, "sites", 3, "How many sites to create")
	flag.IntVar(&opts.Managers, "managers", 2, "How many site managers to create")
	flag.IntVar(&opts.Contractors, "contractors", 5, "How many contractors to create")
	flag.IntVar(&opts.Tickets, "tickets", 30, "How many tickets to create")
	flag.StringVar(&opts.AdminEmail, "admin-email", "admin@acme.com", "Admin email (created if missing)")
	flag.StringVar(&opts.AdminUsername, "admin-username", "admin", "Admin username")
	flag.StringVar(&opts.AdminPassword, "admin-password", "admin123", "Admin password if creating")
	flag.IntVar(&opts.Year, "year", time.Now().Year(), "Year for monthly budgets")
	flag.Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log, "warn")
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	rnd := rand.New(rand.NewPCG(seed, seed>>1))
	var res *Result
	err = db.Transaction(context.Background(), func(tx *gorm.DB) error {
		var err error
		res, err = NewSeeder(tx, rnd, log).Run(context.Background(), opts)
		return err
	})
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	log.Info("Seeding complete",
		zap.String("tenant", opts.TenantSlug),
		zap.Int("sites", res.Sites),
		zap.Int("budgets", res.Budgets),
		zap.Int("managers", res.Managers),
		zap.Int("contractors", res.Contractors),
		zap.Int("tickets", res.Tickets),
	)
}
