// Command seed fills a fresh database with the administrator accounts,
// the default categories and regular holidays, and placeholder terms and
// company pages.  Running it again leaves existing rows alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mayuuuu918/nagoyameshi/internal/config"
	"github.com/mayuuuu918/nagoyameshi/internal/database"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

var admins = []struct{ email, password string }{
	{"admin@example.com", "nagoyameshi"},
	{"admin2@example.com", "password"},
}

var categories = []string{"和食", "うどん", "丼物", "ラーメン", "おでん", "揚げ物", "寿司", "ひつまぶし", "味噌カツ", "手羽先", "喫茶", "居酒屋"}

var holidays = []struct {
	day   string
	index int
}{
	{"月曜日", 1}, {"火曜日", 2}, {"水曜日", 3}, {"木曜日", 4}, {"金曜日", 5}, {"土曜日", 6}, {"日曜日", 0},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(logger *slog.Logger) error {
	var (
		cfg     config.Config
		catalog bool
		site    bool
		cost    int
	)
	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	fs.StringVar(&cfg.DBDriver, "driver", envOr("DB_DRIVER", "mysql"), "database driver: mysql or sqlite")
	fs.StringVar(&cfg.DBPath, "sqlite-path", envOr("DB_PATH", "nagoyameshi.db"), "sqlite database file")
	fs.StringVar(&cfg.DBUser, "db-user", os.Getenv("DB_USER"), "mysql user")
	fs.StringVar(&cfg.DBPass, "db-pass", os.Getenv("DB_PASS"), "mysql password")
	fs.StringVar(&cfg.DBHost, "db-host", envOr("DB_HOST", "127.0.0.1"), "mysql host")
	fs.StringVar(&cfg.DBPort, "db-port", envOr("DB_PORT", "3306"), "mysql port")
	fs.StringVar(&cfg.DBName, "db-name", envOr("DB_NAME", "nagoyameshi"), "mysql database")
	fs.BoolVar(&catalog, "catalog", true, "seed categories and regular holidays")
	fs.BoolVar(&site, "site", true, "seed placeholder terms and company profile")
	fs.IntVar(&cost, "bcrypt-cost", 10, "bcrypt cost for administrator passwords")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	ctx := context.Background()

	adminRepo := repository.NewAdminRepo(db)
	for _, a := range admins {
		if _, err := adminRepo.GetByEmail(ctx, a.email); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := adminRepo.Create(ctx, a.email, a.password, cost); err != nil {
			return fmt.Errorf("create administrator %s: %w", a.email, err)
		}
		logger.Info("administrator created", "email", a.email)
	}

	if catalog {
		if err := seedCatalog(ctx, repository.NewCategoryRepo(db), repository.NewHolidayRepo(db)); err != nil {
			return err
		}
		logger.Info("catalog seeded")
	}
	if site {
		if err := seedSite(ctx, repository.NewSiteRepo(db)); err != nil {
			return err
		}
		logger.Info("site pages seeded")
	}
	return nil
}

func seedCatalog(ctx context.Context, cats *repository.CategoryRepo, hols *repository.HolidayRepo) error {
	existing, err := cats.All(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, name := range categories {
			if _, err := cats.Create(ctx, name); err != nil {
				return fmt.Errorf("create category %s: %w", name, err)
			}
		}
	}
	days, err := hols.All(ctx)
	if err != nil {
		return err
	}
	if len(days) > 0 {
		return nil
	}
	for _, h := range holidays {
		idx := h.index
		if _, err := hols.Create(ctx, h.day, &idx); err != nil {
			return fmt.Errorf("create holiday %s: %w", h.day, err)
		}
	}
	_, err = hols.Create(ctx, "不定休", nil)
	return err
}

func seedSite(ctx context.Context, site *repository.SiteRepo) error {
	if _, err := site.Term(ctx); errors.Is(err, repository.ErrNotFound) {
		if _, err := site.SaveTerm(ctx, "この利用規約は、NAGOYAMESHIが提供するサービスの利用条件を定めるものです。"); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	if _, err := site.Company(ctx); errors.Is(err, repository.ErrNotFound) {
		_, err := site.SaveCompany(ctx, model.Company{
			Name:              "NAGOYAMESHI株式会社",
			PostalCode:        "1010022",
			Address:           "東京都千代田区神田練塀町300番地",
			Representative:    "侍 太郎",
			EstablishmentDate: "2015年6月15日",
			Capital:           "110,000千円",
			Business:          "飲食店等の情報提供サービス",
			NumberOfEmployees: "8名",
		})
		return err
	} else if err != nil {
		return err
	}
	return nil
}
