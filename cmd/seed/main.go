package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/config"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	pg "content-commerce/internal/infra/db/postgres"
	"content-commerce/internal/infra/logging"
)

// seed inserts a small demo catalog so the checkout flows can be exercised locally.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.ApplySchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema")
	}

	ebooks := pg.NewEbookRepo(pool)
	active := true
	_, total, err := ebooks.List(ctx, repository.NoTX, model.EbookFilter{Active: &active}, model.Page{Number: 1, Size: 1})
	if err != nil {
		logger.Fatal().Err(err).Msg("list ebooks")
	}
	if total > 0 {
		logger.Info().Int("ebooks", total).Msg("catalog already seeded; no changes")
		return
	}

	now := time.Now()
	seed := []model.Ebook{
		{Title: "Designing Payment Systems", Author: "M. Otieno", Price: 1500, Credits: 3, Format: model.EbookFormatPDF, Category: "engineering"},
		{Title: "The Credit Ledger", Author: "A. Wanjiru", Price: 800, Credits: 2, Format: model.EbookFormatEPUB, Category: "finance"},
		{Title: "Members Only: Advanced Go", Author: "K. Mwangi", Price: 2500, Credits: 5, Format: model.EbookFormatPDF, Category: "engineering", IsPremiumOnly: true},
	}
	for i := range seed {
		e := seed[i]
		e.IsActive = true
		e.FileURL = "s3://content/ebooks/" + slug(e.Title) + ".pdf"
		e.CreatedAt, e.UpdatedAt = now, now
		if err := ebooks.Save(ctx, repository.NoTX, &e); err != nil {
			logger.Fatal().Err(err).Str("title", e.Title).Msg("seed ebook")
		}
		logger.Info().Str("id", e.ID).Str("title", e.Title).Int64("price", e.Price).Int("credits", e.Credits).Msg("seeded")
	}
	logger.Info().Msg("seeding complete")
}

func slug(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, r)
		case r >= 'A' && r <= 'Z':
			b = append(b, r+'a'-'A')
		case len(b) > 0 && b[len(b)-1] != '-':
			b = append(b, '-')
		}
	}
	return string(b)
}
