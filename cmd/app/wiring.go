package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/config"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/domain/ports/repository"
	payAdapters "content-commerce/internal/infra/adapters/payment"
	"content-commerce/internal/infra/adapters/storage"
	tele "content-commerce/internal/infra/adapters/telegram"
	pg "content-commerce/internal/infra/db/postgres"
	red "content-commerce/internal/infra/redis"
	"content-commerce/internal/infra/web"
)

func withEbookCache(inner repository.EbookRepository, cli *red.Client, ttl time.Duration, logger *zerolog.Logger) repository.EbookRepository {
	if cli == nil {
		return inner
	}
	return pg.NewEbookRepoCacheDecorator(inner, cli, ttl, logger)
}

// newProcessor returns the processor and, for real providers, the webhook verifier.
func newProcessor(cfg *config.Config, logger *zerolog.Logger) (adapter.PaymentProcessor, web.SignatureVerifier, error) {
	switch strings.ToLower(cfg.Payment.Provider) {
	case "", "paystack":
		ps, err := payAdapters.NewPaystackProcessor(
			cfg.Payment.Paystack.SecretKey,
			cfg.Payment.Paystack.BaseURL,
			&http.Client{Timeout: 15 * time.Second},
		)
		if err != nil {
			return nil, nil, fmt.Errorf("paystack: %w", err)
		}
		logger.Info().Str("provider", ps.Name()).Str("currency", cfg.Payment.Currency).Msg("payment processor ready")
		return ps, ps, nil
	case "noop":
		if !cfg.Runtime.Dev {
			return nil, nil, fmt.Errorf("payment.provider=noop is only allowed with -dev")
		}
		logger.Warn().Msg("using the noop payment processor: every known reference verifies")
		// the fake checkout page is the callback itself, so the browser loop completes locally
		base := ""
		if cfg.Payment.CallbackURL != "" {
			base = cfg.Payment.CallbackURL + "?reference="
		}
		return payAdapters.NewNoopProcessor(base), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown payment.provider %q", cfg.Payment.Provider)
}

func newSigner(cfg *config.Config) (adapter.DownloadSigner, error) {
	s3cfg := cfg.Storage.S3
	if s3cfg.Bucket == "" {
		return storage.PassthroughSigner{}, nil
	}
	signer, err := storage.NewS3Signer(storage.Config{
		Endpoint:     s3cfg.Endpoint,
		Region:       s3cfg.Region,
		AccessKey:    s3cfg.AccessKey,
		SecretKey:    s3cfg.SecretKey,
		Bucket:       s3cfg.Bucket,
		UsePathStyle: s3cfg.UsePathStyle,
		PresignTTL:   s3cfg.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 signer: %w", err)
	}
	return signer, nil
}

func newNotifier(cfg *config.Config, logger *zerolog.Logger) (adapter.PaymentNotifier, error) {
	tg := cfg.Notify.Telegram
	if tg.Token == "" || len(tg.ChatIDs) == 0 {
		logger.Info().Msg("telegram notifications disabled")
		return tele.NewNoopNotifier(logger), nil
	}
	n, err := tele.NewAdminNotifier(tg.Token, tg.ChatIDs, "", nil)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}
	return n, nil
}
