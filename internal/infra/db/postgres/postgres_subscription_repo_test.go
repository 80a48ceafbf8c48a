//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewSubscriptionRepo(testPool)
	payments := NewSubscriptionPaymentRepo(testPool)
	tm := NewTxManager(testPool)

	setup := func(t *testing.T) *model.Subscription {
		cleanup(t)
		seedUser(t, "user_1")
		s, _ := model.NewDefaultSubscription("user_1", time.Now().UTC())
		if err := repo.CreateIfMissing(ctx, nil, s); err != nil {
			t.Fatalf("CreateIfMissing failed: %v", err)
		}
		return s
	}

	t.Run("should create the singleton once", func(t *testing.T) {
		first := setup(t)
		dup, _ := model.NewDefaultSubscription("user_1", time.Now().UTC())
		if err := repo.CreateIfMissing(ctx, nil, dup); err != nil {
			t.Fatalf("expected a second create to be a no-op, got %v", err)
		}
		found, err := repo.FindByExtUserID(ctx, nil, "user_1")
		if err != nil {
			t.Fatalf("FindByExtUserID failed: %v", err)
		}
		if found.ID != first.ID || found.Tier != model.TierFree {
			t.Fatalf("unexpected subscription %+v", found)
		}
	})

	t.Run("should apply upgrades and clear the pending checkout", func(t *testing.T) {
		setup(t)
		if err := repo.SetPending(ctx, nil, "user_1", "sub_ref", 1200); err != nil {
			t.Fatalf("SetPending failed: %v", err)
		}

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			s, err := repo.FindByExtUserID(ctx, tx, "user_1")
			if err != nil {
				return err
			}
			offer, _ := model.OfferFor(model.TierPremium)
			s.ApplyUpgrade(offer, time.Now().UTC())
			s.ClearPending("sub_ref")
			return repo.Update(ctx, tx, s)
		})
		if err != nil {
			t.Fatalf("upgrade failed: %v", err)
		}

		s, _ := repo.FindByExtUserID(ctx, nil, "user_1")
		if s.Tier != model.TierPremium || s.Credits != 10 || s.EndDate == nil || s.PendingReference != nil {
			t.Fatalf("unexpected subscription %+v", s)
		}
		if n, _ := repo.CountPremiumActive(ctx, nil); n != 1 {
			t.Errorf("expected one premium subscription, got %d", n)
		}
	})

	t.Run("should never drive credits below zero", func(t *testing.T) {
		setup(t)
		if bal, err := repo.AddCredits(ctx, nil, "user_1", 10); err != nil || bal != 10 {
			t.Fatalf("expected balance 10, got %d (%v)", bal, err)
		}

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = repo.DeductCredits(ctx, nil, "user_1", 6)
			}(i)
		}
		wg.Wait()

		ok, short := 0, 0
		for _, err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientCredits):
				short++
			default:
				t.Fatalf("unexpected error %v", err)
			}
		}
		if ok != 1 || short != 1 {
			t.Fatalf("expected one success and one rejection, got %d/%d", ok, short)
		}
		s, _ := repo.FindByExtUserID(ctx, nil, "user_1")
		if s.Credits != 4 {
			t.Fatalf("expected balance 4, got %d", s.Credits)
		}

		if _, err := repo.DeductCredits(ctx, nil, "ghost", 1); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for an unknown user, got %v", err)
		}
	})

	t.Run("should flip subscription payments exactly once", func(t *testing.T) {
		setup(t)
		p := &model.SubscriptionPayment{
			Reference: "sub_1", ExtUserID: "user_1", Tier: model.TierLifetime, Amount: 29900,
			Status: model.PaymentStatusPending, Metadata: map[string]any{"kind": "subscription"},
			CreatedAt: time.Now().Add(-time.Hour), UpdatedAt: time.Now(),
		}
		if err := payments.Save(ctx, nil, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := payments.Save(ctx, nil, p); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict for a duplicate reference, got %v", err)
		}

		stale, err := payments.ListPendingOlderThan(ctx, nil, time.Now().Add(-time.Minute), 10)
		if err != nil || len(stale) != 1 {
			t.Fatalf("expected one stale payment, got %d (%v)", len(stale), err)
		}

		won, err := payments.MarkSuccessIfPending(ctx, nil, "sub_1", "txn_1")
		if err != nil || !won {
			t.Fatalf("expected the first flip to win, got %v (%v)", won, err)
		}
		won, _ = payments.MarkSuccessIfPending(ctx, nil, "sub_1", "txn_2")
		if won {
			t.Fatal("expected the second flip to lose")
		}

		got, _ := payments.FindByReference(ctx, nil, "sub_1")
		if got.Status != model.PaymentStatusSuccess || *got.TransactionID != "txn_1" || got.Metadata["kind"] != "subscription" {
			t.Fatalf("unexpected payment %+v", got)
		}
	})

	t.Run("should list subscriptions joined with their owners", func(t *testing.T) {
		setup(t)
		free := model.TierFree
		views, total, err := repo.List(ctx, nil, model.SubscriptionFilter{Tier: &free}, model.Page{Number: 1, Size: 10})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 1 || views[0].Email != "user_1@example.com" {
			t.Fatalf("unexpected listing %d %+v", total, views)
		}
	})
}
