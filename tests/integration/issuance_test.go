//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
)

func TestConcurrentIssuanceMintsExactlyOneCode(t *testing.T) {
	env := getEnv(t)
	tenant := seedTenant(t)
	coupon := seedCoupon(t, tenant.ID)
	email := uniqueEmail("racer")

	const workers = 20
	codes := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			issued, err := env.issuanceSvc.IssueOrFetch(context.Background(), tenant.ID, coupon.ID, email)
			if err != nil {
				errs[slot] = err
				return
			}
			codes[slot] = issued.Code
		}(i)
	}
	wg.Wait()

	// Every racer must succeed and converge on the winner's code; the
	// losers hit the uniqueness constraint and read the winner back.
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if codes[i] == "" || codes[i] != codes[0] {
			t.Fatalf("worker %d got code %q, want %q", i, codes[i], codes[0])
		}
	}

	rows := countRows(
		t,
		`SELECT COUNT(*) FROM issued_coupons WHERE tenant_id = $1 AND coupon_id = $2 AND email = $3`,
		tenant.ID, coupon.ID, email,
	)
	if rows != 1 {
		t.Fatalf("expected one issued row, found %d", rows)
	}
}

func TestIssuanceIsIdempotentAcrossCalls(t *testing.T) {
	env := getEnv(t)
	tenant := seedTenant(t)
	coupon := seedCoupon(t, tenant.ID)
	email := uniqueEmail("repeat")
	ctx := context.Background()

	first, err := env.issuanceSvc.IssueOrFetch(ctx, tenant.ID, coupon.ID, email)
	if err != nil {
		t.Fatalf("first issuance failed: %v", err)
	}
	second, err := env.issuanceSvc.IssueOrFetch(ctx, tenant.ID, coupon.ID, email)
	if err != nil {
		t.Fatalf("second issuance failed: %v", err)
	}

	if first.Code != second.Code || first.ID != second.ID {
		t.Fatalf("repeat issuance minted a new record: %s vs %s", first.Code, second.Code)
	}
}

func TestIssuanceGivesDistinctEmailsDistinctCodes(t *testing.T) {
	env := getEnv(t)
	tenant := seedTenant(t)
	coupon := seedCoupon(t, tenant.ID)
	ctx := context.Background()

	first, err := env.issuanceSvc.IssueOrFetch(ctx, tenant.ID, coupon.ID, uniqueEmail("a"))
	if err != nil {
		t.Fatalf("first issuance failed: %v", err)
	}
	second, err := env.issuanceSvc.IssueOrFetch(ctx, tenant.ID, coupon.ID, uniqueEmail("b"))
	if err != nil {
		t.Fatalf("second issuance failed: %v", err)
	}

	if first.Code == second.Code {
		t.Fatalf("distinct emails shared code %q", first.Code)
	}
}
