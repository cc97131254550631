package domain_test

import (
	"testing"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/shopspring/decimal"
)

// TestScoreAfterPayment validates the payment-behaviour score walk:
// +0.1 on time, −0.5 late, always clamped to [0, 10].
func TestScoreAfterPayment(t *testing.T) {
	cases := []struct {
		name   string
		start  float64
		onTime bool
		want   float64
	}{
		{"on-time from default", 7.0, true, 7.1},
		{"late from default", 7.0, false, 6.5},
		{"on-time clamped at max", 10.0, true, 10.0},
		{"near max not clamped", 9.85, true, 9.95},
		{"late clamped at min", 0.3, false, 0.0},
		{"late at exact min stays min", 0.0, false, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &domain.User{Score: decimal.NewFromFloat(tc.start)}
			got := u.ScoreAfterPayment(tc.onTime)
			want := decimal.NewFromFloat(tc.want)
			if !got.Equal(want) {
				t.Errorf("ScoreAfterPayment(%v) from %v = %s, want %s", tc.onTime, tc.start, got, want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	if got := domain.ClampScore(decimal.NewFromInt(-3)); !got.Equal(domain.ScoreMin) {
		t.Errorf("ClampScore(-3) = %s, want %s", got, domain.ScoreMin)
	}
	if got := domain.ClampScore(decimal.NewFromInt(12)); !got.Equal(domain.ScoreMax) {
		t.Errorf("ClampScore(12) = %s, want %s", got, domain.ScoreMax)
	}
	mid := decimal.NewFromFloat(4.2)
	if got := domain.ClampScore(mid); !got.Equal(mid) {
		t.Errorf("ClampScore(4.2) = %s, want 4.2", got)
	}
}

// TestDefaultScoreRecovery: a fresh user who pays five times late and then
// consistently on time claws their way back — the walk stays in bounds the
// whole way.
func TestDefaultScoreRecovery(t *testing.T) {
	u := &domain.User{Score: domain.ScoreDefault}
	for i := 0; i < 5; i++ {
		u.Score = u.ScoreAfterPayment(false)
	}
	// 7.0 − 5×0.5 = 4.5
	if !u.Score.Equal(decimal.NewFromFloat(4.5)) {
		t.Fatalf("after 5 late payments score = %s, want 4.5", u.Score)
	}

	for i := 0; i < 100; i++ {
		u.Score = u.ScoreAfterPayment(true)
		if u.Score.GreaterThan(domain.ScoreMax) || u.Score.LessThan(domain.ScoreMin) {
			t.Fatalf("score %s escaped [0,10] at step %d", u.Score, i)
		}
	}
	if !u.Score.Equal(domain.ScoreMax) {
		t.Errorf("after 100 on-time payments score = %s, want %s", u.Score, domain.ScoreMax)
	}
}

func TestToPublicProfile_OmitsPasswordHash(t *testing.T) {
	u := &domain.User{
		Name:         "Ayşe",
		Email:        "ayse@example.com",
		PasswordHash: "$2a$12$secret",
		Score:        domain.ScoreDefault,
	}
	p := u.ToPublicProfile()
	if p.Name != u.Name || p.Email != u.Email {
		t.Errorf("profile lost identity fields: %+v", p)
	}
	if !p.Score.Equal(u.Score) {
		t.Errorf("profile score = %s, want %s", p.Score, u.Score)
	}
}
