package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Score constants
// ──────────────────────────────────────────────────────────────────────────────

// Payment-behaviour score bounds and adjustment steps. A user starts at 7.0;
// on-time payments nudge the score up, late payments pull it down hard. The
// score is always clamped to [0, 10].
var (
	ScoreMin     = decimal.Zero
	ScoreMax     = decimal.NewFromInt(10)
	ScoreDefault = decimal.NewFromFloat(7.0)
	ScoreOnTime  = decimal.NewFromFloat(0.1)
	ScoreLate    = decimal.NewFromFloat(0.5)
)

// ──────────────────────────────────────────────────────────────────────────────
// User
// ──────────────────────────────────────────────────────────────────────────────

// User is the domain entity for registered accounts.
type User struct {
	ID           uuid.UUID       `json:"id"         db:"id"`
	Name         string          `json:"name"       db:"name"`
	Email        string          `json:"email"      db:"email"`
	PasswordHash string          `json:"-"          db:"password_hash"` // never serialised
	Phone        *string         `json:"phone"      db:"phone"`
	Score        decimal.Decimal `json:"score"      db:"score"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ScoreAfterPayment returns the score after recording a payment.
// onTime=true adds ScoreOnTime, otherwise ScoreLate is subtracted; the result
// is clamped to [ScoreMin, ScoreMax].
func (u *User) ScoreAfterPayment(onTime bool) decimal.Decimal {
	next := u.Score
	if onTime {
		next = next.Add(ScoreOnTime)
	} else {
		next = next.Sub(ScoreLate)
	}
	return ClampScore(next)
}

// ClampScore bounds a score value to the valid [0, 10] range.
func ClampScore(s decimal.Decimal) decimal.Decimal {
	if s.LessThan(ScoreMin) {
		return ScoreMin
	}
	if s.GreaterThan(ScoreMax) {
		return ScoreMax
	}
	return s
}

// PublicProfile returns a user view safe to expose via API (no password hash).
type PublicProfile struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     *string         `json:"phone,omitempty"`
	Score     decimal.Decimal `json:"score"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToPublicProfile converts a User to its public-safe representation.
func (u *User) ToPublicProfile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Score:     u.Score,
		CreatedAt: u.CreatedAt,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// GroupMember
// ──────────────────────────────────────────────────────────────────────────────

// GroupMember links a user to a group. The (user_id, group_id) pair is unique:
// a user is a member of a group at most once.
type GroupMember struct {
	ID       uuid.UUID `json:"id"        db:"id"`
	UserID   uuid.UUID `json:"user_id"   db:"user_id"`
	GroupID  uuid.UUID `json:"group_id"  db:"group_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
