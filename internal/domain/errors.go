package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Validation errors
var (
	// ErrNonPositiveAmount is returned when an expense, top-up, or listing
	// amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrPriceNotBelowNominal is returned when a receivable's selling price is
	// not strictly below its nominal amount.
	ErrPriceNotBelowNominal = errors.New("selling price must be strictly below the nominal amount")

	// ErrNothingOwed is returned when a consolidated listing or a virtual
	// payment targets a pair whose net position is within tolerance of zero.
	ErrNothingOwed = errors.New("no significant balance owed between these users")

	// ErrInvalidClaimTarget is returned when a sale request names neither a
	// debt nor a debtor.
	ErrInvalidClaimTarget = errors.New("either a debt id or a debtor id is required")
)

// Not-found errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrGroupNotFound is returned when no group matches the given id.
	ErrGroupNotFound = errors.New("group not found")

	// ErrExpenseNotFound is returned when no expense matches the given id.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrDebtNotFound is returned when no debt matches the given id.
	ErrDebtNotFound = errors.New("debt not found")

	// ErrReceivableNotFound is returned when no receivable matches the given id.
	ErrReceivableNotFound = errors.New("receivable not found")

	// ErrWalletNotFound is returned when no wallet exists for the requested user.
	ErrWalletNotFound = errors.New("wallet not found")
)

// Authorization errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is not the debtor, creditor,
	// owner, or member required for the action.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrNotGroupMember is returned when the caller does not belong to the
	// group they are operating on.
	ErrNotGroupMember = errors.New("user is not a member of this group")

	// ErrNotDebtor is returned when someone other than the debtor attempts to
	// pay a debt.
	ErrNotDebtor = errors.New("only the debtor can pay this debt")

	// ErrNotCreditor is returned when someone other than the creditor attempts
	// to sell a debt.
	ErrNotCreditor = errors.New("only the creditor can sell this debt")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Conflict errors
var (
	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrAlreadyMember is returned when adding a user who is already in the group.
	ErrAlreadyMember = errors.New("user is already a member of this group")

	// ErrDebtNotPending is returned when a payment, sale, or cancellation
	// targets a debt that is not in pending status.
	ErrDebtNotPending = errors.New("debt is not pending")

	// ErrDebtAlreadyListed is returned when a for-sale receivable already
	// exists for the claim being listed.
	ErrDebtAlreadyListed = errors.New("a receivable is already for sale for this claim")

	// ErrReceivableNotForSale is returned when buying or cancelling a
	// receivable that is not in for_sale status.
	ErrReceivableNotForSale = errors.New("receivable is not for sale")

	// ErrOwnReceivable is returned when a seller tries to buy their own listing.
	ErrOwnReceivable = errors.New("cannot buy your own receivable")
)

// Funds errors
var (
	// ErrInsufficientFunds is returned when a wallet balance is too low to
	// cover a debit.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrUserNotFound,
	ErrGroupNotFound,
	ErrExpenseNotFound,
	ErrDebtNotFound,
	ErrReceivableNotFound,
	ErrWalletNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for malformed-input errors (HTTP 400).
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrNonPositiveAmount,
		ErrPriceNotBelowNominal,
		ErrNothingOwed,
		ErrInvalidClaimTarget,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (e.g.
// duplicate listing or a non-pending debt).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrEmailTaken,
		ErrAlreadyMember,
		ErrDebtNotPending,
		ErrDebtAlreadyListed,
		ErrReceivableNotForSale,
		ErrOwnReceivable,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrNotGroupMember,
		ErrNotDebtor,
		ErrNotCreditor,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidCredentials,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInsufficientFunds returns true when the error chain contains the wallet
// balance error.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}
