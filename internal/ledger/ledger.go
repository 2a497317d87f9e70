// Package ledger owns wallet mutations. Every debit or credit is paired
// with an append to the transaction log in the same database transaction;
// a balance change without its ledger entry can never be observed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeduel/internal/models"
	"codeduel/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// PlatformExternalID identifies the reserved account that accrues the
	// retained share of each prize pool.
	PlatformExternalID = "system:platform"

	// PlatformUsername is the display name of the platform account
	PlatformUsername = "platform"
)

var (
	// ErrInsufficientFunds means a debit would take the wallet negative
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrUnknownAccount means the wallet owner does not exist
	ErrUnknownAccount = errors.New("ledger: unknown account")
)

// Debit locks the user's row, subtracts amount from their wallet and appends
// a negative ledger entry. Must run inside a Datastore transaction. Amount
// must be positive.
func Debit(ctx context.Context, ds repository.Datastore, userID string, amount decimal.Decimal, txnType models.TransactionType, matchID *string, description string) error {
	user, err := ds.GetUserForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnknownAccount
	}
	if user.WalletBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	user.WalletBalance = user.WalletBalance.Sub(amount)
	if err := ds.SaveUser(ctx, user); err != nil {
		return err
	}

	return ds.CreateTransaction(ctx, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        txnType,
		Amount:      amount.Neg(),
		Status:      models.TransactionCompleted,
		MatchID:     matchID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
}

// Credit locks the user's row, adds amount to their wallet and appends a
// positive ledger entry. Must run inside a Datastore transaction. Amount
// must be positive.
func Credit(ctx context.Context, ds repository.Datastore, userID string, amount decimal.Decimal, txnType models.TransactionType, matchID *string, description string) error {
	user, err := ds.GetUserForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnknownAccount
	}

	user.WalletBalance = user.WalletBalance.Add(amount)
	if err := ds.SaveUser(ctx, user); err != nil {
		return err
	}

	return ds.CreateTransaction(ctx, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        txnType,
		Amount:      amount,
		Status:      models.TransactionCompleted,
		MatchID:     matchID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
}

// EnsurePlatformAccount returns the reserved platform account, creating it
// on first use. The account holds the 10% retained from each prize pool so
// the fee has an explicit destination in the ledger.
func EnsurePlatformAccount(ctx context.Context, ds repository.Datastore) (*models.User, error) {
	existing, err := ds.GetUserByExternalID(ctx, PlatformExternalID)
	if err != nil {
		return nil, fmt.Errorf("lookup platform account: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	account := &models.User{
		ID:            uuid.NewString(),
		ExternalID:    PlatformExternalID,
		Email:         "platform@codeduel.internal",
		Username:      PlatformUsername,
		Rating:        0,
		WalletBalance: decimal.Zero,
	}
	if err := ds.CreateUser(ctx, account); err != nil {
		return nil, fmt.Errorf("create platform account: %w", err)
	}
	return account, nil
}
