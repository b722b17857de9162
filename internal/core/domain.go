package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the signed direction of a transaction against a wallet.
type TransactionType string

const (
	// Credit increases the wallet balance.
	Credit TransactionType = "credit"
	// Debit decreases the wallet balance and counts against budgets.
	Debit TransactionType = "debit"
)

// ParseTransactionType converts a raw string into a TransactionType.
// Anything other than the two known values is rejected.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Credit:
		return Credit, nil
	case Debit:
		return Debit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

// Frequency is how often a recurring transaction materializes.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ParseFrequency converts a raw string into a Frequency with reject-on-unknown semantics.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidMonth           = errors.New("invalid month")
	ErrSameWallet             = errors.New("source and destination wallets must differ")
	ErrDuplicateBudget        = errors.New("budget already exists for this category and period")
	ErrWalletNotEmpty         = errors.New("wallet balance must be zero before deletion")
	ErrWalletInUse            = errors.New("wallet has existing transactions")
	ErrCategoryInUse          = errors.New("category has existing transactions or budgets")
)

// User owns every other entity. A parent user may supervise one child user,
// linked through ParentID on the child row.
type User struct {
	ID        uuid.UUID
	Email     string
	Username  string
	ParentID  *uuid.UUID
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category labels transactions and budgets. Categories are per-user.
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Wallet is a user's account. Balance is the running sum of the signed
// amounts of all non-deleted transactions and transfers that reference it.
// It may go negative; no overdraft protection at this layer.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Balance   decimal.Decimal
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a single credit or debit against a wallet.
type Transaction struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	WalletID      uuid.UUID
	CategoryID    uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	TransactionAt time.Time
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SignedAmount returns the amount with the sign the transaction applies to
// its wallet: positive for credits, negative for debits.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Credit {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Month returns the calendar month (1-12) the transaction occurred in.
func (t Transaction) Month() int {
	return int(t.TransactionAt.UTC().Month())
}

// Year returns the calendar year the transaction occurred in.
func (t Transaction) Year() int {
	return t.TransactionAt.UTC().Year()
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.Type != Credit && t.Type != Debit {
		return ErrInvalidTransactionType
	}
	if t.TransactionAt.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}

// InterWalletTransaction moves money between two wallets of the same user.
// Applying it debits the source and credits the destination; transfers never
// touch budgets.
type InterWalletTransaction struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	Amount              decimal.Decimal
	Description         string
	TransactionAt       time.Time
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t InterWalletTransaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.SourceWalletID == t.DestinationWalletID {
		return ErrSameWallet
	}
	if t.TransactionAt.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}

// Budget caps spending for one (user, category, month, year). SpentAmount is
// maintained incrementally as matching debit transactions change; the two
// notification flags implement the warning/exceeded latch.
type Budget struct {
	ID                       uuid.UUID
	UserID                   uuid.UUID
	CategoryID               uuid.UUID
	Month                    int
	Year                     int
	Amount                   decimal.Decimal
	SpentAmount              decimal.Decimal
	WarningNotificationSent  bool
	ExceededNotificationSent bool
	IsDeleted                bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Remaining is the unspent part of the budget, floored at zero.
func (b Budget) Remaining() decimal.Decimal {
	r := b.Amount.Sub(b.SpentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// PercentageUsed is spent/amount as a whole percentage, truncated and capped
// at 100. A zero-amount budget counts as 100% once anything is spent.
func (b Budget) PercentageUsed() int {
	if b.Amount.IsZero() {
		if b.SpentAmount.IsPositive() {
			return 100
		}
		return 0
	}
	pct := b.SpentAmount.Div(b.Amount).Mul(decimal.NewFromInt(100)).IntPart()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// IsExceeded reports whether spending has passed the cap.
func (b Budget) IsExceeded() bool {
	return b.SpentAmount.GreaterThan(b.Amount)
}

func (b Budget) Validate() error {
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return errors.New("invalid year")
	}
	return nil
}

// RecurringTransaction is a template the scheduler materializes into real
// transactions. NextExecutionAt is always kept at or ahead of the last
// materialized transaction's date.
type RecurringTransaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	WalletID        uuid.UUID
	CategoryID      uuid.UUID
	Type            TransactionType
	Amount          decimal.Decimal
	Description     string
	Frequency       Frequency
	StartAt         time.Time
	EndAt           *time.Time
	NextExecutionAt time.Time
	LastExecutedAt  *time.Time
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (rt RecurringTransaction) Validate() error {
	if err := ValidateAmount(rt.Amount); err != nil {
		return err
	}
	if rt.Type != Credit && rt.Type != Debit {
		return ErrInvalidTransactionType
	}
	switch rt.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if rt.StartAt.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if rt.EndAt != nil && rt.EndAt.Before(rt.StartAt) {
		return errors.New("end date must not be before start date")
	}
	return nil
}
