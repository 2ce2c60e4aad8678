// Package purchase implements the atomic purchase transaction: debit a
// user balance and record the sale in a single Postgres transaction.
package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/skinvault/skinport-api/pkg/logging"
)

// Prometheus metrics for purchase transactions.
var (
	purchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Total purchase attempts by outcome",
	}, []string{"outcome"})

	purchaseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_duration_seconds",
		Help:    "Purchase transaction duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Receipt is the result of a successful purchase.
type Receipt struct {
	UserID  int64
	Balance decimal.Decimal
}

// Engine executes purchases against the relational store.
//
// Each purchase runs as one transaction: the user row is locked with
// SELECT ... FOR UPDATE so concurrent purchases by the same user
// serialize; the product row is read without a lock. Any failure rolls
// the transaction back.
type Engine struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewEngine creates a purchase engine on top of an open database handle.
func NewEngine(db *sql.DB) *Engine {
	if db == nil {
		panic("db handle cannot be nil")
	}
	return &Engine{
		db:     db,
		logger: logging.NewLogger("purchase-engine"),
	}
}

// Purchase debits the product price from the user's balance and records
// the sale. On failure it returns a *Error carrying one of the closed
// failure kinds; the transaction is rolled back and no state changes.
// Failures are never retried here; the client must resubmit.
func (e *Engine) Purchase(ctx context.Context, userID, productID int64) (Receipt, error) {
	if userID <= 0 || productID <= 0 {
		return Receipt{}, failure(KindInvalidData, "user and product ids must be positive")
	}

	start := time.Now()
	defer func() {
		purchaseDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		purchasesTotal.WithLabelValues("error").Inc()
		return Receipt{}, fmt.Errorf("begin transaction: %w", err)
	}

	receipt, err := e.purchaseTx(ctx, tx, userID, productID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Error().Err(rbErr).Msg("Rollback failed")
		}
		if kind := KindOf(err); kind != "" {
			purchasesTotal.WithLabelValues(string(kind)).Inc()
		} else {
			purchasesTotal.WithLabelValues("error").Inc()
		}
		return Receipt{}, err
	}

	if err := tx.Commit(); err != nil {
		purchasesTotal.WithLabelValues("error").Inc()
		return Receipt{}, fmt.Errorf("commit transaction: %w", err)
	}

	purchasesTotal.WithLabelValues("success").Inc()
	e.logger.Info().
		Int64("user_id", userID).
		Int64("product_id", productID).
		Str("balance", receipt.Balance.String()).
		Msg("Purchase completed")

	return receipt, nil
}

func (e *Engine) purchaseTx(ctx context.Context, tx *sql.Tx, userID, productID int64) (Receipt, error) {
	// Lock the user row for the duration of the transaction. This
	// serializes concurrent purchases by the same user and prevents
	// lost-update races on the balance.
	var balanceStr string
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, failure(KindUserNotFound, "user not found")
		}
		return Receipt{}, fmt.Errorf("select user: %w", err)
	}

	// The product is read-only here; no lock is taken on its row.
	var priceStr string
	err = tx.QueryRowContext(ctx,
		`SELECT price FROM products WHERE id = $1`, productID).Scan(&priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Receipt{}, failure(KindProductNotFound, "product not found")
		}
		return Receipt{}, fmt.Errorf("select product: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return Receipt{}, failureWrap(KindInvalidData, "unparseable user balance", err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Receipt{}, failureWrap(KindInvalidData, "unparseable product price", err)
	}

	if price.Sign() <= 0 {
		return Receipt{}, failure(KindInvalidPrice, "product price must be positive")
	}
	if balance.Sign() < 0 {
		return Receipt{}, failure(KindInvalidData, "user balance is negative")
	}
	if balance.LessThan(price) {
		return Receipt{}, failure(KindInsufficientFunds, "insufficient balance")
	}

	var newBalanceStr string
	err = tx.QueryRowContext(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 RETURNING balance`,
		price.String(), userID).Scan(&newBalanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The locked row vanished under us; abort rather than guess.
			return Receipt{}, failure(KindInvalidData, "user row disappeared during update")
		}
		return Receipt{}, fmt.Errorf("update balance: %w", err)
	}

	newBalance, err := decimal.NewFromString(newBalanceStr)
	if err != nil {
		return Receipt{}, failureWrap(KindInvalidData, "unparseable updated balance", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO purchases (user_id, product_id, price_paid) VALUES ($1, $2, $3)`,
		userID, productID, price.String())
	if err != nil {
		return Receipt{}, fmt.Errorf("insert purchase: %w", err)
	}

	return Receipt{UserID: userID, Balance: newBalance}, nil
}
