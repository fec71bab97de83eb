package repository

import (
	"context"
	"errors"

	"docuscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrInsufficientCredits is returned when a debit would take the balance
// below zero.
var ErrInsufficientCredits = errors.New("insufficient credits")

// UserRepository is the credit-ledger side of the users table. Account
// management lives in the external auth provider; this service only reads
// and debits balances.
type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := squirrel.Select("id", "email", "credit_balance", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.Email, &user.CreditBalance, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DeductCredit debits one credit. The balance guard in the WHERE clause
// keeps the ledger from going negative under concurrent debits.
func (r *UserRepository) DeductCredit(ctx context.Context, userID uuid.UUID) error {
	query := squirrel.Update("users").
		Set("credit_balance", squirrel.Expr("credit_balance - 1")).
		Where(squirrel.Eq{"id": userID}).
		Where(squirrel.GtOrEq{"credit_balance": 1}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientCredits
	}

	return nil
}
