// backend/src/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// SQLiteStore implements TransactionStore on a SQLite database. Money fields
// are persisted as TEXT decimal strings to avoid float drift.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ TransactionStore = (*SQLiteStore)(nil)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// nullIfEmpty maps "" to NULL for nullable text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func scanDecimal(ns sql.NullString) decimal.NullDecimal {
	if !ns.Valid || ns.String == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (s *SQLiteStore) DeleteUserData(ctx context.Context, userID int64) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning delete transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Children before parents, so a failure can never leave a
	// categorized_transactions row pointing at a deleted transaction.
	if _, err := dbTx.ExecContext(ctx, `DELETE FROM categorized_transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting categorized transactions for user %d: %w", userID, err)
	}
	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting transactions for user %d: %w", userID, err)
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing delete for user %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) InsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO transactions
		(id, user_id, type, product, started_at, completed_at, description,
		amount, fee, currency, state, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.ID, tx.UserID, tx.Type, nullIfEmpty(tx.Product),
			tx.StartedAt.UTC(), tx.CompletedAt.UTC(), nullIfEmpty(tx.Description),
			decimalArg(tx.Amount), decimalArg(tx.Fee), tx.Currency, tx.State,
			decimalArg(tx.Balance), now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: transaction %s already exists", ErrConflict, tx.ID)
			}
			return fmt.Errorf("error inserting transaction %s: %w", tx.ID, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing transactions: %w", err)
	}
	return nil
}

const transactionColumns = `id, user_id, type, product, started_at, completed_at,
	description, amount, fee, currency, state, balance, created_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*models.Transaction, error) {
	var tx models.Transaction
	var product, description, amount, fee, balance sql.NullString
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Type, &product, &tx.StartedAt, &tx.CompletedAt,
		&description, &amount, &fee, &tx.Currency, &tx.State, &balance, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Product = product.String
	tx.Description = description.String
	tx.Amount = scanDecimal(amount)
	tx.Fee = scanDecimal(fee)
	tx.Balance = scanDecimal(balance)
	return &tx, nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, id string, userID int64) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying transaction %s: %w", id, err)
	}
	return tx, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID int64) ([]models.TransactionWithCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.type, t.product, t.started_at, t.completed_at,
		       t.description, t.amount, t.fee, t.currency, t.state, t.balance, t.created_at,
		       ct.category_id, c.name, ct.notes
		FROM transactions t
		LEFT JOIN categorized_transactions ct ON ct.transaction_id = t.id
		LEFT JOIN categories c ON c.id = ct.category_id
		WHERE t.user_id = ?
		ORDER BY t.completed_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var result []models.TransactionWithCategory
	for rows.Next() {
		var twc models.TransactionWithCategory
		var product, description, amount, fee, balance, categoryName, notes sql.NullString
		var categoryID sql.NullInt64
		err := rows.Scan(
			&twc.ID, &twc.UserID, &twc.Type, &product, &twc.StartedAt, &twc.CompletedAt,
			&description, &amount, &fee, &twc.Currency, &twc.State, &balance, &twc.CreatedAt,
			&categoryID, &categoryName, &notes,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row for user %d: %w", userID, err)
		}
		twc.Product = product.String
		twc.Description = description.String
		twc.Amount = scanDecimal(amount)
		twc.Fee = scanDecimal(fee)
		twc.Balance = scanDecimal(balance)
		if categoryID.Valid {
			id := categoryID.Int64
			twc.CategoryID = &id
			twc.CategoryName = categoryName.String
			twc.Notes = notes.String
		}
		result = append(result, twc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows for user %d: %w", userID, err)
	}
	return result, nil
}

const categoryColumns = `id, user_id, name, type, display_order, created_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (*models.Category, error) {
	var c models.Category
	var userID sql.NullInt64
	if err := row.Scan(&c.ID, &userID, &c.Name, &c.Type, &c.DisplayOrder, &c.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		c.UserID = &id
	}
	return &c, nil
}

func (s *SQLiteStore) GetDefaultCategory(ctx context.Context) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE type = ? AND user_id IS NULL LIMIT 1`,
		models.CategoryTypeUncategorized)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying default category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetCategoryByID(ctx context.Context, id int64, userID int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying category %d: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string, userID int64) (*models.Category, error) {
	// User-owned categories shadow system ones of the same name.
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE name = ? COLLATE NOCASE AND (user_id IS NULL OR user_id = ?)
		 ORDER BY (user_id IS NULL) ASC LIMIT 1`, name, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying category %q: %w", name, err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY display_order ASC, name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying categories for user %d: %w", userID, err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning category row: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	var userID any
	if category.UserID != nil {
		userID = *category.UserID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, display_order, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, category.Name, category.Type, category.DisplayOrder, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q already exists", ErrConflict, category.Name)
		}
		return fmt.Errorf("error inserting category %q: %w", category.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading category id: %w", err)
	}
	category.ID = id
	category.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetCategorizationByTransaction(ctx context.Context, transactionID string, userID int64) (*models.CategorizedTransaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, transaction_id, category_id, user_id, notes, created_at, updated_at
		 FROM categorized_transactions WHERE transaction_id = ? AND user_id = ?`,
		transactionID, userID)
	var ct models.CategorizedTransaction
	var notes sql.NullString
	err := row.Scan(&ct.ID, &ct.TransactionID, &ct.CategoryID, &ct.UserID, &notes, &ct.CreatedAt, &ct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying categorization for transaction %s: %w", transactionID, err)
	}
	ct.Notes = notes.String
	return &ct, nil
}

func (s *SQLiteStore) CreateCategorization(ctx context.Context, ct *models.CategorizedTransaction) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categorized_transactions (transaction_id, category_id, user_id, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ct.TransactionID, ct.CategoryID, ct.UserID, nullIfEmpty(ct.Notes), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s is already categorized", ErrConflict, ct.TransactionID)
		}
		return fmt.Errorf("error inserting categorization for transaction %s: %w", ct.TransactionID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading categorization id: %w", err)
	}
	ct.ID = id
	ct.CreatedAt = now
	ct.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateCategorizationCategory(ctx context.Context, transactionID string, userID, categoryID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categorized_transactions SET category_id = ?, updated_at = ?
		 WHERE transaction_id = ? AND user_id = ?`,
		categoryID, time.Now().UTC(), transactionID, userID)
	if err != nil {
		return fmt.Errorf("error updating categorization for transaction %s: %w", transactionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecategorizeByDescription(ctx context.Context, userID int64, description string, categoryID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categorized_transactions SET category_id = ?, updated_at = ?
		 WHERE user_id = ? AND transaction_id IN (
			SELECT id FROM transactions WHERE user_id = ? AND description = ? COLLATE NOCASE
		 )`,
		categoryID, time.Now().UTC(), userID, userID, description)
	if err != nil {
		return 0, fmt.Errorf("error recategorizing by description %q: %w", description, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return affected, nil
}

func (s *SQLiteStore) UpsertMapping(ctx context.Context, description string, categoryID, userID int64) (int64, error) {
	// Single conditional write keyed on the (description, user_id) unique
	// index. This is the concurrency contract for mappings: last writer wins.
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO description_category_mappings (description, category_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(description, user_id) DO UPDATE SET
			category_id = excluded.category_id,
			updated_at = excluded.updated_at
		 RETURNING id`,
		description, categoryID, userID, now, now).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: mapping for %q", ErrConflict, description)
		}
		return 0, fmt.Errorf("error upserting mapping for %q: %w", description, err)
	}
	return id, nil
}

const mappingColumns = `id, description, category_id, user_id, created_at, updated_at`

func (s *SQLiteStore) GetMappingByDescription(ctx context.Context, description string, userID int64) (*models.DescriptionCategoryMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM description_category_mappings
		 WHERE user_id = ? AND description = ? COLLATE NOCASE`, userID, description)
	var m models.DescriptionCategoryMapping
	err := row.Scan(&m.ID, &m.Description, &m.CategoryID, &m.UserID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying mapping for %q: %w", description, err)
	}
	return &m, nil
}

func (s *SQLiteStore) ListMappings(ctx context.Context, userID int64) ([]models.DescriptionCategoryMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM description_category_mappings
		 WHERE user_id = ? ORDER BY description ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying mappings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var mappings []models.DescriptionCategoryMapping
	for rows.Next() {
		var m models.DescriptionCategoryMapping
		if err := rows.Scan(&m.ID, &m.Description, &m.CategoryID, &m.UserID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning mapping row: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (s *SQLiteStore) DeleteMapping(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM description_category_mappings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting mapping %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecordImport(ctx context.Context, userID int64, filename string, fileSize int64, accepted, rejected int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_history (user_id, filename, file_size, accepted_count, rejected_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, filename, fileSize, accepted, rejected, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record import in history: %w", err)
	}
	return nil
}
