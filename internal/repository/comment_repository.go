package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// The author display name is derived from the owning user at read time.
const commentSelect = `
	SELECT c.id, c.content, c.product_id, c.user_id,
	       u.first_name || ' ' || u.last_name AS author,
	       c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

func scanComment(row interface{ Scan(...any) error }) (*domain.Comment, error) {
	comment := &domain.Comment{}
	err := row.Scan(
		&comment.ID,
		&comment.Content,
		&comment.ProductID,
		&comment.UserID,
		&comment.Author,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Create inserts a new comment using parameterized queries
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (id, content, product_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.Content,
		comment.ProductID,
		comment.UserID,
		comment.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// FindByID retrieves a comment with its derived author name
func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := commentSelect + ` WHERE c.id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment by ID: %w", err)
	}

	return comment, nil
}

// ListByProduct retrieves a product's comments, newest first
func (r *commentRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	offset := (page - 1) * pageSize
	query := commentSelect + ` WHERE c.product_id = $1 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, productID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, total, nil
}

// Update rewrites a comment's content and owner reference
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	query := `UPDATE comments SET content = $2, user_id = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, comment.ID, comment.Content, comment.UserID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// Delete removes a comment
func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM comments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
