package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/pkg/apierror"
)

// MySQLPostRepository implements PostRepository using MySQL.
type MySQLPostRepository struct {
	db *sql.DB
}

// NewMySQLPostRepository creates a new MySQL post repository.
func NewMySQLPostRepository(db *sql.DB) (*MySQLPostRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS posts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		image_url TEXT NOT NULL,
		editor_id BIGINT NOT NULL,
		editor_realname VARCHAR(191) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_posts_editor (editor_id)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create posts table: %w", err)
	}

	log.Printf("[MySQLPostRepository] Initialized")
	return &MySQLPostRepository{db: db}, nil
}

const postColumns = `id, title, image_url, editor_id, editor_realname, status, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.ImageURL, &p.EditorID, &p.EditorRealname, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]*model.Post, error) {
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Create inserts a new ACTIVE post.
func (r *MySQLPostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	query := `INSERT INTO posts (title, image_url, editor_id, editor_realname, status) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		post.Title, post.ImageURL, post.EditorID, post.EditorRealname, model.PostActive)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID finds a post by id.
func (r *MySQLPostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// GetAll lists all posts, newest first.
func (r *MySQLPostRepository) GetAll(ctx context.Context) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	return collectPosts(rows)
}

// GetByEditor lists posts authored by the editor.
func (r *MySQLPostRepository) GetByEditor(ctx context.Context, editorID int64) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE editor_id = ? ORDER BY created_at DESC`, editorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	return collectPosts(rows)
}

// Update persists title and image edits.
func (r *MySQLPostRepository) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, image_url = ? WHERE id = ?`, post.Title, post.ImageURL, post.ID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("post not found")
	}
	return nil
}

// UpdateStatus locks or unlocks a post.
func (r *MySQLPostRepository) UpdateStatus(ctx context.Context, id int64, status model.PostStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE posts SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("post not found")
	}
	return nil
}

// Delete removes a post.
func (r *MySQLPostRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apierror.NotFound("post not found")
	}
	return nil
}

// Ensure MySQLPostRepository implements PostRepository
var _ PostRepository = (*MySQLPostRepository)(nil)
