package service

import (
	"context"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/pkg/apierror"
)

// PostService handles editorial posts on the marketplace front page.
type PostService struct {
	posts repository.PostRepository
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

// Create publishes a new post in ACTIVE state.
func (s *PostService) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	if post.Title == "" {
		return nil, apierror.ValidationError("title is required")
	}
	post.Status = model.PostActive
	return s.posts.Create(ctx, post)
}

// GetByID returns one post.
func (s *PostService) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// GetAll returns all posts.
func (s *PostService) GetAll(ctx context.Context) ([]*model.Post, error) {
	return s.posts.GetAll(ctx)
}

// GetByEditor returns the posts authored by one editor.
func (s *PostService) GetByEditor(ctx context.Context, editorID int64) ([]*model.Post, error) {
	return s.posts.GetByEditor(ctx, editorID)
}

// Update edits a post. Editors may only edit their own posts; admins
// may edit any. Locked posts cannot be edited.
func (s *PostService) Update(ctx context.Context, id, editorID int64, isAdmin bool, title, imageURL string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && post.EditorID != editorID {
		return nil, apierror.Forbidden("not the author of this post")
	}
	if post.Status == model.PostLocked {
		return nil, apierror.Conflict("post is locked")
	}
	if title != "" {
		post.Title = title
	}
	if imageURL != "" {
		post.ImageURL = imageURL
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Lock hides a post from the front page. Admin only.
func (s *PostService) Lock(ctx context.Context, id int64) error {
	if _, err := s.posts.GetByID(ctx, id); err != nil {
		return err
	}
	return s.posts.UpdateStatus(ctx, id, model.PostLocked)
}

// Unlock restores a locked post. Admin only.
func (s *PostService) Unlock(ctx context.Context, id int64) error {
	if _, err := s.posts.GetByID(ctx, id); err != nil {
		return err
	}
	return s.posts.UpdateStatus(ctx, id, model.PostActive)
}

// Delete removes a post. Editors may only delete their own posts.
func (s *PostService) Delete(ctx context.Context, id, editorID int64, isAdmin bool) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && post.EditorID != editorID {
		return apierror.Forbidden("not the author of this post")
	}
	return s.posts.Delete(ctx, id)
}
