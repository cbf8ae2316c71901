package users

import (
	"context"

	"backend-picfeed/internal/db"
	"backend-picfeed/internal/posts"
	"backend-picfeed/internal/shared/apperr"
	"backend-picfeed/internal/upload"
)

type Profile struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type Service struct {
	db      db.Querier
	baseURL string
}

func NewService(q db.Querier, baseURL string) *Service {
	return &Service{db: q, baseURL: baseURL}
}

// Follow adds the edge followerID -> username. Duplicate edges are rejected
// by the follows primary key.
func (s *Service) Follow(ctx context.Context, followerID, username string) error {
	followingID, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}
	if followingID == followerID {
		return apperr.InvalidOperation("cannot follow yourself")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1,$2)
	`, followerID, followingID)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return apperr.Conflict("already following this user")
	case db.IsCheckViolation(err):
		return apperr.InvalidOperation("cannot follow yourself")
	default:
		return apperr.Internal("failed to follow user", err)
	}
}

func (s *Service) Unfollow(ctx context.Context, followerID, username string) error {
	followingID, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM follows
		WHERE follower_id = $1 AND following_id = $2
	`, followerID, followingID)
	if err != nil {
		return apperr.Internal("failed to unfollow user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("not following this user")
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, username string) (Profile, error) {
	var p Profile
	var picture string
	err := s.db.QueryRow(ctx, `
		SELECT user_id, username, COALESCE(profile_picture, '')
		FROM users WHERE username = $1
	`, username).Scan(&p.UserID, &p.Username, &picture)
	if err != nil {
		if db.IsNoRows(err) {
			return Profile{}, apperr.NotFound("user not found")
		}
		return Profile{}, apperr.Internal("failed to get user profile", err)
	}
	p.ProfilePicture = upload.PublicURL(s.baseURL, picture)
	return p, nil
}

// UserPosts lists the posts of username, newest first.
func (s *Service) UserPosts(ctx context.Context, username string) ([]posts.Post, error) {
	userID, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.post_id, p.user_id, u.username, p.image_path, COALESCE(p.caption, ''), p.created_at
		FROM posts p
		JOIN users u ON u.user_id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Internal("failed to get user posts", err)
	}
	list, err := posts.ScanPosts(rows, s.baseURL)
	if err != nil {
		return nil, apperr.Internal("failed to get user posts", err)
	}
	return list, nil
}

func (s *Service) SetProfilePicture(ctx context.Context, userID, filename string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET profile_picture = $1
		WHERE user_id = $2
	`, filename, userID)
	if err != nil {
		return apperr.Internal("failed to upload profile picture", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, username string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM users WHERE username = $1`, username).Scan(&userID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", apperr.NotFound("user not found")
		}
		return "", apperr.Internal("failed to look up user", err)
	}
	return userID, nil
}
