package posts

import (
	"context"
	"encoding/json"
	"log"

	"backend-picfeed/internal/auth"
	"backend-picfeed/internal/db"
	"backend-picfeed/internal/shared/apperr"
	"backend-picfeed/internal/upload"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const EventPostCreated = "post.created"

// Notifier receives new posts for live delivery.
type Notifier interface {
	Broadcast(userID string, payload []byte)
}

type Service struct {
	db       db.Querier
	notifier Notifier
	baseURL  string
}

func NewService(q db.Querier, notifier Notifier, baseURL string) *Service {
	return &Service{db: q, notifier: notifier, baseURL: baseURL}
}

// Feed returns the caller's own posts and the posts of everyone it follows,
// newest first.
func (s *Service) Feed(ctx context.Context, userID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.post_id, p.user_id, u.username, p.image_path, COALESCE(p.caption, ''), p.created_at
		FROM posts p
		JOIN users u ON u.user_id = p.user_id
		WHERE p.user_id = $1
		   OR p.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve posts", err)
	}
	posts, err := ScanPosts(rows, s.baseURL)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve posts", err)
	}
	return posts, nil
}

func (s *Service) Create(ctx context.Context, author auth.Identity, imagePath, caption string) (Post, error) {
	post := Post{
		PostID:    uuid.NewString(),
		UserID:    author.UserID,
		Username:  author.Username,
		ImagePath: imagePath,
		ImageURL:  upload.PublicURL(s.baseURL, imagePath),
		Caption:   caption,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (post_id, user_id, image_path, caption)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, post.PostID, post.UserID, post.ImagePath, nullable(caption))
	if err := row.Scan(&post.CreatedAt); err != nil {
		return Post{}, apperr.Internal("failed to create post", err)
	}

	s.notify(ctx, post)
	return post, nil
}

// notify pushes the post to its author and followers. The post is already
// stored, so failures are only logged.
func (s *Service) notify(ctx context.Context, post Post) {
	if s.notifier == nil {
		return
	}

	payload, err := json.Marshal(Event{Type: EventPostCreated, Post: post})
	if err != nil {
		log.Printf("encode post event: %v", err)
		return
	}

	recipients := []string{post.UserID}
	rows, err := s.db.Query(ctx, `SELECT follower_id FROM follows WHERE following_id = $1`, post.UserID)
	if err != nil {
		log.Printf("load followers for %s: %v", post.UserID, err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var followerID string
			if err := rows.Scan(&followerID); err != nil {
				log.Printf("scan follower: %v", err)
				break
			}
			recipients = append(recipients, followerID)
		}
	}

	for _, userID := range recipients {
		s.notifier.Broadcast(userID, payload)
	}
}

// ScanPosts reads rows of (post_id, user_id, username, image_path, caption,
// created_at). It returns an empty, non-nil slice when there are no rows.
func ScanPosts(rows pgx.Rows, baseURL string) ([]Post, error) {
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.PostID, &p.UserID, &p.Username, &p.ImagePath, &p.Caption, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ImageURL = upload.PublicURL(baseURL, p.ImagePath)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
