package auth

import (
	"context"
	"strings"
	"time"

	"backend-picfeed/internal/db"
	"backend-picfeed/internal/shared/apperr"

	"github.com/google/uuid"
)

type Service struct {
	db       db.Querier
	tokens   *TokenService
	tokenTTL time.Duration
}

func NewService(q db.Querier, tokens *TokenService, tokenTTL time.Duration) *Service {
	return &Service{
		db:       q,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Register stores a new user. Duplicate usernames or emails are rejected by
// the users table constraints and reported as validation errors.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return User{}, apperr.Validation("username, email and password required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return User{}, apperr.Internal("registration failed", err)
	}

	user := User{
		UserID:       uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (user_id, username, email, password)
		VALUES ($1,$2,$3,$4)
	`, user.UserID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, apperr.Validation("username or email already exists")
		}
		return User{}, apperr.Internal("registration failed", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return LoginResponse{}, apperr.Validation("username and password required")
	}

	var user User
	err := s.db.QueryRow(ctx, `
		SELECT user_id, username, password
		FROM users WHERE username = $1
	`, strings.TrimSpace(req.Username)).Scan(&user.UserID, &user.Username, &user.PasswordHash)
	if err != nil {
		if db.IsNoRows(err) {
			return LoginResponse{}, apperr.Auth("invalid credentials")
		}
		return LoginResponse{}, apperr.Internal("login failed", err)
	}

	if !VerifyPassword(req.Password, user.PasswordHash) {
		return LoginResponse{}, apperr.Auth("invalid credentials")
	}

	id := Identity{UserID: user.UserID, Username: user.Username}
	token, err := s.tokens.Issue(id, s.tokenTTL)
	if err != nil {
		return LoginResponse{}, apperr.Internal("login failed", err)
	}
	return LoginResponse{Message: "login successful", Token: token, User: id}, nil
}

// Validate checks a token supplied outside the Authorization header.
func (s *Service) Validate(raw string) (Identity, error) {
	id, err := s.tokens.Verify(bearerToken(raw))
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindAuth, "invalid token: "+err.Error(), err)
	}
	return id, nil
}
