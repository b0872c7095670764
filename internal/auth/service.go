package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"backend-storymap/internal/db"
	"backend-storymap/internal/session"
	"backend-storymap/internal/stream"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	minPasswordLen = 6

	tokenAccess  = "access"
	tokenRefresh = "refresh"

	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrRefreshInvalid     = errors.New("refresh token invalid")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Publisher receives auth-state changes. *stream.Hub satisfies it.
type Publisher interface {
	Publish(ev stream.Event, topics ...string)
}

type Service struct {
	secret []byte
	db     db.Querier
	events Publisher
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier, events Publisher) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
		events: events,
	}
}

func (s *Service) SignUp(ctx context.Context, req Credentials) (User, TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, TokenResponse{}, errors.New("valid email required")
	}
	if len(req.Password) < minPasswordLen {
		return User{}, TokenResponse{}, errors.New("password should be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, user.ID, user.Email, user.PasswordHash)
	if err := row.Scan(&user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, TokenResponse{}, ErrEmailTaken
		}
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID, user.Email)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	s.publish(EventSignedIn, user.ID)
	return user, tokens, nil
}

func (s *Service) SignIn(ctx context.Context, req Credentials) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`, normalizeEmail(req.Email))

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, TokenResponse{}, ErrInvalidCredentials
		}
		return User{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, user.ID, user.Email)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	s.publish(EventSignedIn, user.ID)
	return user, tokens, nil
}

// SignOut revokes the refresh token. Access tokens stay valid until they
// expire.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.parseToken(refreshToken, tokenRefresh)
	if err != nil {
		return ErrRefreshInvalid
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, refreshToken); err != nil {
		return err
	}
	s.publish(EventSignedOut, claims.UserID)
	return nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID, email string) (TokenResponse, error) {
	access, err := s.signToken(userID, email, tokenAccess, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(userID, email, tokenRefresh, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (*session.Session, error) {
	claims, err := s.parseToken(token, tokenRefresh)
	if err != nil {
		return nil, err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return nil, ErrRefreshInvalid
	}
	return &session.Session{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *Service) ValidateAccessToken(token string) (*session.Session, error) {
	claims, err := s.parseToken(token, tokenAccess)
	if err != nil {
		return nil, err
	}
	return &session.Session{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *Service) signToken(userID, email, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token, kind string) (*Claims, error) {
	return parseClaims(token, s.secret, kind)
}

// parseClaims accepts only tokens minted as kind, so a refresh token never
// passes as a bearer token.
func parseClaims(token string, secret []byte, kind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" || claims.Type != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

func (s *Service) publish(kind, userID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(stream.Event{Type: kind, UserID: userID}, stream.AuthTopic(userID))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
