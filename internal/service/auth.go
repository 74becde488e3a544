package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskmail/internal/apperr"
	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// One message for every credential failure so the API never reveals
// whether an email is registered, and one for every token failure so it
// never reveals whether a token was malformed, expired, or orphaned.
const (
	msgBadCredentials = "invalid email or password"
	msgBadToken       = "invalid or expired token"
)

// Auth registers and authenticates users and issues/verifies bearer tokens.
type Auth struct {
	users      UserStore
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuth(users UserStore, secret string, tokenTTL time.Duration, bcryptCost int) *Auth {
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Auth{users: users, secret: []byte(secret), tokenTTL: tokenTTL, bcryptCost: bcryptCost}
}

// Session is the authenticated response body for register and login.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (a *Auth) session(ctx context.Context, u *models.User) (*Session, error) {
	token, err := a.signToken(u.ID)
	if err != nil {
		logger.Error(ctx, "Token signing failed", "error", err)
		return nil, apperr.Internal("could not issue token")
	}
	return &Session{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}, nil
}

// Register creates a user and returns a fresh session. The password is
// hashed exactly once, here.
func (a *Auth) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperr.BadRequest("name, email and password are required")
	}
	existing, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("could not check email")
	}
	if existing != nil {
		return nil, apperr.Conflict("email already in use")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("could not hash password")
	}
	u, err := a.users.Create(ctx, name, email, string(hash))
	if err != nil {
		// The unique index can still trip under a concurrent register.
		return nil, apperr.Conflict("email already in use")
	}
	logger.Info(ctx, "User registered", "user_id", u.ID)
	return a.session(ctx, u)
}

// Login verifies credentials and returns a fresh session. Unknown email
// and wrong password produce the identical error.
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}
	u, err := a.users.FindByEmailWithHash(ctx, email)
	if err != nil {
		return nil, apperr.Internal("could not look up user")
	}
	if u == nil {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	return a.session(ctx, u)
}

// CurrentUser returns the public record for userID, failing 401 when the
// user no longer exists.
func (a *Auth) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("could not look up user")
	}
	if u == nil {
		return nil, apperr.Unauthorized("user no longer exists")
	}
	return u, nil
}

// ListUsers returns every user's name and email.
func (a *Auth) ListUsers(ctx context.Context) ([]models.BasicUser, error) {
	users, err := a.users.ListBasic(ctx)
	if err != nil {
		return nil, apperr.Internal("could not list users")
	}
	return users, nil
}

// VerifyToken validates the bearer token and returns the subject's user
// record for attachment to the request context.
func (a *Auth) VerifyToken(ctx context.Context, tokenStr string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized(msgBadToken)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, apperr.Unauthorized(msgBadToken)
	}
	u, err := a.users.FindByID(ctx, claims.Subject)
	if err != nil || u == nil {
		return nil, apperr.Unauthorized(msgBadToken)
	}
	return u, nil
}

func (a *Auth) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
