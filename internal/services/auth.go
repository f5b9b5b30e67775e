package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 70
	minUsernameLen = 3
	maxUsernameLen = 50
)

// Claims is the validated identity carried by an access token. Subject is the
// user id and is the only identity key.
type Claims struct {
	Subject uuid.UUID
	Email   string
	Role    domain.Role
}

type jwtClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// TokenForSubject resolves the user by email and signs their claims.
	TokenForSubject(ctx context.Context, email string) (string, error)
	TokenForClaims(claims Claims) (string, error)
	ParseToken(tokenString string) (*Claims, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := repos.NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, apierr.BadRequest("invalid_email", "a valid email is required")
	}
	if n := utf8.RuneCountInString(in.Password); n < minPasswordLen || n > maxPasswordLen {
		return nil, apierr.BadRequest("invalid_password", "password must be %d-%d characters", minPasswordLen, maxPasswordLen)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	} else if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apierr.BadRequest("invalid_username", "username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Email:    email,
		Username: username,
		Password: string(hash),
		Role:     domain.RoleStudent,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		if _, err := as.userRepo.Create(dbc, []*domain.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = repos.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.BadRequest("invalid_credentials", "email and password are required")
	}
	user, err := as.userRepo.GetByEmail(dbctx.Of(ctx), email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apierr.Unauthorized("invalid_credentials", "incorrect email or password")
	}
	tok, err := as.TokenForClaims(claimsFor(user))
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(as.accessTTL / time.Second),
		User:        user,
	}, nil
}

func (as *authService) TokenForSubject(ctx context.Context, email string) (string, error) {
	user, err := as.userRepo.GetByEmail(dbctx.Of(ctx), email)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", notFound("user_not_found", "user")
	}
	return as.TokenForClaims(claimsFor(user))
}

func (as *authService) TokenForClaims(claims Claims) (string, error) {
	if claims.Subject == uuid.Nil {
		return "", fmt.Errorf("token claims: missing subject")
	}
	if len(as.jwtSecretKey) == 0 {
		return "", fmt.Errorf("token claims: missing signing key")
	}
	now := as.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email: claims.Email,
		Role:  string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	})
	return tok.SignedString(as.jwtSecretKey)
}

func (as *authService) ParseToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid or expired token")
	}
	sub, err := uuid.Parse(jc.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	role, ok := domain.ParseRole(jc.Role)
	if !ok {
		role = domain.RoleStudent
	}
	return &Claims{Subject: sub, Email: jc.Email, Role: role}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	claims, err := as.ParseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      claims.Subject,
		Email:       claims.Email,
		Role:        string(claims.Role),
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func claimsFor(u *domain.User) Claims {
	return Claims{Subject: u.ID, Email: u.Email, Role: u.Role}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n") && strings.Count(email, "@") == 1
}
