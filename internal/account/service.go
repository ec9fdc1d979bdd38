package account

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/storyshare/service-api/internal/account/entity"
	"github.com/storyshare/service-api/internal/account/repo"
	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/token"
	storyentity "github.com/storyshare/service-api/internal/story/entity"
	"github.com/storyshare/service-api/pkg/utilities"
)

// PasswordHasher defines the minimal hashing interface (abstract so we can
// swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Store is the persistence surface the lifecycle manager needs.
type Store interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByVerifyToken(ctx context.Context, tok string) (*entity.Account, error)
	List(ctx context.Context) ([]entity.Account, error)
	MarkVerified(ctx context.Context, id string) error
	SaveSessionToken(ctx context.Context, id, tok string) error
	Delete(ctx context.Context, id string) error
}

// TokenIssuer issues signed verification and session credentials.
type TokenIssuer interface {
	IssueVerification(email string, ttl time.Duration) (string, error)
	IssueSession(id, email string, isAuthor bool, ttl time.Duration) (string, error)
}

// Mailer dispatches verification links. Delivery happens before the account
// row is persisted; a delivery failure means no account is created.
type Mailer interface {
	SendVerificationLink(to, tok, firstName string) error
}

// StoryLister lets the account view pull the stories referencing an author.
type StoryLister interface {
	ListByAuthor(ctx context.Context, authorID string) ([]storyentity.Story, error)
}

// Service orchestrates the register -> verify -> login state machine.
type Service struct {
	store   Store
	hasher  PasswordHasher
	tokens  TokenIssuer
	mailer  Mailer
	stories StoryLister
}

func NewService(db *sqlx.DB, st Store, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer, stories StoryLister) *Service {
	if st == nil {
		st = repo.NewAccountRepo(db)
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: 10}
	}
	return &Service{store: st, hasher: hasher, tokens: tokens, mailer: mailer, stories: stories}
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is the registration payload.
type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAuthor  bool   `json:"isAuthor"`
}

// Register creates an unverified account and mails its verification link.
// The mail is dispatched first: if delivery fails no account is persisted,
// leaving at worst a signed token in flight with no backing row.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return "", apperr.Validation("please fill first_name, last_name, email, and password in the body")
	}
	if !emailRegex.MatchString(in.Email) {
		return "", apperr.Validation("invalid email format")
	}

	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return "", apperr.Conflict("user already exists with this email")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", apperr.Dependency("failed to check existing accounts", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", apperr.Dependency("failed to hash password", err)
	}

	tok, err := s.tokens.IssueVerification(in.Email, token.VerificationTTL)
	if err != nil {
		return "", apperr.Dependency("failed to issue verification token", err)
	}

	if err := s.mailer.SendVerificationLink(in.Email, tok, in.FirstName); err != nil {
		return "", apperr.Dependency("error sending verification email", err)
	}

	expires := time.Now().Add(token.VerificationTTL)
	a := &entity.Account{
		ID:                   utilities.NewKSUID(),
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Email:                in.Email,
		PasswordHash:         hash,
		IsAuthor:             in.IsAuthor,
		VerifyToken:          &tok,
		VerifyTokenExpiresAt: &expires,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return "", apperr.Dependency("failed to create account", err)
	}
	return "Registered successfully. Please check your email for the verification link.", nil
}

// VerifyOutcome distinguishes the two success states of VerifyEmail.
type VerifyOutcome int

const (
	// VerifiedNow means the account just transitioned to verified.
	VerifiedNow VerifyOutcome = iota
	// AlreadyVerified means the token was valid but the account had already
	// been verified; the call is an idempotent no-op.
	AlreadyVerified
)

// VerifyEmail confirms a verification token. An expired token on a
// never-verified account deletes the account, so registration must be redone;
// an expired token on a verified account is not destructive.
func (s *Service) VerifyEmail(ctx context.Context, tok string) (VerifyOutcome, error) {
	a, err := s.store.GetByVerifyToken(ctx, tok)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("user not found, invalid token")
		}
		return 0, apperr.Dependency("failed to look up verification token", err)
	}

	if a.VerifyTokenExpiresAt == nil || !a.VerifyTokenExpiresAt.After(time.Now()) {
		if !a.Verified {
			if err := s.store.Delete(ctx, a.ID); err != nil {
				return 0, apperr.Dependency("failed to remove expired registration", err)
			}
			return 0, apperr.Conflict("verification link is expired, please register again")
		}
		return 0, apperr.Conflict("please login to continue")
	}

	if a.Verified {
		return AlreadyVerified, nil
	}

	if err := s.store.MarkVerified(ctx, a.ID); err != nil {
		return 0, apperr.Dependency("failed to mark account verified", err)
	}
	return VerifiedNow, nil
}

// LoginResult carries the issued credential and the account view.
type LoginResult struct {
	Message   string           `json:"message"`
	Token     string           `json:"token"`
	ExpiresIn int              `json:"expiresIn"`
	User      entity.LoginView `json:"user"`
}

// Login authenticates by email and password and issues a 30-day credential.
// The token is stored on the account as a side record; prior tokens stay
// valid.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("please enter both email and password")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperr.Validation("invalid email format")
	}

	a, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Dependency("failed to look up account", err)
	}

	if !a.Verified {
		return nil, apperr.Conflict("email verification is pending, please verify your email")
	}

	if !s.hasher.Verify(a.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid password")
	}

	tok, err := s.tokens.IssueSession(a.ID, a.Email, a.IsAuthor, token.SessionTTL)
	if err != nil {
		return nil, apperr.Dependency("failed to issue credential", err)
	}
	if err := s.store.SaveSessionToken(ctx, a.ID, tok); err != nil {
		return nil, apperr.Dependency("failed to record credential", err)
	}

	return &LoginResult{
		Message:   "Login successful",
		Token:     tok,
		ExpiresIn: int(token.SessionTTL / time.Second),
		User: entity.LoginView{
			ID:        a.ID,
			Email:     a.Email,
			Username:  a.FirstName,
			IsAuthor:  a.IsAuthor,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
	}, nil
}

// List returns every account. No pagination.
func (s *Service) List(ctx context.Context) ([]entity.Account, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Dependency("failed to list accounts", err)
	}
	return accounts, nil
}

// AccountWithStories is an account plus the stories referencing it as author.
type AccountWithStories struct {
	entity.Account
	Stories []storyentity.Story `json:"stories"`
}

// GetWithStories returns one account with its stories populated. An account
// with no stories yields an empty list here, unlike the author listing on the
// story side.
func (s *Service) GetWithStories(ctx context.Context, id string) (*AccountWithStories, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Dependency("failed to look up account", err)
	}
	stories, err := s.stories.ListByAuthor(ctx, a.ID)
	if err != nil {
		return nil, apperr.Dependency("failed to load stories", err)
	}
	if stories == nil {
		stories = []storyentity.Story{}
	}
	return &AccountWithStories{Account: *a, Stories: stories}, nil
}
