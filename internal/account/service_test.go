package account

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyshare/service-api/internal/account/entity"
	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/token"
	storyentity "github.com/storyshare/service-api/internal/story/entity"
)

type fakeStore struct {
	accounts map[string]*entity.Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: map[string]*entity.Account{}}
}

func (f *fakeStore) Create(_ context.Context, a *entity.Account) error {
	cp := *a
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.Account, error) {
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetByVerifyToken(_ context.Context, tok string) (*entity.Account, error) {
	for _, a := range f.accounts {
		if a.VerifyToken != nil && *a.VerifyToken == tok {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) List(_ context.Context) ([]entity.Account, error) {
	out := make([]entity.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) MarkVerified(_ context.Context, id string) error {
	f.accounts[id].Verified = true
	return nil
}

func (f *fakeStore) SaveSessionToken(_ context.Context, id, tok string) error {
	f.accounts[id].SessionToken = &tok
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.accounts, id)
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendVerificationLink(to, tok, firstName string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type fakeStoryLister struct {
	stories []storyentity.Story
}

func (l *fakeStoryLister) ListByAuthor(_ context.Context, authorID string) ([]storyentity.Story, error) {
	var out []storyentity.Story
	for _, s := range l.stories {
		if s.AuthorID == authorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeMailer) {
	t.Helper()
	st := newFakeStore()
	m := &fakeMailer{}
	tokens := token.NewService(token.Config{Secret: "test-secret"})
	svc := NewService(nil, st, BcryptHasher{Cost: 4}, tokens, m, &fakeStoryLister{})
	return svc, st, m
}

func validInput() RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "s3cret",
		IsAuthor:  true,
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperr.StatusOf(err)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	svc, st, _ := newTestService(t)

	in := validInput()
	in.Password = ""
	_, err := svc.Register(context.Background(), in)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, st.accounts)
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, email := range []string{"nope", "a@b", "a b@c.io", "@c.io"} {
		in := validInput()
		in.Email = email
		_, err := svc.Register(context.Background(), in)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), "email %q", email)
	}
}

func TestRegisterConflictsOnDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validInput())
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestRegisterDeliveryFailureCreatesNoAccount(t *testing.T) {
	svc, st, m := newTestService(t)
	m.err = errors.New("smtp unreachable")

	_, err := svc.Register(context.Background(), validInput())
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Empty(t, st.accounts, "dispatch failure must not persist an account")
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	svc, st, m := newTestService(t)

	msg, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	assert.Contains(t, msg, "check your email")
	assert.Equal(t, []string{"ada@example.com"}, m.sent)

	require.Len(t, st.accounts, 1)
	for _, a := range st.accounts {
		assert.False(t, a.Verified)
		assert.True(t, a.IsAuthor)
		require.NotNil(t, a.VerifyToken)
		require.NotNil(t, a.VerifyTokenExpiresAt)
		assert.True(t, a.VerifyTokenExpiresAt.After(time.Now()))
		assert.NotEqual(t, "s3cret", a.PasswordHash)
	}
}

func storedToken(t *testing.T, st *fakeStore) string {
	t.Helper()
	for _, a := range st.accounts {
		require.NotNil(t, a.VerifyToken)
		return *a.VerifyToken
	}
	t.Fatal("no account in store")
	return ""
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyEmail(context.Background(), "bogus")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestVerifyEmailFlipsVerifiedOnce(t *testing.T) {
	svc, st, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	tok := storedToken(t, st)

	outcome, err := svc.VerifyEmail(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, VerifiedNow, outcome)

	// second confirmation of a still-valid token is an idempotent success
	outcome, err = svc.VerifyEmail(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, AlreadyVerified, outcome)
}

func TestVerifyEmailExpiredUnverifiedDeletesAccount(t *testing.T) {
	svc, st, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	tok := storedToken(t, st)

	past := time.Now().Add(-time.Minute)
	for _, a := range st.accounts {
		a.VerifyTokenExpiresAt = &past
	}

	_, err = svc.VerifyEmail(context.Background(), tok)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Empty(t, st.accounts, "expired unverified registration must be removed")

	// registration is gone, so retrying the same link is now a 404
	_, err = svc.VerifyEmail(context.Background(), tok)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestVerifyEmailExpiredVerifiedIsNotDestructive(t *testing.T) {
	svc, st, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	tok := storedToken(t, st)

	past := time.Now().Add(-time.Minute)
	for _, a := range st.accounts {
		a.Verified = true
		a.VerifyTokenExpiresAt = &past
	}

	_, err = svc.VerifyEmail(context.Background(), tok)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Len(t, st.accounts, 1, "verified account must survive an expired link")
}

func TestLoginValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "", "pw")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Login(context.Background(), "not-an-email", "pw")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestLoginBeforeVerificationConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "s3cret")
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, st, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	_, err = svc.VerifyEmail(context.Background(), storedToken(t, st))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRegisterVerifyLoginRoundTrip(t *testing.T) {
	svc, st, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	outcome, err := svc.VerifyEmail(context.Background(), storedToken(t, st))
	require.NoError(t, err)
	assert.Equal(t, VerifiedNow, outcome)

	res, err := svc.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 2592000, res.ExpiresIn)
	assert.Equal(t, "Ada", res.User.Username)
	assert.True(t, res.User.IsAuthor)

	// the credential asserts the account identity
	id, err := token.NewService(token.Config{Secret: "test-secret"}).VerifySession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.ID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.True(t, id.IsAuthor)

	// the issued token is recorded on the account as a side record
	a, err := st.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, a.SessionToken)
	assert.Equal(t, res.Token, *a.SessionToken)
}

func TestGetWithStories(t *testing.T) {
	st := newFakeStore()
	lister := &fakeStoryLister{stories: []storyentity.Story{
		{ID: "s1", AuthorID: "acc-1", Title: "A"},
		{ID: "s2", AuthorID: "acc-2", Title: "B"},
	}}
	tokens := token.NewService(token.Config{Secret: "test-secret"})
	svc := NewService(nil, st, BcryptHasher{Cost: 4}, tokens, &fakeMailer{}, lister)

	require.NoError(t, st.Create(context.Background(), &entity.Account{ID: "acc-1", Email: "a@b.io"}))

	out, err := svc.GetWithStories(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, out.Stories, 1)
	assert.Equal(t, "s1", out.Stories[0].ID)

	_, err = svc.GetWithStories(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
