package account

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"apexpay/internal/domain"
	"apexpay/internal/repository/memory"
	"apexpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	sent []Message
}

func (o *outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

var linkPattern = regexp.MustCompile(`/api/v1/auth/([a-z-]+)/([A-Za-z0-9_-]+)/([A-Za-z0-9._-]+)`)

// lastLink returns the uid and token of the most recent mailed link
func (o *outbox) lastLink(t *testing.T) (route, uid, token string) {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	m := linkPattern.FindStringSubmatch(o.sent[len(o.sent)-1].Body)
	require.Len(t, m, 4)
	return m[1], m[2], m[3]
}

func newTestService() (*Service, *memory.Store, *outbox) {
	store := memory.New()
	mail := &outbox{}
	svc := NewService(store, mail, nil, Config{
		JWTSecret:  "test-secret",
		SiteDomain: "http://localhost:8080/",
		BcryptCost: bcrypt.MinCost,
	})
	return svc, store, mail
}

func register(t *testing.T, svc *Service) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email: " Ada@Example.com ", Password: "correct horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, store, mail := newTestService()

	user := register(t, svc)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, "correct horse", user.Password)
	route, uid, _ := mail.lastLink(t)
	assert.Equal(t, "confirm-email", route)
	assert.Equal(t, EncodeUID(user.ID), uid)
	assert.Contains(t, mail.sent[0].Body, "http://localhost:8080/api/v1/auth/confirm-email/")

	_, err := store.Wallets().GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "another one"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestService_ActivateAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, mail := newTestService()
	user := register(t, svc)

	_, _, err := svc.Login(ctx, "ada@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrInactiveUser)

	_, uid, token := mail.lastLink(t)
	require.NoError(t, svc.Activate(ctx, uid, token))

	wallet, err := store.Wallets().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, wallet.AvailableAmount.IsZero())

	assert.ErrorIs(t, svc.Activate(ctx, uid, token), domain.ErrAlreadyActive)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	got, tokens, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	claims, err := utils.ParseJWT(tokens.Access, utils.PurposeAccess, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	access, err := svc.Refresh(ctx, tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	_, err = svc.Refresh(ctx, tokens.Access)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestService_ActivateRejectsBadLinks(t *testing.T) {
	ctx := context.Background()
	svc, _, mail := newTestService()
	user := register(t, svc)
	_, uid, token := mail.lastLink(t)

	assert.ErrorIs(t, svc.Activate(ctx, uid, "not-a-token"), domain.ErrInvalidToken)
	assert.ErrorIs(t, svc.Activate(ctx, "!!", token), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Activate(ctx, EncodeUID(user.ID+1), token), domain.ErrNotFound)

	other, err := svc.Register(ctx, RegisterInput{Email: "grace@example.com", Password: "compilers!"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Activate(ctx, EncodeUID(other.ID), token), domain.ErrInvalidToken)
}

func TestService_ResendActivation(t *testing.T) {
	ctx := context.Background()
	svc, _, mail := newTestService()
	register(t, svc)

	require.NoError(t, svc.ResendActivation(ctx, "ada@example.com"))
	assert.Len(t, mail.sent, 2)
	assert.ErrorIs(t, svc.ResendActivation(ctx, "nobody@example.com"), domain.ErrNotFound)

	_, uid, token := mail.lastLink(t)
	require.NoError(t, svc.Activate(ctx, uid, token))
	assert.ErrorIs(t, svc.ResendActivation(ctx, "ada@example.com"), domain.ErrAlreadyActive)
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, _, mail := newTestService()
	register(t, svc)

	assert.ErrorIs(t, svc.RequestPasswordReset(ctx, "ada@example.com"), domain.ErrInactiveUser)

	_, uid, token := mail.lastLink(t)
	require.NoError(t, svc.Activate(ctx, uid, token))

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	route, uid, token := mail.lastLink(t)
	assert.Equal(t, "reset-password-confirm", route)

	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, uid, "bogus", "new password"), domain.ErrInvalidToken)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, uid, token, "new password"))
	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, uid, token, "third password"), domain.ErrInvalidToken)

	_, _, err := svc.Login(ctx, "ada@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ada@example.com", "new password")
	assert.NoError(t, err)
}

func TestService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "admin password"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "admin password"))

	admin, err := store.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	profile, err := svc.Profile(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Wallet)
	assert.True(t, profile.Wallet.AvailableAmount.IsZero())
}

func TestUID(t *testing.T) {
	id, err := DecodeUID(EncodeUID(1234))
	require.NoError(t, err)
	assert.Equal(t, uint(1234), id)

	// Padded form from other encoders is accepted
	id, err = DecodeUID("MQ==")
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	_, err = DecodeUID("eA")
	assert.Error(t, err)
}
