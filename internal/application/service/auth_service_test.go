package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftinvoice/swift-invoice-api/internal/domain/entity"
	"github.com/swiftinvoice/swift-invoice-api/pkg/apperror"
	"github.com/swiftinvoice/swift-invoice-api/pkg/utils"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

type fakeResetTokenRepo struct {
	tokens map[string]*entity.PasswordResetToken
}

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: make(map[string]*entity.PasswordResetToken)}
}

func (r *fakeResetTokenRepo) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeResetTokenRepo) GetByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeResetTokenRepo) MarkAsUsed(ctx context.Context, token string) error {
	if t, ok := r.tokens[token]; ok {
		t.Used = true
	}
	return nil
}

func (r *fakeResetTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	for k, t := range r.tokens {
		if t.Email == email {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeResetTokenRepo) DeleteExpired(ctx context.Context) error {
	for k, t := range r.tokens {
		if t.IsExpired() {
			delete(r.tokens, k)
		}
	}
	return nil
}

type fakeResetMailer struct {
	to    string
	token string
}

func (f *fakeResetMailer) SendPasswordResetEmail(toEmail, token string) error {
	f.to = toEmail
	f.token = token
	return nil
}

func newAuthService() (*AuthService, *fakeUserRepo, *fakeResetTokenRepo, *fakeResetMailer) {
	users := newFakeUserRepo()
	tokens := newFakeResetTokenRepo()
	mailer := &fakeResetMailer{}
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(users, tokens, jwtManager, mailer, nil), users, tokens, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, _ := newAuthService()

	user, err := svc.Register(context.Background(), &RegisterInput{
		Name:     "Sam Field",
		Email:    "sam@test.dev",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "hunter22", user.Password)

	out, err := svc.Login(context.Background(), &LoginInput{Email: "sam@test.dev", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.Equal(t, user.ID, out.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "dup@test.dev", Password: "x12345678"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &RegisterInput{Name: "B", Email: "dup@test.dev", Password: "y12345678"})

	require.Error(t, err)
	assert.Equal(t, 409, apperror.GetAppError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "a@test.dev", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "a@test.dev", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "nobody@test.dev", Password: "whatever"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc, _, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "r@test.dev", Password: "p4ssw0rd!"})
	require.NoError(t, err)
	out, err := svc.Login(context.Background(), &LoginInput{Email: "r@test.dev", Password: "p4ssw0rd!"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), out.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newAuthService()
	user, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "c@test.dev", Password: "old-password"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), &ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "wrong",
		NewPassword:     "new-password",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), &ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "c@test.dev", Password: "new-password"})
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, _, tokens, mailer := newAuthService()
	_, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "f@test.dev", Password: "before-reset"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "f@test.dev"))
	require.Equal(t, "f@test.dev", mailer.to)
	require.NotEmpty(t, mailer.token)

	err = svc.ResetPassword(context.Background(), &ResetPasswordInput{
		Email:       "f@test.dev",
		Token:       mailer.token,
		NewPassword: "after-reset",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginInput{Email: "f@test.dev", Password: "after-reset"})
	assert.NoError(t, err)

	// Token is single-use.
	assert.Empty(t, tokens.tokens)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc, _, _, mailer := newAuthService()

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@test.dev"))
	assert.Empty(t, mailer.to)
}

func TestResetPasswordBadToken(t *testing.T) {
	svc, _, _, _ := newAuthService()

	err := svc.ResetPassword(context.Background(), &ResetPasswordInput{
		Email:       "x@test.dev",
		Token:       "does-not-exist",
		NewPassword: "whatever123",
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _, _ := newAuthService()
	user, err := svc.Register(context.Background(), &RegisterInput{Name: "A", Email: "p@test.dev", Password: "p4ssw0rd!"})
	require.NoError(t, err)

	businessName := "Acme Studio"
	upi := "acme@upi"
	updated, err := svc.UpdateProfile(context.Background(), &UpdateProfileInput{
		UserID:       user.ID,
		Name:         "Alex",
		BusinessName: &businessName,
		PaymentUpi:   &upi,
	})

	require.NoError(t, err)
	assert.Equal(t, "Alex", updated.Name)
	require.NotNil(t, updated.BusinessName)
	assert.Equal(t, "Acme Studio", *updated.BusinessName)
	require.NotNil(t, updated.PaymentUpi)
	assert.Equal(t, "acme@upi", *updated.PaymentUpi)
}
