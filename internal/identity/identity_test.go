package identity

import (
	"context"
	"testing"
	"time"

	"github.com/mac2503/e-tiet2/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, models.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	f.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNoRecord
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNoRecord
}

func (f *fakeUserRepo) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	for _, u := range f.users {
		if u.ResetToken.Hash == hash && u.ResetToken.Validity.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNoRecord
}

func (f *fakeUserRepo) UpdateDetails(ctx context.Context, id primitive.ObjectID, d Details) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.Name, u.Phone, u.RollNo, u.Email, u.Hostel = d.Name, d.Phone, d.RollNo, d.Email, d.Hostel
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) SetVerified(ctx context.Context, id primitive.ObjectID) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.Verified = true
	u.Otp = models.Otp{}
	return nil
}

func (f *fakeUserRepo) SetOtp(ctx context.Context, id primitive.ObjectID, otp models.Otp) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.Otp = otp
	return nil
}

func (f *fakeUserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, token models.ResetToken) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.ResetToken = token
	return nil
}

func (f *fakeUserRepo) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.PasswordHash = hash
	u.ResetToken = models.ResetToken{}
	return nil
}

func (f *fakeUserRepo) SetPicture(ctx context.Context, id primitive.ObjectID, key string) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNoRecord
	}
	u.Picture = key
	return nil
}

func register(t *testing.T, svc *Service) *models.User {
	t.Helper()
	user, _, err := svc.Register(context.Background(), Registration{
		Name:     "Mehak",
		Phone:    "9876543210",
		RollNo:   "101903001",
		Email:    "mehak@thapar.edu",
		Hostel:   "Hostel Q",
		Password: "pa55word",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterHashesPasswordAndIssuesOtp(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	user, code, err := svc.Register(context.Background(), Registration{
		Name: "Mehak", Email: "Mehak@Thapar.edu", Password: "pa55word",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "pa55word", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pa55word")))
	assert.Equal(t, "mehak@thapar.edu", user.Email)
	assert.False(t, user.Verified)
	assert.Len(t, code, 6)
	assert.Equal(t, code, user.Otp.Code)
	assert.True(t, user.Otp.Validity.After(time.Now()))
}

func TestRegisterRequiredFields(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	_, _, err := svc.Register(context.Background(), Registration{Email: "a@b.c", Password: "x"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	register(t, svc)

	_, _, err := svc.Register(context.Background(), Registration{
		Name: "Other", Email: "mehak@thapar.edu", Password: "secret99",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestAuthenticateDoesNotRevealWhichFieldWasWrong(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	register(t, svc)

	_, err := svc.Authenticate(context.Background(), "nobody@thapar.edu", "pa55word")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "mehak@thapar.edu", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	user, err := svc.Authenticate(context.Background(), "mehak@thapar.edu", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "Mehak", user.Name)
}

func TestVerifyOtp(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)
	code := repo.users[user.ID].Otp.Code

	err := svc.VerifyOtp(context.Background(), user.ID, "000000")
	if code == "000000" {
		t.Skip("collided with the issued code")
	}
	assert.ErrorIs(t, err, models.ErrInvalidOtp)

	require.NoError(t, svc.VerifyOtp(context.Background(), user.ID, code))
	assert.True(t, repo.users[user.ID].Verified)
	assert.Empty(t, repo.users[user.ID].Otp.Code)

	// Verifying again is rejected, OTP state is gone.
	err = svc.VerifyOtp(context.Background(), user.ID, code)
	assert.ErrorIs(t, err, models.ErrAlreadyVerified)
}

func TestVerifyOtpExpired(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)
	code := repo.users[user.ID].Otp.Code

	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	err := svc.VerifyOtp(context.Background(), user.ID, code)
	assert.ErrorIs(t, err, models.ErrOtpExpired)
	assert.False(t, repo.users[user.ID].Verified)
}

func TestRegenerateOtpReplacesCode(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)
	first := repo.users[user.ID].Otp.Code

	code, err := svc.RegenerateOtp(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, code, repo.users[user.ID].Otp.Code)

	// The old code no longer verifies (unless it randomly collides).
	if first != code {
		err = svc.VerifyOtp(context.Background(), user.ID, first)
		assert.ErrorIs(t, err, models.ErrInvalidOtp)
	}
}

func TestRegenerateOtpAfterVerification(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)
	require.NoError(t, svc.VerifyOtp(context.Background(), user.ID, repo.users[user.ID].Otp.Code))

	_, err := svc.RegenerateOtp(context.Background(), user.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyVerified)
}

func TestUpdateDetailsRejectsEmailOwnedByAnotherUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	register(t, svc)

	other, _, err := svc.Register(context.Background(), Registration{
		Name: "Gurnoor", Email: "gurnoor@thapar.edu", Password: "pa55word",
	})
	require.NoError(t, err)

	_, err = svc.UpdateDetails(context.Background(), other.ID, Details{
		Name: "Gurnoor", Email: "Mehak@Thapar.edu",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	assert.Equal(t, "gurnoor@thapar.edu", repo.users[other.ID].Email)
}

func TestUpdateDetailsKeepingOwnEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)

	updated, err := svc.UpdateDetails(context.Background(), user.ID, Details{
		Name: "Mehak Arora", Email: "mehak@thapar.edu", Hostel: "Hostel E",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mehak Arora", updated.Name)
	assert.Equal(t, "mehak@thapar.edu", updated.Email)
}

func TestUpdatePasswordChecksCurrent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)

	err := svc.UpdatePassword(context.Background(), user.ID, "wrong", "newpa55word")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	require.NoError(t, svc.UpdatePassword(context.Background(), user.ID, "pa55word", "newpa55word"))

	_, err = svc.Authenticate(context.Background(), "mehak@thapar.edu", "newpa55word")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	user := register(t, svc)

	token, err := svc.ForgotPassword(context.Background(), "mehak@thapar.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	// Only the hash is stored.
	assert.NotEqual(t, token, repo.users[user.ID].ResetToken.Hash)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "re5etpass"))

	_, err = svc.Authenticate(context.Background(), "mehak@thapar.edu", "re5etpass")
	assert.NoError(t, err)

	// Token is single use.
	err = svc.ResetPassword(context.Background(), token, "again1234")
	assert.ErrorIs(t, err, models.ErrInvalidResetToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	register(t, svc)

	token, err := svc.ForgotPassword(context.Background(), "mehak@thapar.edu")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	err = svc.ResetPassword(context.Background(), token, "re5etpass")
	assert.ErrorIs(t, err, models.ErrInvalidResetToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	_, err := svc.ForgotPassword(context.Background(), "nobody@thapar.edu")
	assert.ErrorIs(t, err, models.ErrNoRecord)
}
