// Package identity implements the user-facing account operations:
// registration, credential verification, email OTP verification, profile
// and password updates, and the password-reset flow.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mac2503/e-tiet2/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpLength      = 6
	otpValidity    = 15 * time.Minute
	resetValidity  = 10 * time.Minute
	resetTokenSize = 20
)

// Repository is the persistence contract for users. List-free by design:
// nothing in the system enumerates users.
type Repository interface {
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, d Details) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetVerified(ctx context.Context, id primitive.ObjectID) error
	SetOtp(ctx context.Context, id primitive.ObjectID, otp models.Otp) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, token models.ResetToken) error
	GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error)
	ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetPicture(ctx context.Context, id primitive.ObjectID, key string) error
}

// Details are the self-service profile fields a user may change.
type Details struct {
	Name   string
	Phone  string
	RollNo string
	Email  string
	Hostel string
}

type Registration struct {
	Name     string
	Phone    string
	RollNo   string
	Email    string
	Hostel   string
	Password string
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates an unverified user and issues their first OTP. The raw
// code is returned for delivery; only its record lives on the user.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, string, error) {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", models.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), 12)
	if err != nil {
		return nil, "", err
	}

	code, err := generateOtp()
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:         reg.Name,
		Phone:        reg.Phone,
		RollNo:       reg.RollNo,
		Email:        strings.ToLower(reg.Email),
		Hostel:       reg.Hostel,
		PasswordHash: string(hash),
		Otp:          models.Otp{Code: code, Validity: s.now().Add(otpValidity)},
		CreatedAt:    s.now(),
	}

	user, err = s.repo.Insert(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, code, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password both come back as ErrInvalidCredentials so the response does not
// reveal which accounts exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// VerifyOtp marks the user verified when the submitted code matches the
// stored, unexpired one. Verification clears the OTP record.
func (s *Service) VerifyOtp(ctx context.Context, userID primitive.ObjectID, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return models.ErrAlreadyVerified
	}
	if user.Otp.Code == "" || user.Otp.Code != code {
		return models.ErrInvalidOtp
	}
	if user.Otp.Validity.Before(s.now()) {
		return models.ErrOtpExpired
	}
	return s.repo.SetVerified(ctx, userID)
}

// RegenerateOtp replaces the pending OTP for a still-unverified user and
// returns the new raw code for delivery.
func (s *Service) RegenerateOtp(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Verified {
		return "", models.ErrAlreadyVerified
	}

	code, err := generateOtp()
	if err != nil {
		return "", err
	}
	otp := models.Otp{Code: code, Validity: s.now().Add(otpValidity)}
	if err := s.repo.SetOtp(ctx, userID, otp); err != nil {
		return "", err
	}
	return code, nil
}

// UpdateDetails applies the self-service profile fields. Email uniqueness
// holds on this path too: moving to an address another account owns is
// rejected before the write.
func (s *Service) UpdateDetails(ctx context.Context, userID primitive.ObjectID, d Details) (*models.User, error) {
	d.Email = strings.ToLower(d.Email)

	existing, err := s.repo.GetByEmail(ctx, d.Email)
	if err == nil && existing.ID != userID {
		return nil, models.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, models.ErrNoRecord) {
		return nil, err
	}

	if err := s.repo.UpdateDetails(ctx, userID, d); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdatePassword verifies the current password before storing the new hash.
func (s *Service) UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, updated string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(updated), 12)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// ForgotPassword issues a reset token for the given email. Only the sha256
// of the token is stored; the raw value is returned for delivery.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return "", err
	}

	raw := make([]byte, resetTokenSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	record := models.ResetToken{
		Hash:     hashToken(token),
		Validity: s.now().Add(resetValidity),
	}
	if err := s.repo.SetResetToken(ctx, user.ID, record); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a raw reset token: it must hash to a stored,
// unexpired token record. The token is cleared together with the password
// update so it cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, rawToken, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", models.ErrValidation)
	}

	user, err := s.repo.GetByResetTokenHash(ctx, hashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			return models.ErrInvalidResetToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	return s.repo.ResetPassword(ctx, user.ID, string(hash))
}

func (s *Service) UpdatePicture(ctx context.Context, userID primitive.ObjectID, key string) error {
	return s.repo.SetPicture(ctx, userID, key)
}

func (s *Service) RemovePicture(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.SetPicture(ctx, userID, "")
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateOtp() (string, error) {
	var sb strings.Builder
	for i := 0; i < otpLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
