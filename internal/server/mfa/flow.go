package mfa

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/audit"
	"github.com/savelyev/securesms/internal/server/mailer"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/otp"
)

// UserDirectory is the external credential lookup the flow consumes.
// users.Repository satisfies it.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// OTPIssued describes a freshly issued passcode. The code is returned to the
// caller only so it can be handed to the mail collaborator and to tests; it
// must never be written to logs or responses.
type OTPIssued struct {
	Code      string
	ExpiresAt time.Time
}

// Flow drives a Session through the login stages. Each operation validates
// the source stage, mutates the session only on success, and records exactly
// one audit event before returning.
type Flow struct {
	dir  UserDirectory
	otp  *otp.Generator
	mail mailer.Mailer
	sink audit.Sink
	log  logging.Logger

	// test seam
	now func() time.Time
}

func NewFlow(dir UserDirectory, gen *otp.Generator, mail mailer.Mailer, sink audit.Sink, log logging.Logger) *Flow {
	return &Flow{
		dir:  dir,
		otp:  gen,
		mail: mail,
		sink: sink,
		log:  log.With("module", "mfa"),
		now:  time.Now,
	}
}

// VerifyPassword checks the first factor. On success the session advances to
// StagePasswordVerified and the user id is returned. Unknown username and
// wrong password are indistinguishable to the caller: both yield
// common.ErrInvalidCredentials with the session untouched.
func (f *Flow) VerifyPassword(ctx context.Context, sess *Session, username, password string) (string, error) {
	if sess.Stage != StageAnonymous {
		return "", common.ErrInvalidStage
	}

	user, err := f.dir.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			f.sink.Record(ctx, "login_failed", map[string]any{"username": username})
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("user lookup: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		f.sink.Record(ctx, "login_failed", map[string]any{"username": username})
		return "", common.ErrInvalidCredentials
	}

	sess.Stage = StagePasswordVerified
	sess.PendingUserID = user.ID
	sess.Username = user.UserName
	sess.Email = user.Email
	sess.Role = user.Role

	f.sink.Record(ctx, "login_success", map[string]any{"username": user.UserName, "user_id": user.ID})
	return user.ID, nil
}

// IssueOTP generates a passcode for the second factor, stores it on the
// session (replacing any previous one) and dispatches it through the mail
// collaborator. Mail failure is logged but does not invalidate the code.
func (f *Flow) IssueOTP(ctx context.Context, sess *Session) (*OTPIssued, error) {
	if sess.Stage != StagePasswordVerified {
		return nil, common.ErrInvalidStage
	}

	code, expiresAt, err := f.otp.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating otp: %w", err)
	}

	sess.OTPCode = code
	sess.OTPExpiresAt = expiresAt

	body := fmt.Sprintf("Your OTP code is: %s\nIt expires in %s.", code, f.otp.Validity())
	if err := f.mail.Send(ctx, sess.Email, "Your Secure SMS OTP Code", body); err != nil {
		// The code stays valid: losing a mail must not lock the user out of
		// a retry, and the issue event is still auditable.
		f.log.Warn(ctx, "otp mail dispatch failed", "username", sess.Username, "error", err.Error())
	}

	f.sink.Record(ctx, "otp_issued", map[string]any{"username": sess.Username})
	return &OTPIssued{Code: code, ExpiresAt: expiresAt}, nil
}

// VerifyOTP checks the submitted code against the live one. The comparison is
// an exact string match and the code must not be past its expiry instant. On
// success the code is consumed and the session advances to StageOTPVerified.
// On mismatch or expiry the stage is unchanged and the code remains valid
// until it expires on its own; there is no attempt counter.
func (f *Flow) VerifyOTP(ctx context.Context, sess *Session, submitted string) error {
	if sess.Stage != StagePasswordVerified || sess.OTPCode == "" {
		return common.ErrInvalidStage
	}

	match := subtle.ConstantTimeCompare([]byte(submitted), []byte(sess.OTPCode)) == 1
	if !match || f.now().After(sess.OTPExpiresAt) {
		f.sink.Record(ctx, "otp_failed", map[string]any{"username": sess.Username})
		return common.ErrOTPMismatchOrExpired
	}

	sess.clearOTP()
	sess.Stage = StageOTPVerified

	f.sink.Record(ctx, "otp_verified", map[string]any{"username": sess.Username})
	return nil
}

// ConfirmBiometric advances from StageOTPVerified to the fully authenticated
// stage. The check itself is a placeholder confirmation, kept as a named
// stage of the sequence rather than a real biometric match.
func (f *Flow) ConfirmBiometric(ctx context.Context, sess *Session) error {
	if sess.Stage != StageOTPVerified {
		return common.ErrInvalidStage
	}

	sess.Stage = StageBiometricVerified

	f.sink.Record(ctx, "biometric_confirmed", map[string]any{"username": sess.Username})
	return nil
}

// Logout clears the whole session back to the anonymous stage.
func (f *Flow) Logout(ctx context.Context, sess *Session) {
	username := sess.Username
	sess.Clear()
	f.sink.Record(ctx, "logout", map[string]any{"username": username})
}
