// Package mfa implements the sequential multi-factor login state machine:
// password verification, one-time passcode issuance/verification, and the
// biometric confirmation step, with per-stage checks and an audit trail.
package mfa

import (
	"time"

	"github.com/savelyev/securesms/internal/server/models"
)

// Stage is a discrete point in the multi-factor login sequence. Stages only
// advance; the sole way back to StageAnonymous is logout or session expiry.
type Stage int

const (
	StageAnonymous Stage = iota
	StagePasswordVerified
	StageOTPVerified
	StageBiometricVerified
)

func (s Stage) String() string {
	switch s {
	case StageAnonymous:
		return "anonymous"
	case StagePasswordVerified:
		return "password_verified"
	case StageOTPVerified:
		return "otp_verified"
	case StageBiometricVerified:
		return "biometric_verified"
	default:
		return "unknown"
	}
}

// Session is the per-login mutable state owned by the state machine. It lives
// in the server-side session store for the duration of one client session and
// is never persisted. Concurrent mutation of one session must be serialized
// by the caller.
//
// OTPCode is only ever present while Stage == StagePasswordVerified, and a
// session holds at most one live code: issuing a new one overwrites the old.
type Session struct {
	Stage         Stage
	PendingUserID string
	Username      string
	Email         string
	Role          models.Role
	OTPCode       string
	OTPExpiresAt  time.Time
}

// clearOTP removes the one-time code once consumed or on reset.
func (s *Session) clearOTP() {
	s.OTPCode = ""
	s.OTPExpiresAt = time.Time{}
}

// Clear resets the session to its zero, anonymous state.
func (s *Session) Clear() {
	*s = Session{}
}

// Authenticated reports whether the full factor sequence has completed.
func (s *Session) Authenticated() bool {
	return s.Stage == StageBiometricVerified
}
