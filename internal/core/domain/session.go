// Package domain defines the core domain models for zumi.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling.
package domain

import (
	"crypto/rand"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session constraints.
const (
	MaxSessionIDLength    = 64
	MaxOwnerAddressLength = 64
	MaxReferenceLength    = 128

	// DefaultSessionTTL is the lifetime of a privacy operation session.
	DefaultSessionTTL = time.Hour
)

// OperationType is the kind of privacy operation a session tracks.
type OperationType string

const (
	OperationShield   OperationType = "shield"
	OperationUnshield OperationType = "unshield"
	OperationTransfer OperationType = "transfer"
	OperationMixer    OperationType = "mixer"
	OperationBridge   OperationType = "bridge"
)

// OperationTypes lists every supported operation type.
var OperationTypes = []OperationType{
	OperationShield,
	OperationUnshield,
	OperationTransfer,
	OperationMixer,
	OperationBridge,
}

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	for _, known := range OperationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IDPrefix returns the session id prefix for the operation, e.g. "SHIELD_".
func (t OperationType) IDPrefix() string {
	return strings.ToUpper(string(t)) + "_"
}

// CounterName returns the counter that tracks how many operations of this
// type were accepted, e.g. "total_shields".
func (t OperationType) CounterName() string {
	return "total_" + string(t) + "s"
}

// ParseOperationType parses a case-insensitive operation type.
func ParseOperationType(s string) (OperationType, bool) {
	t := OperationType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a session may move from one status to another.
// Writing the current status again is allowed and treated as a no-op.
func CanTransition(from, to SessionStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCompleted || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Session represents one in-flight privacy operation.
type Session struct {
	// ID is the unique identifier, format {TYPE}_{ULID}.
	ID string `json:"sessionId"`

	// OwnerAddress is the acting party's public address (immutable).
	OwnerAddress string `json:"ownerAddress"`

	// Type is the operation kind (immutable).
	Type OperationType `json:"operationType"`

	// Status moves forward only.
	Status SessionStatus `json:"status"`

	// Amount is the operation amount in whole tokens (immutable, positive).
	Amount float64 `json:"amount"`

	// TokenMint is the optional SPL token mint (immutable).
	TokenMint string `json:"tokenMint,omitempty"`

	// ProofHash is a lookup key into the proof store, not a guarantee the proof exists.
	ProofHash string `json:"proofHash,omitempty"`

	// ChainReference is the transaction signature once submitted.
	ChainReference string `json:"chainReference,omitempty"`

	// ShieldedAddress is the derived shielded destination, if any.
	ShieldedAddress string `json:"shieldedAddress,omitempty"`

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is refreshed on every mutation (Unix milliseconds).
	UpdatedAt int64 `json:"updatedAt"`

	// ExpiresAt is the absolute deadline (Unix milliseconds).
	ExpiresAt int64 `json:"expiresAt"`

	// Version is the optimistic lock version number.
	Version uint64 `json:"version"`
}

// NewSession creates a pending session with a generated ID that expires
// ttl after now.
func NewSession(op OperationType, owner string, amount float64, now time.Time, ttl time.Duration) (*Session, error) {
	id, err := GenerateSessionID(op)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:           id,
		OwnerAddress: owner,
		Type:         op,
		Status:       StatusPending,
		Amount:       amount,
		ExpiresAt:    now.Add(ttl).UnixMilli(),
	}, nil
}

// GenerateSessionID generates a new session ID using ULID.
// Format: {TYPE}_{ULID}, e.g. SHIELD_01J9ZQ4W6P3V8D2K5T7XGHMNRB.
func GenerateSessionID(op OperationType) (string, error) {
	if !op.Valid() {
		return "", ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown operation type %q", op))
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return op.IDPrefix() + id.String(), nil
}

// IsValidSessionID checks the {TYPE}_{TOKEN} shape without requiring a ULID body.
func IsValidSessionID(id string) bool {
	if id == "" || len(id) > MaxSessionIDLength {
		return false
	}
	prefix, body, ok := strings.Cut(id, "_")
	if !ok || body == "" {
		return false
	}
	if !OperationType(strings.ToLower(prefix)).Valid() || prefix != strings.ToUpper(prefix) {
		return false
	}
	for _, c := range body {
		if !isIDChar(c) {
			return false
		}
	}
	return true
}

func isIDChar(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// IsExpiredAt reports whether the session is logically dead at now.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// RemainingTTL returns expiresAt - now, floored at zero.
// This is the only source of store TTLs for session records.
func (s *Session) RemainingTTL(now time.Time) time.Duration {
	remaining := s.ExpiresAt - now.UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// ExpiresIn returns the remaining lifetime in seconds, rounded up so a
// session created a few milliseconds ago still reports its full TTL.
func (s *Session) ExpiresIn(now time.Time) int64 {
	return int64((s.RemainingTTL(now) + time.Second - 1) / time.Second)
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Validate validates the session fields against constraints.
// Returns ErrValidation with the collected violations.
func (s *Session) Validate() error {
	var violations []string

	if !IsValidSessionID(s.ID) {
		violations = append(violations, "sessionId is malformed")
	}
	if s.OwnerAddress == "" {
		violations = append(violations, "ownerAddress is required")
	}
	if len(s.OwnerAddress) > MaxOwnerAddressLength {
		violations = append(violations, "ownerAddress exceeds 64 characters")
	}
	if !s.Type.Valid() {
		violations = append(violations, fmt.Sprintf("operationType %q is unknown", s.Type))
	}
	if !s.Status.Valid() {
		violations = append(violations, fmt.Sprintf("status %q is unknown", s.Status))
	}
	if err := ValidateAmount(s.Amount); err != nil {
		violations = append(violations, "amount must be a positive number")
	}
	if s.ExpiresAt <= 0 {
		violations = append(violations, "expiresAt is required")
	}
	if s.UpdatedAt < s.CreatedAt {
		violations = append(violations, "updatedAt precedes createdAt")
	}
	if len(s.ProofHash) > MaxReferenceLength || len(s.ChainReference) > MaxReferenceLength {
		violations = append(violations, "reference exceeds 128 characters")
	}

	if len(violations) > 0 {
		return ErrValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// ValidateAmount rejects zero, negative, NaN and infinite amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidArgument.WithDetails("amount must be greater than 0")
	}
	return nil
}

// SessionChanges is the mutable subset of a session applied by an update.
// Nil fields are left unchanged.
type SessionChanges struct {
	Status          *SessionStatus
	ProofHash       *string
	ChainReference  *string
	ShieldedAddress *string

	// ExpectedVersion, when non-zero, turns the update into a compare-and-set.
	ExpectedVersion uint64
}

// Apply applies the changes to s, enforcing forward-only status.
// On error s is left untouched.
func (c SessionChanges) Apply(s *Session) error {
	if c.Status != nil {
		to := *c.Status
		if !to.Valid() {
			return ErrInvalidArgument.WithDetails(fmt.Sprintf("status %q is unknown", to))
		}
		if !CanTransition(s.Status, to) {
			return ErrStatusRegression.WithDetails(fmt.Sprintf("%s -> %s", s.Status, to))
		}
	}

	if c.Status != nil {
		s.Status = *c.Status
	}
	if c.ProofHash != nil {
		s.ProofHash = *c.ProofHash
	}
	if c.ChainReference != nil {
		s.ChainReference = *c.ChainReference
	}
	if c.ShieldedAddress != nil {
		s.ShieldedAddress = *c.ShieldedAddress
	}
	return nil
}
