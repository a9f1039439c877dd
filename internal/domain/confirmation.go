package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// IssuedAtLayout renders the confirmation timestamp in the long human-readable
// form that participates in the verification hash. Changing it would change
// every derived hash, so it is fixed.
const IssuedAtLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Confirmation is one code-confirmation record.
// PK: (tenant, identifier). A sparse GSI on (tenant, hash) serves as the
// secondary unique index for confirmed records.
//
// While Pending, ExpiresAt carries the DynamoDB TTL (Unix seconds) and
// IssuedAt/Hash are unset. Once confirmed the record carries IssuedAt and
// Hash, loses its TTL, and never changes again.
type Confirmation struct {
	Tenant     string     `json:"tenant" dynamodbav:"tenant"`
	Identifier string     `json:"identifier" dynamodbav:"identifier"`
	Code       string     `json:"code" dynamodbav:"code"`
	IssuedAt   *time.Time `json:"issued_at,omitempty" dynamodbav:"issued_at,omitempty"`
	Hash       string     `json:"hash,omitempty" dynamodbav:"hash,omitempty"`
	ExpiresAt  int64      `json:"expires_at,omitempty" dynamodbav:"expires_at,omitempty"` // TTL (Unix seconds), 0 once confirmed
}

// Confirmed reports whether the record has been promoted to its terminal state.
func (c *Confirmation) Confirmed() bool { return c.Hash != "" }

// Expired reports whether a Pending record's TTL has elapsed at the given
// instant. Confirmed records never expire.
func (c *Confirmation) Expired(now time.Time) bool {
	return c.ExpiresAt != 0 && c.ExpiresAt <= now.Unix()
}

// Sign composes the string the verification hash is derived from:
// identifier-code while Pending, identifier-code-issuedAt once confirmed.
func (c *Confirmation) Sign() string {
	if c.IssuedAt != nil {
		return c.Identifier + "-" + c.Code + "-" + c.IssuedAt.Format(IssuedAtLayout)
	}
	return c.Identifier + "-" + c.Code
}

// Confirm stamps the record with the confirmation time, derives the
// verification hash and drops the TTL. Calling it on an already confirmed
// record would break hash immutability; callers must check Confirmed first.
func (c *Confirmation) Confirm(at time.Time) {
	issued := at
	c.IssuedAt = &issued
	sum := sha1.Sum([]byte(c.Sign()))
	c.Hash = hex.EncodeToString(sum[:])
	c.ExpiresAt = 0
}
