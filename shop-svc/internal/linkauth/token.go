// Package linkauth derives the short tokens embedded in customer table links.
//
// A token scopes a link to one table for one calendar day. Neither scheme
// keeps server-side state: validation recomputes the token and compares.
package linkauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"
)

// TokenLength is the number of characters kept from the encoded value.
const TokenLength = 12

const dayLayout = "2006-01-02"

type Authenticator interface {
	Generate(fingerprint, tableNo string) string
	Validate(fingerprint, tableNo, token string) bool
}

// shortTableLimit is the longest table number, in bytes, whose token keeps
// the plain base64 tail. The tail always covers at least the last eight raw
// bytes: the day of month, a separator and five table bytes.
const shortTableLimit = 5

// FingerprintAuthenticator encodes the device fingerprint, the current day
// and the table number. The encoding is keyless: it obscures links, it does
// not authorize anything. Short table numbers keep the plain base64 tail.
// Longer ones would push the day out of that tail, so their token is taken
// from a sha256 digest of the same string instead. Either way a token stops
// validating on the next day.
type FingerprintAuthenticator struct {
	Now      func() time.Time
	Location *time.Location
}

func NewFingerprintAuthenticator() *FingerprintAuthenticator {
	return &FingerprintAuthenticator{Now: time.Now, Location: time.Local}
}

func (a *FingerprintAuthenticator) Generate(fingerprint, tableNo string) string {
	raw := fingerprint + "-" + day(a.Now, a.Location) + "-" + tableNo
	if len(tableNo) > shortTableLimit {
		digest := sha256.Sum256([]byte(raw))
		return hex.EncodeToString(digest[:])[:TokenLength]
	}
	encoded := alphanumeric(base64.StdEncoding.EncodeToString([]byte(raw)))
	if len(encoded) > TokenLength {
		encoded = encoded[len(encoded)-TokenLength:]
	}
	return encoded
}

func (a *FingerprintAuthenticator) Validate(fingerprint, tableNo, token string) bool {
	if token == "" {
		return false
	}
	return a.Generate(fingerprint, tableNo) == token
}

// HMACAuthenticator signs the day and table number with a server secret. It
// ignores the fingerprint, so a printed code works on any device that day.
type HMACAuthenticator struct {
	Secret   []byte
	Now      func() time.Time
	Location *time.Location
}

func NewHMACAuthenticator(secret string) *HMACAuthenticator {
	return &HMACAuthenticator{Secret: []byte(secret), Now: time.Now, Location: time.Local}
}

func (a *HMACAuthenticator) Generate(_, tableNo string) string {
	mac := hmac.New(sha256.New, a.Secret)
	mac.Write([]byte(day(a.Now, a.Location) + "|" + tableNo))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))[:TokenLength]
}

func (a *HMACAuthenticator) Validate(fingerprint, tableNo, token string) bool {
	if len(token) != TokenLength {
		return false
	}
	return hmac.Equal([]byte(a.Generate(fingerprint, tableNo)), []byte(token))
}

func day(now func() time.Time, loc *time.Location) string {
	t := now()
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(dayLayout)
}

func alphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
