// Package ledger persists the members who completed verification. A member
// appears at most once; records are never updated or removed.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Method is how a member completed verification.
type Method string

const (
	MethodButton   Method = "button"
	MethodReaction Method = "reaction"
	MethodCaptcha  Method = "captcha"
)

// Title returns the method with an upper-case first letter, as shown in
// audit log entries.
func (m Method) Title() string {
	if m == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// Record is one verified member.
type Record struct {
	MemberID    string    `json:"id"`
	DisplayName string    `json:"name"`
	VerifiedAt  time.Time `json:"verified_at"`
	Method      Method    `json:"method"`
}

// legacyTimeLayout is how older ledger files spell verified_at.
const legacyTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// UnmarshalJSON accepts the member ID as a JSON string or number and
// verified_at as RFC 3339 or the legacy space-separated form.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		DisplayName string          `json:"name"`
		VerifiedAt  string          `json:"verified_at"`
		Method      Method          `json:"method"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	id, err := parseMemberID(raw.ID)
	if err != nil {
		return err
	}
	at, err := parseVerifiedAt(raw.VerifiedAt)
	if err != nil {
		return err
	}

	*r = Record{MemberID: id, DisplayName: raw.DisplayName, VerifiedAt: at, Method: raw.Method}
	return nil
}

func parseMemberID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("ledger record without id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("invalid member id %s", string(raw))
		}
	}
	return string(raw), nil
}

func parseVerifiedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, legacyTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid verified_at %q", s)
}

// encodeRecords renders records the way the ledger file stores them:
// two-space indent, UTF-8 and HTML characters written literally.
func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
