package verification

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/verifybot/internal/common"
)

// CaptchaTTL is how long an issued challenge can be answered.
const CaptchaTTL = 5 * time.Minute

const captchaMax = 20

// ErrIncorrectAnswer is returned for a well-formed answer that does not
// match the challenge.
var ErrIncorrectAnswer = errors.New("incorrect captcha answer")

// Challenge asks for A+B.
type Challenge struct {
	ID       string
	MemberID string
	A, B     int
	Expires  time.Time
}

func (c Challenge) Answer() int { return c.A + c.B }

// Captchas stores outstanding challenges, at most one per member.
type Captchas struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]Challenge
	intn  func(n int) int
	newID func() string
}

func NewCaptchas(ttl time.Duration) *Captchas {
	return &Captchas{
		ttl:   ttl,
		items: make(map[string]Challenge),
		intn:  rand.IntN,
		newID: uuid.NewString,
	}
}

// Issue draws a fresh challenge for memberID, replacing any earlier one.
func (c *Captchas) Issue(memberID string, now time.Time) Challenge {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, ch := range c.items {
		if ch.MemberID == memberID || now.After(ch.Expires) {
			delete(c.items, id)
		}
	}

	ch := Challenge{
		ID:       c.newID(),
		MemberID: memberID,
		A:        1 + c.intn(captchaMax),
		B:        1 + c.intn(captchaMax),
		Expires:  now.Add(c.ttl),
	}
	c.items[ch.ID] = ch
	return ch
}

// Check compares answer with challenge id. A matched or mismatched answer
// consumes the challenge. Unknown, expired and foreign challenges yield
// ErrValidation.
func (c *Captchas) Check(id, memberID string, answer int, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: unknown captcha challenge", common.ErrValidation)
	}
	if ch.MemberID != memberID {
		return fmt.Errorf("%w: captcha challenge belongs to another member", common.ErrValidation)
	}
	delete(c.items, id)
	if now.After(ch.Expires) {
		return fmt.Errorf("%w: captcha challenge expired", common.ErrValidation)
	}
	if answer != ch.Answer() {
		return ErrIncorrectAnswer
	}
	return nil
}

func (c *Captchas) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
