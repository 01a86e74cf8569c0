package verification

import (
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
)

// Snapshot is a copy of the verification counters.
type Snapshot struct {
	TotalVerifications  int            `json:"total_verifications"`
	DailyStats          map[string]int `json:"daily_stats"`
	VerificationMethods map[string]int `json:"verification_methods"`
}

// Analytics counts new ledger entries. Counters reset on restart.
type Analytics struct {
	mu    sync.Mutex
	total int
	daily map[string]int
	byM   map[string]int
}

func NewAnalytics() *Analytics {
	return &Analytics{daily: make(map[string]int), byM: make(map[string]int)}
}

func (a *Analytics) Record(method ledger.Method, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.daily[at.UTC().Format(time.DateOnly)]++
	a.byM[string(method)]++
}

func (a *Analytics) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		TotalVerifications:  a.total,
		DailyStats:          maps.Clone(a.daily),
		VerificationMethods: maps.Clone(a.byM),
	}
}
