package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/filex"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

const filePerm = 0o640

// JSONFileRepository keeps the ledger as one JSON array on disk. The array
// is cached in memory and the whole file is replaced on every insert.
type JSONFileRepository struct {
	mu      sync.Mutex
	path    string
	records []Record
	logger  logging.Logger
}

// OpenJSONFile creates folder if needed and loads path, creating it as an
// empty array when absent. A file that cannot be decoded is moved aside to
// path.corrupt-<unix> and the ledger starts empty.
func OpenJSONFile(ctx context.Context, folder, path string, logger logging.Logger) (*JSONFileRepository, error) {
	for _, dir := range []string{folder, filepath.Dir(path)} {
		if err := filex.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	r := &JSONFileRepository{path: path, logger: logger.With("ledger", path)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := r.persist(nil); err != nil {
			return nil, err
		}
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		r.logger.Error(ctx, "could not decode ledger, starting empty", "error", err, "moved_to", aside)
		if err := os.Rename(path, aside); err != nil {
			return nil, fmt.Errorf("move corrupt ledger aside: %w", err)
		}
		if err := r.persist(nil); err != nil {
			return nil, err
		}
		return r, nil
	}

	r.records = records
	r.logger.Info(ctx, "ledger loaded", "records", len(records))
	return r, nil
}

func (r *JSONFileRepository) ListAll(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *JSONFileRepository) Find(ctx context.Context, memberID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(memberID); i >= 0 {
		rec := r.records[i]
		return &rec, nil
	}
	return nil, common.ErrNotFound
}

func (r *JSONFileRepository) AppendIfAbsent(ctx context.Context, rec Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(rec.MemberID) >= 0 {
		return false, nil
	}

	next := append(r.records[:len(r.records):len(r.records)], rec)
	if err := r.persist(next); err != nil {
		return false, err
	}
	r.records = next
	return true, nil
}

func (r *JSONFileRepository) Close() error { return nil }

func (r *JSONFileRepository) indexOf(memberID string) int {
	for i := range r.records {
		if r.records[i].MemberID == memberID {
			return i
		}
	}
	return -1
}

func (r *JSONFileRepository) persist(records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, filePerm); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
