package store

import "sync"

// QuotaStore wraps a Store and rejects writes that would push the total size
// of all keys and values over a fixed limit. A limit of zero or less disables
// the check.
type QuotaStore struct {
	Store

	mu    sync.Mutex
	limit int64
}

func NewQuotaStore(inner Store, limit int64) *QuotaStore {
	return &QuotaStore{Store: inner, limit: limit}
}

// Usage returns the number of bytes currently accounted against the quota.
func (q *QuotaStore) Usage() (int64, error) {
	return q.usageExcept("")
}

func (q *QuotaStore) usageExcept(skip string) (int64, error) {
	keys, err := q.Store.Keys()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		if k == skip {
			continue
		}
		v, err := q.Store.GetItem(k)
		if err != nil {
			return 0, err
		}
		total += int64(len(k) + len(v))
	}
	return total, nil
}

func (q *QuotaStore) SetItem(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if q.limit <= 0 {
		return q.Store.SetItem(key, value)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	used, err := q.usageExcept(key)
	if err != nil {
		return err
	}
	if used+int64(len(key)+len(value)) > q.limit {
		return ErrQuotaExceeded
	}
	return q.Store.SetItem(key, value)
}

// Close closes the wrapped store if it holds resources.
func (q *QuotaStore) Close() error {
	if c, ok := q.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
