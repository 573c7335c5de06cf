package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// FileStore keeps balances in a pretty-printed JSON map so the file stays
// hand-editable. Save writes via a temp file and rename.
type FileStore struct {
	path string
	seed map[string]decimal.Decimal
}

// NewFileStore creates a store at path. If the file does not exist yet it is
// created from seed on the first Load.
func NewFileStore(path string, seed map[string]decimal.Decimal) *FileStore {
	return &FileStore{path: path, seed: seed}
}

func (s *FileStore) Load() (map[string]decimal.Decimal, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			balances := make(map[string]decimal.Decimal, len(s.seed))
			for k, v := range s.seed {
				balances[k] = v
			}
			if err := s.Save(balances); err != nil {
				return nil, err
			}
			return balances, nil
		}
		return nil, err
	}

	var raw map[string]json.Number
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	balances := make(map[string]decimal.Decimal, len(raw))
	for asset, n := range raw {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, fmt.Errorf("parse balance %s=%s: %w", asset, n, err)
		}
		balances[asset] = d
	}
	return balances, nil
}

func (s *FileStore) Save(balances map[string]decimal.Decimal) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	out := make(map[string]json.Number, len(balances))
	for asset, d := range balances {
		out[asset] = json.Number(d.String())
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
