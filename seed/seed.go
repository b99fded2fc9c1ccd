// Package seed loads fallback collections from a file and writes them into
// a collection store.
//
// A seed file maps storage keys to lists of records, in YAML or JSON:
//
//	branches:
//	  - id: 1
//	    name: North Campus
//	    code: N-1
//	library_resources: []
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/stevemurr/school-console/collection"
)

// Set is the content of a seed file, keyed by storage key.
type Set map[string]collection.Collection[json.RawMessage]

// Load reads a seed file. JSON is accepted as it is a subset of YAML.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes seed file content.
func Parse(data []byte) (Set, error) {
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	set := make(Set, len(doc))
	for key, records := range doc {
		// Round-trip through JSON so ids and field values take their
		// stored form.
		b, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", key, err)
		}
		var c collection.Collection[json.RawMessage]
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("seed %q: %w", key, err)
		}
		if c == nil {
			c = collection.Collection[json.RawMessage]{}
		}
		set[key] = c
	}
	return set, nil
}

// Keys returns the seeded keys in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply writes every seeded collection whose key holds nothing yet, or every
// one when overwrite is set. It returns the keys written.
func Apply(cs *collection.Store[json.RawMessage], set Set, overwrite bool) ([]string, error) {
	var written []string
	for _, key := range set.Keys() {
		if !overwrite {
			if _, ok := cs.Lookup(key); ok {
				continue
			}
		}
		if err := cs.Save(key, set[key]); err != nil {
			return written, err
		}
		written = append(written, key)
	}
	return written, nil
}
