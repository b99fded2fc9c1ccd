package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a Record within its Collection. It is either an integer or a
// string, and keeps that distinction when serialized.
//
// Two IDs are equal when their text forms match, so IntID(7) equals
// StringID("7"). Use Equal rather than ==.
type ID struct {
	str     string
	num     int64
	numeric bool
}

func IntID(n int64) ID { return ID{num: n, numeric: true} }

func StringID(s string) ID { return ID{str: s} }

// ParseID builds an ID from text. Canonical integers such as "42" become
// integer IDs; anything else, "007" included, stays a string.
func ParseID(s string) ID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return IntID(n)
	}
	return StringID(s)
}

// Int64 returns the numeric value for integer IDs.
func (id ID) Int64() (int64, bool) {
	return id.num, id.numeric
}

func (id ID) IsZero() bool {
	return !id.numeric && id.str == ""
}

func (id ID) Equal(other ID) bool {
	return id.String() == other.String()
}

func (id ID) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("collection: id must be a number or string: %s", b)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("collection: id %s is not an integer", n)
	}
	*id = IntID(v)
	return nil
}
