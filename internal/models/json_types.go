package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// StringList maps a JSONB array of user IDs to a Go slice.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
}

// Contains reports whether id is a member of the list.
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Other returns the member that is not id. Errors when id is not a member or
// the list does not hold exactly two entries.
func (l StringList) Other(id string) (string, error) {
	if len(l) != 2 {
		return "", errors.New("participant list must hold exactly two users")
	}
	switch id {
	case l[0]:
		return l[1], nil
	case l[1]:
		return l[0], nil
	}
	return "", errors.New("user is not a participant")
}

// CountMap maps a JSONB object of userID -> counter to a Go map.
type CountMap map[string]int

// Value implements driver.Valuer.
func (m CountMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]int{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *CountMap) Scan(src any) error {
	if src == nil {
		*m = CountMap{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for CountMap", src)
	}
}
