// models/nullint.go
package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
)

// missingMarker is how the source CSV files spell a missing value.
const missingMarker = "NA"

// NullInt is an integer field that may be missing. The zero value is missing.
type NullInt struct {
	Int   int
	Valid bool
}

// Int returns a present NullInt holding v.
func Int(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

// NA is the missing value.
var NA = NullInt{}

func (n NullInt) String() string {
	if !n.Valid {
		return missingMarker
	}
	return strconv.Itoa(n.Int)
}

// UnmarshalCSV accepts "NA", empty cells and non-numeric text as missing.
// Malformed numbers are a normal input shape for these files, not a decode failure.
func (n *NullInt) UnmarshalCSV(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "" || s == missingMarker {
		*n = NA
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*n = NA
		return nil
	}
	*n = Int(v)
	return nil
}

// MarshalCSV writes missing values back as "NA".
func (n NullInt) MarshalCSV() ([]byte, error) {
	return []byte(n.String()), nil
}

// Scan implements sql.Scanner.
func (n *NullInt) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = NA
	case int64:
		*n = Int(int(v))
	case int32:
		*n = Int(int(v))
	case int:
		*n = Int(v)
	case []byte:
		i, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan %q into NullInt: %w", v, err)
		}
		*n = Int(i)
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cannot scan %q into NullInt: %w", v, err)
		}
		*n = Int(i)
	default:
		return fmt.Errorf("cannot scan %T into NullInt", src)
	}
	return nil
}

// Value implements driver.Valuer. Missing values are stored as NULL.
func (n NullInt) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return int64(n.Int), nil
}

// MarshalJSON renders missing values as null.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Int)), nil
}

// UnmarshalJSON accepts null or a number.
func (n *NullInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*n = NA
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", s, err)
	}
	*n = Int(v)
	return nil
}
