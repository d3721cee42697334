package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Media is the metadata of an uploaded asset. The bytes live elsewhere.
type Media struct {
	ID        uint64        `gorm:"primaryKey"`
	FileName  string        `gorm:"size:255;not null"`
	URL       string        `gorm:"size:1024;not null"`
	MimeType  string        `gorm:"size:100"`
	Size      int64         `gorm:"not null;default:0"`
	AltText   string        `gorm:"size:255"`
	Metadata  MediaMetadata `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Media model.
func (Media) TableName() string {
	return "media"
}

// MediaMetadata is free form text stored as a JSON string.
//
// Some clients stored a string as an index keyed object, e.g. {"0":"a","1":"b"}.
// Scan re-assembles such values in index order. Any other JSON that is not a
// string is kept as its raw JSON text, and non JSON content is kept verbatim.
type MediaMetadata string

// Value implements driver.Valuer.
func (m MediaMetadata) Value() (driver.Value, error) {
	out, err := json.Marshal(string(m))
	if err != nil {
		return nil, fmt.Errorf("encode media metadata: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (m *MediaMetadata) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*m = ""

		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedMetadata, src)
	}

	*m = MediaMetadata(ParseMetadata(raw))

	return nil
}

// ParseMetadata decodes a stored metadata value.
func ParseMetadata(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	if !json.Valid(trimmed) {
		return string(raw)
	}

	if joined, ok := joinIndexKeyed(trimmed); ok {
		return joined
	}

	return string(trimmed)
}

// joinIndexKeyed re-assembles {"0":"a","1":"b"} into "ab".
// Keys must be exactly 0..n-1 and every value a string.
func joinIndexKeyed(raw []byte) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
		return "", false
	}

	indexes := make([]int, 0, len(obj))
	parts := make(map[int]string, len(obj))

	for k, v := range obj {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || strconv.Itoa(i) != k {
			return "", false
		}

		var part string
		if err = json.Unmarshal(v, &part); err != nil {
			return "", false
		}

		indexes = append(indexes, i)
		parts[i] = part
	}

	sort.Ints(indexes)

	var b strings.Builder

	for n, i := range indexes {
		if n != i {
			return "", false
		}

		b.WriteString(parts[i])
	}

	return b.String(), true
}
