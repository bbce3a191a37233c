package card

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted form of a card. The base identity columns are
// first-class; everything type-specific lives in Contents and is stored
// as a JSON document, so one store implementation serves all registries.
type Record struct {
	UID       string            `json:"uid"`
	Name      string            `json:"name"`
	Team      string            `json:"team"`
	Version   string            `json:"version"`
	UserEmail string            `json:"user_email,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Contents  map[string]any    `json:"contents,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// baseFields are record keys that belong to the identity columns and
// never appear inside Contents.
var baseFields = map[string]bool{
	"uid":        true,
	"name":       true,
	"team":       true,
	"version":    true,
	"user_email": true,
	"tags":       true,
	"created_at": true,
	"contents":   true,
}

// RecordFromMap builds a Record from a decoded JSON object, splitting
// identity fields from type-specific contents. Unknown keys become
// contents; they are not an error.
func RecordFromMap(m map[string]any) (Record, error) {
	var rec Record

	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	rec.UID = str("uid")
	rec.Name = str("name")
	rec.Team = str("team")
	rec.Version = str("version")
	rec.UserEmail = str("user_email")

	if s := str("created_at"); s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Record{}, fmt.Errorf("created_at %q: %w", s, err)
		}
		rec.CreatedAt = ts
	}

	if tags, ok := m["tags"].(map[string]any); ok {
		rec.Tags = make(map[string]string, len(tags))
		for k, v := range tags {
			s, ok := v.(string)
			if !ok {
				return Record{}, fmt.Errorf("tag %q: value must be a string", k)
			}
			rec.Tags[k] = s
		}
	}

	if contents, ok := m["contents"].(map[string]any); ok {
		rec.Contents = contents
	}
	for k, v := range m {
		if baseFields[k] {
			continue
		}
		if rec.Contents == nil {
			rec.Contents = make(map[string]any)
		}
		rec.Contents[k] = v
	}

	return rec, nil
}

// Map flattens a record back into a single JSON object, merging contents
// alongside the identity fields. The inverse of RecordFromMap.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Contents)+7)
	for k, v := range r.Contents {
		m[k] = v
	}
	m["uid"] = r.UID
	m["name"] = r.Name
	m["team"] = r.Team
	m["version"] = r.Version
	if r.UserEmail != "" {
		m["user_email"] = r.UserEmail
	}
	if len(r.Tags) > 0 {
		m["tags"] = r.Tags
	}
	if !r.CreatedAt.IsZero() {
		m["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

// ToRecord converts a typed card into its persisted form. The concrete
// card struct is marshalled once and the identity fields are lifted out
// of the resulting document.
func ToRecord(c any) (Record, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return Record{}, fmt.Errorf("encode card: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Record{}, fmt.Errorf("decode card document: %w", err)
	}
	return RecordFromMap(m)
}

// FromRecord decodes a record into the typed card pointed to by dst.
func FromRecord(rec Record, dst any) error {
	raw, err := json.Marshal(rec.Map())
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode record into card: %w", err)
	}
	return nil
}

// Filter narrows registry listings. Zero-valued fields are ignored;
// any combination of the rest may be set.
type Filter struct {
	UID     string
	Name    string
	Team    string
	Version string
	Limit   int
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.UID == "" && f.Name == "" && f.Team == "" && f.Version == ""
}
