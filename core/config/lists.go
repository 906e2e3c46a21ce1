package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList accepts a YAML sequence, a JSON array string or a comma
// separated string.
type StringList []string

// IDList is StringList for Telegram numeric ids.
type IDList []int64

func splitList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("invalid list %q: %w", raw, err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, strings.TrimSpace(s))
				continue
			}
			out = append(out, strings.TrimSpace(string(item)))
		}
		return out, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Decode implements envconfig.Decoder.
func (l *StringList) Decode(value string) error {
	items, err := splitList(value)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

// UnmarshalYAML accepts a sequence or a scalar list.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return l.Decode(node.Value)
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Decode implements envconfig.Decoder.
func (l *IDList) Decode(value string) error {
	items, err := splitList(value)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", item, err)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

// UnmarshalYAML accepts a sequence or a scalar list.
func (l *IDList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return l.Decode(node.Value)
	}
	var ids []int64
	if err := node.Decode(&ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
