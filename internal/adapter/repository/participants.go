package repository

import (
	"sort"
	"time"

	"goldmarket/internal/domain/entity"
)

// NormalizeParticipants turns whatever shape a stored participants field has
// into the canonical id list. Older rooms stored a map of values, and some
// only carry participantsKey; both are read here and nowhere else.
func NormalizeParticipants(raw interface{}, participantsKey string) []string {
	var ids []string

	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
	case []string:
		ids = append(ids, v...)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := v[k].(string); ok {
				ids = append(ids, s)
			}
		}
	}

	ids = dedupeNonEmpty(ids)
	if len(ids) == 0 && participantsKey != "" {
		ids = entity.SplitParticipantsKey(participantsKey)
	}
	return ids
}

// IsCanonicalParticipants reports whether the stored value already is a
// plain list of ids.
func IsCanonicalParticipants(raw interface{}) bool {
	switch raw.(type) {
	case []interface{}, []string:
		return true
	}
	return false
}

func decodeUnreadCount(raw interface{}, participants []string) map[string]int {
	counts := make(map[string]int, len(participants))
	if m, ok := raw.(map[string]interface{}); ok {
		for k, v := range m {
			counts[k] = toInt(v)
		}
	}
	for _, p := range participants {
		if _, ok := counts[p]; !ok {
			counts[p] = 0
		}
	}
	return counts
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toTime(v interface{}) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func dedupeNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
