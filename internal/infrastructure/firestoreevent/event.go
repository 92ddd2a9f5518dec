package firestoreevent

import (
	"strconv"
	"strings"
	"time"
)

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

// Event is the payload Firestore delivers for a document write.
// OldValue is empty for creates, Value is empty for deletes.
type Event struct {
	OldValue   Document   `json:"oldValue"`
	Value      Document   `json:"value"`
	UpdateMask UpdateMask `json:"updateMask"`
	EventID    string     `json:"eventId,omitempty"`
}

type Document struct {
	CreateTime time.Time        `json:"createTime"`
	Fields     map[string]Value `json:"fields"`
	Name       string           `json:"name"`
	UpdateTime time.Time        `json:"updateTime"`
}

// Value is one typed Firestore field. Exactly one member is set.
type Value struct {
	NullValue      *string     `json:"nullValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	TimestampValue *time.Time  `json:"timestampValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	ReferenceValue *string     `json:"referenceValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
}

type ArrayValue struct {
	Values []Value `json:"values"`
}

type MapValue struct {
	Fields map[string]Value `json:"fields"`
}

func (d Document) Exists() bool {
	return d.Name != ""
}

// ID is the last path segment of the document name.
func (d Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// PathParam returns the id that follows collection in the document path,
// e.g. PathParam("chats") on ".../documents/chats/c1/messages/m1" is "c1".
func (d Document) PathParam(collection string) string {
	_, rel, found := strings.Cut(d.Name, "/documents/")
	if !found {
		rel = d.Name
	}
	segments := strings.Split(rel, "/")
	for i := 0; i+1 < len(segments); i += 2 {
		if segments[i] == collection {
			return segments[i+1]
		}
	}
	return ""
}

// Data converts the typed fields into plain Go values, in the same shapes
// the Firestore client returns from DocumentSnapshot.Data.
func (d Document) Data() map[string]interface{} {
	return fieldsToMap(d.Fields)
}

func fieldsToMap(fields map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v.Interface()
	}
	return out
}

func (v Value) Interface() interface{} {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.TimestampValue != nil:
		return *v.TimestampValue
	case v.ReferenceValue != nil:
		return *v.ReferenceValue
	case v.ArrayValue != nil:
		items := make([]interface{}, 0, len(v.ArrayValue.Values))
		for _, item := range v.ArrayValue.Values {
			items = append(items, item.Interface())
		}
		return items
	case v.MapValue != nil:
		return fieldsToMap(v.MapValue.Fields)
	}
	return nil
}

// FieldChanged reports whether the update mask names path. Events without a
// mask (creates, deletes, older senders) report every field as changed.
func (e Event) FieldChanged(path string) bool {
	if len(e.UpdateMask.FieldPaths) == 0 {
		return true
	}
	for _, p := range e.UpdateMask.FieldPaths {
		if p == path || strings.HasPrefix(p, path+".") {
			return true
		}
	}
	return false
}
