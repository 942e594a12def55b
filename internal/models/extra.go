package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extra holds the members of a stored record that its Go type does not
// declare. They are kept on decode and written back unchanged on encode, so
// records written by other clients survive a rewrite of their collection.
type Extra map[string]json.RawMessage

// merged returns e overlaid with over; nil when both are empty
func (e Extra) merged(over Extra) Extra {
	if len(e) == 0 && len(over) == 0 {
		return nil
	}
	out := make(Extra, len(e)+len(over))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

var jsonNamesCache sync.Map // reflect.Type -> map[string]bool

// jsonNames lists the member names t's exported fields encode to
func jsonNames(t reflect.Type) map[string]bool {
	if cached, ok := jsonNamesCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names[name] = true
	}
	jsonNamesCache.Store(t, names)
	return names
}

// decodeRecord fills plain (a pointer to a struct without custom JSON
// methods) from data and returns the members plain does not declare
func decodeRecord(data []byte, plain any) (Extra, error) {
	if err := json.Unmarshal(data, plain); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}

	known := jsonNames(reflect.TypeOf(plain).Elem())
	var extra Extra
	for k, v := range members {
		// json matches field names case-insensitively
		if known[k] || knownFold(known, k) {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = v
	}
	return extra, nil
}

func knownFold(known map[string]bool, k string) bool {
	for name := range known {
		if strings.EqualFold(name, k) {
			return true
		}
	}
	return false
}

// encodeRecord encodes plain and appends extra after the declared members,
// in key order
func encodeRecord(plain any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(plain)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	empty := bytes.Equal(bytes.TrimSpace(data), []byte("{}"))
	for _, k := range keys {
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
