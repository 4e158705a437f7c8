// Package entity holds the records exchanged with the order-management API
// and kept in the dashboard cache.
//
// Money is shopspring/decimal. The API sends and expects money as JSON
// numbers, so importing this package sets decimal.MarshalJSONWithoutQuotes
// for the whole process: every decimal.Decimal in the binary then encodes
// as a bare number, not a quoted string. Decoding accepts both forms.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Identifiable is implemented by every cached record. Ids are assigned by
// the server and never change.
type Identifiable interface {
	EntityID() string
}

// Ref is a reference to another record. On the wire it is either the bare
// id or the populated record; it is always sent back as the bare id.
type Ref[T Identifiable] struct {
	ID    string
	Value *T
}

// RefTo builds a populated reference.
func RefTo[T Identifiable](v T) Ref[T] {
	return Ref[T]{ID: v.EntityID(), Value: &v}
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref[T]{ID: id}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Ref[T]{ID: v.EntityID(), Value: &v}
	return nil
}

// Patch sets the fields of rec named, by json name, in fields. Each value
// replaces its field whole, so a nested object is not merged. Fields not
// named keep their value as is, populated refs included. Unknown names are
// ignored.
func Patch[T any](rec T, fields map[string]any) (T, error) {
	var zero T
	out := rec
	v := reflect.ValueOf(&out).Elem()
	if v.Kind() != reflect.Struct {
		return zero, fmt.Errorf("patch %T: not a struct", rec)
	}
	for name, val := range fields {
		i, ok := fieldByJSONName(v.Type(), name)
		if !ok {
			continue
		}
		b, err := json.Marshal(val)
		if err != nil {
			return zero, fmt.Errorf("patch %s: %w", name, err)
		}
		f := reflect.New(v.Field(i).Type())
		if err := json.Unmarshal(b, f.Interface()); err != nil {
			return zero, fmt.Errorf("patch %s: %w", name, err)
		}
		v.Field(i).Set(f.Elem())
	}
	return out, nil
}

// fieldByJSONName matches the way encoding/json does: exact tag or field
// name first, then case-insensitively.
func fieldByJSONName(t reflect.Type, name string) (int, bool) {
	fold := -1
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if key == "-" {
			continue
		}
		if key == "" {
			key = sf.Name
		}
		if key == name {
			return i, true
		}
		if fold < 0 && strings.EqualFold(key, name) {
			fold = i
		}
	}
	return fold, fold >= 0
}
