// Copyright (c) 2025 BVK Chaitanya

package reactor

import (
	"maps"
	"reflect"
)

// Sanitize returns a copy of an event payload that is safe to pass to a log
// sink. Trade offers hold a back-reference to their trade manager which is
// not serializable; the copy has it removed.
//
// Nil values return nil and strings are returned as is. Maps of type
// map[string]any and structs (or pointers to structs) are copied shallowly and
// only the "offer" entry (or Offer field) is cloned to drop the manager
// reference. Input value is never modified.
//
// Other cyclic references in the payload are not removed.
func Sanitize(v any) any {
	if v == nil {
		return nil
	}

	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		return sanitizeMap(x)
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Pointer && rv.IsNil():
		return nil
	case rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct:
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		stripOfferManager(cp.Elem())
		return cp.Interface()
	case rv.Kind() == reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		stripOfferManager(cp)
		return cp.Interface()
	}
	return v
}

func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := maps.Clone(m)
	if offer, ok := cp["offer"].(map[string]any); ok {
		if _, ok := offer["_manager"]; ok {
			offer = maps.Clone(offer)
			delete(offer, "_manager")
			cp["offer"] = offer
		}
	}
	return cp
}

// stripOfferManager replaces the Offer field of an addressable struct value
// with a copy that has a zero Manager field.
func stripOfferManager(sv reflect.Value) {
	field := sv.FieldByName("Offer")
	if !field.IsValid() || !field.CanSet() {
		return
	}
	if field.Kind() != reflect.Pointer || field.IsNil() || field.Elem().Kind() != reflect.Struct {
		return
	}
	manager := field.Elem().FieldByName("Manager")
	if !manager.IsValid() || manager.IsZero() {
		return
	}
	offer := reflect.New(field.Elem().Type())
	offer.Elem().Set(field.Elem())
	offer.Elem().FieldByName("Manager").Set(reflect.Zero(manager.Type()))
	field.Set(offer)
}
