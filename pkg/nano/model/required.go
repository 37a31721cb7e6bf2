package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// MissingAttributeError reports a required attribute member that is absent
// or null.
type MissingAttributeError struct {
	Member string
	Null   bool
}

func (e *MissingAttributeError) Error() string {
	if e.Null {
		return fmt.Sprintf("required member %q is null", e.Member)
	}
	return fmt.Sprintf("missing required member %q", e.Member)
}

// memberSet is the shape of an attribute record as seen on the wire. Value
// fields are required; pointer fields are optional. An embedded pointer to a
// struct is an optional group that must be complete once any of its
// required members is sent.
type memberSet struct {
	required []string
	groups   [][]string
}

var memberSets sync.Map // reflect.Type -> *memberSet

func membersOf(t reflect.Type) *memberSet {
	if cached, ok := memberSets.Load(t); ok {
		return cached.(*memberSet)
	}
	set := &memberSet{}
	collectMembers(t, set)
	cached, _ := memberSets.LoadOrStore(t, set)
	return cached.(*memberSet)
}

func collectMembers(t reflect.Type, set *memberSet) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			switch {
			case f.Type.Kind() == reflect.Struct:
				collectMembers(f.Type, set)
			case f.Type.Kind() == reflect.Ptr && f.Type.Elem().Kind() == reflect.Struct:
				group := &memberSet{}
				collectMembers(f.Type.Elem(), group)
				set.groups = append(set.groups, group.required)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if f.Type.Kind() != reflect.Ptr {
			set.required = append(set.required, name)
		}
	}
}

// checkRequired verifies that raw carries every required member of attrs
// with a non-null value. Records with their own decoder are not checked.
func checkRequired(raw []byte, attrs Attributes) error {
	if _, custom := attrs.(json.Unmarshaler); custom {
		return nil
	}
	t := reflect.TypeOf(attrs)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return err
	}

	check := func(names []string) error {
		for _, name := range names {
			v, ok := members[name]
			if !ok {
				return &MissingAttributeError{Member: name}
			}
			if isNullJSON(v) {
				return &MissingAttributeError{Member: name, Null: true}
			}
		}
		return nil
	}

	set := membersOf(t)
	if err := check(set.required); err != nil {
		return err
	}
	for _, group := range set.groups {
		if !anyPresent(members, group) {
			continue
		}
		if err := check(group); err != nil {
			return err
		}
	}
	return nil
}

func anyPresent(members map[string]json.RawMessage, names []string) bool {
	for _, name := range names {
		if v, ok := members[name]; ok && !isNullJSON(v) {
			return true
		}
	}
	return false
}
