package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

func getStructName(myvar interface{}) string {
	t := reflect.TypeOf(myvar)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	}
	return t.Name()
}

// structToMap flattens obj into its json field names, which are also its column names
func structToMap(obj interface{}) (map[string]interface{}, error) {
	if m, ok := obj.(map[string]interface{}); ok {
		return m, nil
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	// UseNumber keeps ids formatting the same as the int64 they came from, e.g. 1234567 and not 1.234567e+06
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	m := map[string]interface{}{}
	err = d.Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("%T is not a struct: %w", obj, err)
	}
	return m, nil
}

// checkPointer makes sure obj is a non-nil pointer to kind
func checkPointer(obj interface{}, kind reflect.Kind) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("obj not pointer; is %T", obj)
	}
	if v.Elem().Kind() != kind {
		return fmt.Errorf("expected pointer to %s but got %T", kind, obj)
	}
	return nil
}
