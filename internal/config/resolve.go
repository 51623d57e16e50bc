package config

import (
	"fmt"
	"reflect"

	"github.com/catalystcommunity/infrakit/internal/secrets"
)

// ValidateRefs validates that all references in the config have valid syntax
// This does NOT resolve them, just validates the reference format
func ValidateRefs(cfg *Config) error {
	return walkValueWithReplace(reflect.ValueOf(cfg), func(value string) (string, error) {
		if _, err := secrets.ParseRef(value); err != nil {
			return "", err
		}
		return value, nil
	})
}

// ResolveRefs replaces every ${env:NAME} and ${keyring:account} value in
// the config in place
func ResolveRefs(cfg *Config, resolver secrets.Resolver) error {
	if resolver == nil {
		return fmt.Errorf("resolver is required")
	}

	return walkValueWithReplace(reflect.ValueOf(cfg), func(value string) (string, error) {
		ref, err := secrets.ParseRef(value)
		if err != nil {
			return "", err
		}
		if ref == nil {
			return value, nil
		}

		resolved, err := resolver.Resolve(*ref)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", ref.String(), err)
		}

		return resolved, nil
	})
}

// walkValueWithReplace recursively walks and replaces string values
func walkValueWithReplace(v reflect.Value, fn func(string) (string, error)) error {
	if !v.IsValid() {
		return nil
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return walkValueWithReplace(v.Elem(), fn)
	}

	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			newValue, err := fn(v.String())
			if err != nil {
				return err
			}
			v.SetString(newValue)
		}

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := walkValueWithReplace(v.Field(i), fn); err != nil {
				return err
			}
		}

	case reflect.Map:
		// map values aren't addressable, so struct values are copied out,
		// walked and stored back
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key()
			elem := reflect.New(iter.Value().Type()).Elem()
			elem.Set(iter.Value())
			if err := walkValueWithReplace(elem, fn); err != nil {
				return err
			}
			v.SetMapIndex(key, elem)
		}
	}

	return nil
}
