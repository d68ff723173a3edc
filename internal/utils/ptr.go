package utils

import "strings"

// Ptr returns a pointer to a copy of v, handy for optional columns and JSON fields
func Ptr[T any](v T) *T {
	return &v
}

// OrZero dereferences v, treating nil as T's zero value
func OrZero[T comparable](v *T) T {
	if v != nil {
		return *v
	}
	var zero T
	return zero
}

// Map applies fn to the value behind v. A nil v stays nil.
func Map[T, U any](v *T, fn func(T) U) *U {
	if v == nil {
		return nil
	}
	return Ptr(fn(*v))
}

// StringOrNil maps blank strings to a NULL column
func StringOrNil(s string) *string {
	if s = strings.TrimSpace(s); s != "" {
		return &s
	}
	return nil
}
