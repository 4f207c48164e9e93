// Package utils provides small generic helpers shared across packages.
package utils

// Ptr returns a pointer to the given value. Useful for building partial
// update structs whose fields are pointers.
func Ptr[T any](v T) *T {
	return &v
}
