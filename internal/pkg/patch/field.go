// Package patch models optional fields of partial-update requests.
//
// A Field distinguishes "absent" (leave the stored value alone) from
// "present", including present-but-empty values:
//
//	var bio patch.Field[string]      // absent
//	bio = patch.Set("")              // present, clears the stored value
package patch

// Field is an optional value. The zero Field is absent.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a present Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// FromPtr returns a present Field when p is non-nil and an absent one otherwise.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Field[T]{}
	}
	return Set(*p)
}

// Get returns the value and whether it is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field is present.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Map returns a Field holding fn(value) when f is present.
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	if !f.set {
		return Field[U]{}
	}
	return Set(fn(f.value))
}

// Apply writes the value into dst when present and reports whether it did.
func (f Field[T]) Apply(dst *T) bool {
	if !f.set {
		return false
	}
	*dst = f.value
	return true
}
