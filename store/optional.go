package store

// OptionalInteger is a stored integer that may be missing.
type OptionalInteger struct {
	value  int
	exists bool
}

func NewOptionalInteger(value int, exists bool) OptionalInteger {
	return OptionalInteger{value, exists}
}

func NewOptionalIntegerOf(value int) OptionalInteger {
	return OptionalInteger{value: value, exists: true}
}

func (i OptionalInteger) Unpack() (int, bool) {
	return i.value, i.exists
}

// Or returns the value, or def if the integer is missing.
func (i OptionalInteger) Or(def int) int {
	if !i.exists {
		return def
	}
	return i.value
}

func (i OptionalInteger) Empty() bool {
	return !i.exists
}

func (i OptionalInteger) Equals(value int) bool {
	return i.exists && i.value == value
}
