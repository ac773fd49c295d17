package domain

// ChangeKind is the kind of filesystem change observed for a source file.
type ChangeKind uint8

const (
	// ChangeAdd indicates a file was created.
	ChangeAdd ChangeKind = iota
	// ChangeModify indicates a file was written.
	ChangeModify
	// ChangeUnlink indicates a file was removed or renamed away.
	ChangeUnlink
)

// String returns the name used in logs.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeModify:
		return "change"
	case ChangeUnlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// ChangeEvent is a notification that a source file of a category changed.
type ChangeEvent struct {
	Category Category
	Path     string
	Kind     ChangeKind
}
