package patch

import (
	"fmt"
	"strings"
)

// checkPointer rejects pointers that are not RFC 6901 syntax: a non-empty
// pointer starts with / and ~ is only followed by 0 or 1.
func checkPointer(ptr string) error {
	if ptr == "" {
		return nil
	}
	if ptr[0] != '/' {
		return fmt.Errorf("%w: %q does not start with /", ErrInvalidPath, ptr)
	}
	for i := 0; i < len(ptr); i++ {
		if ptr[i] == '~' && (i+1 == len(ptr) || (ptr[i+1] != '0' && ptr[i+1] != '1')) {
			return fmt.Errorf("%w: %q has a bad ~ escape", ErrInvalidPath, ptr)
		}
	}
	return nil
}

// check validates an operation's shape before it reaches the document.
func (op Operation) check() error {
	switch op.Op {
	case "add", "replace", "test":
		if op.Value == nil {
			return fmt.Errorf("%w: %s requires a value", ErrInvalidOperation, op.Op)
		}
	case "remove":
	case "move", "copy":
		if err := checkPointer(op.From); err != nil {
			return err
		}
		if op.Op == "move" && strings.HasPrefix(op.Path, op.From+"/") {
			return fmt.Errorf("%w: cannot move %s into its own child %s", ErrInvalidOperation, op.From, op.Path)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, op.Op)
	}
	return checkPointer(op.Path)
}
