package cos

import "fmt"

// ErrNotFound mirrors aistore's cmn/cos.ErrNotFound: a typed not-found error
// that read-only accessors can return without the caller needing to parse
// error text.
type ErrNotFound struct {
	Kind string
	Key  string
}

func NewErrNotFound(kind, key string) *ErrNotFound {
	return &ErrNotFound{Kind: kind, Key: key}
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Key)
}

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
