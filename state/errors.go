package state

import "errors"

var (
	ErrInvalidKey      = errors.New("state: invalid key")
	ErrEmptyValue      = errors.New("state: empty value")
	ErrClosed          = errors.New("state: store closed")
	ErrAckMismatch     = errors.New("state: backends acknowledged different writes")
	ErrListUnsupported = errors.New("state: store does not support prefix listing")
)

func IsInvalidKey(err error) bool { return errors.Is(err, ErrInvalidKey) }
