package promise

import "github.com/pkg/errors"

// ErrInvalidState is returned by Value and Reason when the node is not in
// the matching settled state.
var ErrInvalidState = errors.New("invalid promise state")

func invalidState(accessor string, s State) error {
	return errors.Wrap(ErrInvalidState, accessor+" of "+s.String()+" promise")
}
