package cache

import goerrors "github.com/goliatone/go-errors"

// Text codes attached to errors raised by this package.
const (
	TextCodeInvalidConfig     = "CACHE_INVALID_CONFIG"
	TextCodeInvalidResultType = "CACHE_INVALID_RESULT_TYPE"
)

// ErrInvalidResultType is returned by GetOrFetch when the cached value cannot
// be converted to the requested type. It usually means two call sites share
// a key while expecting different types.
var ErrInvalidResultType = goerrors.New("cached value has unexpected type", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidResultType)

func invalidConfig(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(TextCodeInvalidConfig)
}
