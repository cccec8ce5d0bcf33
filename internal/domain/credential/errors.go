package credential

import "errors"

// ErrInvalidSecret indicates the secret does not match the provider's required key format.
var ErrInvalidSecret = errors.New("credential secret has invalid format")

// ErrDuplicateSecret indicates an identical secret already exists in the pool.
var ErrDuplicateSecret = errors.New("credential secret already exists")

// ErrNoneAvailable indicates every key in the pool is inactive or rate limited.
var ErrNoneAvailable = errors.New("no credential available")
