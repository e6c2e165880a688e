package market

import "fmt"

// FetchError is the terminal failure of a market fetch: the live call
// exhausted its retries and no usable cache entry existed. It carries the
// original cause for errors.Is/As matching. This is the only error kind a
// caller of the list fetches needs to surface to the user.
type FetchError struct {
	Endpoint string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: upstream unavailable and no cached data: %v", e.Endpoint, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
