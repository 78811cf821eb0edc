package query

import (
	"fmt"
	"net/http"
	"strconv"
)

func Int(r *http.Request, key string) (val int, present bool, err error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be integer", key)
	}
	return n, true, nil
}

// Limit reads key as a page size. Missing means def; values outside 1..max
// are rejected.
func Limit(r *http.Request, key string, def, max int) (int, error) {
	n, present, err := Int(r, key)
	if err != nil {
		return 0, err
	}
	if !present {
		return def, nil
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("%s must be between 1 and %d", key, max)
	}
	return n, nil
}
