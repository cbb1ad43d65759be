package nlq

import "errors"

// ErrQuotaExceeded provider balikin error kuota/limit (HTTP 429 atau sejenis).
var ErrQuotaExceeded = errors.New("nlq quota exceeded")
