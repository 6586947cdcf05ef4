package httpapi

import "errors"

// ErrQueryServiceRequired is returned when the server is built without a query service.
var ErrQueryServiceRequired = errors.New("query service is required")
