package resource

import "errors"

var ErrMissingID = errors.New("Record identifier is required")
