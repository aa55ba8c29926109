package domain

import "errors"

var ErrUnknownCapability = errors.New("unknown capability")
