package database

import "errors"

// ErrNotReady indicates the database could not be reached within the connection timeout.
var ErrNotReady = errors.New("database not ready")
