package models

import "errors"

// ErrUnsupportedMetadata is returned when a metadata column holds neither text nor bytes.
var ErrUnsupportedMetadata = errors.New("unsupported media metadata type")
