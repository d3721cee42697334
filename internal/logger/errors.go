package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")

	// ErrFilePathIsEmpty is returned if file logging is enabled without Log.File.Path.
	ErrFilePathIsEmpty = errors.New("config Log.File.Path can not be empty when file logging is enabled")
)

// Validate checks the settings Init depends on.
func (l Log) Validate() error {
	switch {
	case l.ServiceName == "":
		return ErrServiceNameIsEmpty
	case l.AppName == "":
		return ErrAppNameIsEmpty
	case l.File.Enabled && l.File.Path == "":
		return ErrFilePathIsEmpty
	}

	if l.DataDog.Enabled && l.DataDog.APIKey == "" {
		return ErrDataDogAPIKeyIsEmpty
	}

	return nil
}

// ErrorHandler reports writer failures to stderr, the logger itself may be the broken part.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "logger: could not ship event: %v\n", err)
}
