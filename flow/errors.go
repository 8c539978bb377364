package flow

import (
	"fmt"

	"github.com/sarchlab/pktflow/sim/naming"
	"github.com/sirupsen/logrus"
)

// A ConfigurationError reports a network that cannot run, such as a link
// whose endpoints do not support a common transfer mode. It only happens
// while a network is being set up.
type ConfigurationError struct {
	Element string
	Msg     string
	Err     error
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(
	element string,
	format string,
	args ...interface{},
) *ConfigurationError {
	return &ConfigurationError{
		Element: element,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// WrapConfigurationError creates a ConfigurationError caused by err.
func WrapConfigurationError(
	element string,
	err error,
	format string,
	args ...interface{},
) *ConfigurationError {
	e := NewConfigurationError(element, format, args...)
	e.Err = err

	return e
}

func (e *ConfigurationError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Element == "" {
		return "configuration error: " + msg
	}

	return fmt.Sprintf("configuration error in %s: %s", e.Element, msg)
}

// Unwrap returns the cause of the error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ProtocolViolation aborts the program because an element broke the push and
// pop protocol. It indicates a bug in the element that called the offending
// method and is never recovered from.
func ProtocolViolation(e naming.Named, format string, args ...interface{}) {
	name := "<unknown>"
	if e != nil {
		name = e.Name()
	}

	logrus.WithField("element", name).
		Panicf("protocol violation: "+format, args...)
}
