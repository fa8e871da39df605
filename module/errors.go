package module

import "errors"

// ErrInvalidFormat is raised when a CommonJS load_result carries a format
// the loader does not recognize.
var ErrInvalidFormat = errors.New("Invalid format")

// ErrModuleNotLinked carries the message for evaluating a module that is
// not in the linked state. LinkAndEvaluate links the module itself
// before evaluating and does not return it.
var ErrModuleNotLinked = errors.New("module must be in linked state to evaluate")

// ErrEmptySpecifier is raised by require() for a zero-length specifier.
var ErrEmptySpecifier = errors.New("require() can't be used with an empty specifier")
