package fastimport

import "fmt"

// MissingBytesError is raised when EOF is hit while a data section still
// expects more bytes.
type MissingBytesError struct {
	Lineno   int
	Expected int
	Found    int
}

func (e *MissingBytesError) Error() string {
	return fmt.Sprintf("line %d: unexpected EOF - expected %d bytes, found %d", e.Lineno, e.Expected, e.Found)
}

// MissingTerminatorError is raised when a heredoc data section's delimiter
// is never found before EOF.
type MissingTerminatorError struct {
	Lineno     int
	Terminator string
}

func (e *MissingTerminatorError) Error() string {
	return fmt.Sprintf("line %d: unexpected EOF - expected %q terminator", e.Lineno, e.Terminator)
}

// InvalidCommandError is raised when a line at the top level of the stream
// does not match any known command verb.
type InvalidCommandError struct {
	Lineno int
	Cmd    string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("line %d: invalid command %q", e.Lineno, e.Cmd)
}

// MissingSectionError is raised when a required section of a command is
// absent from the stream.
type MissingSectionError struct {
	Lineno  int
	Cmd     string
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("line %d: command %s is missing section %s", e.Lineno, e.Cmd, e.Section)
}

// BadFormatError is raised when a section is present but malformed.
type BadFormatError struct {
	Lineno  int
	Cmd     string
	Section string
	Text    string
}

func (e *BadFormatError) Error() string {
	return fmt.Sprintf("line %d: bad format for section %s in command %s: found %q", e.Lineno, e.Section, e.Cmd, e.Text)
}

// InvalidTimezoneError is raised when a timezone string can't be converted
// to a seconds offset.
type InvalidTimezoneError struct {
	Lineno   int
	Timezone string
	Reason   string
}

func (e *InvalidTimezoneError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("line %d: timezone %q could not be converted.", e.Lineno, e.Timezone)
	}
	return fmt.Sprintf("line %d: timezone %q could not be converted. %s", e.Lineno, e.Timezone, e.Reason)
}

// PrematureEndOfStreamError is raised when the stream ends before a 'done'
// command despite the 'done' feature having been declared.
type PrematureEndOfStreamError struct {
	Lineno int
}

func (e *PrematureEndOfStreamError) Error() string {
	return fmt.Sprintf("line %d: stream end before 'done' command", e.Lineno)
}

// UnknownDateFormatError is raised when an unsupported date format name is
// selected (only "raw" and "now" are implemented; "rfc2822" is reserved).
type UnknownDateFormatError struct {
	Format string
}

func (e *UnknownDateFormatError) Error() string {
	return fmt.Sprintf("unknown date format %q", e.Format)
}

// MissingHandlerError is raised by the processor dispatch layer when a
// command or file-op has a type its dispatch switch does not cover.
type MissingHandlerError struct {
	Cmd string
}

func (e *MissingHandlerError) Error() string {
	return fmt.Sprintf("missing handler for command %s", e.Cmd)
}

// UnknownParameterError is raised when a processor is configured with a
// parameter name it does not recognize.
type UnknownParameterError struct {
	Param string
	Knowns []string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter - %q not in %v", e.Param, e.Knowns)
}

// IllegalPathError is raised when a path fails the validity checks in
// CheckPath (empty, or begins with "/").
type IllegalPathError struct {
	Path string
}

func (e *IllegalPathError) Error() string {
	return fmt.Sprintf("illegal path %q", e.Path)
}
