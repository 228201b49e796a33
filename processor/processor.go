// Package processor dispatches a parsed command stream to a Handler,
// replacing the reflective name-to-method lookup of a scripting-language
// original with an exhaustive Go type switch.
package processor

import (
	"fmt"
	"io"

	fastimport "github.com/obinnaokechukwu/fastimport"
)

// Handler receives one call per command or file-op kind the processor
// dispatches. Embed DefaultHandler to pick up no-op implementations for
// anything not overridden.
type Handler interface {
	HandleBlob(*fastimport.Blob) error
	HandleCommit(*fastimport.Commit) error
	HandleReset(*fastimport.Reset) error
	HandleTag(*fastimport.Tag) error
	HandleFeature(*fastimport.Feature) error
	HandleProgress(*fastimport.Progress) error
	HandleCheckpoint(*fastimport.Checkpoint) error

	HandleModify(*fastimport.Commit, *fastimport.Modify) error
	HandleDelete(*fastimport.Commit, *fastimport.Delete) error
	HandleRename(*fastimport.Commit, *fastimport.Rename) error
	HandleCopy(*fastimport.Commit, *fastimport.Copy) error
	HandleDeleteAll(*fastimport.Commit, *fastimport.DeleteAll) error
	HandleNoteModify(*fastimport.Commit, *fastimport.NoteModify) error
}

// DefaultHandler implements Handler with no-ops for every method, so a
// concrete handler only needs to override the kinds it cares about.
type DefaultHandler struct{}

func (DefaultHandler) HandleBlob(*fastimport.Blob) error             { return nil }
func (DefaultHandler) HandleCommit(*fastimport.Commit) error         { return nil }
func (DefaultHandler) HandleReset(*fastimport.Reset) error           { return nil }
func (DefaultHandler) HandleTag(*fastimport.Tag) error               { return nil }
func (DefaultHandler) HandleFeature(*fastimport.Feature) error       { return nil }
func (DefaultHandler) HandleProgress(*fastimport.Progress) error     { return nil }
func (DefaultHandler) HandleCheckpoint(*fastimport.Checkpoint) error { return nil }

func (DefaultHandler) HandleModify(*fastimport.Commit, *fastimport.Modify) error         { return nil }
func (DefaultHandler) HandleDelete(*fastimport.Commit, *fastimport.Delete) error         { return nil }
func (DefaultHandler) HandleRename(*fastimport.Commit, *fastimport.Rename) error         { return nil }
func (DefaultHandler) HandleCopy(*fastimport.Commit, *fastimport.Copy) error             { return nil }
func (DefaultHandler) HandleDeleteAll(*fastimport.Commit, *fastimport.DeleteAll) error    { return nil }
func (DefaultHandler) HandleNoteModify(*fastimport.Commit, *fastimport.NoteModify) error  { return nil }

// Lifecycle hooks a Handler may optionally implement, detected by
// interface assertion rather than required on the base Handler interface
// (most handlers need none of them).
type PreProcessor interface{ PreProcess() error }
type PostProcessor interface{ PostProcess() error }
type PreHandlerHook interface{ PreHandler(fastimport.Command) error }
type PostHandlerHook interface{ PostHandler(fastimport.Command) error }

// Finisher lets a Handler stop iteration early (e.g. once it has seen
// enough to answer its question) without treating that as an error.
type Finisher interface{ Finished() bool }

// KnownParams lets a Handler declare the configuration parameter names it
// accepts; Process validates params against it up front.
type KnownParams interface{ KnownParams() []string }

// Params is a generic bag of per-run configuration a Handler may consult;
// Process only validates its keys against KnownParams, if implemented.
type Params map[string]string

// Process reads commands from p one at a time and dispatches each to h,
// including a nested dispatch over a Commit's file-ops. It stops when p is
// exhausted, when h reports Finished, or on the first error from either
// the parser or a handler call.
func Process(p *fastimport.ImportParser, h Handler, params Params) error {
	if kp, ok := h.(KnownParams); ok {
		known := kp.KnownParams()
		for name := range params {
			if !contains(known, name) {
				return &fastimport.UnknownParameterError{Param: name, Knowns: known}
			}
		}
	}

	if pre, ok := h.(PreProcessor); ok {
		if err := pre.PreProcess(); err != nil {
			return err
		}
	}

	for {
		if fin, ok := h.(Finisher); ok && fin.Finished() {
			break
		}
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if err := dispatch(h, cmd); err != nil {
			return err
		}
	}

	if post, ok := h.(PostProcessor); ok {
		if err := post.PostProcess(); err != nil {
			return err
		}
	}
	return nil
}

func dispatch(h Handler, cmd fastimport.Command) error {
	if pre, ok := h.(PreHandlerHook); ok {
		if err := pre.PreHandler(cmd); err != nil {
			return err
		}
	}
	var err error
	switch c := cmd.(type) {
	case *fastimport.Blob:
		err = h.HandleBlob(c)
	case *fastimport.Commit:
		if err = h.HandleCommit(c); err == nil {
			err = dispatchFileOps(h, c)
		}
	case *fastimport.Reset:
		err = h.HandleReset(c)
	case *fastimport.Tag:
		err = h.HandleTag(c)
	case *fastimport.Feature:
		err = h.HandleFeature(c)
	case *fastimport.Progress:
		err = h.HandleProgress(c)
	case *fastimport.Checkpoint:
		err = h.HandleCheckpoint(c)
	default:
		err = &fastimport.MissingHandlerError{Cmd: fmt.Sprintf("%T", cmd)}
	}
	if err != nil {
		return err
	}
	if post, ok := h.(PostHandlerHook); ok {
		return post.PostHandler(cmd)
	}
	return nil
}

func dispatchFileOps(h Handler, c *fastimport.Commit) error {
	return c.FileOps.ForEach(func(op fastimport.FileOp) error {
		switch o := op.(type) {
		case *fastimport.Modify:
			return h.HandleModify(c, o)
		case *fastimport.Delete:
			return h.HandleDelete(c, o)
		case *fastimport.Rename:
			return h.HandleRename(c, o)
		case *fastimport.Copy:
			return h.HandleCopy(c, o)
		case *fastimport.DeleteAll:
			return h.HandleDeleteAll(c, o)
		case *fastimport.NoteModify:
			return h.HandleNoteModify(c, o)
		default:
			return &fastimport.MissingHandlerError{Cmd: fmt.Sprintf("%T", op)}
		}
	})
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
