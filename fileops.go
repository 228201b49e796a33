package fastimport

// FileOps is a possibly-lazy sequence of FileOp values attached to a
// Commit. The stream parser builds one bound to a thunk that reads
// directly from the underlying parser's cursor the first time it's
// drained; callers must fully drain a Commit's FileOps (via All or
// ForEach) before asking the owning stream iterator for the next command,
// exactly as the grammar requires the file-op lines to be consumed before
// the next top-level command can be recognized.
//
// Once drained, the result is cached: a second call to All/ForEach replays
// the materialized slice rather than re-invoking the thunk.
type FileOps struct {
	next         func() (FileOp, error)
	materialized []FileOp
	done         bool
}

// NewFileOps wraps an already-materialized slice.
func NewFileOps(ops []FileOp) *FileOps {
	return &FileOps{materialized: ops, done: true}
}

// newLazyFileOps wraps a pull function. next should return (nil, nil) at
// end of sequence.
func newLazyFileOps(next func() (FileOp, error)) *FileOps {
	return &FileOps{next: next}
}

// All materializes and returns the full sequence, draining the underlying
// thunk at most once.
func (fo *FileOps) All() ([]FileOp, error) {
	if fo == nil {
		return nil, nil
	}
	if fo.done {
		return fo.materialized, nil
	}
	var result []FileOp
	for {
		op, err := fo.next()
		if err != nil {
			return nil, err
		}
		if op == nil {
			break
		}
		result = append(result, op)
	}
	fo.materialized = result
	fo.done = true
	fo.next = nil
	return result, nil
}

// ForEach streams the sequence to fn, stopping (and returning the error)
// if fn returns a non-nil error. Draining happens at most once; repeat
// calls replay the materialized slice.
func (fo *FileOps) ForEach(fn func(FileOp) error) error {
	if fo == nil {
		return nil
	}
	if fo.done {
		for _, op := range fo.materialized {
			if err := fn(op); err != nil {
				return err
			}
		}
		return nil
	}
	var result []FileOp
	for {
		op, err := fo.next()
		if err != nil {
			return err
		}
		if op == nil {
			break
		}
		result = append(result, op)
		if err := fn(op); err != nil {
			// Stop draining early but remember what was produced so far
			// isn't safely replayable; mark done with the partial list is
			// unsound, so force a full drain before surfacing the error.
			for {
				rest, derr := fo.next()
				if derr != nil || rest == nil {
					break
				}
				result = append(result, rest)
			}
			fo.materialized = result
			fo.done = true
			fo.next = nil
			return err
		}
	}
	fo.materialized = result
	fo.done = true
	fo.next = nil
	return nil
}
