package fastimport

import "fmt"

// FileOp is the sum type of file-change sub-commands that appear inside a
// Commit: Modify, Delete, Rename, Copy, DeleteAll, NoteModify.
type FileOp interface {
	isFileOp()
	// Serialize renders the file-op in its wire form, including a trailing
	// data section where applicable. It never includes a trailing newline
	// after the whole op - callers join ops with "\n".
	Serialize() ([]byte, error)
}

// Modify represents "M MODE DATAREF PATH" (+ inline data section when
// DataRef is empty and Data is set). Exactly one of DataRef and Data
// should be non-empty.
type Modify struct {
	Path    []byte
	Mode    uint32
	DataRef []byte // empty if inline
	Data    []byte // empty if DataRef is used
}

func (*Modify) isFileOp() {}

func (m *Modify) Serialize() ([]byte, error) {
	if err := CheckPath(m.Path); err != nil {
		return nil, err
	}
	modeStr, err := FormatMode(m.Mode)
	if err != nil {
		return nil, err
	}
	path := FormatPath(m.Path, false)
	var ref []byte
	var dataSection []byte
	switch {
	case IsDirectory(m.Mode):
		ref = []byte("-")
	case len(m.DataRef) == 0:
		ref = []byte("inline")
		dataSection = []byte(fmt.Sprintf("\ndata %d\n%s", len(m.Data), m.Data))
	default:
		ref = m.DataRef
	}
	out := fmt.Sprintf("M %s %s %s", modeStr, ref, path)
	return append([]byte(out), dataSection...), nil
}

// Delete represents "D PATH".
type Delete struct {
	Path []byte
}

func (*Delete) isFileOp() {}

func (d *Delete) Serialize() ([]byte, error) {
	if err := CheckPath(d.Path); err != nil {
		return nil, err
	}
	return append([]byte("D "), FormatPath(d.Path, false)...), nil
}

// Rename represents "R OLDPATH NEWPATH".
type Rename struct {
	OldPath []byte
	NewPath []byte
}

func (*Rename) isFileOp() {}

func (r *Rename) Serialize() ([]byte, error) {
	if err := CheckPath(r.OldPath); err != nil {
		return nil, err
	}
	if err := CheckPath(r.NewPath); err != nil {
		return nil, err
	}
	out := append([]byte("R "), FormatPath(r.OldPath, true)...)
	out = append(out, ' ')
	out = append(out, FormatPath(r.NewPath, false)...)
	return out, nil
}

// Copy represents "C SRCPATH DESTPATH".
type Copy struct {
	SrcPath  []byte
	DestPath []byte
}

func (*Copy) isFileOp() {}

func (c *Copy) Serialize() ([]byte, error) {
	if err := CheckPath(c.SrcPath); err != nil {
		return nil, err
	}
	if err := CheckPath(c.DestPath); err != nil {
		return nil, err
	}
	out := append([]byte("C "), FormatPath(c.SrcPath, true)...)
	out = append(out, ' ')
	out = append(out, FormatPath(c.DestPath, false)...)
	return out, nil
}

// DeleteAll represents "deleteall".
type DeleteAll struct{}

func (*DeleteAll) isFileOp() {}

func (*DeleteAll) Serialize() ([]byte, error) {
	return []byte("deleteall"), nil
}

// NoteModify represents "N inline :FROM\ndata LEN\nDATA".
type NoteModify struct {
	From []byte
	Data []byte
}

func (*NoteModify) isFileOp() {}

func (n *NoteModify) Serialize() ([]byte, error) {
	return []byte(fmt.Sprintf("N inline :%s\ndata %d\n%s", n.From, len(n.Data), n.Data)), nil
}
