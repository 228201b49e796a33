package fastimport

import "strconv"

// File modes recognized by the wire format. Any other value is an internal
// error per the spec.
const (
	ModeFile       uint32 = 0o100644
	ModeExecutable uint32 = 0o100755
	ModeDirectory  uint32 = 0o40000
	ModeSymlink    uint32 = 0o120000
	ModeSubmodule  uint32 = 0o160000
)

// ParseMode accepts the mode literals git-fast-export actually emits,
// which are looser than the grammar's mode production (leading zeros,
// missing "100" prefix).
func ParseMode(s string) (uint32, error) {
	switch s {
	case "644", "100644", "0100644":
		return ModeFile, nil
	case "755", "100755", "0100755":
		return ModeExecutable, nil
	case "040000", "0040000":
		return ModeDirectory, nil
	case "120000", "0120000":
		return ModeSymlink, nil
	case "160000", "0160000":
		return ModeSubmodule, nil
	default:
		return 0, &BadFormatError{Cmd: "filemodify", Section: "mode", Text: s}
	}
}

// FormatMode renders mode in its canonical wire form. Returns an error for
// any value outside the five recognized modes.
func FormatMode(mode uint32) (string, error) {
	switch mode {
	case ModeExecutable:
		return "755", nil
	case ModeFile:
		return "644", nil
	case ModeDirectory:
		return "040000", nil
	case ModeSymlink:
		return "120000", nil
	case ModeSubmodule:
		return "160000", nil
	default:
		return "", &BadFormatError{Cmd: "filemodify", Section: "mode", Text: strconv.FormatUint(uint64(mode), 8)}
	}
}

// IsDirectory reports whether mode is the directory (gitlink-free tree)
// mode, in which case a Modify's dataref always serializes as "-".
func IsDirectory(mode uint32) bool {
	return mode == ModeDirectory
}
