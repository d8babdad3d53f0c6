package filestore

import (
	"regexp"
)

// DecisionKind tags an UploadDecision.
type DecisionKind int

const (
	NoOp DecisionKind = iota
	NewFile
	KeepExisting
	ClearOnly
)

func (k DecisionKind) String() string {
	switch k {
	case NewFile:
		return "new_file"
	case KeepExisting:
		return "keep_existing"
	case ClearOnly:
		return "clear_only"
	default:
		return "noop"
	}
}

// UploadDecision is computed once per request and consumed once by Upload.
type UploadDecision struct {
	Kind DecisionKind

	// Source and Filename are set for NewFile. Filename is already munged.
	Source   Source
	Filename string

	// OldFilename is the previously stored filename, if any.
	OldFilename string
}

var urlScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// IsURL reports whether name is an external link rather than a stored file.
func IsURL(name string) bool {
	return urlScheme.MatchString(name)
}

// Decide applies the replace, clear or keep rule:
//  1. a new payload always wins
//  2. clear with a stored (non URL) old file clears it
//  3. an old file that was not cleared is kept
//  4. otherwise nothing happens
func Decide(hasPayload, clear bool, oldFilename string) DecisionKind {
	switch {
	case hasPayload:
		return NewFile
	case clear && oldFilename != "" && !IsURL(oldFilename):
		return ClearOnly
	case oldFilename != "" && !clear:
		return KeepExisting
	default:
		return NoOp
	}
}

// lifecycle tracks Idle -> Decided -> Applied for one uploader.
type lifecycle int

const (
	stateIdle lifecycle = iota
	stateDecided
	stateApplied
)

func (l *lifecycle) apply() error {
	switch *l {
	case stateIdle:
		return ErrNotDecided
	case stateApplied:
		return ErrAlreadyApplied
	}
	*l = stateApplied
	return nil
}
