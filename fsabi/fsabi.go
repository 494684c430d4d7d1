// Package fsabi defines the file-system abstraction consumed by the
// logging and data-storage subsystems: a capability interface with
// permission and open-mode bitmasks, a single result-code taxonomy, and
// GpsTime-valued info queries. A POSIX-backed implementation rooted at a
// host directory is provided for ground tooling and tests; flight targets
// supply their own backend behind the same interface.
package fsabi

import "github.com/tuhh-sat/pluto-core/glue"

// MaxPathLength bounds every path argument (spec §6: paths are bounded
// strings). Longer paths are rejected with InvalidInput before touching
// the backend.
const MaxPathLength = 255

// Result is the file-system error taxonomy of spec §7.
type Result int

const (
	Success Result = iota
	EndOfData
	NotFound
	AccessDenied
	NoSpace
	ReadOnly
	WriteOnly
	AlreadyExists
	NotEmpty
	NotAFile
	NotADirectory
	InvalidInput
	ResourceExhausted
	InvalidState
	IOError
	NotImplemented
	FileInUse
	NotMounted
	Other
)

func (r Result) Error() string {
	switch r {
	case Success:
		return "success"
	case EndOfData:
		return "fsabi: end of data"
	case NotFound:
		return "fsabi: not found"
	case AccessDenied:
		return "fsabi: access denied"
	case NoSpace:
		return "fsabi: no space left"
	case ReadOnly:
		return "fsabi: target is read-only"
	case WriteOnly:
		return "fsabi: target is write-only"
	case AlreadyExists:
		return "fsabi: already exists"
	case NotEmpty:
		return "fsabi: directory not empty"
	case NotAFile:
		return "fsabi: not a file"
	case NotADirectory:
		return "fsabi: not a directory"
	case InvalidInput:
		return "fsabi: invalid input"
	case ResourceExhausted:
		return "fsabi: resource exhausted"
	case InvalidState:
		return "fsabi: invalid state"
	case IOError:
		return "fsabi: I/O error"
	case NotImplemented:
		return "fsabi: not implemented"
	case FileInUse:
		return "fsabi: file in use"
	case NotMounted:
		return "fsabi: not mounted"
	default:
		return "fsabi: other error"
	}
}

// Permission is the R/W/X bitmask attached to files and directories.
type Permission uint8

const (
	PermRead    Permission = 1
	PermWrite   Permission = 2
	PermExecute Permission = 4
)

func (p Permission) IsReadable() bool   { return p&PermRead != 0 }
func (p Permission) IsWritable() bool   { return p&PermWrite != 0 }
func (p Permission) IsExecutable() bool { return p&PermExecute != 0 }

func (p Permission) String() string {
	b := []byte("---")
	if p.IsReadable() {
		b[0] = 'r'
	}
	if p.IsWritable() {
		b[1] = 'w'
	}
	if p.IsExecutable() {
		b[2] = 'x'
	}
	return string(b)
}

// OpenMask selects the access mode for Open. Flags combine with |, e.g.
// OpenRead|OpenWrite|OpenCreate.
type OpenMask uint8

const (
	OpenRead OpenMask = 1 << iota
	OpenWrite
	OpenExecute
	OpenAppend
	OpenCreate
)

// SeekMode selects the origin of a Seek offset.
type SeekMode int

const (
	SeekSet SeekMode = iota
	SeekCurrent
	SeekEnd
)

// Entry is one directory listing element.
type Entry struct {
	Name        string
	IsDirectory bool
}

// Info reports metadata for one path, obtained via FileSystem.GetInfo and
// returned to the backend via ReleaseInfo when no longer needed.
type Info interface {
	IsFile() bool
	IsDirectory() bool
	Size() int64
	Permissions() Permission
	CreationTime() glue.GpsTime
	ModifyTime() glue.GpsTime
}

// File is an open file handle.
type File interface {
	// Read fills dst and returns the sub-slice actually read; EndOfData
	// once the file is exhausted.
	Read(dst []byte) ([]byte, Result)
	// Write appends or overwrites at the current position, returning the
	// number of bytes written.
	Write(src []byte) (int, Result)
	// Seek moves the position by diff relative to mode's origin and
	// returns the new absolute position.
	Seek(diff int64, mode SeekMode) (int64, Result)
	Flush() Result
	Truncate(size int64) Result
	Close() Result
}

// Dir is an open directory iterator.
type Dir interface {
	// Read returns the next entry, or EndOfData when the listing is
	// exhausted.
	Read() (Entry, Result)
	Rewind() Result
	Close() Result
}

// FileSystem is the capability interface of spec §4.15. Operations on an
// unmounted file system return NotMounted; mutating operations on a
// read-only mount return ReadOnly; Open with OpenCreate succeeds iff the
// parent directory exists.
type FileSystem interface {
	Mount(readOnly bool) Result
	Unmount() Result

	MkDir(path string, perm Permission) Result
	CreateFile(path string, perm Permission) Result
	Open(path string, mask OpenMask) (File, Result)
	OpenDir(path string) (Dir, Result)

	Rename(source, destination string) Result
	Copy(source, destination string) Result
	Chmod(path string, perm Permission) Result
	Remove(path string) Result

	GetInfo(path string) (Info, Result)
	// ReleaseInfo returns an Info to the backend. Backends without
	// info-object pooling treat this as a no-op; callers must still pair
	// every GetInfo with a ReleaseInfo.
	ReleaseInfo(info Info)
}
