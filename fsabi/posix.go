package fsabi

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/tuhh-sat/pluto-core/glue"
)

// PosixFileSystem implements FileSystem over a host directory tree rooted
// at root. Every path argument is interpreted relative to root and may not
// escape it. Platform-specific metadata (creation time, free space) goes
// through the build-tagged statTimes/freeSpace helpers.
type PosixFileSystem struct {
	root string

	mu       sync.Mutex
	mounted  bool
	readOnly bool
}

func NewPosixFileSystem(root string) *PosixFileSystem {
	return &PosixFileSystem{root: root}
}

func (p *PosixFileSystem) Mount(readOnly bool) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mounted {
		return InvalidState
	}
	fi, err := os.Stat(p.root)
	if err != nil {
		return mapOsError(err)
	}
	if !fi.IsDir() {
		return NotADirectory
	}
	p.mounted = true
	p.readOnly = readOnly
	return Success
}

func (p *PosixFileSystem) Unmount() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return NotMounted
	}
	p.mounted = false
	return Success
}

// resolve validates path and joins it under the root. The empty path names
// the root itself.
func (p *PosixFileSystem) resolve(path string) (string, Result) {
	p.mu.Lock()
	mounted := p.mounted
	p.mu.Unlock()
	if !mounted {
		return "", NotMounted
	}
	if len(path) > MaxPathLength {
		return "", InvalidInput
	}
	// Paths are root-relative; a leading slash names the mount root.
	clean := filepath.Clean(strings.TrimPrefix(path, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", InvalidInput
	}
	return filepath.Join(p.root, clean), Success
}

func (p *PosixFileSystem) resolveWritable(path string) (string, Result) {
	full, res := p.resolve(path)
	if res != Success {
		return "", res
	}
	p.mu.Lock()
	ro := p.readOnly
	p.mu.Unlock()
	if ro {
		return "", ReadOnly
	}
	return full, Success
}

func (p *PosixFileSystem) MkDir(path string, perm Permission) Result {
	full, res := p.resolveWritable(path)
	if res != Success {
		return res
	}
	if err := os.Mkdir(full, perm.toFileMode()); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (p *PosixFileSystem) CreateFile(path string, perm Permission) Result {
	full, res := p.resolveWritable(path)
	if res != Success {
		return res
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm.toFileMode())
	if err != nil {
		return mapOsError(err)
	}
	f.Close()
	return Success
}

func (p *PosixFileSystem) Open(path string, mask OpenMask) (File, Result) {
	writes := mask&(OpenWrite|OpenAppend|OpenCreate) != 0
	var full string
	var res Result
	if writes {
		full, res = p.resolveWritable(path)
	} else {
		full, res = p.resolve(path)
	}
	if res != Success {
		return nil, res
	}

	flags := 0
	switch {
	case mask&OpenRead != 0 && writes:
		flags = os.O_RDWR
	case writes:
		flags = os.O_WRONLY
	case mask&OpenRead != 0:
		flags = os.O_RDONLY
	default:
		return nil, InvalidInput
	}
	if mask&OpenAppend != 0 {
		flags |= os.O_APPEND
	}
	if mask&OpenCreate != 0 {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return nil, mapOsError(err)
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		f.Close()
		return nil, NotAFile
	}
	return &posixFile{f: f, mask: mask}, Success
}

func (p *PosixFileSystem) OpenDir(path string) (Dir, Result) {
	full, res := p.resolve(path)
	if res != Success {
		return nil, res
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapOsError(err)
	}
	return &posixDir{path: full, entries: entries}, Success
}

func (p *PosixFileSystem) Rename(source, destination string) Result {
	src, res := p.resolveWritable(source)
	if res != Success {
		return res
	}
	dst, res := p.resolveWritable(destination)
	if res != Success {
		return res
	}
	if err := os.Rename(src, dst); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (p *PosixFileSystem) Copy(source, destination string) Result {
	src, res := p.resolve(source)
	if res != Success {
		return res
	}
	dst, res := p.resolveWritable(destination)
	if res != Success {
		return res
	}
	in, err := os.Open(src)
	if err != nil {
		return mapOsError(err)
	}
	defer in.Close()
	if fi, err := in.Stat(); err == nil && fi.IsDir() {
		return NotAFile
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return mapOsError(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return mapOsError(err)
	}
	if err := out.Close(); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (p *PosixFileSystem) Chmod(path string, perm Permission) Result {
	full, res := p.resolveWritable(path)
	if res != Success {
		return res
	}
	if err := os.Chmod(full, perm.toFileMode()); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (p *PosixFileSystem) Remove(path string) Result {
	full, res := p.resolveWritable(path)
	if res != Success {
		return res
	}
	if err := os.Remove(full); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (p *PosixFileSystem) GetInfo(path string) (Info, Result) {
	full, res := p.resolve(path)
	if res != Success {
		return nil, res
	}
	fi, err := os.Stat(full)
	if err != nil {
		return nil, mapOsError(err)
	}
	return &posixInfo{path: full, fi: fi}, Success
}

func (p *PosixFileSystem) ReleaseInfo(Info) {}

// FreeSpace reports the bytes available to new data under the mount root,
// via statfs where the platform supports it.
func (p *PosixFileSystem) FreeSpace() (uint64, Result) {
	p.mu.Lock()
	mounted := p.mounted
	p.mu.Unlock()
	if !mounted {
		return 0, NotMounted
	}
	n, ok := freeSpace(p.root)
	if !ok {
		return 0, NotImplemented
	}
	return n, Success
}

type posixFile struct {
	f    *os.File
	mask OpenMask
}

func (pf *posixFile) Read(dst []byte) ([]byte, Result) {
	if pf.mask&OpenRead == 0 {
		return nil, WriteOnly
	}
	n, err := pf.f.Read(dst)
	if n > 0 {
		return dst[:n], Success
	}
	if err == io.EOF {
		return nil, EndOfData
	}
	if err != nil {
		return nil, mapOsError(err)
	}
	return dst[:0], Success
}

func (pf *posixFile) Write(src []byte) (int, Result) {
	if pf.mask&(OpenWrite|OpenAppend|OpenCreate) == 0 {
		return 0, ReadOnly
	}
	n, err := pf.f.Write(src)
	if err != nil {
		return n, mapOsError(err)
	}
	return n, Success
}

func (pf *posixFile) Seek(diff int64, mode SeekMode) (int64, Result) {
	var whence int
	switch mode {
	case SeekSet:
		whence = io.SeekStart
	case SeekCurrent:
		whence = io.SeekCurrent
	case SeekEnd:
		whence = io.SeekEnd
	default:
		return 0, InvalidInput
	}
	pos, err := pf.f.Seek(diff, whence)
	if err != nil {
		return 0, mapOsError(err)
	}
	return pos, Success
}

func (pf *posixFile) Flush() Result {
	if err := pf.f.Sync(); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (pf *posixFile) Truncate(size int64) Result {
	if pf.mask&(OpenWrite|OpenAppend|OpenCreate) == 0 {
		return ReadOnly
	}
	if err := pf.f.Truncate(size); err != nil {
		return mapOsError(err)
	}
	return Success
}

func (pf *posixFile) Close() Result {
	if err := pf.f.Close(); err != nil {
		return mapOsError(err)
	}
	return Success
}

type posixDir struct {
	path    string
	entries []os.DirEntry
	pos     int
}

func (pd *posixDir) Read() (Entry, Result) {
	if pd.pos >= len(pd.entries) {
		return Entry{}, EndOfData
	}
	e := pd.entries[pd.pos]
	pd.pos++
	return Entry{Name: e.Name(), IsDirectory: e.IsDir()}, Success
}

func (pd *posixDir) Rewind() Result {
	entries, err := os.ReadDir(pd.path)
	if err != nil {
		return mapOsError(err)
	}
	pd.entries = entries
	pd.pos = 0
	return Success
}

func (pd *posixDir) Close() Result {
	pd.entries = nil
	pd.pos = 0
	return Success
}

type posixInfo struct {
	path string
	fi   os.FileInfo
}

func (pi *posixInfo) IsFile() bool      { return pi.fi.Mode().IsRegular() }
func (pi *posixInfo) IsDirectory() bool { return pi.fi.IsDir() }
func (pi *posixInfo) Size() int64       { return pi.fi.Size() }

func (pi *posixInfo) Permissions() Permission {
	var perm Permission
	mode := pi.fi.Mode().Perm()
	if mode&0o400 != 0 {
		perm |= PermRead
	}
	if mode&0o200 != 0 {
		perm |= PermWrite
	}
	if mode&0o100 != 0 {
		perm |= PermExecute
	}
	return perm
}

func (pi *posixInfo) CreationTime() glue.GpsTime {
	if t, ok := statCreationTime(pi.path); ok {
		return t
	}
	return glue.FromTime(pi.fi.ModTime())
}

func (pi *posixInfo) ModifyTime() glue.GpsTime {
	return glue.FromTime(pi.fi.ModTime())
}

// toFileMode maps the R/W/X bitmask onto owner permission bits, with group
// and other left clear.
func (p Permission) toFileMode() os.FileMode {
	var mode os.FileMode
	if p.IsReadable() {
		mode |= 0o400
	}
	if p.IsWritable() {
		mode |= 0o200
	}
	if p.IsExecutable() {
		mode |= 0o100
	}
	return mode
}

func mapOsError(err error) Result {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, syscall.ENOTEMPTY):
		// Checked before fs.ErrExist, which syscall.Errno also reports
		// for ENOTEMPTY.
		return NotEmpty
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return AccessDenied
	case errors.Is(err, syscall.ENOSPC):
		return NoSpace
	case errors.Is(err, syscall.EISDIR):
		return NotAFile
	case errors.Is(err, syscall.ENOTDIR):
		return NotADirectory
	case errors.Is(err, syscall.EBUSY):
		return FileInUse
	case errors.Is(err, syscall.EROFS):
		return ReadOnly
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return ResourceExhausted
	case errors.Is(err, syscall.EINVAL):
		return InvalidInput
	default:
		return IOError
	}
}
