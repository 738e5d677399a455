//go:build linux

package thread

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

type osNamer struct{}

func currentTID() int {
	return unix.Gettid()
}

func commPath(tid int) string {
	return "/proc/self/task/" + strconv.Itoa(tid) + "/comm"
}

func (osNamer) SetName(tid int, name string) bool {
	if tid <= 0 {
		return false
	}
	name = truncateName(name)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if tid == unix.Gettid() {
		p, err := unix.BytePtrFromString(name)
		if err != nil {
			return false
		}
		return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0) == nil
	}

	return os.WriteFile(commPath(tid), []byte(name), 0) == nil
}

func (osNamer) Name(tid int) string {
	if tid <= 0 {
		return ""
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if tid == unix.Gettid() {
		var buf [MaxNameLen + 1]byte
		if err := unix.Prctl(unix.PR_GET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0); err != nil {
			return ""
		}
		return unix.ByteSliceToString(buf[:])
	}

	b, err := os.ReadFile(commPath(tid))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(b), "\n")
}
