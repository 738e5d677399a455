package thread

// MaxNameLen is the longest thread name the kernel keeps (TASK_COMM_LEN - 1).
const MaxNameLen = 15

// Namer applies and reads OS thread names by native thread id.
type Namer interface {
	// SetName names the thread, reporting whether the OS accepted it.
	SetName(tid int, name string) bool

	// Name returns the OS name of the thread, or "" when unavailable.
	Name(tid int) string
}

// OSNamer returns the Namer backed by the host operating system.
func OSNamer() Namer {
	return osNamer{}
}

// CurrentTID returns the native id of the OS thread running the caller.
// The value is only stable while the goroutine is locked to its thread.
func CurrentTID() int {
	return currentTID()
}

func truncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}
