/*
Package thread runs a function on a dedicated, named OS thread.

A Thread locks its goroutine to an OS thread for the whole lifetime of the
function, applies its display name to that thread, and records the native
thread id while the function runs. When the function returns the goroutine
exits without unlocking, so the runtime retires the thread instead of
handing a renamed thread to unrelated goroutines.

Basic usage:

	t := thread.New(func() {
		// runs on an OS thread named "ingest"
	}, "ingest")
	t.Start()
	t.Join()

Lifecycle:

	Idle --Start--> Running --Join--> Joined
	                        --Detach--> Detached

Start on a thread that is not Idle, and Join or Detach on a thread that was
never started, are logged as warnings and otherwise ignored.

Thread names are applied through a Namer. On Linux the default Namer uses
prctl(PR_SET_NAME) for the calling thread and /proc/self/task/<tid>/comm for
other threads; names longer than MaxNameLen bytes are truncated before they
reach the kernel. On other platforms the default Namer reports failure and
the display name is only kept in memory.

Panics escaping the function are not recovered here. They terminate the
process like any other unrecovered goroutine panic; callers that need
containment wrap the function themselves.
*/
package thread
