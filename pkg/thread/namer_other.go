//go:build !linux

package thread

import "sync/atomic"

// Native thread ids are not exposed portably; each locked thread gets a
// process-unique synthetic id instead.
var lastTID atomic.Int64

func currentTID() int {
	return int(lastTID.Add(1))
}

type osNamer struct{}

func (osNamer) SetName(int, string) bool { return false }

func (osNamer) Name(int) string { return "" }
