package littr

import (
	"os"

	"github.com/chonkie-inc/littr/internal/vm"
)

func flushToHost(hostPath string, content []byte) error {
	return os.WriteFile(hostPath, content, 0o644)
}

// Mount exposes a host file to scripts under virtualPath, openable with
// the sandbox's open() builtin (spec.md §4.9 "mount", §6). initialContent
// seeds the file's contents for read mode; if writable, content written
// and closed from inside the sandbox is flushed back to hostPath on the
// host filesystem (SPEC_FULL.md §5.5).
func (s *Sandbox) Mount(virtualPath, hostPath string, writable bool, initialContent string) {
	m := &vm.Mount{
		VirtualPath: virtualPath,
		HostPath:    hostPath,
		Writable:    writable,
		Content:     []byte(initialContent),
	}
	if writable {
		m.Flush = flushToHost
	}
	s.vm.Mount(m)
}
