package vm

import (
	"fmt"
	"strings"

	"github.com/chonkie-inc/littr/internal/value"
)

// biOpen implements open(path, mode) (spec.md §6 "Mount and file I/O"):
// only registered mounts may be opened, and only mounts with
// Writable == true may be opened in write/append mode.
func (vm *VM) biOpen(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("TypeError: open() missing required argument: 'path'")
	}
	path, ok := args[0].(value.Str)
	if !ok {
		return nil, fmt.Errorf("TypeError: open() path must be str")
	}
	mode := "r"
	if len(args) > 1 {
		if m, ok := args[1].(value.Str); ok {
			mode = string(m)
		}
	}
	if mv, ok := kwargs["mode"]; ok {
		if m, ok := mv.(value.Str); ok {
			mode = string(m)
		}
	}

	m, ok := vm.mounts[string(path)]
	if !ok {
		return nil, fmt.Errorf("FileNotFoundError: no such mount '%s'", path)
	}
	if (strings.ContainsAny(mode, "wa")) && !m.Writable {
		return nil, fmt.Errorf("PermissionError: mount '%s' is not writable", path)
	}

	var buf []byte
	pos := 0
	switch {
	case strings.Contains(mode, "w"):
		buf = nil
	case strings.Contains(mode, "a"):
		buf = append([]byte(nil), m.Content...)
		pos = len(buf)
	default:
		buf = append([]byte(nil), m.Content...)
	}

	h := vm.nextHandle
	vm.nextHandle++
	vm.files[h] = &OpenFile{Mount: m, Mode: mode, Buf: buf, Pos: pos}
	return value.File{Handle: h}, nil
}

func (vm *VM) fileMethod(handle int, name string, args []value.Value) (value.Value, error) {
	f, ok := vm.files[handle]
	if !ok {
		return nil, fmt.Errorf("RuntimeError: invalid file handle %d", handle)
	}
	if f.Closed {
		return nil, fmt.Errorf("RuntimeError: I/O operation on closed file")
	}
	switch name {
	case "read":
		s := string(f.Buf[f.Pos:])
		f.Pos = len(f.Buf)
		return value.Str(s), nil
	case "readline":
		rest := f.Buf[f.Pos:]
		i := indexByte(rest, '\n')
		if i < 0 {
			f.Pos = len(f.Buf)
			return value.Str(string(rest)), nil
		}
		line := rest[:i+1]
		f.Pos += len(line)
		return value.Str(string(line)), nil
	case "readlines":
		var lines []value.Value
		for f.Pos < len(f.Buf) {
			v, _ := vm.fileMethod(handle, "readline", nil)
			lines = append(lines, v)
		}
		return value.NewList(lines), nil
	case "write":
		if len(args) != 1 {
			return nil, fmt.Errorf("TypeError: write() takes exactly one argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, fmt.Errorf("TypeError: write() argument must be str")
		}
		if !strings.ContainsAny(f.Mode, "wa") {
			return nil, fmt.Errorf("UnsupportedOperation: file not open for writing")
		}
		b := []byte(string(s))
		if f.Pos < len(f.Buf) {
			f.Buf = append(f.Buf[:f.Pos], b...)
		} else {
			f.Buf = append(f.Buf, b...)
		}
		f.Pos += len(b)
		f.Mount.Content = append([]byte(nil), f.Buf...)
		if f.Mount.Flush != nil {
			if err := f.Mount.Flush(f.Mount.HostPath, f.Mount.Content); err != nil {
				return nil, fmt.Errorf("PermissionError: %s", err)
			}
		}
		return value.Int(len(b)), nil
	case "close":
		if strings.ContainsAny(f.Mode, "wa") {
			f.Mount.Content = append([]byte(nil), f.Buf...)
			if f.Mount.Flush != nil {
				if err := f.Mount.Flush(f.Mount.HostPath, f.Mount.Content); err != nil {
					return nil, fmt.Errorf("PermissionError: %s", err)
				}
			}
		}
		f.Closed = true
		return value.None, nil
	default:
		return nil, fmt.Errorf("AttributeError: 'file' object has no attribute '%s'", name)
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
