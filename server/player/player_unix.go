//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

const defaultPlayer = "vlc"

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func localPaths(paths []string) []string { return paths }
