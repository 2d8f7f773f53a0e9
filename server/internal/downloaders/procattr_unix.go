//go:build !windows

package downloaders

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// yt-dlp spawns its own children (ffmpeg). The parent is started in a
	// fresh process group so a cancel reaches all of them.
	cmd.Cancel = func() error {
		pgid, err := unix.Getpgid(cmd.Process.Pid)
		if err != nil {
			return err
		}
		return unix.Kill(-pgid, unix.SIGTERM)
	}
}
