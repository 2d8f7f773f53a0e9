// Package sys exposes the few operating system facts the downloader reports.
package sys

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FreeSpaceReport formats the free space of dir as a status line.
func FreeSpaceReport(dir string) (string, error) {
	free, err := FreeSpace(dir)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Info: %s free in %s", humanize.Bytes(free), dir), nil
}
