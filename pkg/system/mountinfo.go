package system

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const mountInfoPath = "/proc/self/mountinfo"

// isMountPoint scans the kernel mount table for path. Octal escapes
// produced by the kernel for spaces and tabs in mount points are
// decoded before comparison.
func isMountPoint(path string) (bool, error) {
	f, err := os.Open(mountInfoPath)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return scanMountInfo(f, path)
}

func scanMountInfo(r io.Reader, path string) (bool, error) {
	target := filepath.Clean(path)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		// mountinfo fields: id parent major:minor root mountpoint ...
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}
		if unescapeMountPath(fields[4]) == target {
			return true, nil
		}
	}
	return false, sc.Err()
}

// unescapeMountPath decodes the \040-style octal escapes the kernel
// uses in mountinfo mount point fields.
func unescapeMountPath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) &&
			isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
