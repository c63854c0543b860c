package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openCommands maps GOOS values to the command that opens a URL in the
// default browser.
var openCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser sends the user's default browser to url. The auth flow uses it
// to reach the platform consent page; callers fall back to printing the URL
// when it fails.
func OpenBrowser(url string) error {
	argv, ok := openCommands[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	cmd := exec.Command(argv[0], append(argv[1:], url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
