// Package defaults holds data files compiled into the binary.
package defaults

import (
	"embed"
	"strings"
)

//go:embed useragents.txt
var useragentsEmbed embed.FS

// UserAgents returns the built-in User-Agent rotation pool, one per line of
// useragents.txt.
func UserAgents() []string {
	data, err := useragentsEmbed.ReadFile("useragents.txt")
	if err != nil {
		return nil
	}

	var agents []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		agents = append(agents, line)
	}
	return agents
}
