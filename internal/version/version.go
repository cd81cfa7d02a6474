// Package version reports build information.
package version

import (
	"fmt"
	"runtime"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Set with -ldflags at release time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes this build.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
	// Dialects lists the SQL dialects compiled in.
	Dialects []string
}

// Get returns the build information.
func Get() Info {
	dialects := translator.Dialects()
	names := make([]string, len(dialects))
	for i, d := range dialects {
		names[i] = d.Name
	}
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dialects:  names,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("joinql version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns every field, one per line.
func (i Info) FullString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "joinql version %s\n", i.Version)
	fmt.Fprintf(&b, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(&b, "Git Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&b, "Platform: %s\n", i.Platform)
	fmt.Fprintf(&b, "Go Version: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Dialects: %s", strings.Join(i.Dialects, ", "))
	return b.String()
}

// Validate checks that Version is a semantic version.
func (i Info) Validate() error {
	if _, err := goversion.NewSemver(i.Version); err != nil {
		return fmt.Errorf("invalid version %q: %w", i.Version, err)
	}
	return nil
}
