package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/folio/internal/dagger"
)

// binaries are the commands under ./cli built into every artifact directory.
var binaries = []string{"folio", "foliopreview", "foliomcp"}

// Build and return directory of go binaries
//
// The SQLite transcript driver needs cgo, so binaries are built natively
// inside the Debian container for each Linux architecture.
func (f *Folio) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	goarches := []string{"amd64", "arm64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := f.goContainerFor(dagger.Platform("linux/" + goarch))
		for _, bin := range binaries {
			build = build.WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/" + bin})
		}

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (f *Folio) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/frantai/folio/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/frantai/folio/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/frantai/folio/pkg/utils.Buildtime=%s'", buildtime),
	}

	return f.Build(ctx, strings.Join(ldflags, " "))
}
