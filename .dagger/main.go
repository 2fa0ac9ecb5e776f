// Folio CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/folio/internal/dagger"
)

// Folio is the main module for the Folio CI/CD pipeline
type Folio struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Folio CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp"]
	source *dagger.Directory,
) *Folio {
	return &Folio{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// It is the shared foundation for tests and builds.
func (f *Folio) goContainer() *dagger.Container {
	return f.goContainerFor("")
}

// goContainerFor is goContainer on the given platform. An empty platform
// uses the engine's own.
func (f *Folio) goContainerFor(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", f.Source)
}

// Test runs the folio unit tests via "go test"
func (f *Folio) Test(ctx context.Context) (string, error) {
	return f.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestPostgres runs the PostgreSQL transcript driver tests against a
// throwaway postgres service.
func (f *Folio) TestPostgres(ctx context.Context) (string, error) {
	db := dag.Container().
		From("postgres:17-alpine").
		WithEnvVariable("POSTGRES_USER", "folio").
		WithEnvVariable("POSTGRES_PASSWORD", "folio").
		WithEnvVariable("POSTGRES_DB", "folio").
		WithExposedPort(5432).
		AsService()

	return f.goContainer().
		WithServiceBinding("db", db).
		WithEnvVariable("FOLIO_TEST_POSTGRES_DSN", "postgres://folio:folio@db:5432/folio?sslmode=disable").
		WithExec([]string{"go", "test", "-v", "./pkg/transcript/postgres/..."}).
		Stdout(ctx)
}
