package main

import (
	"context"
	"fmt"
	"path"

	"dagger/folio/internal/dagger"
)

// releaseRoot is the bucket directory every folio release lives under.
const releaseRoot = "folio"

// releaseBucket holds the S3-compatible bucket credentials for a release.
type releaseBucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// Package turns the per-architecture build directories into release
// archives named folio_<version>_linux_<arch>.tar.gz, alongside a
// SHA256SUMS file covering all of them.
func (f *Folio) Package(
	ctx context.Context,

	// Version string (e.g., "v1.0.0" or "nightly")
	version string,

	// Git commit SHA
	commit string,
) *dagger.Directory {
	script := fmt.Sprintf(`set -e
mkdir -p /dist
for arch in amd64 arm64; do
  name=folio_%[1]s_linux_${arch}
  tar -C /build/linux/${arch} -czf /dist/${name}.tar.gz .
done
cd /dist && sha256sum *.tar.gz > SHA256SUMS
`, version)

	return dag.Container().
		From("debian:bookworm-slim").
		WithDirectory("/build", f.BuildRelease(ctx, version, commit)).
		WithExec([]string{"sh", "-c", script}).
		Directory("/dist")
}

// publish syncs dist to <releaseRoot>/<channel> in the bucket.
func (f *Folio) publish(
	ctx context.Context,
	dist *dagger.Directory,
	channel string,
	bucket *releaseBucket,
) error {
	bucketName, err := bucket.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket name: %w", err)
	}

	endpointUrl, err := bucket.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}

	destination := fmt.Sprintf("s3://%s", path.Join(bucketName, releaseRoot, channel))

	_, err = dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", bucket.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", bucket.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/dist", dist).
		WithWorkdir("/dist").
		WithExec([]string{
			"aws", "s3", "sync", ".",
			destination,
			"--endpoint-url", endpointUrl,
			"--delete",
		}).
		Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish folio %s: %w", channel, err)
	}

	return nil
}

// Release packages folio at version and publishes it under both
// folio/<version> and folio/latest.
func (f *Folio) Release(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	dest := &releaseBucket{
		endpoint:        endpoint,
		name:            bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	}

	dist := f.Package(ctx, version, commit)
	for _, channel := range []string{version, "latest"} {
		if err := f.publish(ctx, dist, channel, dest); err != nil {
			return dist, err
		}
	}

	return dist, nil
}

// Nightly packages the current commit and publishes it to folio/nightly.
func (f *Folio) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	dist := f.Package(ctx, "nightly", commit)
	return dist, f.publish(ctx, dist, "nightly", &releaseBucket{
		endpoint:        endpoint,
		name:            bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	})
}
