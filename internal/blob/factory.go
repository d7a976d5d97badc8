package blob

import (
	"context"
	"fmt"
	"os"

	blobfs "creocore/internal/infra/blob/fs"
	blobmemory "creocore/internal/infra/blob/memory"
	blobs3 "creocore/internal/infra/blob/s3"
)

// Environment variables selecting the artifact backend.
//
//	CREOCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	CREOCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./creocore-artifacts)
//	S3 variables are documented in the s3 package.
const (
	EnvDriver = "CREOCORE_BLOB_DRIVER"
	EnvFSRoot = "CREOCORE_BLOB_FS_ROOT"
)

// Open selects a Store implementation from the process environment.
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv(EnvDriver)
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return blobfs.New(os.Getenv(EnvFSRoot))
	case DriverS3:
		return blobs3.OpenFromEnv(ctx)
	case DriverMemory:
		return blobmemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
