// Package blob is the artifact storage facade. The import/export layer
// writes rendered files here and hands artifact keys back to callers.
package blob

import (
	"creocore/internal/blob/core"
)

type (
	// Driver identifies an artifact storage backend.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// Info describes a stored artifact.
	Info = core.Info
	// Store is the interface artifact backends implement.
	Store = core.Store
)

const (
	// DriverFilesystem stores artifacts under a local directory.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 stores artifacts in an S3 or MinIO bucket.
	DriverS3 = core.DriverS3
	// DriverMemory keeps artifacts in process memory, for tests.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates a backend lacks an optional capability.
var ErrUnsupported = core.ErrUnsupported
