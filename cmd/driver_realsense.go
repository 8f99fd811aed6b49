//go:build realsense

package cmd

import (
	// librealsense2 backend
	_ "github.com/babelcloud/rscli/internal/device/realsense"
)
