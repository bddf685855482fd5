// SPDX-License-Identifier: Apache-2.0

// Package deviceplugin implements the Device Plugin Manager (spec §4.3):
// one virtual kubelet device plugin per locally-present Instance,
// registering capacity "devices" (one per usage slot) and serving
// Allocate via a CAS against the Instance's device_usage map.
package deviceplugin

import (
	"fmt"
	"path/filepath"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

func kubeletClient(socketPath string) (*grpc.ClientConn, error) {
	return grpc.NewClient(
		fmt.Sprintf("unix://%s", socketPath),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

func kubeletSocketPath(pluginDir string) string {
	return filepath.Join(pluginDir, filepath.Base(v1beta1.KubeletSocket))
}
