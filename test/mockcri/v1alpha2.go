// Copyright 2024 The crispect authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mockcri

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	runtimev1alpha2 "k8s.io/cri-api/pkg/apis/runtime/v1alpha2"
)

// serviceV1Alpha2 serves the legacy v1alpha2 generation of the mocked
// RuntimeService.
type serviceV1Alpha2 struct {
	runtimev1alpha2.UnimplementedRuntimeServiceServer
	s *Server
}

func (svc *serviceV1Alpha2) Version(ctx context.Context, req *runtimev1alpha2.VersionRequest) (*runtimev1alpha2.VersionResponse, error) {
	return &runtimev1alpha2.VersionResponse{
		Version:           "0.1.0",
		RuntimeName:       svc.s.runtimeName,
		RuntimeVersion:    "1.6.33-mock",
		RuntimeApiVersion: "v1alpha2",
	}, nil
}

func (svc *serviceV1Alpha2) ListContainers(ctx context.Context, req *runtimev1alpha2.ListContainersRequest) (*runtimev1alpha2.ListContainersResponse, error) {
	resp := &runtimev1alpha2.ListContainersResponse{}
	for _, c := range svc.s.list() {
		state := runtimev1alpha2.ContainerState_CONTAINER_EXITED
		if c.Running {
			state = runtimev1alpha2.ContainerState_CONTAINER_RUNNING
		}
		resp.Containers = append(resp.Containers, &runtimev1alpha2.Container{
			Id:           c.ID,
			PodSandboxId: c.PodSandboxID,
			Metadata:     &runtimev1alpha2.ContainerMetadata{Name: c.Name},
			State:        state,
			CreatedAt:    c.CreatedAt,
			Labels:       c.Labels,
			Annotations:  c.Annotations,
		})
	}
	return resp, nil
}

func (svc *serviceV1Alpha2) ContainerStatus(ctx context.Context, req *runtimev1alpha2.ContainerStatusRequest) (*runtimev1alpha2.ContainerStatusResponse, error) {
	c, ok := svc.s.lookup(req.ContainerId)
	if !ok {
		return nil, status.Errorf(codes.NotFound,
			"container %q not found", req.ContainerId)
	}
	state := runtimev1alpha2.ContainerState_CONTAINER_EXITED
	if c.Running {
		state = runtimev1alpha2.ContainerState_CONTAINER_RUNNING
	}
	resp := &runtimev1alpha2.ContainerStatusResponse{
		Status: &runtimev1alpha2.ContainerStatus{
			Id:          c.ID,
			Metadata:    &runtimev1alpha2.ContainerMetadata{Name: c.Name},
			State:       state,
			CreatedAt:   c.CreatedAt,
			StartedAt:   c.StartedAt,
			Labels:      c.Labels,
			Annotations: c.Annotations,
		},
	}
	if req.Verbose {
		resp.Info = verboseInfo(c)
	}
	return resp, nil
}

func (svc *serviceV1Alpha2) PodSandboxStats(ctx context.Context, req *runtimev1alpha2.PodSandboxStatsRequest) (*runtimev1alpha2.PodSandboxStatsResponse, error) {
	ifaces, ok := svc.s.sandboxStats(req.PodSandboxId)
	if !ok {
		return nil, status.Errorf(codes.NotFound,
			"pod sandbox %q not found", req.PodSandboxId)
	}
	interfaces := make([]*runtimev1alpha2.NetworkInterfaceUsage, 0, len(ifaces))
	for _, iface := range ifaces {
		interfaces = append(interfaces, &runtimev1alpha2.NetworkInterfaceUsage{
			Name:     iface.Name,
			RxBytes:  &runtimev1alpha2.UInt64Value{Value: iface.RxBytes},
			RxErrors: &runtimev1alpha2.UInt64Value{Value: iface.RxErrors},
			TxBytes:  &runtimev1alpha2.UInt64Value{Value: iface.TxBytes},
			TxErrors: &runtimev1alpha2.UInt64Value{Value: iface.TxErrors},
		})
	}
	return &runtimev1alpha2.PodSandboxStatsResponse{
		Stats: &runtimev1alpha2.PodSandboxStats{
			Attributes: &runtimev1alpha2.PodSandboxAttributes{Id: req.PodSandboxId},
			Linux: &runtimev1alpha2.LinuxPodSandboxStats{
				Network: &runtimev1alpha2.NetworkUsage{
					Interfaces: interfaces,
				},
			},
		},
	}, nil
}
