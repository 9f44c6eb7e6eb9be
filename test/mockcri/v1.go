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
	runtimev1 "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// serviceV1 serves the v1 generation of the mocked RuntimeService.
type serviceV1 struct {
	runtimev1.UnimplementedRuntimeServiceServer
	s *Server
}

func (svc *serviceV1) Version(ctx context.Context, req *runtimev1.VersionRequest) (*runtimev1.VersionResponse, error) {
	return &runtimev1.VersionResponse{
		Version:           "0.1.0",
		RuntimeName:       svc.s.runtimeName,
		RuntimeVersion:    "1.6.33-mock",
		RuntimeApiVersion: "v1",
	}, nil
}

func (svc *serviceV1) ListContainers(ctx context.Context, req *runtimev1.ListContainersRequest) (*runtimev1.ListContainersResponse, error) {
	resp := &runtimev1.ListContainersResponse{}
	for _, c := range svc.s.list() {
		state := runtimev1.ContainerState_CONTAINER_EXITED
		if c.Running {
			state = runtimev1.ContainerState_CONTAINER_RUNNING
		}
		resp.Containers = append(resp.Containers, &runtimev1.Container{
			Id:           c.ID,
			PodSandboxId: c.PodSandboxID,
			Metadata:     &runtimev1.ContainerMetadata{Name: c.Name},
			State:        state,
			CreatedAt:    c.CreatedAt,
			Labels:       c.Labels,
			Annotations:  c.Annotations,
		})
	}
	return resp, nil
}

func (svc *serviceV1) ContainerStatus(ctx context.Context, req *runtimev1.ContainerStatusRequest) (*runtimev1.ContainerStatusResponse, error) {
	c, ok := svc.s.lookup(req.ContainerId)
	if !ok {
		return nil, status.Errorf(codes.NotFound,
			"container %q not found", req.ContainerId)
	}
	state := runtimev1.ContainerState_CONTAINER_EXITED
	if c.Running {
		state = runtimev1.ContainerState_CONTAINER_RUNNING
	}
	resp := &runtimev1.ContainerStatusResponse{
		Status: &runtimev1.ContainerStatus{
			Id:          c.ID,
			Metadata:    &runtimev1.ContainerMetadata{Name: c.Name},
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

func (svc *serviceV1) PodSandboxStats(ctx context.Context, req *runtimev1.PodSandboxStatsRequest) (*runtimev1.PodSandboxStatsResponse, error) {
	ifaces, ok := svc.s.sandboxStats(req.PodSandboxId)
	if !ok {
		return nil, status.Errorf(codes.NotFound,
			"pod sandbox %q not found", req.PodSandboxId)
	}
	interfaces := make([]*runtimev1.NetworkInterfaceUsage, 0, len(ifaces))
	for _, iface := range ifaces {
		interfaces = append(interfaces, &runtimev1.NetworkInterfaceUsage{
			Name:     iface.Name,
			RxBytes:  &runtimev1.UInt64Value{Value: iface.RxBytes},
			RxErrors: &runtimev1.UInt64Value{Value: iface.RxErrors},
			TxBytes:  &runtimev1.UInt64Value{Value: iface.TxBytes},
			TxErrors: &runtimev1.UInt64Value{Value: iface.TxErrors},
		})
	}
	return &runtimev1.PodSandboxStatsResponse{
		Stats: &runtimev1.PodSandboxStats{
			Attributes: &runtimev1.PodSandboxAttributes{Id: req.PodSandboxId},
			Linux: &runtimev1.LinuxPodSandboxStats{
				Network: &runtimev1.NetworkUsage{
					Interfaces: interfaces,
				},
			},
		},
	}, nil
}
