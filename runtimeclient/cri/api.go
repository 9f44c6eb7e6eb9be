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

package cri

import (
	"context"

	"google.golang.org/grpc"
	runtimev1 "k8s.io/cri-api/pkg/apis/runtime/v1"
	runtimev1alpha2 "k8s.io/cri-api/pkg/apis/runtime/v1alpha2"
)

// Generation identifies one of the two CRI API generations found in the
// wild. The generations share the same schema shape but differ in their
// wire-level protobuf package, so they need separate stubs.
type Generation string

// The CRI API generations this client speaks.
const (
	GenerationV1       Generation = "v1"
	GenerationV1Alpha2 Generation = "v1alpha2"
)

// kubeAPIVersion is the version of the CRI API consumer as announced in
// Version requests; the runtimes don't currently evaluate it.
const kubeAPIVersion = "0.1.0"

// versionInfo is the generation-neutral result of a Version RPC.
type versionInfo struct {
	runtimeName    string
	runtimeVersion string
	apiVersion     string
}

// containerSummary is the generation-neutral view on one entry of a
// ListContainers response.
type containerSummary struct {
	id           string
	podSandboxID string
	running      bool
	labels       map[string]string
	annotations  map[string]string
}

// containerStatus is the generation-neutral view on a ContainerStatus
// response. Unlike the list summaries it carries timestamps, and for
// verbose queries the runtime-specific extra info payload. It does NOT
// carry the pod sandbox ID, as the CRI status message simply doesn't have it.
type containerStatus struct {
	containerSummary
	createdAt int64             // nanosecond epoch.
	startedAt int64             // nanosecond epoch; 0 == not started.
	info      map[string]string // verbose extra info, JSON under key "info".
}

// netInterface is the generation-neutral view on one sandbox network
// interface's counters.
type netInterface struct {
	name     string
	rxBytes  uint64
	rxErrors uint64
	txBytes  uint64
	txErrors uint64
}

// runtimeAPI adapts exactly one CRI API generation to a neutral message
// surface, so that everything above it is written once. An adaptor is
// selected during version negotiation and then stays fixed for the client's
// lifetime; it is never re-dispatched per call.
type runtimeAPI interface {
	generation() Generation
	version(ctx context.Context) (versionInfo, error)
	listContainers(ctx context.Context) ([]containerSummary, error)
	containerStatus(ctx context.Context, id string, verbose bool) (containerStatus, error)
	podSandboxStats(ctx context.Context, podSandboxID string) ([]netInterface, error)
}

// v1API speaks the current CRI v1 generation.
type v1API struct {
	rtcl runtimev1.RuntimeServiceClient
}

func newV1API(conn *grpc.ClientConn) *v1API {
	return &v1API{rtcl: runtimev1.NewRuntimeServiceClient(conn)}
}

func (a *v1API) generation() Generation { return GenerationV1 }

func (a *v1API) version(ctx context.Context) (versionInfo, error) {
	resp, err := a.rtcl.Version(ctx, &runtimev1.VersionRequest{
		Version: kubeAPIVersion,
	})
	if err != nil {
		return versionInfo{}, err
	}
	return versionInfo{
		runtimeName:    resp.RuntimeName,
		runtimeVersion: resp.RuntimeVersion,
		apiVersion:     resp.RuntimeApiVersion,
	}, nil
}

func (a *v1API) listContainers(ctx context.Context) ([]containerSummary, error) {
	resp, err := a.rtcl.ListContainers(ctx, &runtimev1.ListContainersRequest{})
	if err != nil {
		return nil, err
	}
	summaries := make([]containerSummary, 0, len(resp.Containers))
	for _, cntr := range resp.Containers {
		summaries = append(summaries, containerSummary{
			id:           cntr.Id,
			podSandboxID: cntr.PodSandboxId,
			running:      cntr.State == runtimev1.ContainerState_CONTAINER_RUNNING,
			labels:       cntr.Labels,
			annotations:  cntr.Annotations,
		})
	}
	return summaries, nil
}

func (a *v1API) containerStatus(ctx context.Context, id string, verbose bool) (containerStatus, error) {
	resp, err := a.rtcl.ContainerStatus(ctx, &runtimev1.ContainerStatusRequest{
		ContainerId: id,
		Verbose:     verbose,
	})
	if err != nil {
		return containerStatus{}, err
	}
	st := resp.GetStatus()
	return containerStatus{
		containerSummary: containerSummary{
			id:          st.GetId(),
			running:     st.GetState() == runtimev1.ContainerState_CONTAINER_RUNNING,
			labels:      st.GetLabels(),
			annotations: st.GetAnnotations(),
		},
		createdAt: st.GetCreatedAt(),
		startedAt: st.GetStartedAt(),
		info:      resp.GetInfo(),
	}, nil
}

func (a *v1API) podSandboxStats(ctx context.Context, podSandboxID string) ([]netInterface, error) {
	resp, err := a.rtcl.PodSandboxStats(ctx, &runtimev1.PodSandboxStatsRequest{
		PodSandboxId: podSandboxID,
	})
	if err != nil {
		return nil, err
	}
	ifaces := resp.GetStats().GetLinux().GetNetwork().GetInterfaces()
	interfaces := make([]netInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		interfaces = append(interfaces, netInterface{
			name:     iface.GetName(),
			rxBytes:  iface.GetRxBytes().GetValue(),
			rxErrors: iface.GetRxErrors().GetValue(),
			txBytes:  iface.GetTxBytes().GetValue(),
			txErrors: iface.GetTxErrors().GetValue(),
		})
	}
	return interfaces, nil
}

// v1alpha2API speaks the legacy CRI v1alpha2 generation, still served by
// older containerd 1.x and CRI-O deployments.
type v1alpha2API struct {
	rtcl runtimev1alpha2.RuntimeServiceClient
}

func newV1Alpha2API(conn *grpc.ClientConn) *v1alpha2API {
	return &v1alpha2API{rtcl: runtimev1alpha2.NewRuntimeServiceClient(conn)}
}

func (a *v1alpha2API) generation() Generation { return GenerationV1Alpha2 }

func (a *v1alpha2API) version(ctx context.Context) (versionInfo, error) {
	resp, err := a.rtcl.Version(ctx, &runtimev1alpha2.VersionRequest{
		Version: kubeAPIVersion,
	})
	if err != nil {
		return versionInfo{}, err
	}
	return versionInfo{
		runtimeName:    resp.RuntimeName,
		runtimeVersion: resp.RuntimeVersion,
		apiVersion:     resp.RuntimeApiVersion,
	}, nil
}

func (a *v1alpha2API) listContainers(ctx context.Context) ([]containerSummary, error) {
	resp, err := a.rtcl.ListContainers(ctx, &runtimev1alpha2.ListContainersRequest{})
	if err != nil {
		return nil, err
	}
	summaries := make([]containerSummary, 0, len(resp.Containers))
	for _, cntr := range resp.Containers {
		summaries = append(summaries, containerSummary{
			id:           cntr.Id,
			podSandboxID: cntr.PodSandboxId,
			running:      cntr.State == runtimev1alpha2.ContainerState_CONTAINER_RUNNING,
			labels:       cntr.Labels,
			annotations:  cntr.Annotations,
		})
	}
	return summaries, nil
}

func (a *v1alpha2API) containerStatus(ctx context.Context, id string, verbose bool) (containerStatus, error) {
	resp, err := a.rtcl.ContainerStatus(ctx, &runtimev1alpha2.ContainerStatusRequest{
		ContainerId: id,
		Verbose:     verbose,
	})
	if err != nil {
		return containerStatus{}, err
	}
	st := resp.GetStatus()
	return containerStatus{
		containerSummary: containerSummary{
			id:          st.GetId(),
			running:     st.GetState() == runtimev1alpha2.ContainerState_CONTAINER_RUNNING,
			labels:      st.GetLabels(),
			annotations: st.GetAnnotations(),
		},
		createdAt: st.GetCreatedAt(),
		startedAt: st.GetStartedAt(),
		info:      resp.GetInfo(),
	}, nil
}

func (a *v1alpha2API) podSandboxStats(ctx context.Context, podSandboxID string) ([]netInterface, error) {
	resp, err := a.rtcl.PodSandboxStats(ctx, &runtimev1alpha2.PodSandboxStatsRequest{
		PodSandboxId: podSandboxID,
	})
	if err != nil {
		return nil, err
	}
	ifaces := resp.GetStats().GetLinux().GetNetwork().GetInterfaces()
	interfaces := make([]netInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		interfaces = append(interfaces, netInterface{
			name:     iface.GetName(),
			rxBytes:  iface.GetRxBytes().GetValue(),
			rxErrors: iface.GetRxErrors().GetValue(),
			txBytes:  iface.GetTxBytes().GetValue(),
			txErrors: iface.GetTxErrors().GetValue(),
		})
	}
	return interfaces, nil
}
