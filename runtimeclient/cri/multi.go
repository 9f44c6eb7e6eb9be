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

	"github.com/crispect/crispect"
	"github.com/crispect/crispect/runtimeclient"
)

// WellKnownRuntimeEndpoints are the socket paths probed by default when
// creating a MultiClient: the containerd and CRI-O daemon sockets.
var WellKnownRuntimeEndpoints = []string{
	"/run/containerd/containerd.sock",
	"/var/run/crio/crio.sock",
}

// MultiClient presents one unified, read-only container query API over all
// CRI runtimes of a host. The per-runtime clients are established once, by
// probing every known runtime socket path at construction; the resulting
// client set then stays fixed for the MultiClient's lifetime and every
// query fans out over it sequentially, in probe order.
type MultiClient struct {
	clients   []*RuntimeClient
	endpoints []string
}

type multiClientOpts struct {
	endpoints  []string
	clientOpts []ClientOpt
}

// MultiClientOpt is an option passed to the creation of a MultiClient.
type MultiClientOpt func(*multiClientOpts)

// WithEndpoints replaces the well-known runtime socket paths with the
// specified ones; they are probed in the given order.
func WithEndpoints(socketpaths ...string) MultiClientOpt {
	return func(o *multiClientOpts) {
		o.endpoints = socketpaths
	}
}

// WithClientOpts passes the specified options on to every per-runtime
// client probe.
func WithClientOpts(opts ...ClientOpt) MultiClientOpt {
	return func(o *multiClientOpts) {
		o.clientOpts = opts
	}
}

// NewMultiClient probes all known runtime socket paths and returns a
// MultiClient over those runtimes that answered. It fails with a
// runtimeclient.CRIUnavailableError, naming the attempted socket paths,
// when not a single runtime could be probed successfully.
func NewMultiClient(ctx context.Context, opts ...MultiClientOpt) (*MultiClient, error) {
	mopts := multiClientOpts{
		endpoints: WellKnownRuntimeEndpoints,
	}
	for _, opt := range opts {
		opt(&mopts)
	}
	mc := &MultiClient{
		endpoints: append([]string(nil), mopts.endpoints...),
	}
	for _, endpoint := range mc.endpoints {
		client, err := Probe(ctx, endpoint, mopts.clientOpts...)
		if err != nil {
			_ = mc.Close()
			return nil, err
		}
		if client == nil {
			continue // no runtime serving this endpoint.
		}
		mc.clients = append(mc.clients, client)
	}
	if len(mc.clients) == 0 {
		return nil, &runtimeclient.CRIUnavailableError{Endpoints: mc.endpoints}
	}
	return mc, nil
}

// Make sure that the ContainersClient interface is fully implemented.
var _ (runtimeclient.ContainersClient) = (*MultiClient)(nil)

// ListContainers returns the concatenated container snapshots of all held
// runtime clients, in probe order. Container IDs are not deduplicated
// across runtimes: should two daemons ever report overlapping IDs, that is
// surfaced as-is, as (runtime, ID) is the true container key.
func (mc *MultiClient) ListContainers(ctx context.Context, allInfo bool) ([]*crispect.Container, error) {
	containers := []*crispect.Container{}
	for _, client := range mc.clients {
		cntrs, err := client.ListContainers(ctx, allInfo)
		if err != nil {
			return nil, err
		}
		containers = append(containers, cntrs...)
	}
	return containers, nil
}

// GetContainer queries the held runtime clients in probe order and returns
// the first runtime's answer for the specified container ID. When no
// runtime knows the container, it fails with a
// runtimeclient.ContainerNotFoundError naming the requested ID.
func (mc *MultiClient) GetContainer(ctx context.Context, id string, allInfo bool) (*crispect.Container, error) {
	for _, client := range mc.clients {
		cntr, err := client.GetContainer(ctx, id, allInfo)
		if err != nil {
			return nil, err
		}
		if cntr != nil {
			return cntr, nil
		}
	}
	return nil, &runtimeclient.ContainerNotFoundError{ID: id}
}

// GetRuntimes returns the ordered runtime names of all held clients, for
// diagnostics.
func (mc *MultiClient) GetRuntimes() []string {
	runtimes := make([]string, 0, len(mc.clients))
	for _, client := range mc.clients {
		runtimes = append(runtimes, client.RuntimeName())
	}
	return runtimes
}

// Clients returns the held per-runtime clients, in probe order.
func (mc *MultiClient) Clients() []*RuntimeClient {
	return append([]*RuntimeClient(nil), mc.clients...)
}

// Close cleans up and releases the sessions of all held runtime clients,
// reporting the first close failure, if any.
func (mc *MultiClient) Close() error {
	var firstErr error
	for _, client := range mc.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	mc.clients = nil
	return firstErr
}
