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

package runtimeclient

import (
	"context"

	"github.com/crispect/crispect"
)

// RuntimeClient defines the methods needed in order to introspect the
// containers of a single container runtime daemon, regardless of the
// specific runtime and of the specific API generation spoken on the wire.
type RuntimeClient interface {
	// ListContainers returns snapshots for all containers the runtime
	// reports. Passing allInfo additionally populates the process, timing
	// and network details, at the price of one verbose status round trip
	// per container.
	ListContainers(ctx context.Context, allInfo bool) ([]*crispect.Container, error)
	// GetContainer returns the snapshot for a single container, or nil
	// (without error) when the runtime doesn't know the container. The
	// container legitimately may have disappeared between an earlier
	// enumeration and this lookup.
	GetContainer(ctx context.Context, id string, allInfo bool) (*crispect.Container, error)
	// GetNetworks returns the "eth*" interface counters of the pod sandbox
	// the specified container runs in.
	GetNetworks(ctx context.Context, id string) ([]crispect.Network, error)

	// RuntimeName returns the runtime name reported by the daemon's Version
	// RPC, such as "containerd" or "cri-o".
	RuntimeName() string

	// Close cleans up and releases any client resources, if necessary.
	Close() error
}

// ContainersClient is the unified read API over all container runtimes of a
// host; queries fan out over the individual per-runtime clients.
type ContainersClient interface {
	// ListContainers returns the concatenated container snapshots of all
	// runtimes, in probe order.
	ListContainers(ctx context.Context, allInfo bool) ([]*crispect.Container, error)
	// GetContainer queries the runtimes in probe order and returns the
	// first match; it fails with a ContainerNotFoundError when no runtime
	// knows the requested container.
	GetContainer(ctx context.Context, id string, allInfo bool) (*crispect.Container, error)
	// GetRuntimes returns the ordered runtime names of all held clients,
	// for diagnostics.
	GetRuntimes() []string
}
