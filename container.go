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

package crispect

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// Container is a read-only snapshot of a single container as reported by a
// container runtime through its CRI API. It covers only those few bits of
// data needed for host introspection: identity, Kubernetes metadata, running
// state, and (when queried verbosely) timing, process and network details.
//
// Container IDs are unique only within a single runtime's namespace, not
// across all runtimes on the same host: the true key is (Runtime, ID).
//
// Container objects are immutable; they are freshly constructed on every
// query and exclusively owned by the caller receiving them.
type Container struct {
	Runtime     string            // runtime name as reported by the daemon's Version RPC.
	ID          string            // runtime-scoped unique identifier of this container.
	Name        string            // reconstructed Kubernetes-style (dockershim) name.
	Labels      map[string]string // labels assigned to this container.
	Annotations map[string]string // annotations assigned to this container.
	Running     bool              // true if the runtime reports the container as running.

	// Process is the container's initial process, when the runtime revealed
	// a non-zero PID and that PID still resolved to a live process at query
	// time. It may legitimately be nil even for a running container.
	Process *process.Process

	// TimeInfo carries the creation/start timestamps; only verbose status
	// queries return them, so TimeInfo is nil for plain list results.
	TimeInfo *TimeInfo

	// Networks are the per-interface counters of the container's pod
	// sandbox; possibly empty when the sandbox stats query fails or returns
	// nothing.
	Networks []Network
}

// String renders a textual representation of the information kept about a
// specific container, such as its name, ID and the reporting runtime.
func (c Container) String() string {
	state := "stopped"
	if c.Running {
		state = "running"
	}
	return fmt.Sprintf("%s container '%s'/%s on %s", state, c.Name, c.ID, c.Runtime)
}
