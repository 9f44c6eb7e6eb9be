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
	"encoding/json"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/exp/maps"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/crispect/crispect"
	"github.com/crispect/crispect/runtimeclient"
)

// RuntimeClient introspects the containers of a single CRI-supporting
// runtime daemon. It is bound to one live session and one negotiated API
// generation, established when the underlying Client was created.
type RuntimeClient struct {
	client *Client
}

// NewRuntimeClient returns a new RuntimeClient using the specified CRI API
// client; normally, you would want to use this lower-level constructor only
// in unit tests and instead use Probe or NewMultiClient in most use cases.
func NewRuntimeClient(client *Client) *RuntimeClient {
	return &RuntimeClient{client: client}
}

// Make sure that the RuntimeClient interface is fully implemented.
var _ (runtimeclient.RuntimeClient) = (*RuntimeClient)(nil)

// RuntimeName returns the runtime name reported by the daemon's Version
// RPC, such as "containerd" or "cri-o".
func (c *RuntimeClient) RuntimeName() string { return c.client.RuntimeName() }

// Generation returns the negotiated CRI API generation.
func (c *RuntimeClient) Generation() Generation { return c.client.Generation() }

// Address returns the API endpoint address this client is connected to.
func (c *RuntimeClient) Address() string { return c.client.Address() }

// Client returns the underlying CRI API client.
func (c *RuntimeClient) Client() *Client { return c.client }

// Close cleans up and releases the client's session.
func (c *RuntimeClient) Close() error { return c.client.Close() }

// ListContainers returns snapshots for all containers the runtime reports.
// Without allInfo the list response is translated directly, so the
// snapshots lack process, timing and network details. With allInfo each
// listed container is additionally queried for its verbose status, one
// round trip per container; containers disappearing between the list and
// the status query are silently skipped, as such races are inherent to the
// CRI API and expected.
func (c *RuntimeClient) ListContainers(ctx context.Context, allInfo bool) ([]*crispect.Container, error) {
	summaries, err := c.listContainers(ctx)
	if err != nil {
		return nil, err
	}
	containers := make([]*crispect.Container, 0, len(summaries))
	for _, summary := range summaries {
		if !allInfo {
			cntr, err := c.newContainer(summary, nil, 0, nil)
			if err != nil {
				return nil, err
			}
			containers = append(containers, cntr)
			continue
		}
		cntr, err := c.getContainer(ctx, summary.id, true, summary.podSandboxID)
		if err != nil {
			return nil, err
		}
		if cntr == nil {
			continue // gone between list and status query.
		}
		containers = append(containers, cntr)
	}
	return containers, nil
}

// GetContainer returns the snapshot for the container with the specified
// ID, or nil without an error when the runtime (no longer) knows it.
func (c *RuntimeClient) GetContainer(ctx context.Context, id string, allInfo bool) (*crispect.Container, error) {
	return c.getContainer(ctx, id, allInfo, "")
}

// GetNetworks returns the "eth*" interface counters of the pod sandbox the
// specified container runs in, in the runtime's reporting order. The CRI
// API has no direct container→sandbox lookup, so this costs an extra full
// container listing to cross-reference the sandbox ID; callers needing
// network details for many containers should prefer a verbose
// ListContainers instead.
func (c *RuntimeClient) GetNetworks(ctx context.Context, id string) ([]crispect.Network, error) {
	summaries, err := c.listContainers(ctx)
	if err != nil {
		return nil, err
	}
	podSandboxID := ""
	for _, summary := range summaries {
		if summary.id == id {
			podSandboxID = summary.podSandboxID
			break
		}
	}
	if podSandboxID == "" {
		return nil, &runtimeclient.ContainerNotFoundError{ID: id}
	}
	return c.sandboxNetworks(ctx, podSandboxID)
}

// listContainers fetches the current container summaries, within the
// client's RPC deadline.
func (c *RuntimeClient) listContainers(ctx context.Context) ([]containerSummary, error) {
	ctx, cancel := c.client.callContext(ctx)
	defer cancel()
	summaries, err := c.client.api.listContainers(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list containers of %q", c.RuntimeName())
	}
	return summaries, nil
}

// getContainer fetches and translates a single container's status (or its
// plain summary when verbose is false). It returns nil without an error
// when the runtime doesn't know the container: disappearing between an
// enumeration and this detail query is an expected race, not a failure. The
// pod sandbox ID may be passed in when already known from a listing,
// sparing the extra cross-referencing round trip for the network counters.
func (c *RuntimeClient) getContainer(ctx context.Context, id string, verbose bool, podSandboxID string) (*crispect.Container, error) {
	sctx, cancel := c.client.callContext(ctx)
	st, err := c.client.api.containerStatus(sctx, id, verbose)
	cancel()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "cannot query status of container %q", id)
	}

	timeInfo := &crispect.TimeInfo{
		CreateTime: time.Unix(0, st.createdAt).UTC(),
	}
	if st.startedAt != 0 { // 0 == not started, per the ContainerStatus message docs.
		startTime := time.Unix(0, st.startedAt).UTC()
		timeInfo.StartTime = &startTime
	}

	pid := 0
	if verbose {
		if info, ok := st.info["info"]; ok && info != "" {
			var innerInfo struct {
				PID int `json:"pid"`
			}
			if err := json.Unmarshal([]byte(info), &innerInfo); err != nil {
				return nil, errors.Wrapf(err, "malformed verbose info for container %q", id)
			}
			pid = innerInfo.PID
		}
	}

	var networks []crispect.Network
	if verbose {
		if podSandboxID == "" {
			networks, err = c.GetNetworks(ctx, id)
		} else {
			networks, err = c.sandboxNetworks(ctx, podSandboxID)
		}
		if err != nil {
			// Network enrichment is best-effort: sandbox stats support
			// varies between runtimes and versions.
			log.G(ctx).WithError(err).WithField("container", id).
				Debug("no sandbox network statistics")
			networks = nil
		}
	}

	return c.newContainer(st.containerSummary, timeInfo, pid, networks)
}

// sandboxNetworks queries the network statistics of a pod sandbox and
// retains the "eth*" interfaces in their original order, deliberately
// dropping loopback, bridge and other non-pod interfaces.
func (c *RuntimeClient) sandboxNetworks(ctx context.Context, podSandboxID string) ([]crispect.Network, error) {
	ctx, cancel := c.client.callContext(ctx)
	defer cancel()
	ifaces, err := c.client.api.podSandboxStats(ctx, podSandboxID)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "cannot query stats of pod sandbox %q", podSandboxID)
	}
	networks := []crispect.Network{}
	for _, iface := range ifaces {
		if !strings.HasPrefix(iface.name, "eth") {
			continue
		}
		networks = append(networks, crispect.Network{
			Name:     iface.name,
			RxBytes:  iface.rxBytes,
			RxErrors: iface.rxErrors,
			TxBytes:  iface.txBytes,
			TxErrors: iface.txErrors,
		})
	}
	return networks, nil
}

// newContainer translates a generation-neutral container message into the
// caller-facing snapshot. The timing, process and network details are
// optional, as only verbose status queries can supply them.
func (c *RuntimeClient) newContainer(
	summary containerSummary,
	timeInfo *crispect.TimeInfo,
	pid int,
	networks []crispect.Network,
) (*crispect.Container, error) {
	name, err := makeContainerName(summary.labels, summary.annotations)
	if err != nil {
		return nil, errors.Wrapf(err, "unexpected non-Kubernetes container %q from %q",
			summary.id, c.RuntimeName())
	}

	var proc *process.Process
	if pid != 0 {
		// The process may have gone away since the runtime reported the
		// PID; a snapshot without a process handle is then correct.
		if p, err := process.NewProcess(int32(pid)); err == nil {
			proc = p
		}
	}

	return &crispect.Container{
		Runtime:     c.RuntimeName(),
		ID:          summary.id,
		Name:        name,
		Labels:      maps.Clone(summary.labels),
		Annotations: maps.Clone(summary.annotations),
		Running:     summary.running,
		Process:     proc,
		TimeInfo:    timeInfo,
		Networks:    networks,
	}, nil
}
