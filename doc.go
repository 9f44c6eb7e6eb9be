/*
Package crispect discovers, enumerates and describes the containers running
on a host by talking directly to the host's container runtime daemons
(containerd, CRI-O) over their CRI gRPC API, read-only, without going
through a kubelet or the Kubernetes API server.

The module copes with the two incompatible CRI API generations still found
in the wild, v1 and v1alpha2: every runtime endpoint is probed with the
newer generation first and the probe falls back to the older generation
where necessary. The negotiated generation then stays fixed for the
lifetime of the resulting client.

# Information Model

This root package defines the canonical data model handed to callers:

  - [Container] is one container snapshot, including its Kubernetes
    metadata, running state and optionally its process, timing and network
    details.
  - [Network] holds receive/transmit counters of one sandbox "eth*" interface.
  - [TimeInfo] carries creation/start timestamps, with a nil start time for
    containers that have not been started yet.

All model objects are immutable and freshly built per query; nothing is
cached between calls.

# Clients

[github.com/crispect/crispect/runtimeclient] defines the engine-neutral
client interfaces, and [github.com/crispect/crispect/runtimeclient/cri]
implements them on top of the CRI API. In the typical case an application
constructs a single [github.com/crispect/crispect/runtimeclient/cri.MultiClient],
which probes the well-known containerd and CRI-O socket paths once and then
fans every query out over all runtimes that answered:

	client, err := cri.NewMultiClient(ctx)
	if err != nil {
	    panic(err) // no CRI runtime available on this host
	}
	defer client.Close()
	containers, err := client.ListContainers(ctx, true)

Please refer to example/main.go for a complete example.

# Container Names

The CRI API has no notion of the "k8s_..." container names that the legacy
dockershim used to synthesize, but plenty of downstream tooling still keys
on them. The clients therefore reconstruct that name from the containers'
Kubernetes labels and annotations, see the runtimeclient/cri package for
the gory details.
*/
package crispect
