/*
Package cri implements the CRI API runtime client adaptors: probing and
talking to containerd and CRI-O daemons over their CRI RuntimeService, and
aggregating multiple runtimes on the same host behind a single query API.

# Two API Generations

The CRI API exists in two generations, v1 and v1alpha2. They share the very
same schema shape but live in different wire-level protobuf packages, so a
v1 stub pointed at a v1alpha2-only daemon gets an "unknown service" back.
[Probe] therefore issues a Version RPC on the newer v1 generation first and
falls back to v1alpha2 when the daemon rejects the v1 message schema. The
generation won once is then fixed for the client's lifetime; there's no
per-call re-dispatching. Everything above the small per-generation stub
adaptors is generation-neutral and written only once.

# CRI API Model

The [CRI API] obviously has been designed to primarily serve the needs of
(crying) kubelets, and it shows as soon as anything else wants answers from
it:

  - ListContainers returns container IDs, labels, annotations, states and
    the pod sandbox IDs, but no timestamps beyond creation, no PIDs, and
    no network statistics.
  - ContainerStatus must be queried per container, with its "verbose" flag
    set, to learn the container's start time and, buried as JSON inside
    the "info" element of the result's info map, the container's PID.
    Turtles all the way down.
  - Network counters are only available per pod sandbox via
    PodSandboxStats, and there is no direct container→sandbox lookup, so a
    full container listing is needed just to cross-reference the sandbox
    ID.

Containers legitimately disappear between a listing and the per-container
detail queries; the clients here treat any NOT_FOUND on a detail query as
"skip it", never as a failure.

# Container Names

Downstream consumers still key on the "k8s_..." container names that the
legacy dockershim used to synthesize. Those names are reconstructed here as
a pure function of the "io.kubernetes.*" container labels plus the restart
count annotation. CRI only ever lists Kubernetes-managed containers, so a
container missing one of these labels is reported as a hard error instead
of being silently mangled.

[CRI API]: https://github.com/kubernetes/cri-api/blob/master/pkg/apis/runtime/v1/api.proto
*/
package cri
