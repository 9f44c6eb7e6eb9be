/*
Package mockcri is a very minimalist in-process CRI runtime daemon designed
for unit tests in the runtimeclient/cri package. It serves the real CRI
RuntimeService gRPC surface, in the v1 generation, the v1alpha2
generation, or both, over a unix socket, but implements only the handful
of RPCs the clients under test actually use: Version, ListContainers,
ContainerStatus and PodSandboxStats. Everything else answers with the usual
"unimplemented" status.

The mocked containers are not created through the CRI API but via
AddContainer and RemoveContainer; sandbox network counters are injected via
SetSandboxInterfaces. A mocked container can additionally be marked as
"elusive": it then shows up in listings while its status queries answer
NOT_FOUND, faking a container disappearing between enumeration and detail
fetch.
*/
package mockcri
