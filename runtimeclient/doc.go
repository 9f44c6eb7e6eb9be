/*
Package runtimeclient defines the client interfaces between concrete
container runtime adaptor implementations and runtime-neutral consumers of
container snapshots, together with the error values those consumers need to
discriminate.

Sub-packages implement adaptors for specific runtime APIs; currently the
only adaptor is the CRI one, covering both containerd and CRI-O.
*/
package runtimeclient
