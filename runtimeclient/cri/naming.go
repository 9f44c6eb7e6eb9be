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
	"strings"

	"github.com/pkg/errors"
)

// PodContainerNameLabel specifies the name of a container inside a pod from
// the Kubernetes perspective.
const PodContainerNameLabel = "io.kubernetes.container.name"

// PodNameLabel specifies the pod name of a container.
const PodNameLabel = "io.kubernetes.pod.name"

// PodNamespaceLabel specifies the namespace of the pod a container is part
// of.
const PodNamespaceLabel = "io.kubernetes.pod.namespace"

// PodUidLabel specifies the UID of a pod a container is part of.
const PodUidLabel = "io.kubernetes.pod.uid"

// RestartCountAnnotation specifies how often kubelet restarted a container.
const RestartCountAnnotation = "io.kubernetes.container.restartCount"

// makeContainerName reconstructs the name that the legacy dockershim would
// have given a container, for compatibility with tooling keying on that
// scheme; see makeContainerName in kubernetes/pkg/kubelet/dockershim/naming.go.
//
// The name is a pure function of the container's Kubernetes labels and
// annotations, in the format
//
//	k8s_<container>_<pod>_<namespace>_<uid>_<restartCount>
//
// CRI list and status responses contain only Kubernetes-managed containers,
// so all keys are expected to be present; a missing key means the daemon
// returned something unexpected and is reported as an error.
func makeContainerName(labels, annotations map[string]string) (string, error) {
	parts := []string{"k8s"}
	for _, key := range []string{
		PodContainerNameLabel,
		PodNameLabel,
		PodNamespaceLabel,
		PodUidLabel,
	} {
		value, ok := labels[key]
		if !ok {
			return "", errors.Errorf("required label %q missing", key)
		}
		parts = append(parts, value)
	}
	restartCount, ok := annotations[RestartCountAnnotation]
	if !ok {
		return "", errors.Errorf("required annotation %q missing", RestartCountAnnotation)
	}
	return strings.Join(append(parts, restartCount), "_"), nil
}
