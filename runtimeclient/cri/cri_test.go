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
	"errors"
	"os"
	"time"

	"github.com/crispect/crispect"
	"github.com/crispect/crispect/runtimeclient"
	"github.com/crispect/crispect/test/mockcri"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

const testSandboxID = "sandbox-1"

// k8sLabels returns a fresh set of the Kubernetes labels CRI-managed
// containers carry.
func k8sLabels(name string) map[string]string {
	return map[string]string{
		PodContainerNameLabel: name,
		PodNameLabel:          "mypod",
		PodNamespaceLabel:     "wwcritest",
		PodUidLabel:           "1234-5678",
	}
}

var restartAnnotations = map[string]string{
	RestartCountAnnotation: "0",
}

var _ = Describe("versioned runtime clients", func() {

	var srv *mockcri.Server
	var client *RuntimeClient
	var createdAt int64

	BeforeEach(func(ctx context.Context) {
		createdAt = time.Now().Add(-time.Minute).UnixNano()
		var socketpath string
		srv, socketpath = startMockDaemon("containerd")
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-1",
			PodSandboxID: testSandboxID,
			Name:         "hellorld",
			Running:      true,
			CreatedAt:    createdAt,
			StartedAt:    createdAt + int64(time.Second),
			PID:          os.Getpid(),
			Labels:       k8sLabels("hellorld"),
			Annotations:  restartAnnotations,
		})
		srv.SetSandboxInterfaces(testSandboxID,
			mockcri.MockedInterface{Name: "eth0", RxBytes: 100, RxErrors: 1, TxBytes: 200, TxErrors: 2},
			mockcri.MockedInterface{Name: "lo", RxBytes: 666},
			mockcri.MockedInterface{Name: "docker0", TxBytes: 666},
			mockcri.MockedInterface{Name: "eth1", RxBytes: 300, RxErrors: 3, TxBytes: 400, TxErrors: 4},
		)
		client = NewRuntimeClient(Successful(New(ctx, socketpath)))
		DeferCleanup(func() { Expect(client.Close()).To(Succeed()) })
	})

	It("lists summaries without timing, process and network details", func(ctx context.Context) {
		containers := Successful(client.ListContainers(ctx, false))
		Expect(containers).To(HaveLen(1))
		cntr := containers[0]
		Expect(cntr.Runtime).To(Equal("containerd"))
		Expect(cntr.ID).To(Equal("cntr-1"))
		Expect(cntr.Name).To(Equal("k8s_hellorld_mypod_wwcritest_1234-5678_0"))
		Expect(cntr.Running).To(BeTrue())
		Expect(cntr.Labels).To(HaveKeyWithValue(PodNameLabel, "mypod"))
		Expect(cntr.TimeInfo).To(BeNil())
		Expect(cntr.Process).To(BeNil())
		Expect(cntr.Networks).To(BeEmpty())
	})

	It("lists verbosely with timing, process and network details", func(ctx context.Context) {
		containers := Successful(client.ListContainers(ctx, true))
		Expect(containers).To(HaveLen(1))
		cntr := containers[0]
		Expect(cntr.TimeInfo).NotTo(BeNil())
		Expect(cntr.TimeInfo.CreateTime).To(Equal(time.Unix(0, createdAt).UTC()))
		Expect(cntr.TimeInfo.StartTime).NotTo(BeNil())
		Expect(*cntr.TimeInfo.StartTime).To(Equal(time.Unix(0, createdAt+int64(time.Second)).UTC()))
		Expect(cntr.Process).NotTo(BeNil())
		Expect(cntr.Process.Pid).To(Equal(int32(os.Getpid())))
		Expect(cntr.Networks).To(Equal([]crispect.Network{
			{Name: "eth0", RxBytes: 100, RxErrors: 1, TxBytes: 200, TxErrors: 2},
			{Name: "eth1", RxBytes: 300, RxErrors: 3, TxBytes: 400, TxErrors: 4},
		}))
	})

	It("maps the zero started_at sentinel to an absent start time", func(ctx context.Context) {
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-dozing",
			PodSandboxID: testSandboxID,
			Name:         "dozer",
			CreatedAt:    createdAt,
			StartedAt:    0,
			Labels:       k8sLabels("dozer"),
			Annotations:  restartAnnotations,
		})
		cntr := Successful(client.GetContainer(ctx, "cntr-dozing", true))
		Expect(cntr).NotTo(BeNil())
		Expect(cntr.Running).To(BeFalse())
		Expect(cntr.TimeInfo).NotTo(BeNil())
		Expect(cntr.TimeInfo.StartTime).To(BeNil())
	})

	It("silently skips containers disappearing between list and status", func(ctx context.Context) {
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-elusive",
			PodSandboxID: testSandboxID,
			Name:         "houdini",
			Running:      true,
			Labels:       k8sLabels("houdini"),
			Annotations:  restartAnnotations,
			Elusive:      true,
		})
		containers := Successful(client.ListContainers(ctx, true))
		Expect(containers).To(HaveLen(1))
		Expect(containers[0].ID).To(Equal("cntr-1"))

		// ...while a plain listing translates the summary as-is.
		Expect(Successful(client.ListContainers(ctx, false))).To(HaveLen(2))
	})

	It("returns an absent container instead of an error for unknown IDs", func(ctx context.Context) {
		Expect(Successful(client.GetContainer(ctx, "---noid---", true))).To(BeNil())
	})

	It("omits the process handle for pid-less and stale-pid containers", func(ctx context.Context) {
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-pidless",
			PodSandboxID: testSandboxID,
			Name:         "unprocessed",
			Running:      true,
			CreatedAt:    createdAt,
			StartedAt:    createdAt,
			PID:          0,
			Labels:       k8sLabels("unprocessed"),
			Annotations:  restartAnnotations,
		})
		cntr := Successful(client.GetContainer(ctx, "cntr-pidless", true))
		Expect(cntr).NotTo(BeNil())
		Expect(cntr.Process).To(BeNil())
	})

	It("cross-references the pod sandbox for network counters", func(ctx context.Context) {
		networks := Successful(client.GetNetworks(ctx, "cntr-1"))
		Expect(networks).To(HaveLen(2))
		Expect(networks[0].Name).To(Equal("eth0"))
		Expect(networks[1].Name).To(Equal("eth1"))
	})

	It("reports unknown containers on network queries", func(ctx context.Context) {
		_, err := client.GetNetworks(ctx, "---noid---")
		var notfound *runtimeclient.ContainerNotFoundError
		Expect(errors.As(err, &notfound)).To(BeTrue(), "got %v", err)
		Expect(notfound.ID).To(Equal("---noid---"))
	})

	It("tolerates sandboxes without network statistics", func(ctx context.Context) {
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-statless",
			PodSandboxID: "sandbox-without-stats",
			Name:         "unmetered",
			Running:      true,
			CreatedAt:    createdAt,
			StartedAt:    createdAt,
			Labels:       k8sLabels("unmetered"),
			Annotations:  restartAnnotations,
		})
		Expect(Successful(client.GetNetworks(ctx, "cntr-statless"))).To(BeEmpty())

		cntr := Successful(client.GetContainer(ctx, "cntr-statless", true))
		Expect(cntr).NotTo(BeNil())
		Expect(cntr.Networks).To(BeEmpty())
	})

	It("flags non-Kubernetes containers as malformed responses", func(ctx context.Context) {
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-rogue",
			PodSandboxID: testSandboxID,
			Name:         "rogue",
			Running:      true,
			Labels:       map[string]string{"foo": "bar"},
			Annotations:  restartAnnotations,
		})
		Expect(client.ListContainers(ctx, false)).Error().
			To(MatchError(ContainSubstring("required label")))
	})

})
