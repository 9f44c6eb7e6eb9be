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
	"path/filepath"
	"time"

	"github.com/crispect/crispect/runtimeclient"
	"github.com/crispect/crispect/test/mockcri"
	"github.com/google/uuid"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// addPodContainer registers a running container with proper Kubernetes
// labels on the specified mock daemon and returns its (generated) ID.
func addPodContainer(srv *mockcri.Server, name string) string {
	id := uuid.NewString()
	sandboxID := "sandbox-" + id
	srv.AddContainer(mockcri.MockedContainer{
		ID:           id,
		PodSandboxID: sandboxID,
		Name:         name,
		Running:      true,
		CreatedAt:    time.Now().UnixNano(),
		StartedAt:    time.Now().UnixNano(),
		Labels: map[string]string{
			PodContainerNameLabel: name,
			PodNameLabel:          name + "-pod",
			PodNamespaceLabel:     "default",
			PodUidLabel:           uuid.NewString(),
		},
		Annotations: map[string]string{
			RestartCountAnnotation: "0",
		},
	})
	return id
}

var _ = Describe("aggregating multiple runtimes", func() {

	It("fails when no runtime answers on any endpoint", func(ctx context.Context) {
		dir := Successful(os.MkdirTemp("", "mockcri"))
		DeferCleanup(func() { Expect(os.RemoveAll(dir)).To(Succeed()) })

		_, err := NewMultiClient(ctx,
			WithEndpoints(
				filepath.Join(dir, "containerd.sock"),
				filepath.Join(dir, "crio.sock")),
			WithClientOpts(WithTimeout(250*time.Millisecond)))
		var unavail *runtimeclient.CRIUnavailableError
		Expect(errors.As(err, &unavail)).To(BeTrue(), "got %v", err)
		Expect(unavail.Endpoints).To(HaveLen(2))
	})

	It("keeps only the endpoints actually serving a runtime", func(ctx context.Context) {
		dir := Successful(os.MkdirTemp("", "mockcri"))
		DeferCleanup(func() { Expect(os.RemoveAll(dir)).To(Succeed()) })
		_, socketpath := startMockDaemon("cri-o", mockcri.WithV1Alpha2())

		mc := Successful(NewMultiClient(ctx,
			WithEndpoints(socketpath, filepath.Join(dir, "containerd.sock")),
			WithClientOpts(WithTimeout(250*time.Millisecond))))
		DeferCleanup(func() { Expect(mc.Close()).To(Succeed()) })

		Expect(mc.GetRuntimes()).To(ConsistOf("cri-o"))
		Expect(mc.Clients()).To(HaveLen(1))
		Expect(mc.Clients()[0].Generation()).To(Equal(GenerationV1Alpha2))
	})

	When("two runtimes answer", func() {

		var srvA, srvB *mockcri.Server
		var mc *MultiClient

		BeforeEach(func(ctx context.Context) {
			var sockA, sockB string
			srvA, sockA = startMockDaemon("containerd")
			srvB, sockB = startMockDaemon("cri-o", mockcri.WithV1Alpha2())
			mc = Successful(NewMultiClient(ctx, WithEndpoints(sockA, sockB)))
			DeferCleanup(func() { Expect(mc.Close()).To(Succeed()) })
		})

		It("names the runtimes in probe order", func() {
			Expect(mc.GetRuntimes()).To(Equal([]string{"containerd", "cri-o"}))
		})

		It("concatenates container listings in probe order", func(ctx context.Context) {
			idA := addPodContainer(srvA, "ahead")
			idB := addPodContainer(srvB, "behind")

			containers := Successful(mc.ListContainers(ctx, false))
			Expect(containers).To(HaveLen(2))
			Expect(containers[0].ID).To(Equal(idA))
			Expect(containers[0].Runtime).To(Equal("containerd"))
			Expect(containers[1].ID).To(Equal(idB))
			Expect(containers[1].Runtime).To(Equal("cri-o"))
		})

		It("finds a container on whichever runtime manages it", func(ctx context.Context) {
			idB := addPodContainer(srvB, "behind")

			cntr := Successful(mc.GetContainer(ctx, idB, false))
			Expect(cntr).NotTo(BeNil())
			Expect(cntr.Runtime).To(Equal("cri-o"))
		})

		It("reports a container unknown to all runtimes", func(ctx context.Context) {
			_, err := mc.GetContainer(ctx, "---noid---", false)
			var notfound *runtimeclient.ContainerNotFoundError
			Expect(errors.As(err, &notfound)).To(BeTrue(), "got %v", err)
			Expect(notfound.ID).To(Equal("---noid---"))
		})

	})

	It("surveys a legacy-only runtime next to a dead endpoint", func(ctx context.Context) {
		// One daemon speaking only v1alpha2, with a single created-but-never
		// -started container; the other endpoint has no daemon at all.
		dir := Successful(os.MkdirTemp("", "mockcri"))
		DeferCleanup(func() { Expect(os.RemoveAll(dir)).To(Succeed()) })
		srv, socketpath := startMockDaemon("cri-o", mockcri.WithV1Alpha2())
		srv.AddContainer(mockcri.MockedContainer{
			ID:           "cntr-847",
			PodSandboxID: "sandbox-847",
			Name:         "dozer",
			Running:      true,
			CreatedAt:    time.Now().UnixNano(),
			StartedAt:    0,
			Labels: map[string]string{
				PodContainerNameLabel: "dozer",
				PodNameLabel:          "dozer-pod",
				PodNamespaceLabel:     "default",
				PodUidLabel:           uuid.NewString(),
			},
			Annotations: map[string]string{
				RestartCountAnnotation: "0",
			},
		})

		mc := Successful(NewMultiClient(ctx,
			WithEndpoints(socketpath, filepath.Join(dir, "containerd.sock")),
			WithClientOpts(WithTimeout(250*time.Millisecond))))
		DeferCleanup(func() { Expect(mc.Close()).To(Succeed()) })

		Expect(mc.GetRuntimes()).To(Equal([]string{"cri-o"}))
		containers := Successful(mc.ListContainers(ctx, true))
		Expect(containers).To(HaveLen(1))
		Expect(containers[0].Running).To(BeTrue())
		Expect(containers[0].TimeInfo).NotTo(BeNil())
		Expect(containers[0].TimeInfo.StartTime).To(BeNil())
	})

})
