package main

import (
	"context"
	"fmt"
	"time"

	"github.com/crispect/crispect/runtimeclient/cri"
)

func main() {
	// probe the well-known containerd and CRI-O socket paths; endpoints
	// without a daemon simply get skipped.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := cri.NewMultiClient(ctx)
	if err != nil {
		panic(err)
	}
	defer mc.Close()
	fmt.Printf("available runtimes: %v\n", mc.GetRuntimes())

	// list all containers across all runtimes, with full details.
	containers, err := mc.ListContainers(ctx, true)
	if err != nil {
		panic(err)
	}
	for _, container := range containers {
		fmt.Printf("  %s\n", container)
		if container.TimeInfo != nil && container.TimeInfo.StartTime != nil {
			fmt.Printf("    up since %s\n", container.TimeInfo.StartTime)
		}
		for _, network := range container.Networks {
			fmt.Printf("    %s\n", network)
		}
	}
}
