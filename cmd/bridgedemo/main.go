// Command bridgedemo exercises a Provider and a Consumer over an in-process
// paired channel: it reads a value, makes a simple call, and calls a
// curried adder through a function handle.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zoobzio/bridge"
	"github.com/zoobzio/bridge/bridgetest"
)

type demoAPI struct {
	A int
}

func (d demoAPI) Test(n int) int {
	return n + 1
}

func (d demoAPI) MkAdder(x int) func(int) int {
	return func(y int) int { return x + y }
}

func main() {
	providerPeer, consumerPeer := bridgetest.NewPair()

	provider, err := bridge.NewProvider(providerPeer, demoAPI{A: 1}, bridge.ProviderOptions{
		Name: "bridgedemo",
	})
	if err != nil {
		log.Fatalf("bridgedemo: provider init: %v", err)
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	remote, err := bridge.CreateConsumer(ctx, consumerPeer, "bridgedemo", bridge.DefaultConsumerOptions())
	if err != nil {
		log.Fatalf("bridgedemo: consumer init: %v", err)
	}

	a, err := remote.Get("A")
	if err != nil {
		log.Fatalf("bridgedemo: get A: %v", err)
	}
	fmt.Printf("A = %v\n", a)

	result, err := remote.Call(ctx, "Test", 1)
	if err != nil {
		log.Fatalf("bridgedemo: call Test: %v", err)
	}
	fmt.Printf("Test(1) = %v\n", result)

	adderRef, err := remote.Call(ctx, "MkAdder", 2)
	if err != nil {
		log.Fatalf("bridgedemo: call MkAdder: %v", err)
	}
	adder, ok := adderRef.(*bridge.Remote)
	if !ok {
		log.Fatalf("bridgedemo: mkAdder did not return a handle")
	}
	sum, err := adder.Call(ctx, "", 3)
	if err != nil {
		log.Fatalf("bridgedemo: call adder: %v", err)
	}
	fmt.Printf("mkAdder(2)(3) = %v\n", sum)

	if err := adder.Release(ctx); err != nil {
		log.Fatalf("bridgedemo: release adder: %v", err)
	}
}
