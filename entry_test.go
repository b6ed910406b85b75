package bridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/bridge"
	"github.com/zoobzio/bridge/bridgetest"
)

func TestCreateProviderAndCreateConsumer(t *testing.T) {
	a, b := bridgetest.NewPair()
	defer a.Close()
	defer b.Close()

	if err := bridge.CreateProvider(a, demoAPI{A: 2}, bridge.ProviderOptions{Name: "demo"}); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	remote, err := bridge.CreateConsumer(ctx, b, "demo", bridge.DefaultConsumerOptions())
	if err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}

	got, err := remote.Call(ctx, "Test", 3)
	if err != nil {
		t.Fatalf("Call(Test) error = %v", err)
	}
	if n, ok := got.(float64); !ok || int(n) != 5 {
		t.Errorf("Call(Test) = %v, want 5", got)
	}
}

func TestCreateConsumerTimesOutWithNoProvider(t *testing.T) {
	_, b := bridgetest.NewPair()
	defer b.Close()

	opts := bridge.DefaultConsumerOptions()
	opts.Timeout = 50 * time.Millisecond
	_, err := bridge.CreateConsumer(context.Background(), b, "demo", opts)
	if err == nil {
		t.Fatal("CreateConsumer() should time out when no Provider ever answers")
	}
}
