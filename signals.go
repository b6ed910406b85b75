package bridge

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for provider/consumer lifecycle events. A host wires a capitan
// sink to observe bridge activity without threading a logger through every
// call.
var (
	SignalProviderReady   = capitan.NewSignal("bridge.provider.ready", "Provider sent READY")
	SignalProviderInitErr = capitan.NewSignal("bridge.provider.init_error", "Provider snapshot/send failed")
	SignalCallReceived    = capitan.NewSignal("bridge.provider.call.received", "Provider received CALL")
	SignalCallCompleted   = capitan.NewSignal("bridge.provider.call.completed", "Provider finished dispatching CALL")
	SignalHandleCreated   = capitan.NewSignal("bridge.handle.created", "Provider registered a handle")
	SignalHandleReleased  = capitan.NewSignal("bridge.handle.released", "Handle released")
	SignalHandleExpired   = capitan.NewSignal("bridge.handle.expired", "Handle swept for idle TTL")
	SignalOriginDropped   = capitan.NewSignal("bridge.origin.dropped", "Message dropped for disallowed origin")
	SignalConsumerBound   = capitan.NewSignal("bridge.consumer.bound", "Consumer bound to a provider after READY")
	SignalConsumerTimeout = capitan.NewSignal("bridge.consumer.timeout", "Consumer handshake timed out")
)

// Keys for typed event data.
var (
	KeyChannel  = capitan.NewStringKey("channel")
	KeyMethod   = capitan.NewStringKey("method")
	KeyHandleID = capitan.NewStringKey("handle_id")
	KeyOrigin   = capitan.NewStringKey("origin")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

func emitReady(name string) {
	capitan.Emit(context.Background(), SignalProviderReady, KeyChannel.Field(name))
}

func emitInitError(name string, err error) {
	capitan.Error(context.Background(), SignalProviderInitErr,
		KeyChannel.Field(name), KeyError.Field(err))
}

func emitCallReceived(name, method string) {
	capitan.Emit(context.Background(), SignalCallReceived,
		KeyChannel.Field(name), KeyMethod.Field(method))
}

func emitCallCompleted(name, method string, dur time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{KeyChannel.Field(name), KeyMethod.Field(method), KeyDuration.Field(dur)}
	if err != nil {
		capitan.Error(ctx, SignalCallCompleted, append(fields, KeyError.Field(err))...)
		return
	}
	capitan.Emit(ctx, SignalCallCompleted, fields...)
}

func emitHandleCreated(name, id string) {
	capitan.Emit(context.Background(), SignalHandleCreated, KeyChannel.Field(name), KeyHandleID.Field(id))
}

func emitHandleReleased(name, id string) {
	capitan.Emit(context.Background(), SignalHandleReleased, KeyChannel.Field(name), KeyHandleID.Field(id))
}

func emitHandleExpired(name, id string) {
	capitan.Emit(context.Background(), SignalHandleExpired, KeyChannel.Field(name), KeyHandleID.Field(id))
}

func emitOriginDropped(name, origin string) {
	capitan.Emit(context.Background(), SignalOriginDropped, KeyChannel.Field(name), KeyOrigin.Field(origin))
}

func emitConsumerBound(name string) {
	capitan.Emit(context.Background(), SignalConsumerBound, KeyChannel.Field(name))
}

func emitConsumerTimeout(name string) {
	capitan.Error(context.Background(), SignalConsumerTimeout, KeyChannel.Field(name))
}
