package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopEngineHooks{}
	e.OnFetchStart(ctx, "cycle-1", "https://api.example")
	e.OnFetchComplete(ctx, "cycle-1", "https://api.example", time.Second, nil)
	e.OnBuildComplete(ctx, "cycle-1", 100, 300, time.Millisecond)
	e.OnReconcileComplete(ctx, "cycle-1", 7, 3)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "edges")
	c.OnCacheMiss(ctx, "nodes")
	c.OnCacheSet(ctx, "snapshot", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.example", "/graph/edges")
	h.OnResponse(ctx, "GET", "api.example", "/graph/edges", 200, time.Second)
	h.OnError(ctx, "GET", "api.example", "/graph/edges", nil)
}

type testEngineHooks struct {
	NoopEngineHooks
	fetches int
}

func (h *testEngineHooks) OnFetchStart(context.Context, string, string) { h.fetches++ }

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string) { h.hits++ }

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	custom := &testEngineHooks{}
	SetEngineHooks(custom)
	if Engine() != custom {
		t.Error("SetEngineHooks should set custom hooks")
	}
	Engine().OnFetchStart(context.Background(), "c", "s")
	if custom.fetches != 1 {
		t.Error("registered hooks should receive events")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Nil registrations are ignored.
	SetEngineHooks(nil)
	if Engine() != custom {
		t.Error("SetEngineHooks(nil) should keep the previous hooks")
	}

	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset should restore noop hooks")
	}
}
