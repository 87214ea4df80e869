package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/lookinops/lookin-platform/internal/capture"
	"github.com/lookinops/lookin-platform/pkg/lookin"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

type fakeHub struct {
	functions map[string][]lookin.FunctionSignal
	writeErr  error

	creates int
	updates int
}

func newFakeHub() *fakeHub {
	return &fakeHub{functions: make(map[string][]lookin.FunctionSignal)}
}

func hubKey(uuid, name string) string {
	return uuid + "/" + name
}

func (h *fakeHub) Function(ctx context.Context, uuid, name string) (*lookin.FunctionDetail, error) {
	if h.writeErr != nil {
		return nil, h.writeErr
	}
	signals, ok := h.functions[hubKey(uuid, name)]
	if !ok {
		return nil, errors.New("function not found")
	}
	return &lookin.FunctionDetail{Name: name, Signals: signals}, nil
}

func (h *fakeHub) CreateFunction(ctx context.Context, uuid, name, functionType string, signals []lookin.FunctionSignal) error {
	if h.writeErr != nil {
		return h.writeErr
	}
	h.creates++
	h.functions[hubKey(uuid, name)] = signals
	return nil
}

func (h *fakeHub) UpdateFunction(ctx context.Context, uuid, name, functionType string, signals []lookin.FunctionSignal) error {
	if h.writeErr != nil {
		return h.writeErr
	}
	h.updates++
	h.functions[hubKey(uuid, name)] = signals
	return nil
}

// fakeCache covers the string operations the sink uses; the rest of
// the client surface is inert.
type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	for key := range f.values {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeCache) HSet(ctx context.Context, key string, field string, value interface{}) error {
	return nil
}
func (f *fakeCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeCache) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	return nil
}
func (f *fakeCache) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	return nil
}
func (f *fakeCache) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	return nil, nil
}
func (f *fakeCache) ZCard(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}
func (f *fakeCache) Ping(ctx context.Context) error { return nil }
func (f *fakeCache) Close() error                   { return nil }

func testSink(t *testing.T, hub FunctionWriter) (*Sink, *AuxStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	aux := NewAuxStore(filepath.Join(t.TempDir(), "auxdata.json"), logger)
	return NewSink(hub, aux, nil, "device1", logger), aux
}

func testCapture() *capture.Capture {
	return &capture.Capture{Sequence: []int{8980, -4470, 550}, FrequencyHz: 38000}
}

func TestSinkStoreCreatesFunction(t *testing.T) {
	hub := newFakeHub()
	sink, _ := testSink(t, hub)

	if err := sink.Store(context.Background(), "4012", "power", testCapture()); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	if hub.creates != 1 || hub.updates != 0 {
		t.Errorf("creates = %d, updates = %d, want 1 create", hub.creates, hub.updates)
	}
	signals := hub.functions[hubKey("4012", "power")]
	if len(signals) != 1 {
		t.Fatalf("stored %d signals, want 1", len(signals))
	}
	if signals[0].Raw.Signal != "8980 -4470 550" {
		t.Errorf("stored signal = %q", signals[0].Raw.Signal)
	}
	if signals[0].Raw.Frequency != "38000" {
		t.Errorf("stored frequency = %q", signals[0].Raw.Frequency)
	}
}

func TestSinkStoreUpdatesExistingFunction(t *testing.T) {
	hub := newFakeHub()
	hub.functions[hubKey("4012", "power")] = []lookin.FunctionSignal{{}}

	sink, _ := testSink(t, hub)

	if err := sink.Store(context.Background(), "4012", "power", testCapture()); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if hub.updates != 1 || hub.creates != 0 {
		t.Errorf("creates = %d, updates = %d, want 1 update", hub.creates, hub.updates)
	}
}

func TestSinkStoreFallsBackToAuxOnTransientFailure(t *testing.T) {
	hub := newFakeHub()
	hub.writeErr = fmt.Errorf("GET /data: %w: connection reset", lookin.ErrTransient)

	sink, aux := testSink(t, hub)

	if err := sink.Store(context.Background(), "4012", "power", testCapture()); err != nil {
		t.Fatalf("Store() should fall back, got: %v", err)
	}

	raw, ok, err := aux.Load("4012", "power")
	if err != nil || !ok {
		t.Fatalf("aux store missing fallback entry: ok=%v err=%v", ok, err)
	}
	if raw.Signal != "8980 -4470 550" {
		t.Errorf("aux signal = %q", raw.Signal)
	}
}

func TestSinkStoreSurfacesPermanentFailure(t *testing.T) {
	hub := newFakeHub()
	hub.writeErr = errors.New("bad remote uuid")

	sink, aux := testSink(t, hub)

	if err := sink.Store(context.Background(), "4012", "power", testCapture()); err == nil {
		t.Fatal("Store() swallowed a permanent hub failure")
	}

	if _, ok, _ := aux.Load("4012", "power"); ok {
		t.Error("permanent failure must not be stashed in the aux file")
	}
}

func TestSinkFlushAux(t *testing.T) {
	hub := newFakeHub()
	sink, aux := testSink(t, hub)

	if err := aux.Save("4012", "power", lookin.RawSignal{Frequency: "38000", Signal: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := aux.Save("4012", "mute", lookin.RawSignal{Frequency: "38000", Signal: "2"}); err != nil {
		t.Fatal(err)
	}

	flushed, err := sink.FlushAux(context.Background(), "4012")
	if err != nil {
		t.Fatalf("FlushAux() failed: %v", err)
	}
	if flushed != 2 {
		t.Errorf("FlushAux() = %d, want 2", flushed)
	}

	names, err := aux.Functions("4012")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("aux still holds %v after flush", names)
	}
	if len(hub.functions) != 2 {
		t.Errorf("hub holds %d functions after flush, want 2", len(hub.functions))
	}
}

func TestSinkFlushAllCoversEveryRemote(t *testing.T) {
	hub := newFakeHub()
	sink, aux := testSink(t, hub)

	if err := aux.Save("4012", "power", lookin.RawSignal{Frequency: "38000", Signal: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := aux.Save("7FAB", "power", lookin.RawSignal{Frequency: "38000", Signal: "2"}); err != nil {
		t.Fatal(err)
	}

	flushed, err := sink.FlushAll(context.Background())
	if err != nil {
		t.Fatalf("FlushAll() failed: %v", err)
	}
	if flushed != 2 {
		t.Errorf("FlushAll() = %d, want 2", flushed)
	}

	remotes, err := aux.Remotes()
	if err != nil {
		t.Fatal(err)
	}
	if len(remotes) != 0 {
		t.Errorf("aux still holds remotes %v after flush", remotes)
	}
}

func TestSinkCachedFunctions(t *testing.T) {
	hub := newFakeHub()
	cache := newFakeCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	aux := NewAuxStore(filepath.Join(t.TempDir(), "auxdata.json"), logger)
	sink := NewSink(hub, aux, cache, "device1", logger)

	for _, target := range []struct{ remote, function string }{
		{"4012", "power"},
		{"4012", "mute"},
		{"7FAB", "power"},
	} {
		if err := sink.Store(context.Background(), target.remote, target.function, testCapture()); err != nil {
			t.Fatalf("Store(%s/%s) failed: %v", target.remote, target.function, err)
		}
	}

	names, err := sink.CachedFunctions(context.Background(), "4012")
	if err != nil {
		t.Fatalf("CachedFunctions() failed: %v", err)
	}
	if len(names) != 2 || names[0] != "mute" || names[1] != "power" {
		t.Errorf("CachedFunctions(4012) = %v, want [mute power]", names)
	}

	all, err := sink.CachedFunctions(context.Background(), "*")
	if err != nil {
		t.Fatalf("CachedFunctions() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("CachedFunctions(*) = %v, want 3 entries", all)
	}
}

func TestSinkFlushAuxKeepsEntriesWhileHubIsDown(t *testing.T) {
	hub := newFakeHub()
	hub.writeErr = fmt.Errorf("%w: timeout", lookin.ErrTransient)

	sink, aux := testSink(t, hub)
	if err := aux.Save("4012", "power", lookin.RawSignal{Frequency: "38000", Signal: "1"}); err != nil {
		t.Fatal(err)
	}

	flushed, err := sink.FlushAux(context.Background(), "4012")
	if err != nil {
		t.Fatalf("FlushAux() failed: %v", err)
	}
	if flushed != 0 {
		t.Errorf("FlushAux() = %d, want 0", flushed)
	}
	if _, ok, _ := aux.Load("4012", "power"); !ok {
		t.Error("aux entry was dropped while the hub is down")
	}
}
