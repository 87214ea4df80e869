package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/lookinops/lookin-platform/pkg/config"
	"github.com/lookinops/lookin-platform/pkg/lookin"
	"github.com/lookinops/lookin-platform/pkg/mqtt"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

type fakeMeteo struct {
	reading *lookin.MeteoReading
	err     error
}

func (f *fakeMeteo) MeteoSensor(ctx context.Context) (*lookin.MeteoReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reading, nil
}

type fakeMQTT struct {
	published map[string][][]byte
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{published: make(map[string][][]byte)}
}

func (f *fakeMQTT) Connect(ctx context.Context) error { return nil }
func (f *fakeMQTT) Disconnect()                       {}
func (f *fakeMQTT) IsConnected() bool                 { return true }
func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	return nil
}
func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

// fakeRedis implements just enough of redis.Client for climate storage.
type fakeRedis struct {
	zsets  map[string]map[string]float64
	hashes map[string]map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		zsets:  make(map[string]map[string]float64),
		hashes: make(map[string]map[string]string),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeRedis) HSet(ctx context.Context, key string, field string, value interface{}) error {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = fmt.Sprint(value)
	return nil
}
func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return f.hashes[key], nil
}
func (f *fakeRedis) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	if f.zsets[key] == nil {
		f.zsets[key] = make(map[string]float64)
	}
	var s string
	switch v := member.(type) {
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	f.zsets[key][s] = score
	return nil
}
func (f *fakeRedis) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	var limit float64
	fmt.Sscan(max, &limit)
	for member, score := range f.zsets[key] {
		if score <= limit {
			delete(f.zsets[key], member)
		}
	}
	return nil
}
func (f *fakeRedis) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	var members []redis.ZMember
	for member, score := range f.zsets[key] {
		if score >= min && score <= max {
			members = append(members, redis.ZMember{Score: score, Member: member})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Score < members[j].Score })
	return members, nil
}
func (f *fakeRedis) ZCard(ctx context.Context, key string) (int64, error) {
	return int64(len(f.zsets[key])), nil
}
func (f *fakeRedis) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}
func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}
func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Close() error                   { return nil }

func testClimateAgent(source MeteoSource) (*Agent, *fakeMQTT, *fakeRedis) {
	cfg := config.NewConfig()
	cfg.Location = "living_room"

	broker := newFakeMQTT()
	store := newFakeRedis()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAgent(broker, store, source, cfg, "device1", logger), broker, store
}

func TestPollStoresAndPublishes(t *testing.T) {
	source := &fakeMeteo{reading: &lookin.MeteoReading{
		Temperature: 21.5,
		Humidity:    40.2,
		Pressure:    1013.2,
	}}

	agent, broker, store := testClimateAgent(source)
	agent.poll(context.Background())

	key := redis.ClimateHistoryKey("device1")
	if len(store.zsets[key]) != 1 {
		t.Fatalf("stored %d readings, want 1", len(store.zsets[key]))
	}

	msgs := broker.published[mqtt.ClimateTopic("device1")]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}

	var reading Reading
	if err := json.Unmarshal(msgs[0], &reading); err != nil {
		t.Fatalf("bad published payload: %v", err)
	}
	if reading.Temperature != 21.5 || reading.Location != "living_room" {
		t.Errorf("published reading = %+v", reading)
	}
	if reading.DeviceID != "device1" {
		t.Errorf("published device = %q", reading.DeviceID)
	}
}

func TestPollSkipsTransientFailure(t *testing.T) {
	source := &fakeMeteo{err: fmt.Errorf("%w: connection refused", lookin.ErrTransient)}

	agent, broker, store := testClimateAgent(source)
	agent.poll(context.Background())

	if len(store.zsets) != 0 {
		t.Error("failed poll stored a reading")
	}
	if len(broker.published) != 0 {
		t.Error("failed poll published a reading")
	}
}

func TestHistoryRange(t *testing.T) {
	source := &fakeMeteo{reading: &lookin.MeteoReading{Temperature: 20}}
	agent, _, _ := testClimateAgent(source)

	base := time.Now().Unix()
	for i := 0; i < 3; i++ {
		reading := &Reading{
			DeviceID:    "device1",
			Temperature: 20 + float64(i),
			CollectedAt: base + int64(i*60),
		}
		if err := agent.storage.StoreReading(context.Background(), reading); err != nil {
			t.Fatalf("StoreReading() failed: %v", err)
		}
	}

	readings, err := agent.storage.History(context.Background(), "device1", base, base+60)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("History() returned %d readings, want 2", len(readings))
	}
	if readings[0].Temperature != 20 || readings[1].Temperature != 21 {
		t.Errorf("History() order wrong: %+v", readings)
	}
}
