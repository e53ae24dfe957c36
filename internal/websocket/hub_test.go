package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"
	"care-advisor-be/pkg/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Extract(ctx context.Context, text string) (profile.Profile, error) {
	return profile.Profile{Name: profile.String(text)}, nil
}

func (stubAnalyzer) AnalyzeFeedback(ctx context.Context, text string) (stage.Feedback, error) {
	return stage.Feedback{Interests: []string{text}, Sentiment: "正面"}, nil
}

type stubResponder struct{}

func (stubResponder) Generate(ctx context.Context, query string, p profile.Profile, window []profile.Entry) (string, error) {
	return "answer: " + query, nil
}

func (stubResponder) GenerateForAgent(ctx context.Context, instruction string, p profile.Profile, window []profile.Entry) (string, error) {
	return "assist: " + instruction, nil
}

type endedSession struct {
	id    string
	final stage.Stage
	snap  profile.Snapshot
}

type recordingHook struct {
	mu      sync.Mutex
	started []string
	ended   []endedSession
}

func (r *recordingHook) SessionStarted(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, sessionID)
}

func (r *recordingHook) SessionEnded(ctx context.Context, sessionID string, final stage.Stage, snap profile.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, endedSession{id: sessionID, final: final, snap: snap})
}

func newTestHub(t *testing.T) (*Hub, *profile.Store, *recordingHook) {
	t.Helper()
	return newTestHubWith(t, stubAnalyzer{})
}

func newTestHubWith(t *testing.T, analyzer stage.Analyzer) (*Hub, *profile.Store, *recordingHook) {
	t.Helper()
	cases := reference.NewIndex(reference.KindCase, reference.CaseScheme, nil)
	_, err := cases.Add(context.Background(), reference.Record{
		Title:      "A",
		Attributes: reference.Attributes{"delivery_type": "剖腹产"},
	})
	require.NoError(t, err)

	store := profile.NewStore(0, 5)
	log := logger.NewNopLogger()
	machine := stage.NewMachine(analyzer, stubResponder{}, cases, store, stage.Config{WakeWord: "小美"}, log)
	hook := &recordingHook{}
	return NewHub(machine, store, nil, log, hook), store, hook
}

func newTestClient(hub *Hub, id string, buffer int) *Client {
	return &Client{Hub: hub, SessionID: id, Send: make(chan []byte, buffer)}
}

func decodeReply(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRouteUnknownSession(t *testing.T) {
	hub, _, _ := newTestHub(t)

	reply := decodeReply(t, hub.Route(context.Background(), "ghost", []byte(`{"type":"speech","text":"hi"}`)))

	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, stage.CodeNotFound, reply["code"])
}

func TestRouteDrivesStageMachine(t *testing.T) {
	hub, store, hook := newTestHub(t)
	ctx := context.Background()
	client := newTestClient(hub, "s1", 4)
	hub.Register(ctx, client)
	assert.Equal(t, []string{"s1"}, hook.started)

	reply := decodeReply(t, hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"张娜"}`)))
	assert.Equal(t, "info_collection", reply["type"])
	assert.Equal(t, "张娜", *store.Get("s1").Name)

	reply = decodeReply(t, hub.Route(ctx, "s1", []byte(`{"type":"stage_change","stage":"consultation"}`)))
	assert.Equal(t, "stage_change", reply["type"])

	info, ok := hub.Session("s1")
	require.True(t, ok)
	assert.Equal(t, stage.Consultation, info.Stage)

	reply = decodeReply(t, hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"怎么催乳"}`)))
	assert.Equal(t, "ai_response", reply["type"])
	assert.Equal(t, "answer: 怎么催乳", reply["response"])

	reply = decodeReply(t, hub.Route(ctx, "s1", []byte(`{"type":"command","command":"小美介绍一下套餐"}`)))
	assert.Equal(t, "ai_command_response", reply["type"])
	assert.Equal(t, "assist: 介绍一下套餐?", reply["response"])
}

func TestRouteRejectsBadFrames(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := context.Background()
	hub.Register(ctx, newTestClient(hub, "s1", 1))

	for _, raw := range []string{`not json`, `{"type":"dance"}`, `{"type":"speech","text":"x","speaker":"robot"}`} {
		reply := decodeReply(t, hub.Route(ctx, "s1", []byte(raw)))
		assert.Equal(t, "error", reply["type"], raw)
		assert.Equal(t, stage.CodeValidation, reply["code"], raw)
	}

	// the session is still usable
	reply := decodeReply(t, hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"李华"}`)))
	assert.Equal(t, "info_collection", reply["type"])
}

func TestUnregisterSnapshotsAndForgets(t *testing.T) {
	hub, store, hook := newTestHub(t)
	ctx := context.Background()
	client := newTestClient(hub, "s1", 1)
	hub.Register(ctx, client)
	hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"张娜"}`))
	hub.Route(ctx, "s1", []byte(`{"type":"stage_change","stage":"tour"}`))

	hub.Unregister(ctx, client)

	require.Len(t, hook.ended, 1)
	assert.Equal(t, "s1", hook.ended[0].id)
	assert.Equal(t, stage.Tour, hook.ended[0].final)
	assert.Equal(t, "张娜", *hook.ended[0].snap.Profile.Name)
	assert.Len(t, hook.ended[0].snap.History, 1)

	assert.True(t, store.Get("s1").IsEmpty())
	_, open := <-client.Send
	assert.False(t, open)
	assert.False(t, hub.Deliver(client, []byte("late")))
	assert.Empty(t, hub.Sessions())

	// second unregister is harmless
	hub.Unregister(ctx, client)
	assert.Len(t, hook.ended, 1)
}

func TestReconnectReplacesSession(t *testing.T) {
	hub, store, hook := newTestHub(t)
	ctx := context.Background()
	first := newTestClient(hub, "s1", 1)
	hub.Register(ctx, first)
	hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"张娜"}`))

	second := newTestClient(hub, "s1", 1)
	hub.Register(ctx, second)

	_, open := <-first.Send
	assert.False(t, open)
	require.Len(t, hook.ended, 1)
	assert.Equal(t, "张娜", *hook.ended[0].snap.Profile.Name)
	assert.True(t, store.Get("s1").IsEmpty())

	info, ok := hub.Session("s1")
	require.True(t, ok)
	assert.Equal(t, stage.Initial, info.Stage)

	// the stale connection going away must not end the new session
	hub.Unregister(ctx, first)
	_, ok = hub.Session("s1")
	assert.True(t, ok)
	assert.True(t, hub.Deliver(second, []byte("x")))
}

func TestBroadcastReachesEverySession(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := context.Background()
	a := newTestClient(hub, "a", 1)
	b := newTestClient(hub, "b", 1)
	full := newTestClient(hub, "full", 0)
	hub.Register(ctx, a)
	hub.Register(ctx, b)
	hub.Register(ctx, full)

	hub.Broadcast("通知", "今天下午参观")

	for _, c := range []*Client{a, b} {
		reply := decodeReply(t, <-c.Send)
		assert.Equal(t, "broadcast", reply["type"])
		assert.Equal(t, "通知", reply["title"])
		assert.Equal(t, "今天下午参观", reply["message"])
	}
	assert.Len(t, hub.Sessions(), 3)
}

func TestSessionsAreIndependent(t *testing.T) {
	hub, store, _ := newTestHub(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("s%d", i)
		hub.Register(ctx, newTestClient(hub, id, 1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Route(ctx, id, []byte(`{"type":"stage_change","stage":"tour"}`))
			hub.Route(ctx, id, []byte(fmt.Sprintf(`{"type":"speech","text":"%s"}`, id)))
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("s%d", i)
		info, ok := hub.Session(id)
		require.True(t, ok)
		assert.Equal(t, stage.Tour, info.Stage)
		assert.Equal(t, []string{id}, store.Get(id).Interests)
	}
}

// gatedAnalyzer blocks Extract until release is closed.
type gatedAnalyzer struct {
	stubAnalyzer
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAnalyzer) Extract(ctx context.Context, text string) (profile.Profile, error) {
	close(g.entered)
	<-g.release
	return profile.Profile{Name: profile.String(text)}, nil
}

func TestReconnectWaitsForInFlightMessage(t *testing.T) {
	gate := &gatedAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
	hub, store, hook := newTestHubWith(t, gate)
	ctx := context.Background()

	first := newTestClient(hub, "s1", 1)
	hub.Register(ctx, first)

	routed := make(chan []byte, 1)
	go func() {
		routed <- hub.Route(ctx, "s1", []byte(`{"type":"speech","text":"王芳"}`))
	}()
	<-gate.entered

	second := newTestClient(hub, "s1", 1)
	registered := make(chan struct{})
	go func() {
		hub.Register(ctx, second)
		close(registered)
	}()

	// the old entry is retired first, then Register waits on its message
	require.Eventually(t, func() bool {
		_, ok := hub.Session("s1")
		return !ok
	}, time.Second, 5*time.Millisecond)
	select {
	case <-registered:
		t.Fatal("Register returned while the old message was still being handled")
	default:
	}

	close(gate.release)
	<-registered
	assert.Equal(t, "info_collection", decodeReply(t, <-routed)["type"])

	assert.True(t, store.Get("s1").IsEmpty())
	assert.Empty(t, store.History("s1"))

	require.Len(t, hook.ended, 1)
	require.NotNil(t, hook.ended[0].snap.Profile.Name)
	assert.Equal(t, "王芳", *hook.ended[0].snap.Profile.Name)
	assert.Len(t, hook.ended[0].snap.History, 1)

	assert.True(t, hub.Deliver(second, []byte("x")))
}

func TestRetiredEntryRejectsLateFrames(t *testing.T) {
	hub, store, _ := newTestHub(t)
	ctx := context.Background()
	hub.Register(ctx, newTestClient(hub, "s1", 1))

	hub.mu.RLock()
	stale := hub.sessions["s1"]
	hub.mu.RUnlock()

	hub.Register(ctx, newTestClient(hub, "s1", 1))

	// a frame that resolved the old entry just before the swap
	reply := decodeReply(t, hub.handle(ctx, stale, "s1", []byte(`{"type":"speech","text":"李华"}`)))
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, stage.CodeNotFound, reply["code"])
	assert.True(t, store.Get("s1").IsEmpty())
	assert.Empty(t, store.History("s1"))
}

func TestRouteFromReplacedClientIsDropped(t *testing.T) {
	hub, store, _ := newTestHub(t)
	ctx := context.Background()
	first := newTestClient(hub, "s1", 1)
	hub.Register(ctx, first)
	hub.Register(ctx, newTestClient(hub, "s1", 1))

	_, ok := hub.routeFrom(ctx, first, []byte(`{"type":"speech","text":"李华"}`))

	assert.False(t, ok)
	assert.True(t, store.Get("s1").IsEmpty())
}

func TestEnqueueNeverBlocksTheReader(t *testing.T) {
	hub, _, _ := newTestHub(t)
	ctx := context.Background()
	client := newTestClient(hub, "s1", 2)
	client.inbox = make(chan []byte, 1)
	hub.Register(ctx, client)

	client.enqueue([]byte(`{"type":"speech","text":"一"}`))
	client.enqueue([]byte(`{"type":"speech","text":"二"}`))

	assert.Len(t, client.inbox, 1)
	reply := decodeReply(t, <-client.Send)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, stage.CodeValidation, reply["code"])
}
