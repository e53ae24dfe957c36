package stage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	extracted profile.Profile
	feedback  Feedback
	err       error
	delay     time.Duration
	panicMsg  string
}

func (f *fakeAnalyzer) Extract(ctx context.Context, text string) (profile.Profile, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.extracted, f.err
}

func (f *fakeAnalyzer) AnalyzeFeedback(ctx context.Context, text string) (Feedback, error) {
	return f.feedback, f.err
}

type responderCall struct {
	text    string
	profile profile.Profile
	window  []profile.Entry
	agent   bool
}

type fakeResponder struct {
	mu    sync.Mutex
	calls []responderCall
	reply string
	err   error
}

func (f *fakeResponder) Generate(ctx context.Context, query string, p profile.Profile, window []profile.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, responderCall{text: query, profile: p, window: window})
	return f.reply, f.err
}

func (f *fakeResponder) GenerateForAgent(ctx context.Context, instruction string, p profile.Profile, window []profile.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, responderCall{text: instruction, profile: p, window: window, agent: true})
	return f.reply, f.err
}

type recordingListener struct {
	stages   []Stage
	profiles int
}

func (l *recordingListener) StageChanged(ctx context.Context, sessionID string, from, to Stage) {
	l.stages = append(l.stages, to)
}

func (l *recordingListener) ProfileUpdated(ctx context.Context, sessionID string, p profile.Profile) {
	l.profiles++
}

type fixture struct {
	machine   *Machine
	analyzer  *fakeAnalyzer
	responder *fakeResponder
	profiles  *profile.Store
	listener  *recordingListener
	session   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cases := reference.NewIndex(reference.KindCase, reference.CaseScheme, nil)
	_, err := cases.Add(context.Background(), reference.Record{ID: "A", Attributes: reference.Attributes{
		"delivery_type": "顺产", "concerns": []string{"体重恢复", "母乳喂养"},
	}})
	require.NoError(t, err)
	_, err = cases.Add(context.Background(), reference.Record{ID: "B", Attributes: reference.Attributes{
		"delivery_type": "剖腹产", "concerns": []string{"体重恢复"},
	}})
	require.NoError(t, err)

	f := &fixture{
		analyzer:  &fakeAnalyzer{},
		responder: &fakeResponder{reply: "generated"},
		profiles:  profile.NewStore(0, profile.DefaultWindow),
		listener:  &recordingListener{},
		session:   NewSession("s1"),
	}
	f.machine = NewMachine(f.analyzer, f.responder, cases, f.profiles, Config{
		WakeWord:    "小美",
		CallTimeout: 200 * time.Millisecond,
		TopK:        2,
		Mode:        reference.ModeSimilar,
	}, logger.NewNopLogger(), WithListener(f.listener))
	return f
}

func (f *fixture) handle(in Inbound) Reply {
	return f.machine.Handle(context.Background(), f.session, in)
}

func TestInitialStageExtractsAndMerges(t *testing.T) {
	f := newFixture(t)
	f.analyzer.extracted = profile.Profile{Name: profile.String("张娜"), Concerns: []string{"体重恢复"}}

	reply := f.handle(Speech{Text: "我叫张娜", Speaker: RoleCustomer})

	info, ok := reply.(InfoCollectionReply)
	require.True(t, ok, "got %#v", reply)
	assert.Equal(t, "张娜", *info.Extracted.Name)
	assert.Equal(t, "张娜", *f.profiles.Get("s1").Name)
	assert.Equal(t, 1, f.listener.profiles)
	assert.Len(t, f.profiles.History("s1"), 1)
}

func TestAgentSpeechIsAcknowledged(t *testing.T) {
	for _, st := range []Stage{Initial, Tour, Consultation} {
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t)
			f.session.Stage = st

			reply := f.handle(Speech{Text: "欢迎", Speaker: RoleAgent})

			assert.Equal(t, TypeAcknowledgement, reply.Kind())
			assert.Empty(t, f.responder.calls)
			assert.True(t, f.profiles.Get("s1").IsEmpty())
			assert.Len(t, f.profiles.History("s1"), 1)
		})
	}
}

func TestTourStageMergesInterestsOnly(t *testing.T) {
	f := newFixture(t)
	f.session.Stage = Tour
	f.analyzer.feedback = Feedback{
		Interests: []string{"母婴护理"},
		Concerns:  []string{"价格"},
		Sentiment: "正面",
	}
	f.profiles.Merge("s1", profile.Profile{Interests: []string{"母婴护理", "产后修复"}})

	reply := f.handle(Speech{Text: "这个房间不错", Speaker: RoleCustomer})

	fb, ok := reply.(FeedbackAnalysisReply)
	require.True(t, ok)
	assert.Equal(t, "正面", fb.Analysis.Sentiment)
	got := f.profiles.Get("s1")
	assert.ElementsMatch(t, []string{"母婴护理", "产后修复"}, got.Interests)
	assert.Empty(t, got.Concerns)
	assert.Nil(t, got.Sentiment)
}

func TestConsultationPassesCappedWindow(t *testing.T) {
	f := newFixture(t)
	f.session.Stage = Consultation
	for i := 0; i < 7; i++ {
		f.profiles.AppendContext("s1", "customer", "earlier")
	}

	reply := f.handle(Speech{Text: "坐月子吃什么", Speaker: RoleCustomer})

	resp, ok := reply.(AIResponseReply)
	require.True(t, ok)
	assert.Equal(t, "generated", resp.Response)
	require.Len(t, f.responder.calls, 1)
	call := f.responder.calls[0]
	assert.Equal(t, "坐月子吃什么", call.text)
	assert.Len(t, call.window, 5)
	assert.Equal(t, "坐月子吃什么", call.window[4].Content)
}

func TestCasePresentationIsRoleIndependent(t *testing.T) {
	for _, role := range []Role{RoleCustomer, RoleAgent} {
		t.Run(string(role), func(t *testing.T) {
			f := newFixture(t)
			f.session.Stage = CasePresentation
			f.profiles.Merge("s1", profile.Profile{BirthType: profile.String("顺产"), Concerns: []string{"体重恢复"}})

			reply := f.handle(Speech{Text: "有类似案例吗", Speaker: role})

			cases, ok := reply.(SimilarCasesReply)
			require.True(t, ok)
			require.Len(t, cases.Cases, 2)
			assert.Equal(t, "A", cases.Cases[0].Record.ID)
			assert.Equal(t, 5, cases.Cases[0].Score)
			assert.Equal(t, "B", cases.Cases[1].Record.ID)
			assert.Equal(t, 2, cases.Cases[1].Score)
		})
	}
}

func TestCommandWithWakeWord(t *testing.T) {
	f := newFixture(t)

	reply := f.handle(Command{Command: "小美，介绍一下我们的护理套餐"})

	resp, ok := reply.(AICommandResponseReply)
	require.True(t, ok)
	assert.Equal(t, "generated", resp.Response)
	require.Len(t, f.responder.calls, 1)
	assert.True(t, f.responder.calls[0].agent)
	assert.Equal(t, "介绍一下我们的护理套餐?", f.responder.calls[0].text)
	assert.Equal(t, Initial, f.session.Stage)
}

func TestCommandWithoutWakeWordSkipsResponder(t *testing.T) {
	f := newFixture(t)

	reply := f.handle(Command{Command: "介绍一下套餐"})

	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, errReply.Code)
	assert.Equal(t, "invalid command format", errReply.Message)
	assert.Empty(t, f.responder.calls)
	assert.True(t, f.profiles.Get("s1").IsEmpty())
	assert.Empty(t, f.profiles.History("s1"))
}

func TestStageChange(t *testing.T) {
	f := newFixture(t)

	reply := f.handle(StageChange{Stage: "case_presentation"})
	assert.Equal(t, TypeStageChange, reply.Kind())
	assert.Equal(t, CasePresentation, f.session.Stage)

	reply = f.handle(StageChange{Stage: "initial"})
	assert.Equal(t, TypeStageChange, reply.Kind())
	assert.Equal(t, Initial, f.session.Stage)

	assert.Equal(t, []Stage{CasePresentation, Initial}, f.listener.stages)
}

func TestInvalidStageChangeLeavesStage(t *testing.T) {
	f := newFixture(t)
	f.session.Stage = Tour

	reply := f.handle(StageChange{Stage: "banquet"})

	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, errReply.Code)
	assert.Equal(t, Tour, f.session.Stage)
	assert.Empty(t, f.listener.stages)
}

func TestCollaboratorFailureBecomesErrorReply(t *testing.T) {
	f := newFixture(t)
	f.analyzer.err = errors.New("upstream 500: secret details")

	reply := f.handle(Speech{Text: "你好", Speaker: RoleCustomer})

	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, CodeCollaboratorFailure, errReply.Code)
	assert.NotContains(t, errReply.Message, "secret")
	assert.Equal(t, Initial, f.session.Stage)
	assert.True(t, f.profiles.Get("s1").IsEmpty())
}

func TestCollaboratorTimeout(t *testing.T) {
	f := newFixture(t)
	f.analyzer.delay = time.Second

	start := time.Now()
	reply := f.handle(Speech{Text: "你好", Speaker: RoleCustomer})

	assert.Less(t, time.Since(start), 900*time.Millisecond)
	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, CodeCollaboratorFailure, errReply.Code)
	assert.Contains(t, errReply.Message, "timed out")
}

func TestCollaboratorPanicIsContained(t *testing.T) {
	f := newFixture(t)
	f.analyzer.panicMsg = "boom"

	reply := f.handle(Speech{Text: "你好", Speaker: RoleCustomer})

	assert.Equal(t, TypeError, reply.Kind())
	assert.Equal(t, Initial, f.session.Stage)
}

func TestUnknownStageIsReported(t *testing.T) {
	f := newFixture(t)
	f.session.Stage = Stage("banquet")

	reply := f.handle(Speech{Text: "x", Speaker: RoleCustomer})
	assert.Equal(t, TypeError, reply.Kind())
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr error
	}{
		{name: "speech defaults to customer", raw: `{"type":"speech","text":"hi"}`, want: Speech{Text: "hi", Speaker: RoleCustomer}},
		{name: "speech from sales", raw: `{"type":"speech","text":"hi","speaker":"sales"}`, want: Speech{Text: "hi", Speaker: RoleAgent}},
		{name: "speech bad speaker", raw: `{"type":"speech","text":"hi","speaker":"robot"}`, wantErr: ErrInvalidSpeaker},
		{name: "command", raw: `{"type":"command","command":"小美 hi"}`, want: Command{Command: "小美 hi"}},
		{name: "stage change", raw: `{"type":"stage_change","stage":"tour"}`, want: StageChange{Stage: "tour"}},
		{name: "unknown type", raw: `{"type":"dance"}`, wantErr: ErrUnknownMessageType},
		{name: "not json", raw: `hello`, wantErr: ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInstruction(t *testing.T) {
	tests := []struct {
		command string
		want    string
		wantErr bool
	}{
		{command: "小美帮我介绍套餐", want: "帮我介绍套餐?"},
		{command: "请问小美：价格是多少？", want: "价格是多少？"},
		{command: "小美 what is included?", want: "what is included?"},
		{command: "小美介绍月嫂小美不要说价格", want: "介绍月嫂?"},
		{command: "介绍套餐", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := ExtractInstruction(tt.command, "小美")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeCarriesType(t *testing.T) {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(Encode(NewError(CodeNotFound, "session not found")), &decoded))
	assert.Equal(t, "error", decoded["type"])
	assert.Equal(t, "not_found", decoded["code"])
}
