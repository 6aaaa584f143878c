package dictation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxkey/voxkey/inject"
	"github.com/voxkey/voxkey/transcribe"
)

type fakeRecorder struct {
	samples []float32
	stopped bool
}

func speech(seconds float64) []float32 {
	n := int(seconds * 16000)
	out := make([]float32, n)
	for i := range out {
		out[i] = 0.1
	}
	return out
}

func (f *fakeRecorder) Start() error        { return nil }
func (f *fakeRecorder) Snapshot() []float32 { return f.samples }
func (f *fakeRecorder) Stop() []float32 {
	f.stopped = true
	return f.samples
}
func (f *fakeRecorder) Duration() time.Duration {
	return time.Duration(float64(len(f.samples)) / 16000 * float64(time.Second))
}
func (f *fakeRecorder) SampleRate() int { return 16000 }

type fakeTranscriber struct {
	texts []string
	calls int
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []float32, _ transcribe.DecodingOptions) (*transcribe.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	f.calls++
	return &transcribe.Result{Text: f.texts[i]}, nil
}

type fakeOutput struct {
	ops []string
}

func (f *fakeOutput) Paste(_ context.Context, text string) error {
	f.ops = append(f.ops, "paste:"+text)
	return nil
}
func (f *fakeOutput) Type(_ context.Context, text string) error {
	f.ops = append(f.ops, "type:"+text)
	return nil
}
func (f *fakeOutput) Correct(_ context.Context, plan inject.CorrectionPlan) error {
	f.ops = append(f.ops, fmt.Sprintf("correct:%d:%s", plan.Backspaces, plan.Suffix))
	return nil
}

func newTestSession(t *testing.T, texts []string, opts Options) (*Session, *fakeOutput) {
	t.Helper()
	rec := &fakeRecorder{samples: speech(3)}
	tr := &fakeTranscriber{texts: texts}
	out := &fakeOutput{}
	opts.AllowInjection = true
	s := NewSession(rec, tr, out, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, out
}

func TestTick_CommitsCompletedSentences(t *testing.T) {
	s, out := newTestSession(t, []string{
		"Hello world. And then",
		"Hello world. And then some. More",
	}, Options{})

	s.tick()
	if got := s.Committed(); got != "Hello world." {
		t.Fatalf("committed after first tick = %q, want %q", got, "Hello world.")
	}
	if len(out.ops) != 1 || out.ops[0] != "type:Hello world." {
		t.Fatalf("ops after first tick = %v", out.ops)
	}

	s.tick()
	if got, want := s.Committed(), "Hello world. And then some."; got != want {
		t.Fatalf("committed after second tick = %q, want %q", got, want)
	}
	// The appended segment keeps its leading separator.
	if got, want := out.ops[1], "type: And then some."; got != want {
		t.Fatalf("second op = %q, want %q", got, want)
	}
}

func TestTick_NoBoundaryNoCommit(t *testing.T) {
	s, out := newTestSession(t, []string{"still talking without a stop"}, Options{})
	s.tick()
	if got := s.Committed(); got != "" {
		t.Errorf("committed = %q, want empty", got)
	}
	if len(out.ops) != 0 {
		t.Errorf("ops = %v, want none", out.ops)
	}
}

func TestTick_DivergentTranscriptHoldsCommit(t *testing.T) {
	s, out := newTestSession(t, []string{
		"Hello world. More",
		"Goodbye now. Everything changed entirely.",
	}, Options{})

	s.tick()
	s.tick()

	// The divergent transcript must neither extend nor rewrite.
	if got := s.Committed(); got != "Hello world." {
		t.Errorf("committed = %q, want %q", got, "Hello world.")
	}
	if len(out.ops) != 1 {
		t.Errorf("ops = %v, want only the first commit", out.ops)
	}
}

func TestTick_CommittedOnlyGrowsAsPrefix(t *testing.T) {
	s, _ := newTestSession(t, []string{
		"One done. Two",
		"One done. Two done. Three",
		"One done. Two done. Three done. Tail",
	}, Options{})

	prev := ""
	for i := 0; i < 3; i++ {
		s.tick()
		cur := s.Committed()
		if !strings.HasPrefix(cur, prev) {
			t.Fatalf("commit %d: %q is not an extension of %q", i, cur, prev)
		}
		prev = cur
	}
	if prev != "One done. Two done. Three done." {
		t.Errorf("final committed = %q", prev)
	}
}

func TestTick_PasteMode(t *testing.T) {
	s, out := newTestSession(t, []string{"Hello there. And"}, Options{PasteMode: true})
	s.tick()
	if len(out.ops) != 1 || out.ops[0] != "paste:Hello there." {
		t.Errorf("ops = %v, want a single paste", out.ops)
	}
}

func TestFinish_FullPasteWhenNothingCommitted(t *testing.T) {
	s, out := newTestSession(t, []string{"Hello there."}, Options{})
	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "Hello there." {
		t.Errorf("final = %q", final)
	}
	if len(out.ops) != 1 || out.ops[0] != "type:Hello there." {
		t.Errorf("ops = %v, want full delivery", out.ops)
	}
}

func TestFinish_NoopWhenFinalMatchesCommitted(t *testing.T) {
	s, out := newTestSession(t, []string{
		"Hello world. Trailing",
		"Hello world.",
	}, Options{})
	s.tick()
	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "Hello world." {
		t.Errorf("final = %q", final)
	}
	if len(out.ops) != 1 {
		t.Errorf("ops = %v, want no delivery beyond the tick", out.ops)
	}
}

func TestFinish_AppendsRemainder(t *testing.T) {
	s, out := newTestSession(t, []string{
		"Hello world. And",
		"Hello world. And that is all",
	}, Options{})
	s.tick()
	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "Hello world. And that is all" {
		t.Errorf("final = %q", final)
	}
	if got, want := out.ops[len(out.ops)-1], "type: And that is all"; got != want {
		t.Errorf("last op = %q, want %q", got, want)
	}
}

func TestFinish_CorrectsDivergence(t *testing.T) {
	s, out := newTestSession(t, []string{
		"I went too. More",
		"I went to the store.",
	}, Options{})
	s.tick()
	if got := s.Committed(); got != "I went too." {
		t.Fatalf("committed = %q", got)
	}

	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "I went to the store." {
		t.Errorf("final = %q", final)
	}
	// "I went to" is the shared prefix; "o." must be deleted.
	if got, want := out.ops[len(out.ops)-1], "correct:2: the store."; got != want {
		t.Errorf("last op = %q, want %q", got, want)
	}
}

func TestFinish_InjectionDisabled(t *testing.T) {
	rec := &fakeRecorder{samples: speech(3)}
	tr := &fakeTranscriber{texts: []string{"Hands off the keyboard."}}
	out := &fakeOutput{}
	s := NewSession(rec, tr, out, Options{AllowInjection: false})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "Hands off the keyboard." {
		t.Errorf("final = %q", final)
	}
	if len(out.ops) != 0 {
		t.Errorf("ops = %v, want none when injection is disabled", out.ops)
	}
}

func TestFinish_DiscardsShortRecording(t *testing.T) {
	rec := &fakeRecorder{samples: speech(0.2)}
	tr := &fakeTranscriber{texts: []string{"should never be called"}}
	s := NewSession(rec, tr, &fakeOutput{}, Options{AllowInjection: true})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := s.Finish(context.Background()); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("Finish error = %v, want ErrNoSpeech", err)
	}
	if tr.calls != 0 {
		t.Errorf("transcriber called %d times on a discarded recording", tr.calls)
	}
}

func TestFinish_DiscardsSilence(t *testing.T) {
	quiet := make([]float32, 16000*2)
	rec := &fakeRecorder{samples: quiet}
	tr := &fakeTranscriber{texts: []string{"noise"}}
	s := NewSession(rec, tr, &fakeOutput{}, Options{AllowInjection: true, SilenceRMS: 0.01})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := s.Finish(context.Background()); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("Finish error = %v, want ErrNoSpeech", err)
	}
	if !rec.stopped {
		t.Error("recorder was not stopped")
	}
}

func TestFinish_EmptyFinalKeepsCommitted(t *testing.T) {
	s, out := newTestSession(t, []string{
		"Hello world. And",
		"",
	}, Options{})
	s.tick()
	final, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if final != "Hello world." {
		t.Errorf("final = %q, want committed text back", final)
	}
	if len(out.ops) != 1 {
		t.Errorf("ops = %v, want no extra delivery", out.ops)
	}
}

func TestTick_AfterFinishIsIgnored(t *testing.T) {
	s, out := newTestSession(t, []string{"Hello world. Done"}, Options{})
	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	before := len(out.ops)
	s.tick()
	if len(out.ops) != before {
		t.Errorf("tick after Finish delivered text: %v", out.ops)
	}
}

// blockingTranscriber parks its first call until release is closed and
// records the context state observed when it resumes. Later calls return
// immediately.
type blockingTranscriber struct {
	entered    chan struct{}
	release    chan struct{}
	calls      atomic.Int32
	tickCtxErr error
}

func newBlockingTranscriber() *blockingTranscriber {
	return &blockingTranscriber{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, _ []float32, _ transcribe.DecodingOptions) (*transcribe.Result, error) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
		<-b.release
		b.tickCtxErr = ctx.Err()
		return &transcribe.Result{Text: "Hello world. Tail"}, nil
	}
	return &transcribe.Result{Text: "Hello world. Done."}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestTick_SkipsWhileTranscriptionInFlight(t *testing.T) {
	tr := newBlockingTranscriber()
	rec := &fakeRecorder{samples: speech(3)}
	s := NewSession(rec, tr, &fakeOutput{}, Options{AllowInjection: true})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tickDone := make(chan struct{})
	go func() {
		s.tick()
		close(tickDone)
	}()
	<-tr.entered

	// An overlapping tick must return without queueing a second call.
	s.tick()
	if got := tr.calls.Load(); got != 1 {
		t.Errorf("transcriber called %d times during overlap, want 1", got)
	}

	close(tr.release)
	<-tickDone
}

func TestFinish_InFlightTickCompletesUncanceled(t *testing.T) {
	tr := newBlockingTranscriber()
	rec := &fakeRecorder{samples: speech(3)}
	out := &fakeOutput{}
	s := NewSession(rec, tr, out, Options{AllowInjection: true})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tickDone := make(chan struct{})
	go func() {
		s.tick()
		close(tickDone)
	}()
	<-tr.entered

	var (
		final      string
		finishErr  error
		finishDone = make(chan struct{})
	)
	go func() {
		final, finishErr = s.Finish(context.Background())
		close(finishDone)
	}()

	// Release the parked tick only once the session is marked stopped, so
	// its commit must be discarded rather than delivered.
	waitFor(t, func() bool { return s.stopped.Load() })
	close(tr.release)
	<-tickDone
	<-finishDone

	if tr.tickCtxErr != nil {
		t.Errorf("in-flight tick saw context error %v, want none", tr.tickCtxErr)
	}
	if finishErr != nil {
		t.Fatalf("Finish: %v", finishErr)
	}
	if final != "Hello world. Done." {
		t.Errorf("final = %q", final)
	}
	// Only the final delivery; the tick's result was dropped.
	if len(out.ops) != 1 || out.ops[0] != "type:Hello world. Done." {
		t.Errorf("ops = %v, want only the final delivery", out.ops)
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		committed string
		final     string
		kind      DecisionKind
		appendVal string
	}{
		{"both empty", "", "", DecisionNone, ""},
		{"empty final keeps committed", "Hello.", "", DecisionNone, ""},
		{"identical", "Hello.", "Hello.", DecisionNone, ""},
		{"nothing committed", "", "Hello there.", DecisionFullPaste, ""},
		{"prefix extended", "Hello world.", "Hello world. More here", DecisionAppend, " More here"},
		{"punctuation-only tail", "Hello world.", "Hello world. ", DecisionNone, ""},
		{"diverged", "Hello word.", "Hello world. Yes.", DecisionCorrect, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.committed, tt.final)
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if tt.kind == DecisionAppend && got.Append != tt.appendVal {
				t.Errorf("Append = %q, want %q", got.Append, tt.appendVal)
			}
		})
	}
}
