package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studytrack-backend/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGateway struct {
	mu      sync.Mutex
	nextID  int64
	active  *models.StudySession
	updates []models.SessionPatch
	logs    []models.StudyLogInput

	createErr error
}

func (g *fakeGateway) LoadActive(_ context.Context) (*models.StudySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return nil, nil
	}
	snapshot := *g.active
	return &snapshot, nil
}

func (g *fakeGateway) Create(_ context.Context, sess *models.StudySession) (*models.StudySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	created := *sess
	created.ID = g.nextID
	return &created, nil
}

func (g *fakeGateway) Update(_ context.Context, _ int64, patch models.SessionPatch) (*models.StudySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, patch)
	return nil, nil
}

func (g *fakeGateway) Delete(_ context.Context, _ int64) error {
	return nil
}

func (g *fakeGateway) CreateLogEntry(_ context.Context, entry models.StudyLogInput) (*models.StudyLog, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logs = append(g.logs, entry)
	return &models.StudyLog{}, nil
}

func (g *fakeGateway) updateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.updates)
}

func (g *fakeGateway) lastUpdate() models.SessionPatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updates[len(g.updates)-1]
}

// waitUpdates blocks until the gateway has received want updates. Saves are
// fire-and-forget goroutines, so tests poll instead of counting inline.
func waitUpdates(t *testing.T, g *fakeGateway, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if g.updateCount() >= want {
			if got := g.updateCount(); got != want {
				t.Fatalf("Expected %d updates, got %d", want, got)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Expected %d updates, got %d", want, g.updateCount())
}

func newTestEngine(t *testing.T) (*Engine, *fakeGateway, *fakeClock) {
	t.Helper()
	gw := &fakeGateway{}
	clock := newFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	e := New(gw, nil)
	e.now = clock.Now
	e.tickEvery = 0 // ticks driven by hand

	return e, gw, clock
}

func startSession(t *testing.T, e *Engine) *models.StudySession {
	t.Helper()
	sess, err := e.Start(context.Background(), models.TrackFE, nil, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return sess
}

func TestStart(t *testing.T) {
	e, _, clock := newTestEngine(t)

	sess := startSession(t, e)

	if sess.ID == 0 {
		t.Error("Expected created session to have an id")
	}
	if sess.Status != models.StatusActive {
		t.Errorf("Expected status %q, got %q", models.StatusActive, sess.Status)
	}
	if !sess.StartTime.Equal(clock.Now()) {
		t.Errorf("Expected start time %v, got %v", clock.Now(), sess.StartTime)
	}
	if got := e.Elapsed(); got != 0 {
		t.Errorf("Expected 0 elapsed at start, got %d", got)
	}
}

func TestStartFailsWhenSessionInProgress(t *testing.T) {
	e, _, _ := newTestEngine(t)
	startSession(t, e)

	_, err := e.Start(context.Background(), models.TrackSCADA, nil, nil)
	if !errors.Is(err, ErrSessionInProgress) {
		t.Errorf("Expected ErrSessionInProgress, got %v", err)
	}
}

func TestStartPropagatesGatewayError(t *testing.T) {
	e, gw, _ := newTestEngine(t)
	gw.createErr = errors.New("connection refused")

	if _, err := e.Start(context.Background(), models.TrackFE, nil, nil); err == nil {
		t.Fatal("Expected error from gateway, got nil")
	}
	if e.Session() != nil {
		t.Error("Expected no session held after failed create")
	}
}

func TestPauseExcludesPausedTime(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)

	clock.Advance(10 * time.Second)
	if err := e.Pause(context.Background()); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	// Frozen while paused.
	clock.Advance(30 * time.Second)
	if got := e.Elapsed(); got != 10 {
		t.Errorf("Expected 10s elapsed while paused, got %d", got)
	}

	if err := e.Resume(context.Background()); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	clock.Advance(10 * time.Second)
	if got := e.Elapsed(); got != 20 {
		t.Errorf("Expected 20s elapsed after resume, got %d", got)
	}

	sess := e.Session()
	if sess.TotalPaused != 30 {
		t.Errorf("Expected 30s total paused, got %d", sess.TotalPaused)
	}
	if sess.PausedAt != nil {
		t.Error("Expected pausedAt cleared after resume")
	}
}

func TestTotalPausedAccumulates(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	pauses := []time.Duration{5 * time.Second, 12 * time.Second, 3 * time.Second}
	for _, d := range pauses {
		clock.Advance(time.Minute)
		if err := e.Pause(ctx); err != nil {
			t.Fatalf("Pause failed: %v", err)
		}
		clock.Advance(d)
		if err := e.Resume(ctx); err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
	}

	if got := e.Session().TotalPaused; got != 20 {
		t.Errorf("Expected 20s total paused, got %d", got)
	}
	if got := e.Elapsed(); got != 180 {
		t.Errorf("Expected 180s elapsed, got %d", got)
	}
}

func TestPauseWhilePausedIsNoOp(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(10 * time.Second)
	if err := e.Pause(ctx); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	waitUpdates(t, gw, 1)

	pausedAt := *e.Session().PausedAt

	clock.Advance(5 * time.Second)
	if err := e.Pause(ctx); err != nil {
		t.Fatalf("Second pause failed: %v", err)
	}

	sess := e.Session()
	if !sess.PausedAt.Equal(pausedAt) {
		t.Error("Expected second pause to leave pausedAt untouched")
	}
	if got := gw.updateCount(); got != 1 {
		t.Errorf("Expected no extra save from redundant pause, got %d updates", got)
	}
}

func TestResumeWhileActiveIsNoOp(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)

	clock.Advance(10 * time.Second)
	if err := e.Resume(context.Background()); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	sess := e.Session()
	if sess.Status != models.StatusActive {
		t.Errorf("Expected status to stay active, got %q", sess.Status)
	}
	if sess.TotalPaused != 0 {
		t.Errorf("Expected totalPaused untouched, got %d", sess.TotalPaused)
	}
	if got := gw.updateCount(); got != 0 {
		t.Errorf("Expected no save from redundant resume, got %d updates", got)
	}
}

func TestTakeBreak(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(25 * time.Minute)
	if err := e.TakeBreak(ctx); err != nil {
		t.Fatalf("TakeBreak failed: %v", err)
	}

	sess := e.Session()
	if sess.Status != models.StatusPaused {
		t.Errorf("Expected paused status, got %q", sess.Status)
	}
	if sess.BreaksTaken != 1 {
		t.Errorf("Expected 1 break taken, got %d", sess.BreaksTaken)
	}
	e.mu.Lock()
	armed := e.breakTimer != nil
	e.mu.Unlock()
	if !armed {
		t.Fatal("Expected a pending auto-resume timer")
	}

	// A second break while paused is a no-op and arms nothing new.
	if err := e.TakeBreak(ctx); err != nil {
		t.Fatalf("Second TakeBreak failed: %v", err)
	}
	if got := e.Session().BreaksTaken; got != 1 {
		t.Errorf("Expected break while paused to be a no-op, got %d breaks", got)
	}
}

func TestManualResumeCancelsAutoResume(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(10 * time.Minute)
	if err := e.TakeBreak(ctx); err != nil {
		t.Fatalf("TakeBreak failed: %v", err)
	}

	clock.Advance(time.Minute)
	if err := e.Resume(ctx); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	e.mu.Lock()
	timer := e.breakTimer
	e.mu.Unlock()
	if timer != nil {
		t.Error("Expected manual resume to cancel the auto-resume timer")
	}

	// Even if a cancelled timer had already fired, resuming an active
	// session changes nothing.
	before := e.Session().TotalPaused
	if err := e.Resume(ctx); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if got := e.Session().TotalPaused; got != before {
		t.Errorf("Expected totalPaused to stay %d, got %d", before, got)
	}
}

func TestStopCancelsAutoResume(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(10 * time.Minute)
	if err := e.TakeBreak(ctx); err != nil {
		t.Fatalf("TakeBreak failed: %v", err)
	}
	if _, err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	e.mu.Lock()
	timer := e.breakTimer
	e.mu.Unlock()
	if timer != nil {
		t.Error("Expected stop to cancel the auto-resume timer")
	}
}

func TestStopDerivesLogEntry(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	topic := "berth allocation"
	if _, err := e.Start(context.Background(), models.TrackFE, &topic, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	e.SetNotes("covered chapters 3 and 4")
	e.SetResults(40, 85)

	clock.Advance(5400 * time.Second)
	hours, err := e.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if hours != 1.5 {
		t.Errorf("Expected 1.5 hours, got %v", hours)
	}
	if e.Session() != nil {
		t.Error("Expected session slot cleared after stop")
	}

	if len(gw.logs) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(gw.logs))
	}
	entry := gw.logs[0]
	if entry.Hours != 1.5 {
		t.Errorf("Expected 1.5 hours in log entry, got %v", entry.Hours)
	}
	if entry.Track != models.TrackFE {
		t.Errorf("Expected track %q, got %q", models.TrackFE, entry.Track)
	}
	if entry.Topic == nil || *entry.Topic != topic {
		t.Errorf("Expected topic %q, got %v", topic, entry.Topic)
	}
	if entry.Notes == nil || *entry.Notes != "covered chapters 3 and 4" {
		t.Errorf("Unexpected notes: %v", entry.Notes)
	}
	if entry.QuestionCount == nil || *entry.QuestionCount != 40 {
		t.Errorf("Unexpected question count: %v", entry.QuestionCount)
	}

	waitUpdates(t, gw, 1)
	final := gw.lastUpdate()
	if final.Status == nil || *final.Status != models.StatusCompleted {
		t.Error("Expected final save to mark the session completed")
	}
	if !final.EndTimeSet || final.EndTime == nil {
		t.Error("Expected final save to carry an end time")
	}

	// The slot is free for a new session.
	if _, err := e.Start(context.Background(), models.TrackSCADA, nil, nil); err != nil {
		t.Fatalf("Start after stop failed: %v", err)
	}
}

func TestStopWhilePausedUsesFrozenElapsed(t *testing.T) {
	e, _, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(900 * time.Second)
	if err := e.Pause(ctx); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	clock.Advance(time.Hour)

	hours, err := e.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if hours != 0.25 {
		t.Errorf("Expected 0.25 hours from 900s of study, got %v", hours)
	}
}

func TestStopWithoutSession(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if _, err := e.Stop(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestAutosaveFiresOnThirtySecondMultiples(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)

	for second := 1; second <= 90; second++ {
		clock.Advance(time.Second)
		e.tick(clock.Now())
	}

	// Exactly 30, 60 and 90; never 29, 31 or any other second.
	waitUpdates(t, gw, 3)
}

func TestAutosaveSkippedWhilePaused(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)

	clock.Advance(10 * time.Second)
	if err := e.Pause(context.Background()); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	waitUpdates(t, gw, 1)

	for second := 0; second < 60; second++ {
		clock.Advance(time.Second)
		e.tick(clock.Now())
	}

	if got := gw.updateCount(); got != 1 {
		t.Errorf("Expected no autosaves while paused, got %d updates", got)
	}
}

func TestNotesAutosaveAfterQuietPeriod(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)

	clock.Advance(5 * time.Second)
	e.SetNotes("draft")

	// Still inside the quiet period.
	e.tick(clock.Now())
	if got := gw.updateCount(); got != 0 {
		t.Fatalf("Expected no save inside the quiet period, got %d updates", got)
	}

	// Another edit restarts the clock.
	clock.Advance(500 * time.Millisecond)
	e.SetNotes("draft, revised")
	clock.Advance(600 * time.Millisecond)
	e.tick(clock.Now())
	if got := gw.updateCount(); got != 0 {
		t.Fatalf("Expected edit to restart the quiet period, got %d updates", got)
	}

	clock.Advance(time.Second)
	e.tick(clock.Now())
	waitUpdates(t, gw, 1)

	patch := gw.lastUpdate()
	if !patch.NotesSet || patch.Notes == nil || *patch.Notes != "draft, revised" {
		t.Errorf("Expected saved notes %q, got %v", "draft, revised", patch.Notes)
	}

	// Saved once; the flag is clear until the next edit.
	clock.Advance(time.Second)
	e.tick(clock.Now())
	time.Sleep(10 * time.Millisecond)
	if got := gw.updateCount(); got != 1 {
		t.Errorf("Expected a single save per edit burst, got %d updates", got)
	}
}

func TestSaveVersionsIncrease(t *testing.T) {
	e, gw, clock := newTestEngine(t)
	startSession(t, e)
	ctx := context.Background()

	clock.Advance(10 * time.Second)
	if err := e.Pause(ctx); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := e.Resume(ctx); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if _, err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitUpdates(t, gw, 3)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	seen := make(map[int]bool)
	for _, patch := range gw.updates {
		if patch.Version == nil {
			t.Fatal("Expected every save to carry a version stamp")
		}
		if seen[*patch.Version] {
			t.Errorf("Version %d stamped twice", *patch.Version)
		}
		seen[*patch.Version] = true
	}
}

func TestAttachAdoptsActiveSession(t *testing.T) {
	e, gw, clock := newTestEngine(t)

	start := clock.Now().Add(-100 * time.Second)
	gw.active = &models.StudySession{
		ID:          7,
		StartTime:   start,
		Track:       models.TrackSCADA,
		Status:      models.StatusActive,
		TotalPaused: 40,
	}

	sess, err := e.Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if sess == nil || sess.ID != 7 {
		t.Fatalf("Expected session 7 adopted, got %+v", sess)
	}
	if got := e.Elapsed(); got != 60 {
		t.Errorf("Expected 60s elapsed, got %d", got)
	}
}

func TestAttachAdoptsPausedSessionFrozen(t *testing.T) {
	e, gw, clock := newTestEngine(t)

	start := clock.Now().Add(-10 * time.Minute)
	pausedAt := start.Add(90 * time.Second)
	gw.active = &models.StudySession{
		ID:        3,
		StartTime: start,
		PausedAt:  &pausedAt,
		Track:     models.TrackFE,
		Status:    models.StatusPaused,
	}

	if _, err := e.Attach(context.Background()); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if got := e.Elapsed(); got != 90 {
		t.Errorf("Expected elapsed frozen at 90s, got %d", got)
	}

	clock.Advance(time.Hour)
	if got := e.Elapsed(); got != 90 {
		t.Errorf("Expected elapsed still frozen at 90s, got %d", got)
	}
}

func TestAttachWithNoLiveSession(t *testing.T) {
	e, _, _ := newTestEngine(t)

	sess, err := e.Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if sess != nil {
		t.Errorf("Expected nil session, got %+v", sess)
	}
}

func TestSetNotesWithoutSession(t *testing.T) {
	e, gw, clock := newTestEngine(t)

	e.SetNotes("orphaned")
	clock.Advance(2 * time.Second)
	e.tick(clock.Now())
	time.Sleep(10 * time.Millisecond)

	if got := gw.updateCount(); got != 0 {
		t.Errorf("Expected no saves without a session, got %d updates", got)
	}
}
