package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"studytrack-backend/internal/models"
)

const (
	// TickInterval is the cadence of the side-effect scheduler.
	TickInterval = time.Second

	// Autosave fires when elapsed time crosses a multiple of 30 seconds.
	autosaveEverySeconds = 30

	// A break reminder fires every 25 minutes of active study time.
	breakReminderEverySeconds = 25 * 60

	// BreakDuration is how long a break lasts before auto-resume.
	BreakDuration = 5 * time.Minute

	// Note edits autosave after a one-second quiet period.
	notesQuietPeriod = time.Second
)

var (
	ErrSessionInProgress = errors.New(
		"a session is already active or paused: stop it before starting another",
	)
	ErrNoSession = errors.New("no session in progress")
)

// Engine drives a single live study session. All mutating entry points are
// user actions plus the internal one-second tick; state transitions update
// memory first so the caller sees the change immediately, then push the full
// session to the gateway asynchronously. At most one session is held at a
// time; the persistence layer enforces the same constraint globally.
type Engine struct {
	gw       Gateway
	notifier Notifier
	now      func() time.Time

	// tickEvery is the scheduler cadence; zero disables the background
	// loop so ticks can be driven directly.
	tickEvery time.Duration

	mu            sync.Mutex
	sess          *models.StudySession
	elapsed       int
	notes         string
	notesDirty    bool
	notesEditedAt time.Time

	stopTick   chan struct{}
	breakTimer *time.Timer

	// OnTick, when set, is called once per scheduler tick with the current
	// elapsed seconds. Used by the CLI to render the timer.
	OnTick func(elapsed int)
}

func New(gw Gateway, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	return &Engine{
		gw:        gw,
		notifier:  notifier,
		now:       time.Now,
		tickEvery: TickInterval,
	}
}

// Attach loads the active or paused session from the gateway, if any, and
// adopts it. Returns the adopted session or nil.
func (e *Engine) Attach(ctx context.Context) (*models.StudySession, error) {
	sess, err := e.gw.LoadActive(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess = sess
	if sess.Notes != nil {
		e.notes = *sess.Notes
	}

	if sess.Status == models.StatusActive {
		e.elapsed = ElapsedSeconds(e.now(), sess.StartTime, sess.TotalPaused)
		e.startTicking()
	} else if sess.PausedAt != nil {
		// Frozen at the value it had when the pause began.
		e.elapsed = ElapsedSeconds(*sess.PausedAt, sess.StartTime, sess.TotalPaused)
	}

	return sess, nil
}

// Start creates a new active session. Fails if one is already in progress,
// either locally or at the persistence layer.
func (e *Engine) Start(ctx context.Context, track string, topic *string, targetMinutes *int) (*models.StudySession, error) {
	e.mu.Lock()
	if e.sess != nil {
		e.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	now := e.now()
	e.mu.Unlock()

	sess := &models.StudySession{
		StartTime:     now,
		Track:         track,
		Topic:         topic,
		Status:        models.StatusActive,
		TargetMinutes: targetMinutes,
	}

	// The create is the one synchronous gateway call: without the returned
	// id no later update can be applied.
	created, err := e.gw.Create(ctx, sess)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess = created
	e.elapsed = 0
	e.notes = ""
	e.notesDirty = false
	e.startTicking()

	return created, nil
}

// Pause freezes the timer. A no-op unless the session is active.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil || e.sess.Status != models.StatusActive {
		return nil
	}

	now := e.now()
	e.elapsed = ElapsedSeconds(now, e.sess.StartTime, e.sess.TotalPaused)
	e.sess.Status = models.StatusPaused
	e.sess.PausedAt = &now
	e.stopTicking()

	e.pushState(ctx)

	return nil
}

// Resume closes the open pause, folding its duration into the accumulator
// so elapsed time is unchanged across the pause. A no-op unless the session
// is paused. Cancels any pending break auto-resume.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil || e.sess.Status != models.StatusPaused || e.sess.PausedAt == nil {
		return nil
	}

	e.cancelBreakTimer()

	now := e.now()
	delta := int(now.Sub(*e.sess.PausedAt) / time.Second)
	e.sess.TotalPaused += delta
	e.sess.PausedAt = nil
	e.sess.Status = models.StatusActive
	e.startTicking()

	e.pushState(ctx)

	return nil
}

// TakeBreak pauses the session, counts the break and schedules an automatic
// resume after BreakDuration. The stored timer handle is cancelled by a
// manual Resume or by Stop, so a break never resumes a session twice.
func (e *Engine) TakeBreak(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil || e.sess.Status != models.StatusActive {
		return nil
	}

	now := e.now()
	e.elapsed = ElapsedSeconds(now, e.sess.StartTime, e.sess.TotalPaused)
	e.sess.Status = models.StatusPaused
	e.sess.PausedAt = &now
	e.sess.BreaksTaken++
	e.stopTicking()

	e.pushState(ctx)

	e.notify("Break time", "Take 5 minutes to rest. You deserve it!")

	e.cancelBreakTimer()
	e.breakTimer = time.AfterFunc(BreakDuration, func() {
		if err := e.Resume(context.Background()); err == nil {
			e.notify("Break over", "Ready to continue studying?")
		}
	})

	return nil
}

// Stop completes the session, writes the final state and derives the daily
// log entry. The current-session slot becomes empty, permitting a new Start.
// Returns the hours credited to the log.
func (e *Engine) Stop(ctx context.Context) (float64, error) {
	e.mu.Lock()

	if e.sess == nil {
		e.mu.Unlock()
		return 0, ErrNoSession
	}

	e.cancelBreakTimer()
	e.stopTicking()

	now := e.now()
	if e.sess.Status == models.StatusActive {
		e.elapsed = ElapsedSeconds(now, e.sess.StartTime, e.sess.TotalPaused)
	}

	e.sess.Status = models.StatusCompleted
	e.sess.EndTime = &now
	e.sess.PausedAt = nil
	if e.notes != "" {
		notes := e.notes
		e.sess.Notes = &notes
	}

	sess := e.sess
	hours := SessionHours(e.elapsed)
	e.pushState(ctx)

	e.sess = nil
	e.elapsed = 0
	e.notes = ""
	e.notesDirty = false
	e.mu.Unlock()

	entry := models.StudyLogInput{
		Date:          now,
		Track:         sess.Track,
		Hours:         hours,
		Topic:         sess.Topic,
		Notes:         sess.Notes,
		QuestionCount: sess.QuestionCount,
		Accuracy:      sess.Accuracy,
	}

	if _, err := e.gw.CreateLogEntry(ctx, entry); err != nil {
		log.Printf("tracker: failed to create study log: %v", err)
	}

	return hours, nil
}

// SetNotes replaces the session notes and arms the quiet-period autosave.
// The dirty flag is observed by the next tick, so note edits and the
// 30-second autosave share one scheduler.
func (e *Engine) SetNotes(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return
	}

	e.notes = text
	e.notesDirty = true
	e.notesEditedAt = e.now()
}

// SetResults records question count and accuracy for the completion log.
func (e *Engine) SetResults(questionCount int, accuracy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return
	}

	e.sess.QuestionCount = &questionCount
	e.sess.Accuracy = &accuracy
}

// Elapsed returns the current elapsed seconds: live while active, frozen
// while paused.
func (e *Engine) Elapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil && e.sess.Status == models.StatusActive {
		return ElapsedSeconds(e.now(), e.sess.StartTime, e.sess.TotalPaused)
	}

	return e.elapsed
}

// Session returns a snapshot of the current session, or nil.
func (e *Engine) Session() *models.StudySession {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return nil
	}

	snapshot := *e.sess
	return &snapshot
}

// Close tears the engine down without completing the session: the ticker
// and any pending auto-resume are cancelled, in-flight writes are left to
// finish on their own.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelBreakTimer()
	e.stopTicking()
}

// tick is one scheduler step. Runs once per second while the session is
// active; never while paused or before a session exists.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()

	if e.sess == nil || e.sess.Status != models.StatusActive {
		e.mu.Unlock()
		return
	}

	e.elapsed = ElapsedSeconds(now, e.sess.StartTime, e.sess.TotalPaused)
	elapsed := e.elapsed

	saveNotes := false
	if e.notesDirty && now.Sub(e.notesEditedAt) >= notesQuietPeriod {
		e.notesDirty = false
		saveNotes = true
	}

	if saveNotes || (elapsed > 0 && elapsed%autosaveEverySeconds == 0) {
		notes := e.notes
		e.sess.Notes = &notes
		e.pushState(context.Background())
	}

	onTick := e.OnTick
	e.mu.Unlock()

	if onTick != nil {
		onTick(elapsed)
	}

	if elapsed > 0 && elapsed%breakReminderEverySeconds == 0 {
		e.notify(
			"Time for a break?",
			"You've been studying for 25 minutes. Consider taking a 5-minute break!",
		)
	}
}

// pushState sends the full session to the gateway, stamped with the next
// version so the persistence layer can discard writes that arrive late.
// Callers hold e.mu. Updates issued before an id exists are dropped.
func (e *Engine) pushState(ctx context.Context) {
	if e.sess.ID == 0 {
		return
	}

	e.sess.Version++

	sess := *e.sess
	notes := e.notes
	patch := models.SessionPatch{
		EndTimeSet:       true,
		EndTime:          sess.EndTime,
		PausedAtSet:      true,
		PausedAt:         sess.PausedAt,
		TotalPaused:      &sess.TotalPaused,
		Track:            &sess.Track,
		Status:           &sess.Status,
		TopicSet:         true,
		Topic:            sess.Topic,
		NotesSet:         true,
		Notes:            &notes,
		QuestionCountSet: sess.QuestionCount != nil,
		QuestionCount:    sess.QuestionCount,
		AccuracySet:      sess.Accuracy != nil,
		Accuracy:         sess.Accuracy,
		BreaksTaken:      &sess.BreaksTaken,
		TargetMinutesSet: true,
		TargetMinutes:    sess.TargetMinutes,
		Version:          &sess.Version,
	}

	// Fire-and-forget: a slow write must never stall the tick cadence.
	go func() {
		if _, err := e.gw.Update(ctx, sess.ID, patch); err != nil {
			log.Printf("tracker: failed to save session %d: %v", sess.ID, err)
		}
	}()
}

func (e *Engine) notify(title, body string) {
	if !e.notifier.Available() {
		return
	}

	if err := e.notifier.Notify(title, body); err != nil {
		log.Printf("tracker: notification failed: %v", err)
	}

	_ = e.notifier.Beep()
}

// startTicking launches the one-second scheduler loop. Callers hold e.mu.
func (e *Engine) startTicking() {
	if e.stopTick != nil || e.tickEvery <= 0 {
		return
	}

	stop := make(chan struct{})
	e.stopTick = stop

	go func() {
		ticker := time.NewTicker(e.tickEvery)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tick(e.now())
			}
		}
	}()
}

// stopTicking cancels the scheduler loop. Callers hold e.mu.
func (e *Engine) stopTicking() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// cancelBreakTimer clears a pending auto-resume. Callers hold e.mu.
func (e *Engine) cancelBreakTimer() {
	if e.breakTimer != nil {
		e.breakTimer.Stop()
		e.breakTimer = nil
	}
}
