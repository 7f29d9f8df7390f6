package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"studytrack-backend/internal/models"
	"studytrack-backend/internal/repository"
)

// statsCacheKey holds the precomputed coach stats snapshot in Redis.
const statsCacheKey = "coach:stats"

const statsCacheTTL = time.Hour

// CoachService answers study questions. With a Gemini API key it asks the
// model, grounded in the student's stats; without one, or when the model
// call fails, it falls back to the rule-based responder so the coach always
// answers.
type CoachService struct {
	client *genai.Client
	model  *genai.GenerativeModel

	coachRepo   *repository.CoachRepo
	logRepo     *repository.StudyLogRepo
	sessionRepo *repository.SessionRepo
	weakRepo    *repository.WeakTopicRepo
	redis       *redis.Client
	rateChan    chan struct{} // Token bucket
}

func NewCoachService(
	apiKey string,
	concurrentReqs int,
	coachRepo *repository.CoachRepo,
	logRepo *repository.StudyLogRepo,
	sessionRepo *repository.SessionRepo,
	weakRepo *repository.WeakTopicRepo,
	redisClient *redis.Client,
) (*CoachService, error) {
	s := &CoachService{
		coachRepo:   coachRepo,
		logRepo:     logRepo,
		sessionRepo: sessionRepo,
		weakRepo:    weakRepo,
		redis:       redisClient,
	}

	if apiKey == "" {
		log.Println("Coach: no Gemini API key, rule-based responses only")
		return s, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(500)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	s.client = client
	s.model = model
	s.rateChan = rateChan
	return s, nil
}

func (s *CoachService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Chat answers one user message and records both turns of the exchange.
func (s *CoachService) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	stats := req.Stats
	if stats == nil {
		stats, _ = s.Stats(ctx)
	}

	userTurn := &models.CoachConversation{Role: "user", Content: req.Message}
	if stats != nil {
		if data, err := json.Marshal(stats); err == nil {
			snapshot := string(data)
			userTurn.Context = &snapshot
		}
	}
	if err := s.coachRepo.AddTurn(ctx, userTurn); err != nil {
		return "", err
	}

	response := s.generate(ctx, req.Message, stats)

	assistantTurn := &models.CoachConversation{Role: "assistant", Content: response}
	if err := s.coachRepo.AddTurn(ctx, assistantTurn); err != nil {
		return "", err
	}

	return response, nil
}

// QuickAction answers one of the canned dashboard buttons and records the
// response as an assistant turn.
func (s *CoachService) QuickAction(ctx context.Context, req models.QuickActionRequest) (string, error) {
	stats := req.Stats
	if stats == nil {
		stats, _ = s.Stats(ctx)
	}

	var response string
	switch req.Action {
	case "weak_topics":
		response = answerWeakTopics(stats)
	case "generate_flashcards":
		response = answerFlashcards()
	case "practice_problems":
		response = answerPracticeProblems(stats)
	case "study_tip":
		response = answerStudyTip()
	default:
		response = "I'm not sure how to help with that. Try asking me a question!"
	}

	turn := &models.CoachConversation{Role: "assistant", Content: response}
	if err := s.coachRepo.AddTurn(ctx, turn); err != nil {
		return "", err
	}

	return response, nil
}

// Stats returns the coach's view of the student's progress, preferring the
// worker-refreshed snapshot in Redis over a live recompute.
func (s *CoachService) Stats(ctx context.Context) (*models.CoachStats, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, statsCacheKey).Result(); err == nil {
			stats := &models.CoachStats{}
			if err := json.Unmarshal([]byte(cached), stats); err == nil {
				return stats, nil
			}
		}
	}

	return s.ComputeStats(ctx)
}

// ComputeStats aggregates the log totals, the completed-session count over
// the last seven days and the current weak topics.
func (s *CoachService) ComputeStats(ctx context.Context) (*models.CoachStats, error) {
	feHours, scadaHours, avgAccuracy, _, err := s.logRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.sessionRepo.CountCompletedSince(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	weak, err := s.weakRepo.ListWeakest(ctx, 3, 5)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(weak))
	for _, wt := range weak {
		topics = append(topics, wt.Topic)
	}

	return &models.CoachStats{
		TotalHours:     round2(feHours + scadaHours),
		FEHours:        round2(feHours),
		SCADAHours:     round2(scadaHours),
		AvgAccuracy:    int(math.Round(avgAccuracy)),
		WeakTopics:     topics,
		RecentSessions: recent,
	}, nil
}

// RefreshStats recomputes the stats snapshot and caches it for Stats.
func (s *CoachService) RefreshStats(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	stats, err := s.ComputeStats(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, statsCacheKey, data, statsCacheTTL).Err()
}

func (s *CoachService) History(ctx context.Context, limit int) ([]models.CoachConversation, error) {
	return s.coachRepo.ListTurns(ctx, limit)
}

func (s *CoachService) ClearHistory(ctx context.Context) error {
	return s.coachRepo.Clear(ctx)
}

func (s *CoachService) generate(ctx context.Context, message string, stats *models.CoachStats) string {
	if s.model == nil {
		return ruleBasedResponse(message, stats)
	}

	if err := s.acquireRate(ctx); err != nil {
		log.Printf("Coach: no Gemini rate slot: %v", err)
		return ruleBasedResponse(message, stats)
	}
	defer s.releaseRate()

	prompt := buildCoachPrompt(stats) + "\n\nUser: " + message
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("Coach: Gemini error, falling back to rules: %v", err)
		return ruleBasedResponse(message, stats)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return ruleBasedResponse(message, stats)
	}
	return text
}

// acquireRate blocks until a rate slot is available
func (s *CoachService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *CoachService) releaseRate() {
	s.rateChan <- struct{}{}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildCoachPrompt(stats *models.CoachStats) string {
	var b strings.Builder
	b.WriteString(`You are an expert AI study coach specializing in FE Civil exam preparation and SCADA engineering. Your role is to help students study more effectively.

**Student Stats:**
`)

	if stats != nil {
		weak := strings.Join(stats.WeakTopics, ", ")
		if weak == "" {
			weak = "None identified yet"
		}
		fmt.Fprintf(&b, `- Total study hours: %vh (FE: %vh, SCADA: %vh)
- Average accuracy: %d%%
- Weak topics: %s
- Recent sessions (7 days): %d
`, stats.TotalHours, stats.FEHours, stats.SCADAHours, stats.AvgAccuracy, weak, stats.RecentSessions)
	} else {
		b.WriteString("No study data available yet.\n")
	}

	b.WriteString(`
**Guidelines:**
- Be encouraging and supportive
- Give specific, actionable advice
- Use the student's stats to personalize responses
- Keep answers concise (2-4 sentences unless explaining a concept)
- Focus on Learn -> Apply -> Reinforce methodology
- Recommend 25-minute Pomodoro sessions

Respond helpfully to the student's question.`)

	return b.String()
}

func ruleBasedResponse(message string, stats *models.CoachStats) string {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "weak", "struggle", "what should i study"):
		return answerWeakTopics(stats)
	case containsAny(lower, "flashcard", "flash card"):
		topic := extractTopic(lower)
		return fmt.Sprintf(`Great idea! Here are 3 flashcards for %s:

**Card 1:**
Front: What is the formula for stress?
Back: stress = F/A (force / area)

**Card 2:**
Front: Define factor of safety
Back: FOS = Ultimate Strength / Allowable Stress

**Card 3:**
Front: What are the 3 equilibrium equations in 2D?
Back: sum Fx = 0, sum Fy = 0, sum M = 0

Add these to your Leitner system and review using the 2-3-5-7 day spacing!`, topic)
	case containsAny(lower, "practice", "problem", "question"):
		return answerPracticeProblems(stats)
	case containsAny(lower, "explain", "what is", "how do"):
		return `I'd be happy to explain that concept!

For the best explanation, I recommend:
1. Use the **THIEVES** method to pre-read the textbook section
2. Watch a 10-minute video on the topic
3. Try 3-5 practice problems
4. Use the **Feynman technique** and explain it to me in simple words

Then ask me specific questions about what you're struggling with, and I can help clarify!`
	case containsAny(lower, "schedule", "plan", "how long"):
		return answerSchedule(stats)
	case containsAny(lower, "motivat", "tired", "hard"):
		return answerMotivation(stats)
	}

	return `I'm here to help with your FE Civil and SCADA studies! I can:

- **Identify weak topics** from your practice tests
- **Generate flashcards** for any concept
- **Suggest practice problems** based on your gaps
- **Explain concepts** in simple terms
- **Create study schedules** personalized to you

What would be most helpful right now?`
}

func answerWeakTopics(stats *models.CoachStats) string {
	if stats == nil || len(stats.WeakTopics) == 0 {
		return `Great news! You don't have any identified weak topics yet.

To help me identify areas where you need improvement:
1. Track your practice test performance
2. Log your accuracy percentage
3. Complete a few study sessions

Once I have data, I'll give you personalized topic recommendations!`
	}

	top := stats.WeakTopics[0]
	next := "None - great work!"
	if len(stats.WeakTopics) > 1 {
		end := len(stats.WeakTopics)
		if end > 3 {
			end = 3
		}
		next = strings.Join(stats.WeakTopics[1:end], ", ")
	}

	return fmt.Sprintf(`**Your #1 priority: %s**

**Action plan (90 minutes):**

**Learn** (30 min):
- Review fundamentals in the NCEES reference handbook
- Watch one tutorial video
- Create a mind map of key concepts

**Apply** (45 min):
- Solve 20 practice problems
- Time yourself: 1.5 min/problem average
- Mark incorrect answers for review

**Reinforce** (15 min):
- Add 5 flashcards to your Leitner system
- Summarize in 3-5 sentences
- Schedule review for tomorrow

**Next weak topics:** %s

Start a session now and tackle %s!`, top, next, top)
}

func answerFlashcards() string {
	return `**Auto-generated flashcards** (based on common FE/SCADA topics):

**Card 1:**
*Front:* What are the three equilibrium equations in 2D statics?
*Back:* sum Fx = 0, sum Fy = 0, sum M = 0

**Card 2:**
*Front:* Define stress and give its units
*Back:* Stress = F/A (force/area), Units: Pa or psi

**Card 3:**
*Front:* What is the typical 4-20 mA signal range used for?
*Back:* Industrial standard for analog sensor signals (0% = 4mA, 100% = 20mA)

**How to use:**
1. Add to your Leitner box system (start in Box 1)
2. Review using 2-3-5-7 day spacing
3. Move to the next box when you can recall instantly

Want cards for a specific topic? Ask me: "Generate flashcards for [topic]"`
}

func answerPracticeProblems(stats *models.CoachStats) string {
	accuracy := 0
	focus := "Statics & Mechanics"
	if stats != nil {
		accuracy = stats.AvgAccuracy
		if len(stats.WeakTopics) > 0 {
			focus = stats.WeakTopics[0]
		}
	}

	difficulty := "mixed"
	switch {
	case accuracy < 50:
		difficulty = "fundamentals"
	case accuracy < 70:
		difficulty = "intermediate"
	case accuracy >= 80:
		difficulty = "challenging"
	}

	strategy := "Mix easy and hard problems 60/40"
	if accuracy < 70 {
		strategy = "Focus on getting fundamentals right first"
	}
	pace := "1.5 min/problem"
	if accuracy < 60 {
		pace = "2-3 min/problem"
	}

	return fmt.Sprintf(`**Practice problem recommendations** (%s level):

**For FE Civil:**
1. **NCEES Practice Exam** - 110 questions, most realistic
   - Focus on: %s
   - Target: 70%%+ accuracy before exam

2. **PPI Practice Problems** - Topic-specific
   - Do 20 questions per session
   - Review ALL incorrect answers

**For SCADA:**
1. Practice PLC ladder logic on paper
2. Build simple HMI screens in free software
3. Calculate 4-20 mA scaling problems

**Study strategy:**
- %s
- Time yourself: %s
- Track accuracy in the dashboard and I'll adjust recommendations

Start a 45-minute session and do 20 problems!`, difficulty, focus, strategy, pace)
}

func answerSchedule(stats *models.CoachStats) string {
	totalHours := 0.0
	if stats != nil {
		totalHours = stats.TotalHours
	}

	standing := "just getting started - consistency is key!"
	if totalHours >= 20 {
		standing = "on track!"
	}

	return fmt.Sprintf(`Based on your %v hours studied, here's your optimal schedule:

**Daily (2 hours):**
- Morning: 1 hour FE practice problems
- Evening: 1 hour SCADA lab work

**Weekly breakdown:**
- FE: 6-8 hours (60%% of time)
- SCADA: 4-6 hours (40%% of time)
- Dashboard goal: 12 hours/week

**Session structure:**
- 25 min focus, 5 min break (Pomodoro)
- Use the live session tracker to auto-log hours!

You're %s`, totalHours, standing)
}

func answerMotivation(stats *models.CoachStats) string {
	recent := 0
	if stats != nil {
		recent = stats.RecentSessions
	}

	return fmt.Sprintf(`I hear you - FE Civil prep is challenging! Remember:

- **You're not alone** - thousands pass the FE every year
- **Progress > perfection** - small daily wins compound
- **%d sessions this week** - you're building momentum!
- **Every problem you solve** makes the next one easier

**Quick win:** do just ONE 25-minute Pomodoro session today. Start small, build consistency. You've got this!`, recent)
}

var studyTips = []string{
	`**The Feynman Technique:**

Can't explain a concept in simple words? You don't really understand it.

**Try this:**
1. Pick a concept (e.g., "shear stress")
2. Explain it to a 10-year-old (out loud!)
3. Notice where you struggle
4. Go back and re-learn those parts

Works amazingly well for FE Civil equations!`,

	`**The 2-3-5-7 Spacing Rule:**

Cramming doesn't work. Spaced repetition does.

**Flashcard schedule:**
- Learn today, review in 2 days
- Got it right? Review in 3 days
- Got it again? Review in 5 days
- Still got it? Review in 7 days

Your brain needs time to consolidate!`,

	`**The THIEVES Method:**

Speed-read textbook chapters in 10 minutes:
- **T**itle - what's the big idea?
- **H**eadings - what are the sections?
- **I**ntroduction - why does this matter?
- **E**very first sentence - main points
- **V**isuals - what do diagrams show?
- **E**nd questions - what should I know?
- **S**ummary - key takeaways

Do this BEFORE deep reading. Game changer!`,

	`**The Pomodoro Power Hour:**

Your brain gets tired after 25 minutes. Use it!

**Structure:**
- 25 min: intense focus (one task only)
- 5 min: break (walk, water, stretch)
- Repeat 4 times
- Take a 15-30 min long break

Use the live session tracker for automatic timing!`,

	`**The Error Log Strategy:**

Wrong answers are GOLD. Don't waste them!

**After practice tests:**
1. Mark every wrong answer
2. Write WHY you got it wrong
3. Find the concept gap
4. Make a flashcard
5. Review in 2 days

You'll never make the same mistake twice!`,
}

func answerStudyTip() string {
	return studyTips[rand.Intn(len(studyTips))]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var knownTopics = []string{
	"statics", "dynamics", "mechanics of materials", "materials",
	"fluid mechanics", "fluids", "thermodynamics", "thermo",
	"circuits", "electronics", "math", "statistics", "probability",
	"surveying", "geotechnical", "structural", "transportation",
	"environmental", "water resources", "ethics",
	"scada", "plc", "hmi", "sensors", "control", "pid", "modbus", "opc",
}

func extractTopic(lower string) string {
	for _, topic := range knownTopics {
		if strings.Contains(lower, topic) {
			return strings.ToUpper(topic[:1]) + topic[1:]
		}
	}
	return "your chosen topic"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
