package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/abadojack/whatlanggo"
	"github.com/emotune/emotune/internal/config"
	"github.com/emotune/emotune/internal/notify"
	"github.com/emotune/emotune/internal/suno"
	"github.com/emotune/emotune/pkg/log"
	"github.com/robfig/cron/v3"
)

// Upstream is the slice of the generation API the service depends on.
type Upstream interface {
	Generate(ctx context.Context, req suno.GenerateRequest) (string, error)
	Status(ctx context.Context, ids []string) ([]suno.StatusEntry, error)
}

// PromptModel turns an emotion phrase into a music prompt. Optional; the
// heuristic fallback applies when no model is wired or the call fails.
type PromptModel interface {
	SimpleChat(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// PromptStore records started jobs and their prompts. Optional.
type PromptStore interface {
	SavePrompt(ctx context.Context, jobID, prompt string) error
}

// Service orchestrates job starts and reconciliation. The push path (webhook)
// and the pull path (Reconcile) converge on the same broker, so a client
// waiting on the event stream benefits from any other client's poll.
type Service struct {
	cfg      config.Config
	broker   *notify.Broker
	store    *notify.Store
	registry *notify.Registry
	upstream Upstream

	model   PromptModel
	prompts PromptStore
	cron    *cron.Cron

	sf singleflight.Group
}

type Option func(*Service)

func WithPromptModel(m PromptModel) Option {
	return func(s *Service) {
		s.model = m
	}
}

func WithPromptStore(p PromptStore) Option {
	return func(s *Service) {
		s.prompts = p
	}
}

func WithCron(c *cron.Cron) Option {
	return func(s *Service) {
		s.cron = c
	}
}

func New(
	cfg config.Config,
	broker *notify.Broker,
	store *notify.Store,
	registry *notify.Registry,
	upstream Upstream,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:      cfg,
		broker:   broker,
		store:    store,
		registry: registry,
		upstream: upstream,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const promptSystem = "You are a music director. Turn the user's emotional state into a short prompt " +
	"for a music generation model: genre, mood, tempo and instrumentation in under 40 words. " +
	"Reply with the prompt only."

// GenerateFromEmotion builds a music prompt for the emotion and starts one
// generation job upstream. It returns the job id and the prompt used. A
// failing prompt model degrades to the heuristic prompt; only a job start
// that yields no job id is an error.
func (s *Service) GenerateFromEmotion(ctx context.Context, emotion string, instrumental bool) (string, string, error) {
	emotion = strings.TrimSpace(emotion)
	if emotion == "" {
		return "", "", fmt.Errorf("emotion is required")
	}

	prompt := s.buildPrompt(ctx, emotion)

	jobID, err := s.upstream.Generate(ctx, suno.GenerateRequest{
		Prompt:       prompt,
		Instrumental: instrumental,
		CallbackURL:  s.cfg.Suno.CallbackURL,
	})
	if err != nil {
		return "", "", fmt.Errorf("start generation for emotion %q: %w", emotion, err)
	}

	if s.prompts != nil {
		if err := s.prompts.SavePrompt(ctx, jobID, prompt); err != nil {
			log.Error("Failed to record prompt for job %s: %v", jobID, err)
		}
	}
	log.Info("Started generation job %s for emotion %q", jobID, emotion)
	return jobID, prompt, nil
}

func (s *Service) buildPrompt(ctx context.Context, emotion string) string {
	if s.model == nil {
		return fallbackPrompt(emotion)
	}
	user := "Current emotional state: " + emotion
	if code := emotionLanguageCode(emotion); code != "" {
		user += "\nThe emotional state is written in language " + code + "; interpret it in that language."
	}
	prompt, err := s.model.SimpleChat(ctx, user, promptSystem)
	if err != nil {
		log.Warn("Prompt model unavailable, using heuristic prompt: %v", err)
		return fallbackPrompt(emotion)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fallbackPrompt(emotion)
	}
	return prompt
}

// emotionLanguageCode detects the language an emotion phrase is written in.
// It returns the ISO 639-1 code, or "" when detection is unreliable or the
// text is English (the model's default).
func emotionLanguageCode(emotion string) string {
	info := whatlanggo.Detect(emotion)
	if !info.IsReliable() {
		return ""
	}
	code := info.Lang.Iso6391()
	if code == "en" {
		return ""
	}
	return code
}

func fallbackPrompt(emotion string) string {
	return fmt.Sprintf("A song that captures the feeling of %s, with matching mood, tempo and instrumentation", emotion)
}

// Reconcile partitions ids into locally resolved and pending, queries the
// upstream once for the pending batch and resolves everything it reports
// complete through the broker, so still-attached listeners get their push
// delivery as a side effect. An upstream failure degrades to the already
// known records plus all unresolved ids as pending; it never fails the call.
func (s *Service) Reconcile(ctx context.Context, ids []string) ([]notify.Record, []string) {
	found, pending := s.store.Partition(ids)
	if len(pending) == 0 {
		return found, pending
	}

	key := "status:" + strings.Join(pending, ",")
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.upstream.Status(ctx, pending)
	})
	if err != nil {
		log.Warn("Status query for %d pending job(s) failed: %v", len(pending), err)
		return found, pending
	}

	entries, _ := v.([]suno.StatusEntry)
	for _, entry := range entries {
		clip, ok := entry.PrimaryClip()
		if !ok {
			continue
		}
		s.broker.Resolve(entry.TaskID, clip.Record(entry.TaskID))
	}

	return s.store.Partition(ids)
}

// ScheduleSweep registers a periodic reconciliation of every job id that
// still holds live listeners, covering webhooks that never arrived. Sweeps
// collapse onto one in-flight run.
func (s *Service) ScheduleSweep(ctx context.Context) error {
	if s.cron == nil {
		return fmt.Errorf("no cron runner configured")
	}

	runFunc := func() {
		_, _, _ = s.sf.Do("sweep", func() (any, error) {
			ids := s.registry.PendingIDs()
			if len(ids) == 0 {
				return nil, nil
			}
			log.Info("Reconciliation sweep: %d job(s) with live listeners", len(ids))
			s.Reconcile(ctx, ids)
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cfg.Reconcile.CronExpr, runFunc)
	return err
}
