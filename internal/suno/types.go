package suno

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/emotune/emotune/internal/notify"
)

// ClipEntry is one generated clip as reported by the generation API. Only the
// fields the bridge needs are mapped; the upstream payload carries more.
type ClipEntry struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	AudioURL       string `json:"audio_url"`
	StreamAudioURL string `json:"stream_audio_url"`
}

// AudioLocator returns the retrievable audio URL for the clip. Finished clips
// carry audio_url; clips reported through the webhook often only carry the
// stream URL, which serves the same file once the .mp3 suffix is appended.
func (c ClipEntry) AudioLocator() string {
	if c.AudioURL != "" {
		return c.AudioURL
	}
	if c.StreamAudioURL == "" {
		return ""
	}
	if strings.HasSuffix(c.StreamAudioURL, ".mp3") {
		return c.StreamAudioURL
	}
	return c.StreamAudioURL + ".mp3"
}

// Record converts the clip into the completion record stored for jobID.
func (c ClipEntry) Record(jobID string) notify.Record {
	return notify.Record{
		JobID:    jobID,
		Title:    c.Title,
		AudioURL: c.AudioLocator(),
	}
}

type webhookPayload struct {
	Data struct {
		TaskID string        `json:"task_id"`
		Data   [][]ClipEntry `json:"data"`
	} `json:"data"`
}

var (
	ErrWebhookMissingTaskID = errors.New("webhook payload missing task_id")
	ErrWebhookNoClips       = errors.New("webhook payload contains no clips")
)

// ParseWebhook validates a callback body and extracts the job id and the
// primary clip. The payload shape is owned by the generation API:
// {"data": {"task_id": "...", "data": [[clip, ...], ...]}}.
func ParseWebhook(body []byte) (string, ClipEntry, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ClipEntry{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if payload.Data.TaskID == "" {
		return "", ClipEntry{}, ErrWebhookMissingTaskID
	}
	for _, group := range payload.Data.Data {
		if len(group) > 0 {
			return payload.Data.TaskID, group[0], nil
		}
	}
	return "", ClipEntry{}, ErrWebhookNoClips
}

// StatusEntry is the per-job result of a batched status query.
type StatusEntry struct {
	TaskID string      `json:"task_id"`
	Status string      `json:"status"`
	Clips  []ClipEntry `json:"clips"`
}

// Complete reports whether the job finished with at least one clip.
func (e StatusEntry) Complete() bool {
	return e.Status == StatusComplete && len(e.Clips) > 0
}

// PrimaryClip returns the first clip of a complete entry.
func (e StatusEntry) PrimaryClip() (ClipEntry, bool) {
	if !e.Complete() {
		return ClipEntry{}, false
	}
	return e.Clips[0], true
}

const StatusComplete = "complete"

// GenerateRequest starts one generation job upstream.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Instrumental bool   `json:"make_instrumental"`
	CallbackURL  string `json:"callback_url"`
}
