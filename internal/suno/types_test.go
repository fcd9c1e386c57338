package suno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWebhook_Valid(t *testing.T) {
	body := []byte(`{"data":{"task_id":"abc123","data":[[{"id":"c1","title":"Song","stream_audio_url":"http://x/y"}]]}}`)

	jobID, clip, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Equal(t, "abc123", jobID)
	require.Equal(t, "c1", clip.ID)
	require.Equal(t, "Song", clip.Title)
	require.Equal(t, "http://x/y.mp3", clip.AudioLocator())
}

func TestParseWebhook_SkipsEmptyGroups(t *testing.T) {
	body := []byte(`{"data":{"task_id":"abc123","data":[[],[{"id":"c2","title":"Second"}]]}}`)

	_, clip, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Equal(t, "c2", clip.ID)
}

func TestParseWebhook_MissingTaskID(t *testing.T) {
	body := []byte(`{"data":{"data":[[{"id":"c1","title":"Song"}]]}}`)

	_, _, err := ParseWebhook(body)
	require.ErrorIs(t, err, ErrWebhookMissingTaskID)
}

func TestParseWebhook_NoClips(t *testing.T) {
	_, _, err := ParseWebhook([]byte(`{"data":{"task_id":"abc123","data":[]}}`))
	require.ErrorIs(t, err, ErrWebhookNoClips)

	_, _, err = ParseWebhook([]byte(`{"data":{"task_id":"abc123","data":[[]]}}`))
	require.ErrorIs(t, err, ErrWebhookNoClips)
}

func TestParseWebhook_InvalidJSON(t *testing.T) {
	_, _, err := ParseWebhook([]byte(`not json`))
	require.Error(t, err)
}

func TestClipEntry_AudioLocator(t *testing.T) {
	tests := []struct {
		name string
		clip ClipEntry
		want string
	}{
		{name: "audio url preferred", clip: ClipEntry{AudioURL: "http://x/a.mp3", StreamAudioURL: "http://x/s"}, want: "http://x/a.mp3"},
		{name: "stream url gets mp3 suffix", clip: ClipEntry{StreamAudioURL: "http://x/s"}, want: "http://x/s.mp3"},
		{name: "stream url already mp3", clip: ClipEntry{StreamAudioURL: "http://x/s.mp3"}, want: "http://x/s.mp3"},
		{name: "nothing known", clip: ClipEntry{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.clip.AudioLocator())
		})
	}
}

func TestStatusEntry_PrimaryClip(t *testing.T) {
	complete := StatusEntry{TaskID: "a", Status: StatusComplete, Clips: []ClipEntry{{ID: "c1"}, {ID: "c2"}}}
	clip, ok := complete.PrimaryClip()
	require.True(t, ok)
	require.Equal(t, "c1", clip.ID)

	_, ok = StatusEntry{TaskID: "b", Status: "processing"}.PrimaryClip()
	require.False(t, ok)

	_, ok = StatusEntry{TaskID: "c", Status: StatusComplete}.PrimaryClip()
	require.False(t, ok)
}

func TestClipEntry_Record(t *testing.T) {
	clip := ClipEntry{ID: "c1", Title: "Song", StreamAudioURL: "http://x/y"}
	rec := clip.Record("abc123")
	require.Equal(t, "abc123", rec.JobID)
	require.Equal(t, "Song", rec.Title)
	require.Equal(t, "http://x/y.mp3", rec.AudioURL)
}
