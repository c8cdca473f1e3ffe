package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/notification"
)

var testTime = time.Date(2026, 10, 16, 9, 5, 0, 0, time.UTC)

func TestRender_AllFields(t *testing.T) {
	p := New("", WithLocation(time.UTC))
	rec := &notification.Record{
		ID:        7,
		AppName:   "Signal",
		Summary:   "New message",
		Body:      "hello",
		AppIcon:   "/icons/signal.png",
		Hints:     hint.Map{hint.KeyUrgency: hint.Int(2), hint.KeyDesktopEntry: hint.String("signal-desktop")},
		CreatedAt: testTime,
		Image:     "/images/abc.png",
	}

	got := p.Render(rec)

	want := "(notification :app 'Signal' :summary 'New message' :body 'hello' :app_image '/icons/signal.png' " +
		":urgency 2 :desktop 'signal-desktop' :id 7 :image '/images/abc.png' :time '09:05' )"
	assert.Equal(t, want, got)
}

func TestRender_Defaults(t *testing.T) {
	p := New("", WithLocation(time.UTC))
	rec := &notification.Record{ID: 1, AppName: "a", Summary: "s", Hints: hint.Map{}, CreatedAt: testTime}

	got := p.Render(rec)

	assert.NotContains(t, got, ":body")
	assert.NotContains(t, got, ":desktop")
	assert.NotContains(t, got, ":image ")
	assert.Contains(t, got, ":app_image '"+DefaultFallbackIcon+"'")
	assert.Contains(t, got, ":urgency 1 ")
}

func TestRender_FallbackIconOption(t *testing.T) {
	p := New("", WithLocation(time.UTC), WithFallbackIcon("/fallback.svg"))
	got := p.Render(&notification.Record{ID: 1, CreatedAt: testTime})
	assert.Contains(t, got, ":app_image '/fallback.svg'")

	p = New("", WithFallbackIcon(""))
	assert.Equal(t, DefaultFallbackIcon, p.fallbackIcon)
}

func TestRender_EscapesQuotes(t *testing.T) {
	p := New("", WithLocation(time.UTC))
	rec := &notification.Record{ID: 1, AppName: "it's", Summary: `a\b`, CreatedAt: testTime}

	got := p.Render(rec)

	assert.Contains(t, got, `:app 'it\'s'`)
	assert.Contains(t, got, `:summary 'a\\b'`)
}

func TestRender_LocalTime(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	p := New("", WithLocation(zone))

	got := p.Render(&notification.Record{ID: 1, CreatedAt: testTime})
	assert.Contains(t, got, ":time '11:05'")
}

func TestExport_WritesOrderedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eww_notifications.json")
	p := New(path, WithLocation(time.UTC))

	records := []*notification.Record{
		{ID: 2, AppName: "first", CreatedAt: testTime},
		{ID: 5, AppName: "second", CreatedAt: testTime},
	}
	require.NoError(t, p.Export(records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var lines []string
	require.NoError(t, json.Unmarshal(data, &lines))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], ":id 2 ")
	assert.Contains(t, lines[1], ":id 5 ")

	require.NoError(t, p.Export(nil))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
