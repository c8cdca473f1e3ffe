package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/config"
	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/history"
	"github.com/miracleos/notifyd/internal/notification"
	"github.com/miracleos/notifyd/internal/notify"
)

type fakeNotifier struct {
	sent   []notify.Notification
	closed []uint32
	err    error
}

func (f *fakeNotifier) Notify(n notify.Notification) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)) + 41, nil
}

func (f *fakeNotifier) Close(id uint32) error {
	f.closed = append(f.closed, id)
	return f.err
}

func (f *fakeNotifier) Capabilities() ([]string, error) {
	return []string{"body", "actions"}, f.err
}

func (f *fakeNotifier) ServerInformation() (notification.ServerInfo, error) {
	return notification.ServerInfo{Name: "srv", Vendor: "acme", Version: "2", SpecVersion: "1.2"}, f.err
}

func connectTo(n *fakeNotifier) Connector {
	return func() (notify.Notifier, error) { return n, nil }
}

func newApp(buf *bytes.Buffer) *cli.Command {
	return &cli.Command{Name: "notifyd", Writer: buf}
}

func TestSend(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}

	app := NewSendCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))
	image := filepath.Join(t.TempDir(), "cover.png")

	err := app.Run(context.Background(), []string{
		"notifyd", "send", "-a", "make", "-u", "critical", "-r", "7", "-t", "3000",
		"--desktop-entry", "org.make", "--action", "open,Open log", "--image", image,
		"Build failed", "see build.log",
	})
	require.NoError(t, err)

	assert.Equal(t, "42\n", buf.String())
	require.Len(t, fake.sent, 1)

	n := fake.sent[0]
	assert.Equal(t, "make", n.AppName)
	assert.Equal(t, "Build failed", n.Title)
	assert.Equal(t, "see build.log", n.Body)
	assert.Equal(t, hint.UrgencyCritical, n.Urgency)
	assert.Equal(t, uint32(7), n.ReplacesID)
	assert.Equal(t, int32(3000), n.Timeout)
	assert.Equal(t, "org.make", n.DesktopEntry)
	assert.Equal(t, []string{"open", "Open log"}, n.Actions)

	path, ok := n.Hints.ImagePath()
	assert.True(t, ok)
	assert.Equal(t, image, path)
}

func TestSend_Defaults(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}

	app := NewSendCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))
	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "send", "hello"}))

	require.Len(t, fake.sent, 1)
	n := fake.sent[0]
	assert.Equal(t, "notifyd", n.AppName)
	assert.Empty(t, n.Body)
	assert.Equal(t, hint.UrgencyNormal, n.Urgency)
	assert.Equal(t, int32(-1), n.Timeout)
	assert.Empty(t, n.Actions)
	assert.Nil(t, n.Hints)
}

func TestSend_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no summary", []string{"notifyd", "send"}},
		{"too many args", []string{"notifyd", "send", "a", "b", "c"}},
		{"bad urgency", []string{"notifyd", "send", "-u", "loud", "a"}},
		{"bad action", []string{"notifyd", "send", "--action", "nolabel", "a"}},
		{"negative replaces", []string{"notifyd", "send", "-r=-1", "a"}},
		{"replaces above uint32", []string{"notifyd", "send", "-r", "4294967296", "a"}},
		{"timeout above int32", []string{"notifyd", "send", "-t", "2147483648", "a"}},
		{"timeout below int32", []string{"notifyd", "send", "-t=-2147483649", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			fake := &fakeNotifier{}
			app := NewSendCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))

			err := app.Run(context.Background(), tt.args)

			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "Failed to send notification"), err.Error())
			assert.Empty(t, fake.sent)
		})
	}
}

func TestSend_RangeLimits(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}
	app := NewSendCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{
		"notifyd", "send", "-r", "4294967295", "-t", "2147483647", "x",
	}))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, uint32(4294967295), fake.sent[0].ReplacesID)
	assert.Equal(t, int32(2147483647), fake.sent[0].Timeout)
}

func TestSend_ServerError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("service unknown")
	app := NewSendCmd(&Flags{}, connectTo(&fakeNotifier{err: boom})).Register(newApp(&buf))

	err := app.Run(context.Background(), []string{"notifyd", "send", "x"})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "Failed to send notification: service unknown", err.Error())
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}
	app := NewCloseCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "close", "12"}))
	assert.Equal(t, []uint32{12}, fake.closed)
}

func TestClose_All(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}
	app := NewCloseCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "close", "--all"}))
	assert.Equal(t, []uint32{notification.CloseAll}, fake.closed)
}

func TestClose_BadID(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeNotifier{}
	app := NewCloseCmd(&Flags{}, connectTo(fake)).Register(newApp(&buf))

	err := app.Run(context.Background(), []string{"notifyd", "close", "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to parse notification id 'abc'")

	err = app.Run(context.Background(), []string{"notifyd", "close"})
	require.Error(t, err)
	assert.Empty(t, fake.closed)
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	app := NewInfoCmd(&Flags{}, connectTo(&fakeNotifier{})).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "info"}))

	out := buf.String()
	assert.Contains(t, out, "name:         srv\n")
	assert.Contains(t, out, "vendor:       acme\n")
	assert.Contains(t, out, "spec:         1.2\n")
	assert.Contains(t, out, "capabilities: body, actions\n")
}

func TestInfo_ConnectError(t *testing.T) {
	var buf bytes.Buffer
	noBus := errors.New("no session bus")
	connect := func() (notify.Notifier, error) { return nil, noBus }
	app := NewInfoCmd(&Flags{}, connect).Register(newApp(&buf))

	err := app.Run(context.Background(), []string{"notifyd", "info"})
	require.ErrorIs(t, err, noBus)
	assert.Equal(t, "Failed to connect to session bus: no session bus", err.Error())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ConfigDir: dir,
		ImageDir:  filepath.Join(dir, "images"),
		History: config.HistoryConfig{
			Path: filepath.Join(dir, "history.db"),
		},
	}
}

func TestOpenDaemon_WiresArtifactsAndHistory(t *testing.T) {
	cfg := testConfig(t)

	d := openDaemon(cfg, nil, zerolog.Nop())
	id := d.Store.Notify(notification.Request{AppName: "a", Summary: "s", Hints: hint.Map{}})
	d.Close()

	assert.Equal(t, uint32(1), id)
	for _, path := range []string{cfg.StatePath(), cfg.CountPath(), cfg.NextIDPath(), cfg.ExportPath()} {
		assert.FileExists(t, path)
	}

	count, err := os.ReadFile(cfg.CountPath())
	require.NoError(t, err)
	assert.Equal(t, "1", string(count))

	log, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer log.Close()

	entries, err := log.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s", entries[0].Summary)
}

func TestOpenDaemon_DoesNotTouchArtifactsBeforeSync(t *testing.T) {
	cfg := testConfig(t)
	state := `{"5": {"app_name": "other", "summary": "running", "body": null, "app_icon": "",
		"actions": [], "hints": {}, "expire_timeout": -1, "timestamp": 1760000000.0}}`
	require.NoError(t, os.WriteFile(cfg.StatePath(), []byte(state), 0o600))
	require.NoError(t, os.WriteFile(cfg.CountPath(), []byte("9"), 0o600))

	d := openDaemon(cfg, nil, zerolog.Nop())
	defer d.Close()

	count, err := os.ReadFile(cfg.CountPath())
	require.NoError(t, err)
	assert.Equal(t, "9", string(count))
	assert.NoFileExists(t, cfg.ExportPath())

	d.Store.Sync()

	count, err = os.ReadFile(cfg.CountPath())
	require.NoError(t, err)
	assert.Equal(t, "1", string(count))
	assert.FileExists(t, cfg.ExportPath())
}

func TestServeError(t *testing.T) {
	err := serveError(notify.ErrNameTaken)
	require.ErrorIs(t, err, notify.ErrNameTaken)
	assert.Equal(t, "Failed to own bus name: "+notify.ErrNameTaken.Error(), err.Error())

	exportErr := errors.New("export org.freedesktop.Notifications: closed")
	err = serveError(exportErr)
	require.ErrorIs(t, err, exportErr)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to serve notifications: "), err.Error())
}

func TestOpenDaemon_HistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	disabled := false
	cfg.History.Enabled = &disabled

	d := openDaemon(cfg, nil, zerolog.Nop())
	d.Store.Notify(notification.Request{Summary: "s"})
	d.Close()

	assert.NoFileExists(t, cfg.History.Path)
}

func TestHistory(t *testing.T) {
	cfg := testConfig(t)

	log, err := history.Open(cfg.History.Path)
	require.NoError(t, err)

	created := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, log.Record(&notification.Record{ID: 1, AppName: "mail", Summary: "Inbox", CreatedAt: created}))
	require.NoError(t, log.Record(&notification.Record{ID: 2, AppName: "chat", Summary: "Ping", CreatedAt: created.Add(time.Minute)}))
	require.NoError(t, log.Closed(1, notification.ReasonClosedByCall, created.Add(2*time.Minute)))
	require.NoError(t, log.Close())

	var buf bytes.Buffer
	cmd := NewHistoryCmd(&Flags{Config: cfg})
	cmd.now = func() time.Time { return created.Add(time.Hour) }
	app := cmd.Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "history"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SUMMARY")
	assert.Contains(t, lines[1], "Ping")
	assert.Contains(t, lines[1], "open")
	assert.Contains(t, lines[2], "Inbox")
	assert.Contains(t, lines[2], "closed 58 minutes ago")
}

func TestHistory_JSON(t *testing.T) {
	cfg := testConfig(t)

	log, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	require.NoError(t, log.Record(&notification.Record{ID: 5, AppName: "a", Summary: "s", CreatedAt: time.Now()}))
	require.NoError(t, log.Close())

	var buf bytes.Buffer
	app := NewHistoryCmd(&Flags{Config: cfg}).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "history", "--json"}))
	assert.Contains(t, buf.String(), `"id": 5`)
	assert.Contains(t, buf.String(), `"open": true`)
}

func TestHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	app := NewHistoryCmd(&Flags{Config: testConfig(t)}).Register(newApp(&buf))

	require.NoError(t, app.Run(context.Background(), []string{"notifyd", "history"}))
	assert.Equal(t, "No notifications recorded\n", buf.String())
}
