package services

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/kv"
	"github.com/talha7k/qrcode-magic/internal/models"
	"github.com/talha7k/qrcode-magic/internal/payload"
)

type manualTimer struct {
	s       *manualScheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler only runs callbacks when the test fires them
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
	delays []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fireAll runs every live timer and returns how many ran
func (s *manualScheduler) fireAll() int {
	s.mu.Lock()
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// recordingRenderer counts calls and delegates to a real renderer
type recordingRenderer struct {
	mu       sync.Mutex
	inner    Renderer
	contents []string
	err      error
	panicMsg string
	onRender func(content string)
}

func (r *recordingRenderer) Render(content string, settings models.RenderSettings) (models.Raster, error) {
	r.mu.Lock()
	r.contents = append(r.contents, content)
	hook := r.onRender
	r.onRender = nil
	err := r.err
	panicMsg := r.panicMsg
	r.mu.Unlock()

	if hook != nil {
		hook(content)
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return models.Raster{}, &apperrors.RenderError{Stage: "generate", Err: err}
	}
	return r.inner.Render(content, settings)
}

func (r *recordingRenderer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.contents...)
}

type sessionFixture struct {
	ctrl      *SessionController
	storage   *StorageService
	scheduler *manualScheduler
	renderer  *recordingRenderer
	encodes   *int
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	storage := NewStorageService(kv.NewMemoryStore(), quietLogger())
	scheduler := &manualScheduler{}
	renderer := &recordingRenderer{inner: NewQRService(quietLogger())}
	ctrl := NewSessionController(storage, renderer, scheduler, 0, quietLogger())

	encodes := 0
	ctrl.encode = func(form models.FormState) string {
		encodes++
		return payload.Encode(form)
	}
	t.Cleanup(ctrl.Close)

	return &sessionFixture{
		ctrl:      ctrl,
		storage:   storage,
		scheduler: scheduler,
		renderer:  renderer,
		encodes:   &encodes,
	}
}

func TestSessionController_DebounceCoalescesEdits(t *testing.T) {
	f := newSessionFixture(t)

	for _, v := range []string{"h", "he", "hel", "hell", "hello"} {
		require.NoError(t, f.ctrl.SetField("text", v))
	}

	assert.Equal(t, 1, f.scheduler.live())
	for _, d := range f.scheduler.delays {
		assert.Equal(t, 300*time.Millisecond, d)
	}
	assert.Empty(t, f.renderer.calls())
	assert.True(t, f.ctrl.State().Pending)

	assert.Equal(t, 1, f.scheduler.fireAll())

	assert.Equal(t, []string{"hello"}, f.renderer.calls())
	assert.Equal(t, 1, *f.encodes)

	state := f.ctrl.State()
	assert.Equal(t, "hello", state.Payload)
	assert.NotEmpty(t, state.DataURL)
	assert.False(t, state.Pending)

	snapshot := f.storage.GetSessionSnapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "hello", snapshot.CurrentFormData.(*models.TextForm).Text)
	assert.NotNil(t, f.storage.GetSettings())
}

func TestSessionController_RealTimerDebounce(t *testing.T) {
	storage := NewStorageService(kv.NewMemoryStore(), quietLogger())
	renderer := &recordingRenderer{inner: NewQRService(quietLogger())}
	ctrl := NewSessionController(storage, renderer, NewScheduler(), 30*time.Millisecond, quietLogger())
	defer ctrl.Close()

	for _, v := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		require.NoError(t, ctrl.SetField("text", v))
	}

	require.Eventually(t, func() bool {
		return len(renderer.calls()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"abcde"}, renderer.calls())
	assert.Equal(t, "abcde", ctrl.State().Payload)
}

func TestSessionController_LogoChangeReRendersWithoutEncoding(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SwitchType(models.TypeURL))
	require.NoError(t, f.ctrl.SetField("url", "example.com"))
	f.scheduler.fireAll()
	require.Len(t, f.renderer.calls(), 1)
	require.Equal(t, 1, *f.encodes)

	settings := f.ctrl.State().Settings
	settings.LogoSpace = true
	f.ctrl.UpdateSettings(settings)

	calls := f.renderer.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "https://example.com", calls[1])
	assert.Equal(t, 1, *f.encodes)
	assert.NotNil(t, f.ctrl.State().Reservation)

	// The debounce still restarts and re-encodes when it fires.
	assert.Equal(t, 1, f.scheduler.fireAll())
	assert.Equal(t, 2, *f.encodes)

	settings.Resolution = 512
	f.ctrl.UpdateSettings(settings)
	assert.Len(t, f.renderer.calls(), 3)
}

func TestSessionController_UpdateSettingsNormalizes(t *testing.T) {
	f := newSessionFixture(t)

	got := f.ctrl.UpdateSettings(models.RenderSettings{Resolution: 300, LogoSizePercent: 500, BorderThicknessPx: 0})

	assert.Equal(t, 256, got.Resolution)
	assert.Equal(t, 40, got.LogoSizePercent)
	assert.Equal(t, 1, got.BorderThicknessPx)
	assert.Equal(t, got, f.ctrl.State().Settings)
	assert.Empty(t, f.renderer.calls())
}

func TestSessionController_SwitchType(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hi"))
	_, err := f.ctrl.SaveEntry("greeting")
	require.NoError(t, err)
	require.Len(t, f.ctrl.Entries(), 1)

	require.NoError(t, f.ctrl.SwitchType(models.TypeWiFi))

	assert.Equal(t, 0, f.scheduler.live())
	assert.Empty(t, f.renderer.calls())

	state := f.ctrl.State()
	assert.Equal(t, models.TypeWiFi, state.ActiveType)
	assert.Equal(t, models.SecurityWPA, state.Form.(*models.WiFiForm).Security)
	assert.Empty(t, state.Entries)

	snapshot := f.storage.GetSessionSnapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, models.TypeWiFi, snapshot.ActiveType)

	require.NoError(t, f.ctrl.SwitchType(models.TypeText))
	state = f.ctrl.State()
	assert.Equal(t, "hi", state.Form.(*models.TextForm).Text)
	assert.Len(t, state.Entries, 1)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, f.ctrl.SwitchType("fax"), &verr)
}

func TestSessionController_SaveLoadDelete(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hello"))
	entry, err := f.ctrl.SaveEntry("greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", entry.Name)

	require.NoError(t, f.ctrl.SwitchType(models.TypeSMS))
	f.ctrl.SetSavedPanelOpen(true)

	loaded, err := f.ctrl.LoadEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, loaded.ID)

	state := f.ctrl.State()
	assert.Equal(t, models.TypeText, state.ActiveType)
	assert.Equal(t, "hello", state.Form.(*models.TextForm).Text)
	assert.False(t, state.SavedPanelOpen)
	assert.Equal(t, 1, f.scheduler.live())

	f.scheduler.fireAll()
	assert.Equal(t, "hello", f.ctrl.State().Payload)

	assert.True(t, f.ctrl.DeleteEntry(entry.ID))
	assert.Empty(t, f.ctrl.Entries())
	assert.False(t, f.ctrl.DeleteEntry(entry.ID))

	_, err = f.ctrl.LoadEntry(entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSessionController_RenameEntry(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hello"))
	entry, err := f.ctrl.SaveEntry("first")
	require.NoError(t, err)

	name := "second"
	_, err = f.ctrl.UpdateEntry(entry.ID, models.EntryUpdate{Name: &name})
	require.NoError(t, err)

	entries := f.ctrl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Name)
	assert.Len(t, f.ctrl.EntriesOf(""), 1)
	assert.Empty(t, f.ctrl.EntriesOf(models.TypeEmail))
}

func TestSessionController_StaleResultDiscarded(t *testing.T) {
	f := newSessionFixture(t)

	var published []string
	f.ctrl.Subscribe(func(res RenderResult) {
		published = append(published, res.Payload)
	})

	require.NoError(t, f.ctrl.SetField("text", "first"))

	// An edit lands while the first pass is still rendering.
	f.renderer.onRender = func(string) {
		require.NoError(t, f.ctrl.SetField("text", "second"))
	}
	assert.Equal(t, 1, f.scheduler.fireAll())

	assert.Empty(t, published)
	assert.Empty(t, f.ctrl.State().Payload)
	assert.Equal(t, 1, f.scheduler.live())

	f.scheduler.fireAll()
	assert.Equal(t, []string{"second"}, published)
	assert.Equal(t, "second", f.ctrl.State().Payload)
}

func TestSessionController_GenerateAndExport(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.ctrl.Generate(), ErrNothingToRender)

	_, _, err := f.ctrl.ExportPNG()
	var eerr *apperrors.ExportError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "download", eerr.Target)

	assert.ErrorIs(t, err, ErrNothingToRender)
	assert.Contains(t, eerr.Suggestion(), "generate one first")

	_, _, err = f.ctrl.ClipboardImage()
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "clipboard", eerr.Target)
	assert.Contains(t, eerr.Suggestion(), "generate one first")

	require.NoError(t, f.ctrl.SwitchType(models.TypeURL))
	require.NoError(t, f.ctrl.SetField("url", "example.com"))
	require.NoError(t, f.ctrl.Generate())
	assert.Equal(t, 0, f.scheduler.live())

	name, data, err := f.ctrl.ExportPNG()
	require.NoError(t, err)
	assert.Equal(t, "qr-code-url-256x256.png", name)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	mime, blob, err := f.ctrl.ClipboardImage()
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, blob)

	name, data, err = f.ctrl.ExportBMP()
	require.NoError(t, err)
	assert.Equal(t, "qr-code-url-256x256.bmp", name)
	assert.True(t, bytes.HasPrefix(data, []byte("BM")))
}

func TestSessionController_SwitchTypeDropsPreviousCode(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hello"))
	f.scheduler.fireAll()
	require.Equal(t, "hello", f.ctrl.State().Payload)
	_, _, err := f.ctrl.ExportPNG()
	require.NoError(t, err)

	require.NoError(t, f.ctrl.SwitchType(models.TypeWiFi))

	state := f.ctrl.State()
	assert.Empty(t, state.Payload)
	assert.Empty(t, state.DataURL)

	_, _, err = f.ctrl.ExportPNG()
	var eerr *apperrors.ExportError
	require.ErrorAs(t, err, &eerr)
	_, _, err = f.ctrl.ClipboardImage()
	require.ErrorAs(t, err, &eerr)

	settings := state.Settings
	settings.LogoSpace = true
	f.ctrl.UpdateSettings(settings)
	assert.Equal(t, []string{"hello"}, f.renderer.calls())

	// Switching back does not resurrect the text code either.
	require.NoError(t, f.ctrl.SwitchType(models.TypeText))
	_, _, err = f.ctrl.ExportPNG()
	require.ErrorAs(t, err, &eerr)
}

func TestSessionController_ExportNamedAfterRenderedType(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hello"))
	require.NoError(t, f.ctrl.Generate())

	// A pending edit on the same type keeps the published code exportable.
	require.NoError(t, f.ctrl.SetField("text", "hello again"))
	name, _, err := f.ctrl.ExportPNG()
	require.NoError(t, err)
	assert.Equal(t, "qr-code-text-256x256.png", name)
}

func TestSessionController_SwitchTypeClearsRendererSurface(t *testing.T) {
	renderer := NewQRService(quietLogger())
	storage := NewStorageService(kv.NewMemoryStore(), quietLogger())
	ctrl := NewSessionController(storage, renderer, &manualScheduler{}, 0, quietLogger())
	defer ctrl.Close()

	require.NoError(t, ctrl.SetField("text", "hello"))
	require.NoError(t, ctrl.Generate())
	require.NotNil(t, renderer.Surface())

	require.NoError(t, ctrl.SwitchType(models.TypeURL))
	assert.Nil(t, renderer.Surface())
}

func TestSessionController_RenderFailureIsRecorded(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.ctrl.SetField("text", "hello"))

	f.renderer.err = errors.New("surface unavailable")
	err := f.ctrl.Generate()
	var rerr *apperrors.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, f.ctrl.State().LastError, "surface unavailable")
	assert.Empty(t, f.ctrl.State().DataURL)

	f.renderer.err = nil
	f.renderer.panicMsg = "boom"
	err = f.ctrl.Generate()
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "pass", rerr.Stage)

	f.renderer.panicMsg = ""
	require.NoError(t, f.ctrl.Generate())
	state := f.ctrl.State()
	assert.Empty(t, state.LastError)
	assert.NotEmpty(t, state.DataURL)
}

func TestSessionController_Restore(t *testing.T) {
	storage := NewStorageService(kv.NewMemoryStore(), quietLogger())
	settings := models.DefaultRenderSettings()
	settings.Resolution = 128
	require.NoError(t, storage.SaveSessionSnapshot(models.SessionSnapshot{
		ActiveType:      models.TypeWiFi,
		CurrentFormData: &models.WiFiForm{SSID: "Home", Password: "secret", Security: models.SecurityWPA},
		Settings:        settings,
	}))

	scheduler := &manualScheduler{}
	renderer := &recordingRenderer{inner: NewQRService(quietLogger())}
	ctrl := NewSessionController(storage, renderer, scheduler, 0, quietLogger())
	defer ctrl.Close()

	ctrl.Restore()

	state := ctrl.State()
	assert.Equal(t, models.TypeWiFi, state.ActiveType)
	assert.Equal(t, 128, state.Settings.Resolution)
	assert.Equal(t, 1, scheduler.live())

	scheduler.fireAll()
	assert.Equal(t, "WIFI:T:WPA;S:Home;P:secret;H:false;;", ctrl.State().Payload)
}

func TestSessionController_RestoreSettingsOnly(t *testing.T) {
	storage := NewStorageService(kv.NewMemoryStore(), quietLogger())
	settings := models.DefaultRenderSettings()
	settings.LogoSpace = true
	require.NoError(t, storage.SaveSettings(settings))

	scheduler := &manualScheduler{}
	ctrl := NewSessionController(storage, NewQRService(quietLogger()), scheduler, 0, quietLogger())
	defer ctrl.Close()

	ctrl.Restore()

	state := ctrl.State()
	assert.Equal(t, models.TypeText, state.ActiveType)
	assert.True(t, state.Settings.LogoSpace)
	assert.Equal(t, 0, scheduler.live())
}

func TestSessionController_Reset(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.ctrl.SetField("text", "hello"))
	_, err := f.ctrl.SaveEntry("greeting")
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Generate())

	require.NoError(t, f.ctrl.Reset())

	state := f.ctrl.State()
	assert.Equal(t, models.TypeText, state.ActiveType)
	assert.True(t, state.Form.IsBlank())
	assert.Empty(t, state.Payload)
	assert.Empty(t, state.DataURL)
	assert.Empty(t, state.Entries)
	assert.Equal(t, models.DefaultRenderSettings(), state.Settings)

	assert.Empty(t, f.storage.ListEntries())
	assert.Nil(t, f.storage.GetSessionSnapshot())
}

func TestSessionController_UpdateFormRejectsOtherType(t *testing.T) {
	f := newSessionFixture(t)

	err := f.ctrl.UpdateForm(&models.URLForm{URL: "example.com"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, f.scheduler.live())

	require.NoError(t, f.ctrl.UpdateForm(&models.TextForm{Text: "ok"}))
	assert.Equal(t, 1, f.scheduler.live())

	assert.Error(t, f.ctrl.SetField("colour", "red"))
}

func TestSessionController_UnsubscribeAndClose(t *testing.T) {
	f := newSessionFixture(t)

	count := 0
	unsubscribe := f.ctrl.Subscribe(func(RenderResult) { count++ })

	require.NoError(t, f.ctrl.SetField("text", "one"))
	f.scheduler.fireAll()
	assert.Equal(t, 1, count)

	unsubscribe()
	require.NoError(t, f.ctrl.SetField("text", "two"))
	f.scheduler.fireAll()
	assert.Equal(t, 1, count)

	require.NoError(t, f.ctrl.SetField("text", "three"))
	f.ctrl.Close()
	assert.Equal(t, 0, f.scheduler.fireAll())
	assert.Equal(t, "two", f.ctrl.State().Payload)
}
