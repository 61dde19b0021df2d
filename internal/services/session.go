package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/helpers"
	"github.com/talha7k/qrcode-magic/internal/models"
	"github.com/talha7k/qrcode-magic/internal/payload"
)

// ErrNothingToRender is returned when the active form encodes to an empty payload
var ErrNothingToRender = apperrors.ErrNothingToRender

// Renderer draws a payload into a raster
type Renderer interface {
	Render(content string, settings models.RenderSettings) (models.Raster, error)
}

// surfaceClearer is implemented by renderers that keep a drawn surface
type surfaceClearer interface {
	Clear()
}

// RenderResult is what a single regenerate pass publishes
type RenderResult struct {
	Generation uint64
	Type       models.QRType
	Payload    string
	Raster     models.Raster
	Err        error
}

// SessionState is a point-in-time view of the controller
type SessionState struct {
	ActiveType     models.QRType           `json:"activeType"`
	Form           models.FormState        `json:"form"`
	Settings       models.RenderSettings   `json:"settings"`
	Payload        string                  `json:"payload"`
	DataURL        string                  `json:"dataUrl,omitempty"`
	Reservation    *models.LogoReservation `json:"reservation,omitempty"`
	LastError      string                  `json:"lastError,omitempty"`
	Entries        []models.QREntry        `json:"entries"`
	SavedPanelOpen bool                    `json:"savedPanelOpen"`
	Pending        bool                    `json:"pending"`
}

// SessionController owns the working session: the active form, the render
// settings and the latest raster. Every edit restarts a single debounce
// timer; when it fires, regenerate encodes, renders and persists in one pass.
//
// Each edit bumps a generation counter. A pass carries the generation it was
// started for and its result is dropped if the counter moved on meanwhile.
type SessionController struct {
	storage   *StorageService
	renderer  Renderer
	scheduler Scheduler
	debounce  time.Duration
	logger    *logrus.Logger
	encode    func(models.FormState) string

	mu          sync.Mutex
	activeType  models.QRType
	forms       map[models.QRType]models.FormState
	settings    models.RenderSettings
	payload     string
	raster      models.Raster
	rasterType  models.QRType
	lastErr     error
	entries     []models.QREntry
	panelOpen   bool
	pending     Timer
	generation  uint64
	subscribers map[int]func(RenderResult)
	nextSubID   int
	closed      bool
}

// NewSessionController creates a controller with default state. Call Restore
// to load the persisted session.
func NewSessionController(storage *StorageService, renderer Renderer, scheduler Scheduler, debounce time.Duration, logger *logrus.Logger) *SessionController {
	if scheduler == nil {
		scheduler = NewScheduler()
	}
	if debounce <= 0 {
		debounce = constants.DefaultDebounce
	}

	return &SessionController{
		storage:     storage,
		renderer:    renderer,
		scheduler:   scheduler,
		debounce:    debounce,
		logger:      logger,
		encode:      payload.Encode,
		activeType:  models.TypeText,
		forms:       make(map[models.QRType]models.FormState),
		settings:    models.DefaultRenderSettings(),
		entries:     []models.QREntry{},
		subscribers: make(map[int]func(RenderResult)),
	}
}

// Restore loads the persisted snapshot, or the standalone settings record
// when no snapshot exists, and schedules a pass if the restored form has content.
func (c *SessionController) Restore() {
	snapshot := c.storage.GetSessionSnapshot()
	standalone := c.storage.GetSettings()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case snapshot != nil:
		c.activeType = snapshot.ActiveType
		c.forms[snapshot.ActiveType] = snapshot.CurrentFormData
		c.settings = snapshot.Settings.Normalize()
		c.logger.Infof("Restored session (%s form)", snapshot.ActiveType)
	case standalone != nil:
		c.settings = standalone.Normalize()
		c.logger.Info("Restored render settings")
	default:
		c.logger.Info("No stored session, starting fresh")
	}

	c.entries = c.storage.GetEntriesByType(c.activeType)

	if !c.formLocked().IsBlank() {
		c.generation++
		c.scheduleLocked()
	}
}

// UpdateForm replaces the active form. The form must be of the active type.
func (c *SessionController) UpdateForm(form models.FormState) error {
	if form == nil {
		return &apperrors.ValidationError{Field: "form", Message: "form is required"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if form.Type() != c.activeType {
		return &apperrors.ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("form is %s but the active type is %s", form.Type(), c.activeType),
		}
	}

	c.forms[c.activeType] = form.Clone()
	c.touchLocked()
	return nil
}

// SetField applies one field edit to the active form
func (c *SessionController) SetField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := models.SetField(c.formLocked(), field, value)
	if err != nil {
		return err
	}

	c.forms[c.activeType] = updated
	c.touchLocked()
	return nil
}

// UpdateSettings replaces the render settings. A change to the logo
// reservation re-renders the current payload at once, without re-encoding.
func (c *SessionController) UpdateSettings(settings models.RenderSettings) models.RenderSettings {
	settings = settings.Normalize()

	c.mu.Lock()
	logoChanged := c.settings.LogoChanged(settings)
	c.settings = settings
	c.touchLocked()
	gen := c.generation
	activeType := c.activeType
	content := c.payload
	c.mu.Unlock()

	if logoChanged && content != "" {
		c.logger.Debug("Logo settings changed, re-rendering current payload")
		res := c.runPass(gen, activeType, nil, content, settings)
		c.publish(res, false)
	}

	return settings
}

// SwitchType makes t the active type. The type's in-memory form is loaded,
// or an empty one, and the visible entries are reloaded. Nothing is rendered.
func (c *SessionController) SwitchType(t models.QRType) error {
	if !t.Valid() {
		return &apperrors.ValidationError{Field: "type", Message: fmt.Sprintf("unknown QR type %q", t)}
	}

	c.mu.Lock()
	c.cancelLocked()
	c.generation++
	changed := c.activeType != t
	c.activeType = t
	if changed {
		c.dropResultLocked()
	}
	form := c.formLocked()
	c.entries = c.storage.GetEntriesByType(t)

	_ = c.storage.SaveSessionSnapshot(models.SessionSnapshot{
		ActiveType:      t,
		CurrentFormData: form.Clone(),
		Settings:        c.settings,
	})
	c.mu.Unlock()

	if changed {
		c.clearSurface()
	}

	c.logger.Debugf("Switched to %s form", t)
	return nil
}

// Generate cancels the pending timer and runs a pass now. It returns
// ErrNothingToRender for an empty form and the render error if the pass failed.
func (c *SessionController) Generate() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("session closed")
	}
	c.cancelLocked()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	res, ok := c.regenerate(gen)
	if !ok {
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Payload == "" {
		return ErrNothingToRender
	}
	return nil
}

// SaveEntry stores the active form under name
func (c *SessionController) SaveEntry(name string) (models.QREntry, error) {
	c.mu.Lock()
	t := c.activeType
	form := c.formLocked().Clone()
	c.mu.Unlock()

	entry, err := c.storage.SaveEntry(name, t, form)
	if err != nil {
		return models.QREntry{}, err
	}

	c.refreshEntries()
	return entry, nil
}

// LoadEntry replaces the active form with the entry's data, switching type
// if needed, closes the saved panel and schedules a pass.
func (c *SessionController) LoadEntry(id string) (models.QREntry, error) {
	entry, ok := c.storage.GetEntry(id)
	if !ok {
		return models.QREntry{}, fmt.Errorf("load %s: %w", id, ErrEntryNotFound)
	}

	c.mu.Lock()
	changed := c.activeType != entry.Type
	c.activeType = entry.Type
	if changed {
		c.dropResultLocked()
	}
	c.forms[entry.Type] = entry.Data.Clone()
	c.panelOpen = false
	c.entries = c.storage.GetEntriesByType(entry.Type)
	c.touchLocked()
	c.mu.Unlock()

	if changed {
		c.clearSurface()
	}

	c.logger.Debugf("Loaded entry %s (%q)", entry.ID, entry.Name)
	return entry, nil
}

// UpdateEntry merges update into a saved entry
func (c *SessionController) UpdateEntry(id string, update models.EntryUpdate) (models.QREntry, error) {
	entry, err := c.storage.UpdateEntry(id, update)
	if err != nil {
		return models.QREntry{}, err
	}
	c.refreshEntries()
	return entry, nil
}

// DeleteEntry removes a saved entry. It reports false for an unknown id.
func (c *SessionController) DeleteEntry(id string) bool {
	removed := c.storage.DeleteEntry(id)
	if removed {
		c.refreshEntries()
	}
	return removed
}

// SetSavedPanelOpen toggles the saved entries panel
func (c *SessionController) SetSavedPanelOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panelOpen = open
}

// Entries returns the saved entries of the active type
func (c *SessionController) Entries() []models.QREntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.entries)
}

// EntriesOf returns the saved entries of type t, or all entries when t is empty
func (c *SessionController) EntriesOf(t models.QRType) []models.QREntry {
	if t == "" {
		return c.storage.ListEntries()
	}
	return c.storage.GetEntriesByType(t)
}

// Reset clears all storage and returns the session to its initial state
func (c *SessionController) Reset() error {
	c.mu.Lock()
	c.cancelLocked()
	c.generation++
	c.activeType = models.TypeText
	c.forms = make(map[models.QRType]models.FormState)
	c.settings = models.DefaultRenderSettings()
	c.dropResultLocked()
	c.entries = []models.QREntry{}
	c.panelOpen = false
	settings := c.settings
	c.mu.Unlock()

	if _, err := c.renderer.Render("", settings); err != nil {
		c.logger.Warnf("Failed to clear surface: %v", err)
	}

	c.logger.Info("Session reset")
	return c.storage.ClearAll()
}

// ExportPNG returns the download file name and PNG bytes of the current code
func (c *SessionController) ExportPNG() (string, []byte, error) {
	raster, t := c.current()
	if raster.Empty() {
		return "", nil, &apperrors.ExportError{Target: "download", Message: ErrNothingToRender.Error(), Err: ErrNothingToRender}
	}
	return helpers.ExportFileName(t, raster.Width, "png"), raster.PNG, nil
}

// ExportBMP returns the download file name and BMP bytes of the current code
func (c *SessionController) ExportBMP() (string, []byte, error) {
	raster, t := c.current()
	if raster.Empty() {
		return "", nil, &apperrors.ExportError{Target: "download", Message: ErrNothingToRender.Error(), Err: ErrNothingToRender}
	}
	data, err := EncodeBMP(raster)
	if err != nil {
		return "", nil, &apperrors.ExportError{Target: "download", Message: err.Error()}
	}
	return helpers.ExportFileName(t, raster.Width, "bmp"), data, nil
}

// ClipboardImage returns the current code as an image/png blob
func (c *SessionController) ClipboardImage() (string, []byte, error) {
	raster, _ := c.current()
	if raster.Empty() {
		return "", nil, &apperrors.ExportError{Target: "clipboard", Message: ErrNothingToRender.Error(), Err: ErrNothingToRender}
	}
	return constants.PNGMimeType, raster.PNG, nil
}

// Subscribe registers fn for every published pass. The returned func unsubscribes.
func (c *SessionController) Subscribe(fn func(RenderResult)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// State returns a snapshot of the session
func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := SessionState{
		ActiveType:     c.activeType,
		Form:           c.formLocked().Clone(),
		Settings:       c.settings,
		Payload:        c.payload,
		DataURL:        c.raster.DataURL(),
		Reservation:    c.raster.Reservation,
		Entries:        cloneEntries(c.entries),
		SavedPanelOpen: c.panelOpen,
		Pending:        c.pending != nil,
	}
	if c.lastErr != nil {
		state.LastError = c.lastErr.Error()
	}
	return state
}

// Close stops the pending timer; later timer fires are ignored
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.closed = true
}

// regenerate is the only path that encodes, renders and persists. It
// reports false if the pass was superseded before or after rendering.
func (c *SessionController) regenerate(gen uint64) (RenderResult, bool) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return RenderResult{}, false
	}
	c.pending = nil
	t := c.activeType
	form := c.formLocked().Clone()
	settings := c.settings
	c.mu.Unlock()

	res := c.runPass(gen, t, form, "", settings)
	return res, c.publish(res, true)
}

// runPass encodes form (when non-nil) and renders the result. Panics are
// converted into render errors.
func (c *SessionController) runPass(gen uint64, t models.QRType, form models.FormState, content string, settings models.RenderSettings) (res RenderResult) {
	res = RenderResult{Generation: gen, Type: t, Payload: content}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Render pass %d panicked: %v", gen, r)
			res.Raster = models.Raster{}
			res.Err = &apperrors.RenderError{Stage: "pass", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if form != nil {
		res.Payload = c.encode(form)
	}

	res.Raster, res.Err = c.renderer.Render(res.Payload, settings)
	c.logger.Debugf("Pass %d rendered %s payload (%d bytes)", gen, t, len(res.Payload))
	return res
}

// publish applies a pass result if it is still current, persists the
// session when asked, and notifies subscribers.
func (c *SessionController) publish(res RenderResult, persist bool) bool {
	c.mu.Lock()
	if c.closed || res.Generation != c.generation {
		c.mu.Unlock()
		c.logger.Debugf("Discarding stale pass %d", res.Generation)
		return false
	}

	c.payload = res.Payload
	if res.Err != nil {
		c.lastErr = res.Err
		c.logger.Errorf("Failed to render QR code: %v", res.Err)
	} else {
		c.lastErr = nil
		c.raster = res.Raster
		c.rasterType = res.Type
	}

	if persist {
		_ = c.storage.SaveSessionSnapshot(models.SessionSnapshot{
			ActiveType:      c.activeType,
			CurrentFormData: c.formLocked().Clone(),
			Settings:        c.settings,
		})
		_ = c.storage.SaveSettings(c.settings)
	}

	subscribers := make([]func(RenderResult), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(res)
	}
	return true
}

// touchLocked records an edit: the generation moves on and the debounce restarts
func (c *SessionController) touchLocked() {
	c.generation++
	c.scheduleLocked()
}

func (c *SessionController) scheduleLocked() {
	c.cancelLocked()
	if c.closed {
		return
	}
	gen := c.generation
	c.pending = c.scheduler.AfterFunc(c.debounce, func() {
		c.regenerate(gen)
	})
}

func (c *SessionController) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// formLocked returns the active form, creating an empty one on first use
func (c *SessionController) formLocked() models.FormState {
	form, ok := c.forms[c.activeType]
	if !ok || form == nil {
		form = models.EmptyForm(c.activeType)
		c.forms[c.activeType] = form
	}
	return form
}

func (c *SessionController) refreshEntries() {
	c.mu.Lock()
	t := c.activeType
	c.mu.Unlock()

	entries := c.storage.GetEntriesByType(t)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeType == t {
		c.entries = entries
	}
}

// current returns the published raster and the type that produced it
func (c *SessionController) current() (models.Raster, models.QRType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raster, c.rasterType
}

// dropResultLocked forgets the published pass of the previous type
func (c *SessionController) dropResultLocked() {
	c.payload = ""
	c.raster = models.Raster{}
	c.rasterType = ""
	c.lastErr = nil
}

func (c *SessionController) clearSurface() {
	if sc, ok := c.renderer.(surfaceClearer); ok {
		sc.Clear()
	}
}

func cloneEntries(entries []models.QREntry) []models.QREntry {
	out := make([]models.QREntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
