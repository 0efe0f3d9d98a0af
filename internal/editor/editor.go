// Package editor implements the image collection editor of a raffle screen:
// loading, uploading, deleting and reordering images against the remote
// image store while keeping image orders contiguous.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/gallery"
	"go-raffle-images/internal/imagestore"
	"go-raffle-images/internal/logger"
	"go-raffle-images/internal/observer"
	"go-raffle-images/pkg/models"
	"go-raffle-images/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Mode selects how the collection is populated
type Mode string

const (
	// ModeCreate loads the current user's images not yet attached to a raffle
	ModeCreate Mode = "create"
	// ModeEdit loads a raffle's attached images merged with staged ones
	ModeEdit Mode = "edit"
)

// Status is the editor's activity state
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the editor status plus the message shown in StatusError
type State struct {
	Status  Status
	Message string
}

// Messages shown when a failure has no more specific text
const (
	LoadFailedMessage   = "Failed to load images"
	UploadFailedMessage = "Failed to upload images. Please try again."
	DeleteFailedMessage = "Failed to delete image. Please try again."
)

// Options configures an Editor
type Options struct {
	Mode Mode
	// TargetID is the raffle whose images are edited; required in ModeEdit
	TargetID int64
	// Initial holds images already staged client-side (ModeEdit)
	Initial   []models.ImageRecord
	Validator *validation.UploadValidator
	Publisher observer.Subject
}

// Editor owns one screen's image collection. Network calls run outside the
// lock; a second action started while one is in flight is neither queued
// nor cancelled. Collections are published in the order they were applied,
// so observers must not call mutating editor methods from OnEvent.
type Editor struct {
	store     imagestore.Store
	validator *validation.UploadValidator
	publisher observer.Subject
	mode      Mode
	targetID  int64
	initial   []models.ImageRecord

	// publishMu is held across a collection swap and its publication
	publishMu sync.Mutex

	mu      sync.Mutex
	images  gallery.Collection
	state   State
	gesture Gesture
}

// New creates an editor over store
func New(store imagestore.Store, opts Options) (*Editor, error) {
	if store == nil {
		return nil, fmt.Errorf("editor: store is required")
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("editor: validator is required")
	}
	switch opts.Mode {
	case ModeCreate:
	case ModeEdit:
		if opts.TargetID <= 0 {
			return nil, fmt.Errorf("editor: edit mode requires a target id")
		}
	default:
		return nil, fmt.Errorf("editor: unknown mode %q", opts.Mode)
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher = observer.NewEventPublisher()
	}

	return &Editor{
		store:     store,
		validator: opts.Validator,
		publisher: publisher,
		mode:      opts.Mode,
		targetID:  opts.TargetID,
		initial:   append([]models.ImageRecord(nil), opts.Initial...),
		images:    gallery.Empty(),
	}, nil
}

// Mode returns the population mode
func (e *Editor) Mode() Mode {
	return e.mode
}

// TargetID returns the edited raffle, zero in create mode
func (e *Editor) TargetID() int64 {
	return e.targetID
}

// Images returns the collection in display order
func (e *Editor) Images() []models.ImageRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images.Images()
}

// State returns the current activity state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Gesture returns the current reorder gesture
func (e *Editor) Gesture() Gesture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture
}

// Load populates the collection according to the mode. On failure the
// collection falls back to the staged images (edit mode) or to empty, and
// the fallback is published; the error is returned.
func (e *Editor) Load(ctx context.Context) error {
	e.setState(State{Status: StatusLoading})

	var (
		records []models.ImageRecord
		err     error
	)
	if e.mode == ModeEdit {
		records, err = e.store.ListTargetImages(ctx, e.targetID)
	} else {
		records, err = e.store.ListUserImages(ctx)
	}

	if err != nil {
		fallback := gallery.Empty()
		if e.mode == ModeEdit && len(e.initial) > 0 {
			fallback = gallery.Merge(e.initial, nil)
		}
		e.fail(ctx, "load", fallback, true, messageFor(err, LoadFailedMessage), err)
		return err
	}

	next := gallery.FromServer(records)
	if e.mode == ModeEdit {
		next = gallery.Merge(e.initial, records)
	}
	return e.commit(ctx, "load", func(gallery.Collection) (gallery.Collection, error) {
		return next, nil
	})
}

// Upload validates files against the limits and, when accepted, sends them
// to the store and appends the returned images. A rejected batch sends nothing.
func (e *Editor) Upload(ctx context.Context, files []imagestore.Upload) error {
	e.mu.Lock()
	current := e.images.Len()
	e.mu.Unlock()

	infos := make([]validation.FileInfo, len(files))
	for i, f := range files {
		infos[i] = validation.FileInfo{Name: f.Name, Size: f.Size, ContentType: f.ContentType}
	}
	if err := e.validator.Validate(current, infos); err != nil {
		e.fail(ctx, "upload", gallery.Collection{}, false, rejectionMessage(err), err)
		return err
	}
	if len(files) == 0 {
		e.setState(State{Status: StatusIdle})
		return nil
	}

	e.setState(State{Status: StatusLoading})

	created, err := e.store.Upload(ctx, files)
	if err != nil {
		msg := UploadFailedMessage
		if appErr, ok := apperrors.As(err); ok {
			if fieldMsg, ok := appErr.FieldMessage(imagestore.UploadField); ok {
				msg = fieldMsg
			}
		}
		e.fail(ctx, "upload", gallery.Collection{}, false, msg, err)
		return err
	}

	return e.commit(ctx, "upload", func(current gallery.Collection) (gallery.Collection, error) {
		return current.Append(created...), nil
	})
}

// Delete removes the image at index (with the given id) from the store and
// the collection. It does nothing while a reorder gesture is in progress.
func (e *Editor) Delete(ctx context.Context, index int, imageID int64) error {
	e.mu.Lock()
	if e.gesture.Dragging() {
		kind := e.gesture.Kind()
		e.mu.Unlock()
		logger.WithFields(logrus.Fields{
			"index":    index,
			"image_id": imageID,
			"gesture":  kind.String(),
		}).Debug("Ignoring delete during reorder gesture")
		return nil
	}
	if _, ok := e.images.At(index); !ok {
		n := e.images.Len()
		e.mu.Unlock()
		return apperrors.NewInvalidInputError(fmt.Sprintf("no image at position %d", index), fmt.Sprintf("collection holds %d images", n))
	}
	e.mu.Unlock()

	e.setState(State{Status: StatusLoading})

	if err := e.store.Delete(ctx, imageID); err != nil {
		e.fail(ctx, "delete", gallery.Collection{}, false, messageFor(err, DeleteFailedMessage), err)
		return err
	}

	err := e.commit(ctx, "delete", func(current gallery.Collection) (gallery.Collection, error) {
		pos := locate(current, index, imageID)
		if pos < 0 {
			return current, errUnchanged
		}
		return current.Remove(pos)
	})
	if errors.Is(err, errUnchanged) {
		// the image left the collection while the request was in flight
		e.setState(State{Status: StatusIdle})
		return nil
	}
	return err
}

// Reorder moves the image at from to position to. A negative from means no
// source is selected; from == to is a no-op. No request is sent: the new
// order is persisted by whatever submits the surrounding form.
func (e *Editor) Reorder(ctx context.Context, from, to int) error {
	if from < 0 || from == to {
		return nil
	}

	err := e.commit(ctx, "reorder", func(current gallery.Collection) (gallery.Collection, error) {
		return current.Move(from, to)
	})
	if err != nil {
		return apperrors.NewInvalidInputError("invalid reorder", err.Error())
	}
	return nil
}

// BeginGesture starts a pointer or touch drag on the image at source
func (e *Editor) BeginGesture(kind GestureKind, source int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.images.At(source); !ok {
		return apperrors.NewInvalidInputError(fmt.Sprintf("no image at position %d", source), "gesture")
	}
	e.gesture = e.gesture.begin(kind, source)
	return nil
}

// DropGesture resolves the gesture in progress into a reorder onto target.
// The gesture stays active until EndGesture and follows the dragged image,
// so a repeated drop on the same target changes nothing.
func (e *Editor) DropGesture(ctx context.Context, target int) error {
	err := e.commit(ctx, "reorder", func(current gallery.Collection) (gallery.Collection, error) {
		source, ok := e.gesture.Source()
		if !ok || source == target {
			return current, errUnchanged
		}
		next, err := current.Move(source, target)
		if err != nil {
			return current, err
		}
		e.gesture = e.gesture.moveTo(target)
		return next, nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		return nil
	case err != nil:
		return apperrors.NewInvalidInputError("invalid reorder", err.Error())
	}
	return nil
}

// EndGesture returns the gesture to Idle whether or not a reorder happened
func (e *Editor) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gesture = e.gesture.end()
}

// Subscribe registers an observer for published collections and failures
func (e *Editor) Subscribe(obs observer.Observer) {
	e.publisher.Subscribe(obs)
}

func (e *Editor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// errUnchanged makes commit leave the collection alone without publishing
var errUnchanged = errors.New("collection unchanged")

// commit applies update to the current collection in one step, returns to
// Idle and publishes. The update runs under mu; an error leaves everything
// as it was.
func (e *Editor) commit(ctx context.Context, op string, update func(gallery.Collection) (gallery.Collection, error)) error {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	e.mu.Lock()
	next, err := update(e.images)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.images = next
	e.state = State{Status: StatusIdle}
	snapshot := next.Images()
	e.mu.Unlock()

	e.publisher.NotifyObservers(ctx, observer.EditorEvent{
		EventType: observer.ImagesPublished,
		Timestamp: time.Now(),
		Operation: op,
		Images:    snapshot,
		Metadata:  map[string]interface{}{"mode": string(e.mode)},
	})
	return nil
}

// fail enters the error state; when replace is set, fallback becomes the collection and is published
func (e *Editor) fail(ctx context.Context, op string, fallback gallery.Collection, replace bool, message string, cause error) {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	e.mu.Lock()
	if replace {
		e.images = fallback
	}
	e.state = State{Status: StatusError, Message: message}
	snapshot := e.images.Images()
	e.mu.Unlock()

	logger.WithError(cause).WithFields(logrus.Fields{
		"operation": op,
		"mode":      string(e.mode),
		"target_id": e.targetID,
	}).Warn("Image operation failed")

	e.publisher.NotifyObservers(ctx, observer.EditorEvent{
		EventType: observer.OperationFailed,
		Timestamp: time.Now(),
		Operation: op,
		Message:   message,
	})
	if replace {
		e.publisher.NotifyObservers(ctx, observer.EditorEvent{
			EventType: observer.ImagesPublished,
			Timestamp: time.Now(),
			Operation: op,
			Images:    snapshot,
			Metadata:  map[string]interface{}{"mode": string(e.mode), "fallback": true},
		})
	}
}

// locate returns index when it still holds imageID, else the current position of imageID
func locate(c gallery.Collection, index int, imageID int64) int {
	if img, ok := c.At(index); ok && img.ID == imageID {
		return index
	}
	for i, img := range c.Images() {
		if img.ID == imageID {
			return i
		}
	}
	return -1
}

// rejectionMessage is the text shown for a batch the upload rules refused
func rejectionMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// messageFor picks the text shown to the user for a failed store call
func messageFor(err error, fallback string) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return fallback
	}
	switch appErr.Type {
	case apperrors.ErrorTypeTransport, apperrors.ErrorTypeUnrecognized:
		return appErr.Message
	case apperrors.ErrorTypeServer, apperrors.ErrorTypeValidation:
		if appErr.Message != "" {
			return appErr.Message
		}
	}
	return fallback
}
