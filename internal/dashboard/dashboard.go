// Package dashboard keeps the mechanic's view of repair requests: a polled
// list, a search and status filter over it, and status, notes and delete
// actions that touch local state only once the API has acknowledged them.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/autopec/garage/internal/client"
	"github.com/autopec/garage/internal/model"
)

const DefaultInterval = 30 * time.Second

// Notices shown when a mutation is not acknowledged.
const (
	NoticeStatusFailed = "Error updating status. Please try again."
	NoticeNotesFailed  = "Error saving notes. Please try again."
	NoticeDeleteFailed = "Error deleting repair request. Please try again."
)

var ErrUnknownRepair = errors.New("repair request is not on the dashboard")

// MutationError carries a generic notice for the user and the cause for logs.
type MutationError struct {
	Notice string
	Err    error
}

func (e *MutationError) Error() string { return e.Notice }
func (e *MutationError) Unwrap() error { return e.Err }

// API is the slice of the repair API the dashboard drives.
type API interface {
	ListRepairs(ctx context.Context) ([]model.RepairRequest, error)
	UpdateStatus(ctx context.Context, id string, update client.StatusUpdate) (*model.RepairRequest, error)
	DeleteRepair(ctx context.Context, id string) error
}

type Options struct {
	Interval    time.Duration
	AutoRefresh bool
}

// Snapshot is a consistent copy of the dashboard state.
type Snapshot struct {
	Repairs      []model.RepairRequest
	LastUpdated  time.Time
	RefreshCount int
	Err          error
	Loading      bool
	AutoRefresh  bool
}

type Dashboard struct {
	api      API
	interval time.Duration
	now      func() time.Time

	mu           sync.Mutex
	repairs      []model.RepairRequest
	lastUpdated  time.Time
	refreshCount int
	loadErr      error
	loading      bool
	autoRefresh  bool
	closed       bool

	restart chan struct{}
	updates chan struct{}
}

func New(api API, opts Options) *Dashboard {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dashboard{
		api:         api,
		interval:    interval,
		now:         time.Now,
		repairs:     []model.RepairRequest{},
		loading:     true,
		autoRefresh: opts.AutoRefresh,
		restart:     make(chan struct{}, 1),
		updates:     make(chan struct{}, 1),
	}
}

// Run loads the list and, while auto refresh is on, reloads it every
// interval until ctx is done. Toggling auto refresh restarts the cycle with
// an immediate load. Run closes the dashboard when it returns.
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.Close()

	for {
		d.load(ctx, false)

		var tick <-chan time.Time
		var ticker *time.Ticker
		if d.AutoRefresh() {
			ticker = time.NewTicker(d.interval)
			tick = ticker.C
		}

		restarted := d.wait(ctx, tick)
		if ticker != nil {
			ticker.Stop()
		}
		if !restarted {
			return nil
		}
	}
}

// wait serves ticks until ctx is done (false) or a restart is requested (true).
func (d *Dashboard) wait(ctx context.Context, tick <-chan time.Time) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-d.restart:
			return true
		case <-tick:
			d.load(ctx, true)
		}
	}
}

// Refresh reloads the list now. It may overlap a scheduled load; whichever
// response arrives last is what the dashboard shows.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.loading = true
		d.loadErr = nil
	}
	d.mu.Unlock()

	return d.load(ctx, false)
}

func (d *Dashboard) load(ctx context.Context, scheduled bool) error {
	repairs, err := d.api.ListRepairs(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return err
	}

	if scheduled {
		d.refreshCount++
	}
	d.loading = false
	if err != nil {
		slog.Warn("failed to fetch repairs", "error", err)
		d.loadErr = err
	} else {
		if repairs == nil {
			repairs = []model.RepairRequest{}
		}
		d.repairs = repairs
		d.lastUpdated = d.now()
		d.loadErr = nil
	}
	d.notify()
	return err
}

func (d *Dashboard) AutoRefresh() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.autoRefresh
}

// SetAutoRefresh turns polling on or off. A change restarts the Run cycle.
func (d *Dashboard) SetAutoRefresh(on bool) {
	d.mu.Lock()
	changed := d.autoRefresh != on
	d.autoRefresh = on
	d.mu.Unlock()

	if changed {
		select {
		case d.restart <- struct{}{}:
		default:
		}
	}
}

// Updates signals after every state change. Signals coalesce; read Snapshot
// to see the latest state.
func (d *Dashboard) Updates() <-chan struct{} {
	return d.updates
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	repairs := make([]model.RepairRequest, len(d.repairs))
	copy(repairs, d.repairs)
	return Snapshot{
		Repairs:      repairs,
		LastUpdated:  d.lastUpdated,
		RefreshCount: d.refreshCount,
		Err:          d.loadErr,
		Loading:      d.loading,
		AutoRefresh:  d.autoRefresh,
	}
}

// View returns the current list narrowed by f.
func (d *Dashboard) View(f Filter) []model.RepairRequest {
	return Apply(d.Snapshot().Repairs, f)
}

// UpdateStatus changes a repair's status, resending its current notes.
func (d *Dashboard) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	current, ok := d.find(id)
	if !ok {
		return ErrUnknownRepair
	}

	_, err := d.api.UpdateStatus(ctx, id, client.StatusUpdate{
		Status:        status,
		MechanicNotes: current.MechanicNotes,
	})
	if err != nil {
		slog.Error("failed to update repair status", "error", err, "repair_id", id)
		return &MutationError{Notice: NoticeStatusFailed, Err: err}
	}

	d.modify(id, func(r *model.RepairRequest) { r.Status = status })
	return nil
}

// SaveNotes trims and stores the mechanic notes, keeping the current status.
func (d *Dashboard) SaveNotes(ctx context.Context, id, notes string) error {
	current, ok := d.find(id)
	if !ok {
		return ErrUnknownRepair
	}

	notes = strings.TrimSpace(notes)
	_, err := d.api.UpdateStatus(ctx, id, client.StatusUpdate{
		Status:        current.Status,
		MechanicNotes: notes,
	})
	if err != nil {
		slog.Error("failed to save mechanic notes", "error", err, "repair_id", id)
		return &MutationError{Notice: NoticeNotesFailed, Err: err}
	}

	d.modify(id, func(r *model.RepairRequest) { r.MechanicNotes = notes })
	return nil
}

func (d *Dashboard) Delete(ctx context.Context, id string) error {
	err := d.api.DeleteRepair(ctx, id)
	if err != nil {
		slog.Error("failed to delete repair", "error", err, "repair_id", id)
		return &MutationError{Notice: NoticeDeleteFailed, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	kept := make([]model.RepairRequest, 0, len(d.repairs))
	for _, r := range d.repairs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	d.repairs = kept
	d.notify()
	return nil
}

// Close stops state writes. Responses arriving afterwards are dropped.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Dashboard) find(id string) (model.RepairRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.repairs {
		if r.ID == id {
			return r, true
		}
	}
	return model.RepairRequest{}, false
}

func (d *Dashboard) modify(id string, fn func(*model.RepairRequest)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	// Copy on write so earlier snapshots stay untouched.
	repairs := make([]model.RepairRequest, len(d.repairs))
	copy(repairs, d.repairs)
	for i := range repairs {
		if repairs[i].ID == id {
			fn(&repairs[i])
		}
	}
	d.repairs = repairs
	d.notify()
}

// notify must be called with mu held.
func (d *Dashboard) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}
