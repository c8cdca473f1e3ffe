// Package persist mirrors the open notifications to a JSON state file, a
// plain count file and the allocation counter file.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/miracleos/notifyd/internal/atomicfile"
	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/notification"
)

// Adapter reads and writes the state, count and next id files. All are
// rewritten in full on every save.
type Adapter struct {
	statePath  string
	countPath  string
	nextIDPath string
}

// New creates an Adapter for the given file paths. The counter lives in its
// own file so the state file keeps the layout eww and older daemons read.
func New(statePath, countPath, nextIDPath string) *Adapter {
	return &Adapter{statePath: statePath, countPath: countPath, nextIDPath: nextIDPath}
}

// recordJSON is the on-disk shape. Field names and the float timestamp match
// the files written by the earlier daemon.
type recordJSON struct {
	AppName       string   `json:"app_name"`
	Summary       string   `json:"summary"`
	Body          *string  `json:"body"`
	AppIcon       string   `json:"app_icon"`
	Actions       []string `json:"actions"`
	Hints         hint.Map `json:"hints"`
	ExpireTimeout int32    `json:"expire_timeout"`
	Timestamp     float64  `json:"timestamp"`
	Image         string   `json:"image,omitempty"`
}

func toJSON(rec *notification.Record) recordJSON {
	out := recordJSON{
		AppName:       rec.AppName,
		Summary:       rec.Summary,
		AppIcon:       rec.AppIcon,
		Actions:       rec.Actions,
		Hints:         rec.Hints,
		ExpireTimeout: rec.ExpireTimeout,
		Timestamp:     float64(rec.CreatedAt.UnixMicro()) / 1e6,
		Image:         rec.Image,
	}
	if rec.Body != "" {
		body := rec.Body
		out.Body = &body
	}
	if out.Actions == nil {
		out.Actions = []string{}
	}
	if out.Hints == nil {
		out.Hints = hint.Map{}
	}
	return out
}

func fromJSON(id uint32, in recordJSON) *notification.Record {
	rec := &notification.Record{
		ID:            id,
		AppName:       in.AppName,
		Summary:       in.Summary,
		AppIcon:       in.AppIcon,
		Actions:       in.Actions,
		Hints:         in.Hints,
		ExpireTimeout: in.ExpireTimeout,
		CreatedAt:     time.UnixMicro(int64(math.Round(in.Timestamp * 1e6))),
		Image:         in.Image,
	}
	if in.Body != nil {
		rec.Body = *in.Body
	}
	if rec.Actions == nil {
		rec.Actions = []string{}
	}
	if rec.Hints == nil {
		rec.Hints = hint.Map{}
	}
	return rec
}

// Encode returns the state file contents for records.
func Encode(records []*notification.Record) ([]byte, error) {
	state := make(map[string]recordJSON, len(records))
	for _, rec := range records {
		state[strconv.FormatUint(uint64(rec.ID), 10)] = toJSON(rec)
	}
	return json.MarshalIndent(state, "", "    ")
}

// Decode parses state file contents. Keys that are not valid ids are an error.
func Decode(data []byte) (map[uint32]*notification.Record, error) {
	var state map[string]recordJSON
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	records := make(map[uint32]*notification.Record, len(state))
	for key, in := range state {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid notification id %q: %w", key, err)
		}
		if id == 0 || uint32(id) == notification.CloseAll {
			return nil, fmt.Errorf("reserved notification id %d", id)
		}
		records[uint32(id)] = fromJSON(uint32(id), in)
	}
	return records, nil
}

// Load reads the state file and the counter. A missing file is an empty
// store, not an error. A missing or unreadable counter loads as 0.
func (a *Adapter) Load() (notification.State, error) {
	var state notification.State

	data, err := os.ReadFile(a.statePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		state.Records = map[uint32]*notification.Record{}
	case err != nil:
		return state, fmt.Errorf("read state: %w", err)
	default:
		records, err := Decode(data)
		if err != nil {
			return state, fmt.Errorf("parse state %s: %w", a.statePath, err)
		}
		state.Records = records
	}

	state.NextID = a.loadNextID()
	return state, nil
}

func (a *Adapter) loadNextID() uint32 {
	data, err := os.ReadFile(a.nextIDPath)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// Save rewrites the state file, the count file and the counter.
func (a *Adapter) Save(records []*notification.Record, nextID uint32) error {
	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	var errs []error
	if err := atomicfile.Write(a.statePath, data, 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write state: %w", err))
	}
	if err := atomicfile.Write(a.countPath, []byte(strconv.Itoa(len(records))), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write count: %w", err))
	}
	if err := atomicfile.Write(a.nextIDPath, []byte(strconv.FormatUint(uint64(nextID), 10)), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write next id: %w", err))
	}
	return errors.Join(errs...)
}
