package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/myrjola/dfircase/internal/errors"
	"log/slog"
)

const (
	// StepGeneralInspection is the static analysis step that carries a file/hash list.
	StepGeneralInspection = "ma_general"
	// StepPackers is the static analysis step that carries a packer detection record.
	StepPackers = "ma_packers"
)

// StepPayload is the structured data recorded against one step. The concrete type is chosen by step id.
type StepPayload interface {
	// Summary returns a heading and readable lines for reports. An empty heading means nothing to render.
	Summary() (string, []string)
	stepPayload()
}

// FileHashEntry is one analysed file.
type FileHashEntry struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Hash     string `json:"hash"`
}

// FileHashList is the payload of the general inspection step.
type FileHashList struct {
	FileList []FileHashEntry `json:"fileList"`
}

func (FileHashList) stepPayload() {}

func (l FileHashList) Summary() (string, []string) {
	if len(l.FileList) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(l.FileList))
	for _, f := range l.FileList {
		lines = append(lines, fmt.Sprintf("- %s: %s", f.FileName, f.Hash))
	}
	return "Additional Files/Hashes", lines
}

// Upsert replaces the entry with the same id or appends a new one with a fresh id.
func (l FileHashList) Upsert(entry FileHashEntry) FileHashList {
	files := make([]FileHashEntry, 0, len(l.FileList)+1)
	replaced := false
	for _, f := range l.FileList {
		if entry.ID != "" && f.ID == entry.ID {
			f = entry
			replaced = true
		}
		files = append(files, f)
	}
	if !replaced {
		entry.ID = newID()
		files = append(files, entry)
	}
	return FileHashList{FileList: files}
}

// Remove drops the entry with id. The second return value is false when no entry matched.
func (l FileHashList) Remove(id string) (FileHashList, bool) {
	if id == "" {
		return l, false
	}
	files := make([]FileHashEntry, 0, len(l.FileList))
	for _, f := range l.FileList {
		if f.ID != id {
			files = append(files, f)
		}
	}
	return FileHashList{FileList: files}, len(files) != len(l.FileList)
}

// withIDs gives a fresh id to every entry without one and to every entry repeating the id of an earlier entry.
func (l FileHashList) withIDs() FileHashList {
	if l.FileList == nil {
		return l
	}
	files := make([]FileHashEntry, len(l.FileList))
	seen := make(map[string]bool, len(l.FileList))
	for i, f := range l.FileList {
		if f.ID == "" || seen[f.ID] {
			f.ID = newID()
		}
		seen[f.ID] = true
		files[i] = f
	}
	return FileHashList{FileList: files}
}

// PackerDetection is the payload of the packer check step.
type PackerDetection struct {
	IsPacked   bool   `json:"isPacked"`
	PackerName string `json:"packerName"`
}

func (PackerDetection) stepPayload() {}

func (p PackerDetection) Summary() (string, []string) {
	if !p.IsPacked && p.PackerName == "" {
		return "", nil
	}
	packed := "No"
	if p.IsPacked {
		packed = "Yes"
	}
	lines := []string{"- Packed: " + packed}
	if p.PackerName != "" {
		lines = append(lines, "- Packer: "+p.PackerName)
	}
	return "Packer Detection", lines
}

// RawPayload holds compact JSON for steps without a dedicated payload type.
type RawPayload json.RawMessage

func (RawPayload) stepPayload() {}

func (RawPayload) Summary() (string, []string) {
	return "", nil
}

// MarshalJSON emits the stored JSON verbatim.
func (r RawPayload) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// DecodeStepPayload decodes raw into the payload type registered for stepID.
func DecodeStepPayload(stepID string, raw []byte) (StepPayload, error) {
	switch stepID {
	case StepGeneralInspection:
		var l FileHashList
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, errors.Wrap(err, "decode file hash list", slog.String("step_id", stepID))
		}
		return l, nil
	case StepPackers:
		var p PackerDetection
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errors.Wrap(err, "decode packer detection", slog.String("step_id", stepID))
		}
		return p, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, errors.Wrap(err, "compact raw payload", slog.String("step_id", stepID))
		}
		return RawPayload(buf.Bytes()), nil
	}
}

// StepData maps step ids to their structured payloads.
type StepData map[string]StepPayload

// UnmarshalJSON picks the payload type for every entry by its step id.
func (d *StepData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode step data")
	}
	decoded := make(StepData, len(raw))
	for stepID, payload := range raw {
		p, err := DecodeStepPayload(stepID, payload)
		if err != nil {
			return err
		}
		decoded[stepID] = p
	}
	*d = decoded
	return nil
}

// FileHashes returns the file/hash list of the general inspection step, empty when absent.
func (d StepData) FileHashes() FileHashList {
	if l, ok := d[StepGeneralInspection].(FileHashList); ok {
		return l
	}
	return FileHashList{FileList: nil}
}
