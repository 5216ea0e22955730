package engine

import (
	"cmp"
	"slices"
	"time"
)

// FileAction is what happened, or would happen, to one group member.
type FileAction string

const (
	ActionKeep        FileAction = "keep"
	ActionWouldDelete FileAction = "would-delete"
	ActionDeleted     FileAction = "deleted"
	ActionFailed      FileAction = "failed"
	ActionRetained    FileAction = "retained"
)

// GroupStatus summarises how a group was resolved.
type GroupStatus string

const (
	StatusWouldDelete GroupStatus = "would-delete"
	StatusDeleted     GroupStatus = "deleted"
	StatusSkipped     GroupStatus = "skipped"
	StatusDeclined    GroupStatus = "declined"
	StatusPending     GroupStatus = "pending"
)

// FileReport is one member of a reported group. Links lists the other
// hardlink names of the member, each with its own action.
type FileReport struct {
	Path   string       `json:"path" yaml:"path"`
	Error  string       `json:"error,omitempty" yaml:"error,omitempty"`
	Action FileAction   `json:"action" yaml:"action"`
	Links  []FileReport `json:"links,omitempty" yaml:"links,omitempty"`
	Size   int64        `json:"size" yaml:"size"`
	Keeper bool         `json:"keeper" yaml:"keeper"`
}

func (f *FileReport) setAction(a FileAction) {
	f.Action = a
	for i := range f.Links {
		f.Links[i].Action = a
	}
}

// GroupReport describes one duplicate group and its resolution.
type GroupReport struct {
	Status      GroupStatus  `json:"status" yaml:"status"`
	Files       []FileReport `json:"files" yaml:"files"`
	Size        int64        `json:"size" yaml:"size"`
	Reclaimable int64        `json:"reclaimable" yaml:"reclaimable"`
	Freed       int64        `json:"freed" yaml:"freed"`
	Fingerprint Fingerprint  `json:"fingerprint" yaml:"fingerprint"`
}

// Keeper returns the surviving member.
func (g GroupReport) Keeper() FileReport {
	for _, f := range g.Files {
		if f.Keeper {
			return f
		}
	}
	return FileReport{}
}

// RunReport is everything a caller needs to render a preview, a
// confirmation summary or a final result. It is read-only once Run returns.
type RunReport struct {
	StartedAt        time.Time           `json:"started_at" yaml:"started_at"`
	LinkedPaths      map[string][]string `json:"linked_paths,omitempty" yaml:"linked_paths,omitempty"`
	RunID            string              `json:"run_id" yaml:"run_id"`
	AbortReason      string              `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Roots            []string            `json:"roots" yaml:"roots"`
	Groups           []GroupReport       `json:"groups" yaml:"groups"`
	Warnings         []Warning           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Failures         []DeletionFailure   `json:"failures,omitempty" yaml:"failures,omitempty"`
	Duration         time.Duration       `json:"duration_ns" yaml:"duration_ns"`
	FilesIndexed     int64               `json:"files_indexed" yaml:"files_indexed"`
	FilesHashed      int64               `json:"files_hashed" yaml:"files_hashed"`
	BytesHashed      int64               `json:"bytes_hashed" yaml:"bytes_hashed"`
	BytesReclaimable int64               `json:"bytes_reclaimable" yaml:"bytes_reclaimable"`
	FilesDeleted     int64               `json:"files_deleted" yaml:"files_deleted"`
	BytesFreed       int64               `json:"bytes_freed" yaml:"bytes_freed"`
	Mode             Mode                `json:"mode" yaml:"mode"`
	Aborted          bool                `json:"aborted" yaml:"aborted"`
	Declined         bool                `json:"declined" yaml:"declined"`
}

// Success reports whether the run finished with no warnings, no deletion
// failures and no abort. A declined confirmation is still a success.
func (r *RunReport) Success() bool {
	return len(r.Warnings) == 0 && len(r.Failures) == 0 && !r.Aborted
}

// DuplicateFiles is the number of non-keeper members across all groups.
func (r *RunReport) DuplicateFiles() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Files) - 1
	}
	return n
}

// addPlan records a group whose non-keepers were not removed.
func (r *RunReport) addPlan(dec Decision, status GroupStatus) {
	action := ActionWouldDelete
	if status != StatusWouldDelete && status != StatusDeclined {
		action = ActionRetained
	}
	gr := newGroupReport(dec, status)
	for _, idx := range dec.Delete {
		gr.Files[idx].setAction(action)
	}
	r.addGroup(gr)
}

// addOutcome records a group that went through the deleter.
func (r *RunReport) addOutcome(out DeleteOutcome) {
	dec := out.Decision
	gr := newGroupReport(dec, StatusDeleted)
	gr.Freed = out.Freed
	for i, idx := range dec.Delete {
		fr := &gr.Files[idx]
		r.recordDelete(fr, out.Errs[i])
		for n, err := range out.LinkErrs[i] {
			r.recordDelete(&fr.Links[n], err)
		}
	}
	r.FilesDeleted += int64(out.Deleted)
	r.BytesFreed += out.Freed
	r.addGroup(gr)
}

func (r *RunReport) recordDelete(fr *FileReport, err error) {
	if err != nil {
		fr.Action = ActionFailed
		fr.Error = err.Error()
		r.Failures = append(r.Failures, newDeletionFailure(fr.Path, err))
		return
	}
	fr.Action = ActionDeleted
}

// addUndecided records a group that never got a decision (skipped, or left
// pending by an abort). The default keeper is still flagged.
func (r *RunReport) addUndecided(g DuplicateGroup, status GroupStatus) {
	dec, _ := NewDecision(g, g.Keeper)
	r.addPlan(dec, status)
}

func (r *RunReport) addGroup(gr GroupReport) {
	r.BytesReclaimable += gr.Reclaimable
	r.Groups = append(r.Groups, gr)
}

func (r *RunReport) sortWarnings() {
	slices.SortStableFunc(r.Warnings, func(a, b Warning) int {
		return cmp.Compare(a.Path, b.Path)
	})
}

func newGroupReport(dec Decision, status GroupStatus) GroupReport {
	g := dec.Group
	gr := GroupReport{
		Fingerprint: g.Fingerprint,
		Size:        g.Size,
		Reclaimable: g.Reclaimable(),
		Status:      status,
		Files:       make([]FileReport, len(g.Files)),
	}
	for i, f := range g.Files {
		gr.Files[i] = FileReport{Path: f.Path, Size: f.Size, Action: ActionRetained}
		for _, link := range f.Links {
			gr.Files[i].Links = append(gr.Files[i].Links, FileReport{Path: link, Size: f.Size, Action: ActionRetained})
		}
	}
	gr.Files[dec.Keeper].Keeper = true
	gr.Files[dec.Keeper].setAction(ActionKeep)
	return gr
}
