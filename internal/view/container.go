package view

import (
	"time"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

// TraceTab is one entry in the trace switcher.
type TraceTab struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NodeCount int    `json:"nodeCount"`
	CreatedAt string `json:"createdAt,omitempty"`
	Selected  bool   `json:"selected"`
}

// ContainerHeader summarizes the current trace.
type ContainerHeader struct {
	TraceID       string `json:"traceId"`
	ReferenceName string `json:"referenceName,omitempty"`
	ContextType   string `json:"contextType"`
	NodeCount     int    `json:"nodeCount"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// ContainerToolbar mirrors the session's presentation toggles.
type ContainerToolbar struct {
	ViewMode        string `json:"viewMode"`
	LayoutDirection string `json:"layoutDirection"`
	ShowInspector   bool   `json:"showInspector"`
	CanRefresh      bool   `json:"canRefresh"`
	CanClose        bool   `json:"canClose"`
}

// ContainerView is the whole console frame: header, trace tabs, toolbar and
// whichever panels the view mode makes visible. Exactly one of Loading,
// Error, Empty or the panels is meaningful at a time.
type ContainerView struct {
	SessionID string `json:"sessionId"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	Empty     bool   `json:"empty"`

	Header  *ContainerHeader `json:"header,omitempty"`
	Toolbar ContainerToolbar `json:"toolbar"`
	Traces  []TraceTab       `json:"traces,omitempty"`

	Hierarchy *HierarchyView `json:"hierarchy,omitempty"`
	Canvas    *CanvasView    `json:"canvas,omitempty"`
	Inspector *InspectorView `json:"inspector,omitempty"`

	SelectionPath []string `json:"selectionPath,omitempty"`
}

// BuildContainer assembles the full frame from one snapshot. A fetch error
// with no traces at all renders the error state; no traces and no error
// renders the empty state; otherwise the panels are built, gated by the view
// mode and inspector toggle. A fetch error alongside cached traces is
// surfaced in Error while the stale panels stay usable.
func BuildContainer(st services.SessionState, loading bool) ContainerView {
	cv := ContainerView{
		SessionID: st.ID,
		Loading:   loading,
		Toolbar: ContainerToolbar{
			ViewMode:        string(st.ViewMode),
			LayoutDirection: string(st.LayoutDirection),
			ShowInspector:   st.ShowInspector,
			CanRefresh:      !loading,
			CanClose:        true,
		},
	}

	if loading {
		return cv
	}

	if len(st.Traces) == 0 {
		if st.FetchError != "" {
			cv.Error = st.FetchError
		} else {
			cv.Empty = true
		}
		return cv
	}
	cv.Error = st.FetchError

	tr := st.SelectedTrace()
	cv.Header = &ContainerHeader{
		TraceID:       tr.ID,
		ReferenceName: tr.ReferenceName,
		ContextType:   string(tr.ContextType),
		NodeCount:     tr.NodeCount(),
		CreatedAt:     formatTime(tr),
	}

	cv.Traces = make([]TraceTab, 0, len(st.Traces))
	for i := range st.Traces {
		t := &st.Traces[i]
		name := t.ReferenceName
		if name == "" {
			name = t.ID
		}
		cv.Traces = append(cv.Traces, TraceTab{
			ID:        t.ID,
			Name:      TruncateName(name, nameBudget),
			NodeCount: t.NodeCount(),
			CreatedAt: formatTime(t),
			Selected:  t.ID == st.SelectedTraceID,
		})
	}

	if st.ViewMode == services.ViewModeSplit || st.ViewMode == services.ViewModeHierarchy {
		h := BuildHierarchy(st)
		cv.Hierarchy = &h
	}
	if st.ViewMode == services.ViewModeSplit || st.ViewMode == services.ViewModeCanvas {
		c := BuildCanvas(st)
		cv.Canvas = &c
	}
	if st.ShowInspector {
		ins := BuildInspector(st)
		cv.Inspector = &ins
	}

	cv.SelectionPath = st.SelectionPath
	return cv
}

func formatTime(tr *domain.Trace) string {
	if tr.CreatedAt.IsZero() {
		return ""
	}
	return domain.FormatTimestamp(tr.CreatedAt.Format(time.RFC3339Nano))
}
