package view

import (
	"fmt"

	"github.com/skillforge/timeline/internal/timeline"
	"github.com/skillforge/timeline/pkg/core"
)

// TrackHeader is the left-pane handle of a track row.
type TrackHeader struct {
	Type       core.TrackType
	TrackIndex int
	Title      string
	Enabled    bool
}

// TrackContent is the right-pane handle of a track row.
type TrackContent struct {
	Items []*Item
}

// Row pairs a track's header with its content. Both panes render the same
// row list, so their vertical order can never diverge.
type Row struct {
	Header  TrackHeader
	Content TrackContent
}

// BuildRows lays out every track of the document in display order: singleton
// types first in their fixed order, then multi-instance types by index.
func BuildRows(doc *core.Document, state *timeline.State) []Row {
	var rows []Row

	for _, t := range core.SingletonTypes {
		st := doc.Tracks.Singleton(t)
		if st == nil {
			continue
		}
		rows = append(rows, Row{
			Header:  TrackHeader{Type: t, Title: string(t), Enabled: st.Enabled},
			Content: TrackContent{Items: buildItems(t, 0, st.Clips, state)},
		})
	}
	for _, t := range core.MultiTypes {
		mt := doc.Tracks.Multi(t)
		if mt == nil {
			continue
		}
		for _, lane := range mt.Lanes {
			rows = append(rows, Row{
				Header: TrackHeader{
					Type:       t,
					TrackIndex: lane.TrackIndex,
					Title:      fmt.Sprintf("%s %d", t, lane.TrackIndex),
					Enabled:    lane.Enabled,
				},
				Content: TrackContent{Items: buildItems(t, lane.TrackIndex, lane.Clips, state)},
			})
		}
	}
	return rows
}

// RefreshRows relayouts every item after a zoom change.
func RefreshRows(rows []Row, state *timeline.State) {
	for _, row := range rows {
		for _, item := range row.Content.Items {
			item.RefreshDisplay(state)
		}
	}
}

func buildItems(t core.TrackType, trackIndex int, clips []*core.Clip, state *timeline.State) []*Item {
	items := make([]*Item, 0, len(clips))
	for _, clip := range clips {
		items = append(items, NewItem(t, trackIndex, clip, state))
	}
	return items
}
