// Package convert translates between the in-memory skill document tree and
// the flat gorm records persisted by the database storage backend.
package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge/timeline/internal/model"
	"github.com/skillforge/timeline/pkg/core"
)

// LaneRows is one persisted lane together with its clip rows.
type LaneRows struct {
	Lane  model.TrackLane
	Clips []model.ClipRecord
}

// DocumentRows is the flattened form of a core.Document.
type DocumentRows struct {
	Document model.SkillDocument
	Lanes    []LaneRows
}

// ToRows flattens a document into database records. Lane and clip rows carry
// zero IDs; the storage layer assigns them on insert.
func ToRows(doc *core.Document) (*DocumentRows, error) {
	if doc == nil {
		return nil, fmt.Errorf("cannot convert nil document")
	}

	out := &DocumentRows{
		Document: model.SkillDocument{
			SkillName: doc.SkillName,
			MaxFrame:  doc.MaxFrame,
		},
	}

	for _, trackType := range core.AllTrackTypes {
		if trackType.IsSingleton() {
			sub := doc.Tracks.Singleton(trackType)
			if sub == nil {
				continue
			}
			rows, err := laneToRows(trackType, 0, sub.Enabled, sub.Clips)
			if err != nil {
				return nil, err
			}
			out.Lanes = append(out.Lanes, *rows)
			continue
		}

		sub := doc.Tracks.Multi(trackType)
		if sub == nil {
			continue
		}
		for _, lane := range sub.Lanes {
			rows, err := laneToRows(trackType, lane.TrackIndex, lane.Enabled, lane.Clips)
			if err != nil {
				return nil, err
			}
			out.Lanes = append(out.Lanes, *rows)
		}
	}

	return out, nil
}

func laneToRows(trackType core.TrackType, index int, enabled bool, clips []*core.Clip) (*LaneRows, error) {
	rows := &LaneRows{
		Lane: model.TrackLane{
			TrackType:  string(trackType),
			TrackIndex: index,
			Enabled:    enabled,
		},
	}
	for _, clip := range clips {
		record, err := clipToRow(trackType, clip)
		if err != nil {
			return nil, fmt.Errorf("track %s index %d: %w", trackType, index, err)
		}
		rows.Clips = append(rows.Clips, *record)
	}
	return rows, nil
}

func clipToRow(trackType core.TrackType, clip *core.Clip) (*model.ClipRecord, error) {
	if clip.Payload == nil {
		return nil, fmt.Errorf("clip %q has no payload", clip.Name)
	}
	if clip.Payload.Kind() != trackType {
		return nil, fmt.Errorf("clip %q payload kind %s does not match track type %s",
			clip.Name, clip.Payload.Kind(), trackType)
	}
	raw, err := json.Marshal(clip.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload for clip %q: %w", clip.Name, err)
	}
	return &model.ClipRecord{
		ClipID:        clip.ID.String(),
		Name:          clip.Name,
		StartFrame:    clip.StartFrame,
		DurationFrame: clip.DurationFrame,
		Payload:       datatypes.JSON(raw),
	}, nil
}

// FromRows rebuilds a document tree from persisted records. Lanes are placed
// by track type and index; clips on each lane come back sorted by start frame.
func FromRows(rows *DocumentRows) (*core.Document, error) {
	if rows == nil {
		return nil, fmt.Errorf("cannot convert nil rows")
	}

	doc := core.NewDocument(rows.Document.SkillName, rows.Document.MaxFrame)

	for i := range rows.Lanes {
		laneRows := &rows.Lanes[i]
		trackType := core.TrackType(laneRows.Lane.TrackType)
		if !trackType.Valid() {
			return nil, fmt.Errorf("unknown track type %q in lane %d", laneRows.Lane.TrackType, laneRows.Lane.ID)
		}

		clips, err := rowsToClips(trackType, laneRows.Clips)
		if err != nil {
			return nil, err
		}

		if trackType.IsSingleton() {
			sub := doc.Tracks.EnsureSingleton(trackType)
			sub.Enabled = laneRows.Lane.Enabled
			sub.Clips = clips
			continue
		}

		sub := doc.Tracks.EnsureMulti(trackType)
		sub.Lanes = append(sub.Lanes, &core.Lane{
			TrackIndex: laneRows.Lane.TrackIndex,
			Enabled:    laneRows.Lane.Enabled,
			Clips:      clips,
		})
	}

	// restore deterministic lane order regardless of row order
	for _, trackType := range core.MultiTypes {
		sub := doc.Tracks.Multi(trackType)
		if sub == nil {
			continue
		}
		sort.Slice(sub.Lanes, func(i, j int) bool {
			return sub.Lanes[i].TrackIndex < sub.Lanes[j].TrackIndex
		})
	}

	return doc, nil
}

func rowsToClips(trackType core.TrackType, records []model.ClipRecord) ([]*core.Clip, error) {
	var clips []*core.Clip
	for i := range records {
		record := &records[i]
		clip, err := rowToClip(trackType, record)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	core.SortClips(clips)
	return clips, nil
}

func rowToClip(trackType core.TrackType, record *model.ClipRecord) (*core.Clip, error) {
	id, err := uuid.Parse(record.ClipID)
	if err != nil {
		return nil, fmt.Errorf("clip record %d has bad id %q: %w", record.ID, record.ClipID, err)
	}
	payload, err := core.UnmarshalPayload(trackType, []byte(record.Payload))
	if err != nil {
		return nil, fmt.Errorf("clip record %d: %w", record.ID, err)
	}
	return &core.Clip{
		ID:            id,
		Name:          record.Name,
		StartFrame:    record.StartFrame,
		DurationFrame: record.DurationFrame,
		Payload:       payload,
	}, nil
}
