package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&SkillDocument{},
	&TrackLane{},
	&ClipRecord{},
}

// SkillDocument is the root record of one skill's timeline configuration.
type SkillDocument struct {
	gorm.Model
	SkillName string `json:"skillName" gorm:"size:127;uniqueIndex"`
	MaxFrame  int    `json:"maxFrame"`
}

func (*SkillDocument) TableName() string {
	return "skill_documents"
}

// TrackLane is one lane of a skill document. Singleton track types always
// use track index 0; multi-instance types use their per-type index.
type TrackLane struct {
	gorm.Model
	DocumentID uint          `json:"documentId" gorm:"index:idx_tracklane_document_id"`
	Document   SkillDocument `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:DocumentID;"`
	TrackType  string        `json:"trackType" gorm:"size:31;index:idx_tracklane_type"`
	TrackIndex int           `json:"trackIndex"`
	Enabled    bool          `json:"isEnabled"`
}

func (*TrackLane) TableName() string {
	return "track_lanes"
}

// ClipRecord is one clip on a lane. The type-specific payload is stored as a
// JSON document keyed by the lane's track type.
type ClipRecord struct {
	gorm.Model
	LaneID        uint           `json:"laneId" gorm:"index:idx_cliprecord_lane_id"`
	Lane          TrackLane      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:LaneID;"`
	ClipID        string         `json:"clipId" gorm:"size:36;uniqueIndex"`
	Name          string         `json:"name" gorm:"size:127"`
	StartFrame    int            `json:"startFrame"`
	DurationFrame int            `json:"durationFrame"`
	Payload       datatypes.JSON `json:"payload"`
}

func (*ClipRecord) TableName() string {
	return "clip_records"
}
