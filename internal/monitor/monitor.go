// Package monitor periodically snapshots the editing session to a status file
// so external tools can watch a long-running preview or batch edit.
package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/internal/telemetry"
	"github.com/skillforge/timeline/pkg/core"

	"github.com/rs/zerolog"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session   *session.Session
	Telemetry *telemetry.Manager
	StatusDir string
	Interval  time.Duration
	Logger    zerolog.Logger
}

// Status is one snapshot of the editing session.
type Status struct {
	Time         time.Time `json:"time"`
	SkillName    string    `json:"skillName"`
	CurrentFrame int       `json:"currentFrame"`
	MaxFrame     int       `json:"maxFrame"`
	Playing      bool      `json:"playing"`
	Dirty        bool      `json:"dirty"`
	ClipCount    int       `json:"clipCount"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current session status.
func (s *Service) Snapshot() Status {
	sess := s.deps.Session
	doc := sess.Document()

	clipCount := 0
	doc.EachClip(func(core.TrackType, int, *core.Clip) { clipCount++ })

	return Status{
		Time:         time.Now(),
		SkillName:    doc.SkillName,
		CurrentFrame: sess.State().CurrentFrame(),
		MaxFrame:     sess.State().MaxFrame(),
		Playing:      sess.State().Playing(),
		Dirty:        sess.Dirty(),
		ClipCount:    clipCount,
	}
}

// StatusFilePath is where the monitor writes its snapshots.
func (s *Service) StatusFilePath() string {
	return filepath.Join(s.deps.StatusDir, "status.json")
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug().Msg("Starting status monitor goroutine")

		statusFile, err := os.Create(s.StatusFilePath())
		if err != nil {
			logger.Error().Err(err).Msg("Error creating status file")
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(s.deps.Interval)

				if s.deps.Session.Closed() {
					return
				}

				status := s.Snapshot()
				statusJSON, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					logger.Error().Err(err).Msg("Error marshalling status")
					continue
				}

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(statusJSON)
					statusFile.WriteString("\n")
				}

				if s.deps.Telemetry != nil {
					ctx, cancel := context.WithTimeout(context.Background(), s.deps.Interval)
					err = s.deps.Telemetry.RecordDocumentStats(ctx, s.deps.Session.Document())
					cancel()
					if err != nil {
						logger.Debug().Err(err).Msg("Error recording session stats")
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
