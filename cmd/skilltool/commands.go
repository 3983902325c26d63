package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skillforge/timeline/internal/api"
	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/logging"
	"github.com/skillforge/timeline/internal/monitor"
	"github.com/skillforge/timeline/internal/preview"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/internal/storage"
	"github.com/skillforge/timeline/internal/track"
	"github.com/skillforge/timeline/pkg/core"

	"github.com/spf13/viper"
)

func runCommand(command string, args []string) error {
	switch command {
	case "list":
		return listDocuments()
	case "new":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool new <skill> [maxFrame]")
		}
		maxFrame := viper.GetInt("timeline.defaultMaxFrame")
		if len(args) > 1 {
			parsed, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid max frame %q: %w", args[1], err)
			}
			maxFrame = parsed
		}
		return newDocument(args[0], maxFrame)
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool show <skill>")
		}
		return showDocument(args[0])
	case "validate":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool validate <skill>")
		}
		return validateDocument(args[0])
	case "export":
		if len(args) < 2 {
			return fmt.Errorf("usage: skilltool export <skill> <path>")
		}
		return exportDocument(args[0], args[1])
	case "import":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool import <path>")
		}
		return importDocument(args[0])
	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool delete <skill>")
		}
		return deleteDocument(args[0])
	case "preview":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool preview <skill>")
		}
		return previewDocument(args[0])
	case "publish":
		if len(args) < 1 {
			return fmt.Errorf("usage: skilltool publish <skill> [tag]")
		}
		tag := ""
		if len(args) > 1 {
			tag = args[1]
		}
		return publishDocument(args[0], tag)
	case "version":
		fmt.Printf("%s %s (built %s)\n", ToolName, ToolVersion, BuildDate)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func listDocuments() error {
	names, err := Backend.ListDocuments()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No skill documents stored.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func newDocument(skillName string, maxFrame int) error {
	if _, err := Backend.LoadDocument(skillName); err == nil {
		return fmt.Errorf("skill %q already exists", skillName)
	}
	doc := core.NewDocument(skillName, maxFrame)
	if err := Backend.SaveDocument(doc); err != nil {
		return err
	}
	recordStats(doc)
	Logger.Info().Str("skill", skillName).Int("maxFrame", maxFrame).Msg("Created skill document")
	fmt.Printf("Created %q with %d frames.\n", skillName, maxFrame)
	return nil
}

func showDocument(skillName string) error {
	doc, err := Backend.LoadDocument(skillName)
	if err != nil {
		return err
	}

	fmt.Printf("%s (maxFrame %d)\n", doc.SkillName, doc.MaxFrame)

	b, err := bus.New(logging.NewBusLogger(Logger))
	if err != nil {
		return err
	}
	sess, err := session.New(doc, b)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	registry := track.NewRegistry(sess, Logger)
	for _, info := range registry.Tracks() {
		state := "on"
		if !info.Enabled {
			state = "off"
		}
		fmt.Printf("  %s[%d] (%s): %d clips\n", info.Type, info.TrackIndex, state, info.ClipCount)
	}
	doc.EachClip(func(t core.TrackType, trackIndex int, c *core.Clip) {
		fmt.Printf("    %s[%d] %q frames %d-%d\n", t, trackIndex, c.Name, c.StartFrame, c.EndFrame())
	})
	return nil
}

func validateDocument(skillName string) error {
	doc, err := Backend.LoadDocument(skillName)
	if err != nil {
		return err
	}
	issues := doc.Validate()
	if len(issues) == 0 {
		fmt.Printf("%q is valid.\n", skillName)
		return nil
	}
	for _, issue := range issues {
		fmt.Println(issue.String())
	}
	return fmt.Errorf("%d validation issues in %q", len(issues), skillName)
}

func exportDocument(skillName, path string) error {
	exporter, ok := Backend.(storage.Exportable)
	if !ok {
		return fmt.Errorf("storage backend %q does not support export", viper.GetString("storage.type"))
	}
	doc, err := Backend.LoadDocument(skillName)
	if err != nil {
		return err
	}
	if err := exporter.ExportDocument(doc, path); err != nil {
		return err
	}
	fmt.Printf("Exported %q to %s.\n", skillName, path)
	return nil
}

func importDocument(path string) error {
	importer, ok := Backend.(storage.Exportable)
	if !ok {
		return fmt.Errorf("storage backend %q does not support import", viper.GetString("storage.type"))
	}
	doc, err := importer.ImportDocument(path)
	if err != nil {
		return err
	}
	if err := Backend.SaveDocument(doc); err != nil {
		return err
	}
	recordStats(doc)
	Logger.Info().Str("skill", doc.SkillName).Str("path", path).Msg("Imported skill document")
	fmt.Printf("Imported %q from %s.\n", doc.SkillName, path)
	return nil
}

func deleteDocument(skillName string) error {
	if err := Backend.DeleteDocument(skillName); err != nil {
		return err
	}
	Logger.Info().Str("skill", skillName).Msg("Deleted skill document")
	fmt.Printf("Deleted %q.\n", skillName)
	return nil
}

// previewDocument opens the document against the preview server and plays it
// through once at the configured frame rate.
func previewDocument(skillName string) error {
	if !viper.GetBool("preview.enabled") {
		return fmt.Errorf("preview is disabled, set preview.enabled in skilltool.cfg.json")
	}

	doc, err := Backend.LoadDocument(skillName)
	if err != nil {
		return err
	}

	b, err := bus.New(logging.NewBusLogger(Logger))
	if err != nil {
		return err
	}
	sess, err := session.New(doc, b)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if Telemetry != nil {
		sess.OnClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := Telemetry.RecordSessionStats(ctx, doc.SkillName, sess.Stats().Snapshot()); err != nil {
				Logger.Warn().Err(err).Msg("Failed to record session stats")
			}
		})
	}

	registry := track.NewRegistry(sess, Logger)
	registry.RefreshFromDocument()
	if Telemetry != nil {
		registry.SetRecorder(Telemetry)
	}

	bridge := preview.New(preview.Config{
		URL:    viper.GetString("preview.url"),
		Secret: viper.GetString("preview.secret"),
	}, sess, SLogger)
	if err := bridge.Open(); err != nil {
		return fmt.Errorf("failed to open preview connection: %w", err)
	}
	defer func() { _ = bridge.Close() }()

	statusMonitor := monitor.NewService(monitor.Dependencies{
		Session:   sess,
		Telemetry: Telemetry,
		StatusDir: viper.GetString("logsDir"),
		Logger:    Logger,
	})
	if err := statusMonitor.Start(); err != nil {
		Logger.Warn().Err(err).Msg("Failed to start status monitor")
	}
	defer statusMonitor.Stop()

	frameRate := viper.GetInt("preview.frameRate")
	if frameRate < 1 {
		frameRate = 30
	}
	interval := time.Second / time.Duration(frameRate)

	Logger.Info().Str("skill", skillName).Int("frameRate", frameRate).Msg("Playing preview")
	sess.SetCurrentFrame(0)
	sess.SetPlaying(true)
	for sess.State().Playing() {
		sess.Advance()
		time.Sleep(interval)
	}
	fmt.Printf("Played %q through frame %d.\n", skillName, sess.State().MaxFrame())
	return nil
}

// publishDocument exports the document to a compressed temp file and uploads
// it to the skill library server.
func publishDocument(skillName, tag string) error {
	exporter, ok := Backend.(storage.Exportable)
	if !ok {
		return fmt.Errorf("storage backend %q does not support export", viper.GetString("storage.type"))
	}
	doc, err := Backend.LoadDocument(skillName)
	if err != nil {
		return err
	}

	client := api.New(viper.GetString("library.url"), viper.GetString("library.secret"))
	if err := client.Healthcheck(); err != nil {
		return fmt.Errorf("skill library is unreachable: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "skilltool-publish")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	exportPath := filepath.Join(tmpDir, skillName+".skill.json.gz")
	if err := exporter.ExportDocument(doc, exportPath); err != nil {
		return err
	}

	clipCount := 0
	doc.EachClip(func(core.TrackType, int, *core.Clip) { clipCount++ })

	err = client.Publish(exportPath, api.PublishMetadata{
		SkillName: doc.SkillName,
		MaxFrame:  doc.MaxFrame,
		ClipCount: clipCount,
		Tag:       tag,
	})
	if err != nil {
		return err
	}
	Logger.Info().Str("skill", skillName).Str("tag", tag).Msg("Published skill document")
	fmt.Printf("Published %q to %s.\n", skillName, viper.GetString("library.url"))
	return nil
}

func recordStats(doc *core.Document) {
	if Telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Telemetry.RecordDocumentStats(ctx, doc); err != nil {
		Logger.Warn().Err(err).Msg("Failed to record document stats")
	}
}
