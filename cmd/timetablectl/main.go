package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// snapshot is the offline input file. YAML and JSON share the same keys.
type snapshot struct {
	Variant     models.TimetableVariant  `json:"variant"`
	Sessions    []models.Session         `json:"sessions"`
	Rooms       []models.Room            `json:"rooms"`
	TimeSlots   []models.TimeSlot        `json:"timeSlots"`
	WorkItems   []models.WorkItem        `json:"workItems"`
	Constraints *models.ConstraintConfig `json:"constraints"`
	Candidate   *models.Session          `json:"candidate"`
}

func loadSnapshot(path string) (*snapshot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("--input is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	// JSON is valid YAML, so both formats go through the YAML decoder and are
	// re-encoded as JSON to reuse the model json tags.
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(normalized, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func newEngine(verbose bool) (*service.TimetableService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logr := zap.NewNop()
	if verbose {
		cfg.Log.Format = "console"
		if logr, err = logger.New(cfg); err != nil {
			return nil, err
		}
	}
	return service.NewTimetableService(nil, nil, nil, nil, nil, nil, nil, logr, cfg.Timetable), nil
}

func writeJSON(cmd *cobra.Command, payload interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeFile(cmd *cobra.Command, file *dto.ExportFile) error {
	_, err := cmd.OutOrStdout().Write(file.Data)
	return err
}

func checkFormat(format string) error {
	switch format {
	case "json", "csv":
		return nil
	default:
		return fmt.Errorf("--format must be json or csv")
	}
}

func newRootCmd() *cobra.Command {
	var inputPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "timetablectl",
		Short:         "Run the timetable engine over a snapshot file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&inputPath, "input", "", "snapshot file (yaml or json)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log engine runs to stderr")

	root.AddCommand(newDetectCmd(&inputPath, &verbose))
	root.AddCommand(newValidateCmd(&inputPath, &verbose))
	root.AddCommand(newScheduleCmd(&inputPath, &verbose))
	root.AddCommand(newResolveAllCmd(&inputPath, &verbose))
	return root
}

func newDetectCmd(inputPath *string, verbose *bool) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Report every conflict in the snapshot sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			snap, err := loadSnapshot(*inputPath)
			if err != nil {
				return err
			}
			engine, err := newEngine(*verbose)
			if err != nil {
				return err
			}
			req := dto.DetectConflictsRequest{
				Sessions: snap.Sessions,
				Variant:  snap.Variant,
				Rooms:    snap.Rooms,
				Config:   snap.Constraints,
			}
			if format == "csv" {
				file, err := engine.ExportConflicts(context.Background(), req)
				if err != nil {
					return err
				}
				return writeFile(cmd, file)
			}
			out, err := engine.Detect(context.Background(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|csv")
	return cmd
}

func newValidateCmd(inputPath *string, verbose *bool) *cobra.Command {
	var candidateID string
	cmd := &cobra.Command{
		Use:   "validate [--candidate <id>]",
		Short: "Check whether a candidate session fits the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := loadSnapshot(*inputPath)
			if err != nil {
				return err
			}
			candidate, err := pickCandidate(snap, candidateID)
			if err != nil {
				return err
			}
			engine, err := newEngine(*verbose)
			if err != nil {
				return err
			}
			out, err := engine.Validate(context.Background(), dto.ValidateSessionRequest{
				Candidate: candidate,
				Existing:  snap.Sessions,
				ExcludeID: candidateID,
				Variant:   snap.Variant,
				Rooms:     snap.Rooms,
				Config:    snap.Constraints,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "id of a snapshot session to re-validate")
	return cmd
}

// pickCandidate returns the named session, or the snapshot candidate when no
// id is given.
func pickCandidate(snap *snapshot, id string) (models.Session, error) {
	if strings.TrimSpace(id) == "" {
		if snap.Candidate == nil {
			return models.Session{}, fmt.Errorf("--candidate is required when the snapshot has no candidate")
		}
		return *snap.Candidate, nil
	}
	for _, s := range snap.Sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Session{}, fmt.Errorf("session %q not found in snapshot", id)
}

func newScheduleCmd(inputPath *string, verbose *bool) *cobra.Command {
	var strategy, format string
	var seed int64
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Place the snapshot work items into time slots and rooms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			snap, err := loadSnapshot(*inputPath)
			if err != nil {
				return err
			}
			engine, err := newEngine(*verbose)
			if err != nil {
				return err
			}
			req := dto.ScheduleRequest{
				WorkItems: snap.WorkItems,
				TimeSlots: snap.TimeSlots,
				Rooms:     snap.Rooms,
				Existing:  snap.Sessions,
				Strategy:  strategy,
				Variant:   snap.Variant,
				Config:    snap.Constraints,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			out, err := engine.Schedule(context.Background(), req)
			if err != nil {
				return err
			}
			if format == "csv" {
				file, err := engine.ExportSessions(context.Background(), dto.ExportSessionsRequest{Sessions: out.Created})
				if err != nil {
					return err
				}
				return writeFile(cmd, file)
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "placement strategy: balanced|round_robin|random")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the random strategy")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|csv")
	return cmd
}

func newResolveAllCmd(inputPath *string, verbose *bool) *cobra.Command {
	var maxIterations int
	cmd := &cobra.Command{
		Use:   "resolve-all",
		Short: "Repair snapshot conflicts until none remain or no repair helps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if maxIterations < 0 {
				return fmt.Errorf("--max-iterations must not be negative")
			}
			snap, err := loadSnapshot(*inputPath)
			if err != nil {
				return err
			}
			engine, err := newEngine(*verbose)
			if err != nil {
				return err
			}
			out, err := engine.ResolveAll(context.Background(), dto.ResolveAllRequest{
				Sessions:      snap.Sessions,
				Rooms:         snap.Rooms,
				TimeSlots:     snap.TimeSlots,
				Variant:       snap.Variant,
				Config:        snap.Constraints,
				MaxIterations: maxIterations,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap (0 uses the configured default)")
	return cmd
}
