package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/serp-brief/internal/pipeline"
)

var (
	analyzeCorpusPath string
	analyzeKeyword    string
	analyzeTargetID   string
	analyzeJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a competitor corpus for a keyword",
	Long:  "Reads a corpus file of ranked competitor documents, runs extraction, aggregation, and synthesis, and prints the resulting content brief.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := loadRequest(analyzeCorpusPath)
		if err != nil {
			return err
		}
		if analyzeKeyword != "" {
			req.Keyword = analyzeKeyword
		}
		if analyzeTargetID != "" {
			req.TargetID = analyzeTargetID
		}
		if req.Keyword == "" {
			return eris.New("keyword is required (--keyword or corpus file)")
		}

		run, err := env.Store.CreateRun(ctx, req.Keyword)
		if err != nil {
			return err
		}

		brief, err := env.Pipeline.Run(ctx, *req)
		if err != nil {
			if ferr := env.Store.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				zap.L().Warn("failed to record run failure", zap.Error(ferr))
			}
			return eris.Wrap(err, "analyze")
		}

		if err := env.Store.CompleteRun(ctx, run.ID, brief); err != nil {
			zap.L().Warn("failed to persist brief", zap.Error(err))
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", run.ID),
			zap.String("keyword", req.Keyword),
			zap.Int("documents", brief.Documents),
			zap.Int("warnings", len(brief.Warnings)),
		)

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(brief)
		}
		fmt.Println(pipeline.RenderPayload(brief))
		return nil
	},
}

// loadRequest reads a corpus file. "-" reads from stdin.
func loadRequest(path string) (*pipeline.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read corpus %s", path)
	}

	var req pipeline.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, eris.Wrapf(err, "parse corpus %s", path)
	}
	if len(req.Documents) == 0 {
		return nil, eris.Errorf("corpus %s contains no documents", path)
	}
	return &req, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCorpusPath, "corpus", "", "path to corpus JSON file (- for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeKeyword, "keyword", "", "target keyword (overrides corpus file)")
	analyzeCmd.Flags().StringVar(&analyzeTargetID, "target", "", "target document id for gap analysis")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full brief as JSON")
	_ = analyzeCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(analyzeCmd)
}
