package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
	"github.com/ternarybob/cscript/internal/directives"
	"github.com/ternarybob/cscript/internal/interfaces"
	"github.com/ternarybob/cscript/internal/pgo"
)

// Service ties the front end together: it reads a .csc file, applies its
// directives on top of the loaded configuration and hands the body to the
// build orchestrator.
type Service struct {
	cfg    *common.Config
	driver interfaces.ToolchainDriver
	logger arbor.ILogger
}

func NewService(cfg *common.Config, driver interfaces.ToolchainDriver, logger arbor.ILogger) *Service {
	return &Service{cfg: cfg, driver: driver, logger: logger}
}

// Compile builds the source file at path and returns the path of the
// produced executable.
func (s *Service) Compile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	s.logger.Info().Str("input", path).Int("bytes", len(data)).Msg("Compiling source file")

	body := directives.Scan(string(data), s.cfg, s.logger)

	if s.cfg.Build.Out == "" {
		s.cfg.Build.Out = defaultOutputName(path)
	}
	if err := s.cfg.Validate(); err != nil {
		return "", err
	}

	orch := pgo.NewOrchestrator(s.cfg, s.driver, s.logger)
	return orch.Run(ctx, body)
}

// defaultOutputName derives the executable name from the input file when no
// @out directive or -o flag was given.
func defaultOutputName(input string) string {
	base := filepath.Base(input)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base + ".out"
}
