package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cscript/internal/common"
	"github.com/ternarybob/cscript/internal/models"
)

type recordingDriver struct {
	sources []string
	outs    []string
}

func (d *recordingDriver) Build(_ context.Context, cSource, outPath string, _ bool) error {
	d.sources = append(d.sources, cSource)
	d.outs = append(d.outs, outPath)
	return nil
}

func (d *recordingDriver) RunWithEnv(_ context.Context, _, _, _ string) (int, error) {
	return 0, nil
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileEndToEnd(t *testing.T) {
	src := `@out "demo.out"
@opt O1
enum! Color { RED, BLUE }
fn main_loop(int n) -> int => n + 1;
int main(void) { return main_loop(41); }
`
	path := writeSource(t, "demo.csc", src)

	cfg := common.NewDefaultConfig()
	driver := &recordingDriver{}
	svc := NewService(cfg, driver, arbor.NewLogger())

	out, err := svc.Compile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "demo.out", out)
	assert.Equal(t, "O1", cfg.Build.Opt)

	require.Len(t, driver.sources, 1)
	built := driver.sources[0]
	assert.Contains(t, built, "typedef enum Color")
	assert.Contains(t, built, "static inline int main_loop")
	assert.Contains(t, built, "#include <stdio.h>")
}

func TestCompileDefaultOutputName(t *testing.T) {
	path := writeSource(t, "widget.csc", "int main(void) { return 0; }\n")

	cfg := common.NewDefaultConfig()
	driver := &recordingDriver{}
	svc := NewService(cfg, driver, arbor.NewLogger())

	out, err := svc.Compile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, []string{"widget.out", "widget.exe"}, out)
}

func TestCompileMissingFile(t *testing.T) {
	cfg := common.NewDefaultConfig()
	svc := NewService(cfg, &recordingDriver{}, arbor.NewLogger())

	_, err := svc.Compile(context.Background(), filepath.Join(t.TempDir(), "nope.csc"))
	require.Error(t, err)
	assert.Equal(t, models.ExitCompileError, models.ExitCodeOf(err))
}

func TestCompileRejectsInvalidDirectiveValue(t *testing.T) {
	path := writeSource(t, "bad.csc", "@opt warp9\nint main(void) { return 0; }\n")

	cfg := common.NewDefaultConfig()
	svc := NewService(cfg, &recordingDriver{}, arbor.NewLogger())

	_, err := svc.Compile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Opt")
}

func TestCompileSurfacesExhaustivenessError(t *testing.T) {
	src := `enum! Color { RED, BLUE }
CS_SWITCH_EXHAUSTIVE(Color, c)
CS_CASE(RED); break;
CS_SWITCH_END(Color, c);
`
	path := writeSource(t, "gap.csc", src)

	cfg := common.NewDefaultConfig()
	driver := &recordingDriver{}
	svc := NewService(cfg, driver, arbor.NewLogger())

	_, err := svc.Compile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BLUE")
	assert.Empty(t, driver.sources)
}
