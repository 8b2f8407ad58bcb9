package agentcli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neuroplastio/neio-draw/internal/touchsvc"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(t.TempDir())
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecode(t *testing.T) {
	out, err := execute(t, "", "decode", "[1, 2, 2, 0, 0, 3, 2, 10, 3, 0.5, 0.25, 12, 3, 0.75, 0.5]")
	require.NoError(t, err)

	var view eventView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "MOVE", view.Action)
	assert.Equal(t, 12.0, view.EventTime)
	require.Len(t, view.Pointers, 1)
	assert.Equal(t, 3, view.Pointers[0].ID)
	require.Len(t, view.Pointers[0].Samples, 2)
	assert.Equal(t, map[string]float64{"x": 0.5, "y": 0.25}, view.Pointers[0].Samples[0].Axes)
}

func TestDecodeStdinYAML(t *testing.T) {
	out, err := execute(t, "[1, 1, 0, 0, 0, 3, 2, 10, 3, 0.5, 0.25]\n", "decode", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "action: DOWN")
}

func TestDecodeRejectsBadFrame(t *testing.T) {
	_, err := execute(t, "", "decode", "[17, 1, 0, 0, 0]")
	assert.ErrorIs(t, err, motion.ErrProtocol)
}

func TestScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stroke.gesture")
	require.NoError(t, os.WriteFile(path, []byte("down 1 0 0\nmove 1 1 0\nwait 20ms\nmove 1 2 0\nup 1\n"), 0644))

	out, err := execute(t, "", "script", path)
	require.NoError(t, err)
	var strokes []touchsvc.Stroke
	require.NoError(t, json.Unmarshal([]byte(out), &strokes))
	require.Len(t, strokes, 1)
	assert.Equal(t, []touchsvc.Point{{X: 0, Y: 0, Time: 0}, {X: 1, Y: 0, Time: 0}, {X: 2, Y: 0, Time: 20}}, strokes[0].Points)

	out, err = execute(t, "", "script", "--frames", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	var frame motion.Frame
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &frame))
	assert.Equal(t, motion.Frame{1, 1, float64(motion.ActionDown), 0, 0, 1, float64(motion.ToolTypeFinger), 0, 0}, frame, "zero axes are not stored")
}
