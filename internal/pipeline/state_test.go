package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_LastRunRoundTrip(t *testing.T) {
	store := NewStateStore(t.TempDir())

	in := LastRun{
		Status: "fail",
		Stages: []string{"install", "test"},
		Failed: []string{"test"},
		Warned: []string{"mutation"},
	}
	require.NoError(t, store.WriteLastRun(in))

	out, err := store.ReadLastRun()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestStateStore_MissingStateIsClean(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "never-written"))

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	res, err := store.ReadStage("install")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestStateStore_StageResultRoundTrip(t *testing.T) {
	store := NewStateStore(t.TempDir())

	in := StageResult{Stage: "coverage", Status: StatusFail, ExitCode: 3, Note: "boom"}
	require.NoError(t, store.WriteStageResult(in))

	out, err := store.ReadStage("coverage")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestStateStore_OverwritesPriorRun(t *testing.T) {
	store := NewStateStore(t.TempDir())

	require.NoError(t, store.WriteLastRun(LastRun{Status: "fail", Failed: []string{"gate"}}))
	require.NoError(t, store.WriteLastRun(LastRun{Status: "pass"}))

	out, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, "pass", out.Status)
	assert.Empty(t, out.Failed)
}

func TestStateStore_Reset(t *testing.T) {
	dir := t.TempDir()
	store := NewStateStore(dir)

	require.NoError(t, store.WriteLastRun(LastRun{Status: "pass"}))
	require.NoError(t, store.Reset())

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Nil(t, last)
}
