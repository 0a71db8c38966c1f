package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/gridduel/benchmarks/common"
)

func TestRunCommandMergesConfigAndFlags(t *testing.T) {
	flags = common.DefaultFlags()
	dir := t.TempDir()
	config := filepath.Join(dir, "duel.yaml")
	require.NoError(t, os.WriteFile(config, []byte("horizon: 7\ntrain-episodes: 50\nplot: false\n"), 0644))

	root := RootCommand()
	root.SetArgs([]string{
		"run",
		"--config", config,
		"--train-episodes", "3",
		"--test-episodes", "1",
		"--save-path", dir,
		"--log-level", "error",
	})
	require.NoError(t, root.Execute())

	assert.Equal(t, 7, flags.Horizon)
	assert.Equal(t, 3, flags.TrainEpisodes)
	assert.False(t, flags.Plot)
	assert.NotZero(t, flags.Seed)

	_, err := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "0", "outcomes.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "0", "rewards.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCommandRejectsInvalidGrid(t *testing.T) {
	flags = common.DefaultFlags()
	root := RootCommand()
	root.SetArgs([]string{"run", "--grid-size", "4", "--save-path", t.TempDir()})
	root.SilenceErrors = true
	assert.Error(t, root.Execute())
}

func TestProgressRaisesLogLevel(t *testing.T) {
	f := common.DefaultFlags()
	assert.Equal(t, "info", logLevel(f))

	f.Progress = true
	assert.Equal(t, "warn", logLevel(f))
	f.LogLevel = "debug"
	assert.Equal(t, "warn", logLevel(f))
	f.LogLevel = "error"
	assert.Equal(t, "error", logLevel(f))
}
