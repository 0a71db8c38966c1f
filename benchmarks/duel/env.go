package duel

import (
	"log/slog"
	"math/rand"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
)

// WorldConstructor builds a fresh grid world for every run. Used in
// comparisons, implements core.EnvironmentConstructor.
type WorldConstructor struct {
	config gridworld.Config
	logger *slog.Logger
}

var _ core.EnvironmentConstructor = &WorldConstructor{}

func NewWorldConstructor(config gridworld.Config, logger *slog.Logger) *WorldConstructor {
	return &WorldConstructor{
		config: config,
		logger: logger,
	}
}

func (w *WorldConstructor) NewEnvironment(run int, seed int64) (core.Environment, error) {
	world, err := gridworld.NewWorld(w.config, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	if w.logger != nil {
		world.SetLogger(w.logger.With("run", run))
	}
	return world, nil
}
