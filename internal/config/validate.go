package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be >= 1 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be between 0 and max_conns (got %d)", c.Database.MinConns)
	}

	if err := c.Workflow.validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	return nil
}

func (w *WorkflowConfig) validate() error {
	if w.MaxStatesPerDesk < 1 {
		return fmt.Errorf("max_states_per_desk must be >= 1 (got %d)", w.MaxStatesPerDesk)
	}
	if w.MaxTransitionsPerDesk < 1 {
		return fmt.Errorf("max_transitions_per_desk must be >= 1 (got %d)", w.MaxTransitionsPerDesk)
	}
	return nil
}
