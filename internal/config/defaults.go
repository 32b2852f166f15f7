package config

import "time"

// DefaultConfigDir is where config and the run-history database live.
const DefaultConfigDir = "~/.config/perfadvisor"

// DefaultDBName is the SQLite run-history database filename.
const DefaultDBName = "perfadvisor.db"

// DefaultStageTimeout bounds each analyzer stage.
const DefaultStageTimeout = 2 * time.Minute

// DefaultProbeTimeout bounds each per-host HTTP call.
const DefaultProbeTimeout = 10 * time.Second

// DefaultTopN is the size of the report's top recommendation list.
const DefaultTopN = 5

// DefaultCodeThresholds are the heuristics limits for the code analyzer.
var DefaultCodeThresholds = CodeThresholds{
	ComplexityWarn:             10,
	ComplexityHigh:             20,
	HotFunctionSeconds:         0.1,
	HotFunctionCriticalSeconds: 1.0,
}

// DefaultDatabaseThresholds are the heuristic limits for the database
// analyzer.
var DefaultDatabaseThresholds = DatabaseThresholds{
	SlowQueryMs:     100,
	CriticalQueryMs: 1000,
}

// DefaultInfraThresholds are the heuristic limits for the infrastructure
// analyzer.
var DefaultInfraThresholds = InfraThresholds{
	CPUWarn:     80,
	CPUCritical: 90,
	MemWarn:     85,
	MemCritical: 95,
}
