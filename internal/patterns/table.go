package patterns

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// FailurePattern describes one known failure mode the hypothesis generator
// can match symptoms against.
type FailurePattern struct {
	ID             string   `yaml:"id"`
	Title          string   `yaml:"title"`
	Symptoms       []string `yaml:"symptoms"`
	Weight         float64  `yaml:"weight"`
	RiskMultiplier float64  `yaml:"riskMultiplier"`
	// Critical marks patterns whose selection always yields CRITICAL urgency.
	Critical bool `yaml:"critical"`
	// HighImpact marks patterns that escalate to HIGH urgency on strong scores.
	HighImpact     bool     `yaml:"highImpact"`
	RequiredChecks []string `yaml:"requiredChecks"`
}

// packFile is the YAML root structure for external pattern packs.
type packFile struct {
	Patterns []FailurePattern `yaml:"patterns"`
}

// Table holds the active failure-pattern set in a stable order.
type Table struct {
	patterns []FailurePattern
	byID     map[string]int
	logger   *slog.Logger
}

// defaultRiskMultiplier applies to patterns outside the table.
const defaultRiskMultiplier = 0.8

// NewTable loads the pattern table. An empty path yields the compiled-in
// defaults; a missing file falls back to them as well.
func NewTable(path string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := defaultPatterns()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			logger.Warn("pattern pack not found, using defaults", "path", path)
		} else {
			var pack packFile
			if err := yaml.Unmarshal(data, &pack); err != nil {
				return nil, err
			}
			if len(pack.Patterns) > 0 {
				entries = pack.Patterns
			}
		}
	}

	table := &Table{
		patterns: entries,
		byID:     make(map[string]int, len(entries)),
		logger:   logger,
	}
	for i := range entries {
		if entries[i].RiskMultiplier == 0 {
			entries[i].RiskMultiplier = 1.0
		}
		table.byID[entries[i].ID] = i
	}
	return table, nil
}

// Patterns returns the pattern set in table order.
func (t *Table) Patterns() []FailurePattern {
	return t.patterns
}

// Get returns the pattern for id.
func (t *Table) Get(id string) (FailurePattern, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return FailurePattern{}, false
	}
	return t.patterns[idx], true
}

// RiskMultiplier returns the decision-score risk weight for a pattern.
func (t *Table) RiskMultiplier(id string) float64 {
	if p, ok := t.Get(id); ok {
		return p.RiskMultiplier
	}
	return defaultRiskMultiplier
}

// ApplyOutcomes reweights patterns from recorded triage outcomes. Patterns
// with at least minObservations recorded hits have their match weight scaled
// by observed success rate, clamped to [0.5, 1.0].
func (t *Table) ApplyOutcomes(stats map[string]OutcomeStats) {
	const minObservations = 5

	for id, s := range stats {
		idx, ok := t.byID[id]
		if !ok || s.Hits < minObservations {
			continue
		}
		rate := float64(s.Successes) / float64(s.Hits)
		adjusted := t.patterns[idx].Weight * (0.8 + 0.4*rate)
		if adjusted < 0.5 {
			adjusted = 0.5
		}
		if adjusted > 1.0 {
			adjusted = 1.0
		}
		t.patterns[idx].Weight = adjusted
		t.logger.Debug("pattern weight adjusted",
			"pattern", id, "hits", s.Hits, "success_rate", rate, "weight", adjusted)
	}
}

func defaultPatterns() []FailurePattern {
	return []FailurePattern{
		{
			ID:             "TABLESPACE_EXHAUSTION",
			Title:          "Tablespace space exhaustion causing allocation failures",
			Symptoms:       []string{"ORA-1653", "ORA-1652", "ORA-1654", "tablespace", "storage full", "cannot extend"},
			Weight:         1.0,
			RiskMultiplier: 1.2,
			HighImpact:     true,
			RequiredChecks: []string{
				"SELECT tablespace_name, ROUND((used_space/max_size)*100,2) pct FROM DBA_TABLESPACE_USAGE_METRICS",
				"Check datafile autoextend: DBA_DATA_FILES",
				"Identify largest segments: DBA_SEGMENTS ORDER BY bytes DESC",
			},
		},
		{
			ID:             "UNDO_PRESSURE",
			Title:          "Undo tablespace pressure causing transaction failures",
			Symptoms:       []string{"ORA-1555", "ORA-30036", "snapshot too old", "undo", "rollback"},
			Weight:         0.95,
			RiskMultiplier: 1.0,
			RequiredChecks: []string{
				"SELECT * FROM V$UNDOSTAT ORDER BY BEGIN_TIME DESC",
				"Check UNDO_RETENTION parameter",
				"Identify long-running transactions",
			},
		},
		{
			ID:             "MEMORY_EXHAUSTION",
			Title:          "Shared pool/PGA memory exhaustion",
			Symptoms:       []string{"ORA-4031", "shared pool", "memory", "pga", "sga", "cannot allocate"},
			Weight:         0.9,
			RiskMultiplier: 1.2,
			HighImpact:     true,
			RequiredChecks: []string{
				"SELECT * FROM V$SHARED_POOL_ADVICE",
				"SELECT * FROM V$PGA_TARGET_ADVICE",
				"Check V$LIBRARYCACHE for reloads",
			},
		},
		{
			ID:             "INTERNAL_ERROR",
			Title:          "Oracle internal bug or memory corruption",
			Symptoms:       []string{"ORA-600", "ORA-7445", "internal error", "kernel"},
			Weight:         1.0,
			RiskMultiplier: 1.5,
			Critical:       true,
			RequiredChecks: []string{
				"Extract error arguments from alert log",
				"Search My Oracle Support (MOS) for bug ID",
				"Check Oracle patch level",
			},
		},
		{
			ID:             "NETWORK_ISSUE",
			Title:          "Network/listener connectivity problems",
			Symptoms:       []string{"ORA-12170", "ORA-12154", "TNS", "listener", "connection", "timeout", "network"},
			Weight:         0.85,
			RiskMultiplier: 1.1,
			HighImpact:     true,
			RequiredChecks: []string{
				"lsnrctl status",
				"tnsping <service_name>",
				"Check listener.log for errors",
			},
		},
		{
			ID:             "DATAGUARD_LAG",
			Title:          "Data Guard synchronization lag",
			Symptoms:       []string{"apply lag", "standby", "data guard", "replication", "sync"},
			Weight:         0.9,
			RiskMultiplier: 1.3,
			Critical:       true,
			RequiredChecks: []string{
				"DGMGRL> SHOW CONFIGURATION",
				"SELECT * FROM V$DATAGUARD_STATS",
				"Check network bandwidth to standby",
			},
		},
		{
			ID:             "CPU_SATURATION",
			Title:          "CPU resource saturation",
			Symptoms:       []string{"cpu", "load", "runaway", "parallel", "resource"},
			Weight:         0.8,
			RiskMultiplier: 1.0,
			RequiredChecks: []string{
				"Check V$SESSION for high CPU sessions",
				"Review V$SQL for high CPU queries",
				"Check Resource Manager configuration",
			},
		},
		{
			ID:             "LOCK_CONTENTION",
			Title:          "Database lock contention",
			Symptoms:       []string{"enqueue", "lock", "blocked", "deadlock", "waiting", "ORA-60"},
			Weight:         0.85,
			RiskMultiplier: 1.0,
			RequiredChecks: []string{
				"SELECT * FROM V$LOCK WHERE BLOCK=1",
				"Check DBA_BLOCKERS view",
				"Review V$SESSION_WAIT for lock waits",
			},
		},
		{
			ID:             "IO_BOTTLENECK",
			Title:          "Storage I/O performance bottleneck",
			Symptoms:       []string{"i/o", "disk", "read", "write", "latency", "storage"},
			Weight:         0.75,
			RiskMultiplier: 1.0,
			RequiredChecks: []string{
				"Check V$FILESTAT for I/O distribution",
				"Review V$SYSTEM_EVENT for I/O waits",
				"Check ASM disk group performance",
			},
		},
		{
			ID:             "ARCHIVE_LOG_ISSUE",
			Title:          "Archive log destination space/accessibility",
			Symptoms:       []string{"archiver", "ORA-257", "archive", "FRA", "flash recovery"},
			Weight:         0.95,
			RiskMultiplier: 1.0,
			RequiredChecks: []string{
				"Check V$FLASH_RECOVERY_AREA_USAGE",
				"Verify archive destination space",
				"Check LOG_ARCHIVE_DEST status",
			},
		},
	}
}
