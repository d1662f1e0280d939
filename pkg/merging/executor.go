package merging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hackkalot/crm-prestadores-sub002/pkg/matching"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/metrics"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/models"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/reqcontext"
	"github.com/hackkalot/crm-prestadores-sub002/pkg/tracing"
)

// ProviderStore is the registry access the executor needs. Get returns
// nil, nil when the record does not exist.
type ProviderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ProviderRecord, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields models.CanonicalFields) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditStore appends merge entries to a provider's history.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// MergeNotifier publishes merge lifecycle events downstream. Emission is
// best-effort: failures are logged and never fail a merge.
type MergeNotifier interface {
	ProviderMerged(ctx context.Context, result models.MergeResult, matchType models.MatchType, actor string)
}

// ExecutorConfig contains configuration for the merge executor
type ExecutorConfig struct {
	// ChunkSize bounds how many survivor groups the bulk path runs
	// concurrently. It caps load on the backing store; changing it never
	// changes results.
	ChunkSize int
}

// DefaultExecutorConfig returns default executor configuration
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{ChunkSize: 5}
}

// Executor runs merges end to end: plan, write canonical fields, migrate
// relationships, audit, then delete the source strictly last.
type Executor struct {
	logger    ectologger.Logger
	planner   *Planner
	migrator  *Migrator
	scanner   *matching.Scanner
	providers ProviderStore
	audits    AuditStore
	notifier  MergeNotifier
	config    ExecutorConfig
}

// NewExecutor creates a new merge executor
func NewExecutor(
	logger ectologger.Logger,
	planner *Planner,
	migrator *Migrator,
	scanner *matching.Scanner,
	providers ProviderStore,
	audits AuditStore,
	notifier MergeNotifier,
	config ExecutorConfig,
) *Executor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultExecutorConfig().ChunkSize
	}
	return &Executor{
		logger:    logger,
		planner:   planner,
		migrator:  migrator,
		scanner:   scanner,
		providers: providers,
		audits:    audits,
		notifier:  notifier,
		config:    config,
	}
}

// Merge performs one reviewed pair merge: record A survives, record B is
// folded in and removed. Requires an acting user for audit attribution.
func (e *Executor) Merge(ctx context.Context, aID, bID uuid.UUID, selection models.FieldSelection) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Executor.Merge")
	defer span.End()

	start := time.Now()

	actor := reqcontext.GetUserID(ctx)
	if actor == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "merge requires an acting user")
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"target_id": aID,
		"source_id": bID,
		"actor":     actor,
	})

	recordA, err := e.providers.Get(ctx, aID)
	if err != nil {
		return nil, err
	}
	recordB, err := e.providers.Get(ctx, bID)
	if err != nil {
		return nil, err
	}
	if recordA == nil || recordB == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "one or both merge records no longer exist")
	}

	fields := e.planner.PlanInteractive(*recordA, *recordB, selection)

	if err := e.providers.UpdateFields(ctx, recordA.ID, fields); err != nil {
		metrics.RecordMerge("interactive", "failure", time.Since(start).Seconds())
		return nil, err
	}

	if err := e.migrator.Migrate(ctx, recordA.ID, recordB.ID); err != nil {
		log.WithError(err).Error("Relationship migration failed; source record left in place for manual follow-up")
		metrics.RecordMerge("interactive", "failure", time.Since(start).Seconds())
		return nil, err
	}

	snapshot, _ := json.Marshal(recordB)
	rationale, _ := json.Marshal(selection)
	entry := &models.AuditEntry{
		ProviderID:  recordA.ID,
		EventType:   models.AuditEventProviderMerged,
		Description: fmt.Sprintf("Merged duplicate provider %q (%s) into this record", recordB.Name, recordB.Email),
		OldValue:    snapshot,
		NewValue:    rationale,
		Actor:       actor,
	}
	if err := e.audits.Append(ctx, entry); err != nil {
		metrics.RecordMerge("interactive", "failure", time.Since(start).Seconds())
		return nil, err
	}

	// Deletion is strictly last: every relation update and the audit write
	// have already succeeded.
	if err := e.providers.Delete(ctx, recordB.ID); err != nil {
		metrics.RecordMerge("interactive", "failure", time.Since(start).Seconds())
		return nil, err
	}

	result := models.MergeResult{SurvivorID: recordA.ID, RemovedID: recordB.ID}

	if e.notifier != nil {
		// Match type is unknown on the reviewed path; the reviewer may be
		// merging a pair from any group.
		e.notifier.ProviderMerged(ctx, result, "", actor)
	}

	metrics.RecordMerge("interactive", "success", time.Since(start).Seconds())
	log.Info("Merged duplicate provider")

	return &result, nil
}

// QuickMergeExactDuplicates scans the registry, plans automatic merges for
// every exact-match group (fuzzy name groups are skipped; they require human
// review), and executes the operations in bounded concurrent chunks.
func (e *Executor) QuickMergeExactDuplicates(ctx context.Context) (*models.BulkMergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Executor.QuickMergeExactDuplicates")
	defer span.End()

	actor := reqcontext.GetUserID(ctx)
	if actor == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "merge requires an acting user")
	}

	scan, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	operations := make([]models.MergeOperation, 0)
	for _, group := range scan.Groups {
		if !group.MatchType.Exact() {
			continue
		}
		groupOps, err := e.planner.PlanAutomatic(group)
		if err != nil {
			return nil, err
		}
		operations = append(operations, groupOps...)
	}

	return e.ExecuteBulk(ctx, operations, actor), nil
}

// ExecuteBulk runs prepared merge operations. Operations sharing a survivor
// fold cumulative field snapshots into the same target and read its workflow
// card state, so they execute sequentially in plan order; concurrency is only
// across survivors, in fixed-size chunks. Failures are isolated per operation
// and tallied; a failed operation never aborts its siblings and is never
// retried here.
func (e *Executor) ExecuteBulk(ctx context.Context, operations []models.MergeOperation, actor string) *models.BulkMergeResult {
	ctx, span := tracing.StartSpan(ctx, "merging.Executor.ExecuteBulk")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"operation_count": len(operations),
		"chunk_size":      e.config.ChunkSize,
	})

	groups := groupByTarget(operations)

	result := &models.BulkMergeResult{}
	var mu sync.Mutex

	for chunkStart := 0; chunkStart < len(groups); chunkStart += e.config.ChunkSize {
		chunkEnd := min(chunkStart+e.config.ChunkSize, len(groups))
		chunk := groups[chunkStart:chunkEnd]

		var wg sync.WaitGroup
		for _, groupOps := range chunk {
			wg.Add(1)
			go func(groupOps []models.MergeOperation) {
				defer wg.Done()

				for _, operation := range groupOps {
					start := time.Now()
					err := e.executeOperation(ctx, operation, actor)

					mu.Lock()
					if err != nil {
						result.FailedCount++
					} else {
						result.MergedCount++
					}
					mu.Unlock()

					if err != nil {
						e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
							"target_id": operation.TargetID,
							"source_id": operation.SourceID,
						}).Error("Bulk merge operation failed")
						metrics.RecordMerge("bulk", "failure", time.Since(start).Seconds())
						continue
					}
					metrics.RecordMerge("bulk", "success", time.Since(start).Seconds())

					if e.notifier != nil {
						e.notifier.ProviderMerged(ctx, models.MergeResult{
							SurvivorID: operation.TargetID,
							RemovedID:  operation.SourceID,
						}, operation.MatchType, actor)
					}
				}
			}(groupOps)
		}
		wg.Wait()
	}

	log.WithFields(map[string]any{
		"merged_count": result.MergedCount,
		"failed_count": result.FailedCount,
	}).Info("Bulk merge complete")

	return result
}

// groupByTarget partitions operations by survivor, preserving plan order both
// across groups and within each group.
func groupByTarget(operations []models.MergeOperation) [][]models.MergeOperation {
	groups := make([][]models.MergeOperation, 0)
	index := make(map[uuid.UUID]int)

	for _, operation := range operations {
		i, ok := index[operation.TargetID]
		if !ok {
			i = len(groups)
			index[operation.TargetID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], operation)
	}

	return groups
}

// executeOperation folds one source record into its survivor: canonical
// field update, parallel relation migration, the sequential card step, then
// the audit write and source deletion concurrently as the final step.
func (e *Executor) executeOperation(ctx context.Context, operation models.MergeOperation, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "merging.Executor.executeOperation")
	defer span.End()

	if err := e.providers.UpdateFields(ctx, operation.TargetID, operation.Fields); err != nil {
		return err
	}

	if err := e.migrator.MigrateRelations(ctx, operation.TargetID, operation.SourceID); err != nil {
		return err
	}
	if err := e.migrator.MigrateCard(ctx, operation.TargetID, operation.SourceID); err != nil {
		return err
	}

	snapshot, _ := json.Marshal(map[string]any{
		"id":    operation.SourceID,
		"name":  operation.SourceName,
		"email": operation.SourceEmail,
	})
	rationale, _ := json.Marshal(map[string]any{"match_type": operation.MatchType})

	entry := &models.AuditEntry{
		ProviderID:  operation.TargetID,
		EventType:   models.AuditEventProviderMerged,
		Description: fmt.Sprintf("Merged duplicate provider %q (%s) into this record", operation.SourceName, operation.SourceEmail),
		OldValue:    snapshot,
		NewValue:    rationale,
		Actor:       actor,
	}

	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := e.audits.Append(ctx, entry); err != nil {
			errChan <- err
		}
	}()
	go func() {
		defer wg.Done()
		if err := e.providers.Delete(ctx, operation.SourceID); err != nil {
			errChan <- err
		}
	}()
	wg.Wait()
	close(errChan)

	return <-errChan
}
