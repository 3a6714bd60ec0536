package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mintwatch/internal/folder"
	"mintwatch/internal/logging"
	"mintwatch/internal/mint"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/services"
	"mintwatch/internal/upload"
)

// run drives a claimed folder to a terminal state.
func (c *Controller) run(ctx context.Context, path string) (*mintlog.Record, error) {
	name := filepath.Base(path)
	runID := uuid.NewString()
	c.setRequestID(path, runID)
	ctx = services.WithRequestID(services.WithFolder(ctx, name), runID)
	started := c.now()

	state := StateLoading
	var partial upload.Result
	fail := func(err error) (*mintlog.Record, error) {
		c.fail(ctx, path, state, partial, err)
		return nil, err
	}
	step := func(next State) error {
		if err := c.advance(path, next); err != nil {
			return services.Wrap(nil, string(state), "transition", "", err)
		}
		state = next
		return nil
	}
	stateCtx := func() context.Context { return services.WithState(ctx, string(state)) }

	logging.WithContext(stateCtx(), c.logger).Info("folder processing started",
		logging.String(logging.FieldEventType, "folder_started"),
	)

	contents, err := c.loader.Load(stateCtx(), path)
	if err != nil {
		return fail(err)
	}
	logging.WithContext(stateCtx(), c.logger).Info("folder loaded",
		logging.String("media_file", contents.Media.Name),
		logging.Size("media_size", contents.Media.Size()),
	)

	if err := step(StateValidating); err != nil {
		return fail(err)
	}
	if err := folder.Validate(contents.Metadata); err != nil {
		return fail(err)
	}

	if err := step(StateUploading); err != nil {
		return fail(err)
	}
	partial, err = c.uploads.Run(stateCtx(), contents.Media, contents.Metadata)
	if err != nil {
		return fail(err)
	}

	if err := step(StateMinting); err != nil {
		return fail(err)
	}
	req, receipt, err := c.orchestrator.Mint(stateCtx(), contents.Metadata, partial.MetadataURI)
	if err != nil {
		return fail(err)
	}

	return c.complete(ctx, path, partial, req, receipt, started), nil
}

// complete records a successful mint, then marks and archives the folder.
// Marker or archive failures count as errors but never undo the mint.
func (c *Controller) complete(ctx context.Context, path string, uploaded upload.Result, req mint.Request, receipt mint.Receipt, started time.Time) *mintlog.Record {
	name := filepath.Base(path)
	c.ledger.Remember(name)
	ctx = services.WithState(ctx, string(StateCompleted))
	logger := logging.WithContext(ctx, c.logger)

	txURL, mintURL := mint.ExplorerURLs(c.cluster, receipt.Signature, receipt.MintAddress)
	rec := &mintlog.Record{
		Folder:      name,
		Name:        req.Name,
		Symbol:      req.Symbol,
		MintAddress: receipt.MintAddress,
		Signature:   receipt.Signature,
		MediaURI:    uploaded.MediaURI,
		MetadataURI: uploaded.MetadataURI,
		ExplorerURL: txURL,
		MintURL:     mintURL,
		Network:     c.cluster,
		MintedAt:    c.now().UTC(),
	}
	if c.store != nil {
		saved, err := c.store.Append(ctx, *rec)
		if err != nil {
			logging.ErrorWithContext(logger, "failed to record minted asset", "mint_log_failed",
				logging.Error(err),
				logging.String("mint_address", receipt.MintAddress),
				logging.String(logging.FieldErrorHint, "the asset is minted; note the mint address from this log line"),
				logging.Alert("mint_log_write"),
			)
		} else {
			rec = saved
		}
	}

	c.mu.Lock()
	c.stats.TotalMinted++
	c.minted = append(c.minted, rec)
	c.mu.Unlock()

	archived := ""
	completionErr := c.ledger.MarkDone(path)
	if completionErr == nil {
		archived, completionErr = c.ledger.Archive(path)
	}

	c.mu.Lock()
	if completionErr != nil {
		c.stats.Errors++
		c.lastErr = completionErr
	} else {
		c.stats.TotalProcessed++
	}
	c.mu.Unlock()

	if err := c.advance(path, StateCompleted); err != nil {
		logger.Debug("task already released", logging.Error(err))
	}

	if completionErr != nil {
		logging.ErrorWithContext(logger, "minted folder could not be completed", "folder_completion_failed",
			logging.Error(completionErr),
			logging.String(logging.FieldErrorKind, services.Kind(completionErr)),
			logging.String(logging.FieldErrorHint, services.Hint(completionErr)),
			logging.String(logging.FieldImpact, "folder stays in the inbox but will not be minted again by this process"),
			logging.String("mint_address", receipt.MintAddress),
			logging.Alert("completion_after_mint"),
		)
	} else {
		logger.Info("folder minted",
			logging.String(logging.FieldEventType, "folder_minted"),
			logging.String("name", rec.Name),
			logging.String("mint_address", rec.MintAddress),
			logging.String("signature", rec.Signature),
			logging.String("explorer_url", rec.ExplorerURL),
			logging.String("archived_to", archived),
			logging.Duration("elapsed", c.now().Sub(started)),
		)
	}

	if err := c.notifier.NotifyMinted(ctx, rec); err != nil {
		logging.WarnWithContext(logger, "minted notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ntfy topic configuration"),
			logging.String(logging.FieldImpact, "no push notification for this mint"),
		)
	}
	return rec
}

// fail releases the task after an error in state. The folder is left as is.
func (c *Controller) fail(ctx context.Context, path string, state State, partial upload.Result, err error) {
	name := filepath.Base(path)
	if advErr := c.advance(path, StateFailed); advErr != nil {
		c.mu.Lock()
		delete(c.tasks, path)
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.stats.Errors++
	c.lastErr = err
	c.mu.Unlock()

	ctx = services.WithState(ctx, string(state))
	logger := logging.WithContext(ctx, c.logger)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.String(logging.FieldImpact, "folder left in the inbox; a new file event retries it"),
	}
	if partial.MediaURI != "" {
		attrs = append(attrs, logging.String("media_uri", partial.MediaURI))
	}
	if partial.MetadataURI != "" {
		attrs = append(attrs, logging.String("metadata_uri", partial.MetadataURI))
	}
	logging.ErrorWithContext(logger, fmt.Sprintf("folder failed while %s", state), "folder_failed", attrs...)

	if c.store != nil {
		if _, storeErr := c.store.RecordFailure(ctx, mintlog.Failure{
			Folder:      name,
			State:       string(state),
			Kind:        services.Kind(err),
			Message:     err.Error(),
			MediaURI:    partial.MediaURI,
			MetadataURI: partial.MetadataURI,
		}); storeErr != nil {
			logging.WarnWithContext(logger, "failed to journal folder failure", "failure_journal_failed",
				logging.Error(storeErr),
				logging.String(logging.FieldErrorHint, "check the state directory"),
				logging.String(logging.FieldImpact, "failure missing from `mintwatch failures`"),
			)
		}
	}

	if notifyErr := c.notifier.NotifyFolderFailed(ctx, name, string(state), err); notifyErr != nil {
		logging.WarnWithContext(logger, "failure notification failed", "notification_failed",
			logging.Error(notifyErr),
			logging.String(logging.FieldErrorHint, "check ntfy topic configuration"),
			logging.String(logging.FieldImpact, "no push notification for this failure"),
		)
	}
}
