package encsearch

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// AddRecord validates fields, assigns the next id, and stores the encrypted
// record together with its equality token and keyword postings in one
// transaction. Either every write becomes visible or none does.
//
// Missing or malformed fields fail with a *ValidationError and nothing is written.
func (e *Engine) AddRecord(ctx context.Context, fields Fields) (int64, error) {
	release, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	rec, err := fields.toRecord()
	if err != nil {
		e.metrics.IngestFailures.WithLabelValues(failureReason(err)).Inc()
		return 0, err
	}

	var keywordCount int
	err = e.store.Update(ctx, func(tx Tx) error {
		id, err := tx.NextID(ctx)
		if err != nil {
			return fmt.Errorf("assigning id: %w", err)
		}
		rec.ID = id

		payload, err := encodeRecord(rec, e.config.compressionThreshold, e.config.compressionDisabled)
		if err != nil {
			return fmt.Errorf("serializing record %d: %w", id, err)
		}
		enc := EncryptedRecord{
			ID:            id,
			Ciphertext:    e.records.Encrypt(payload),
			EqualityToken: e.equality.Token(rec.Name),
		}
		if err := tx.Insert(ctx, enc); err != nil {
			return fmt.Errorf("inserting record %d: %w", id, err)
		}
		if err := tx.PutEquality(ctx, enc.EqualityToken, id); err != nil {
			return fmt.Errorf("indexing equality token of record %d: %w", id, err)
		}

		if e.config.verifyWrites {
			if err := e.verifyStored(ctx, tx, rec); err != nil {
				return err
			}
		}

		keywords := e.extractor.ExtractRecord(rec)
		plainID := []byte(strconv.FormatInt(id, 10))
		for _, kw := range keywords {
			// Fresh nonce per entry: entries for the same id stay unlinkable.
			if err := tx.PutKeyword(ctx, e.keywords.Token(kw), e.records.Encrypt(plainID)); err != nil {
				return fmt.Errorf("appending posting of record %d: %w", id, err)
			}
		}
		keywordCount = len(keywords)
		return nil
	})
	if err != nil {
		e.metrics.IngestFailures.WithLabelValues(failureReason(err)).Inc()
		e.logger.Error("add record failed", zap.Error(err))
		return 0, err
	}

	e.metrics.RecordsIngested.Inc()
	e.logger.Info("record added", zap.Int64("id", rec.ID), zap.Int("keywords", keywordCount))
	return rec.ID, nil
}

// verifyStored reads the staged record back and decrypts it. A failure here
// means the cipher or the storage layer is broken, so it aborts the transaction.
func (e *Engine) verifyStored(ctx context.Context, tx Tx, want Record) error {
	stored, err := tx.Get(ctx, want.ID)
	if err != nil {
		return fmt.Errorf("reading back record %d: %w", want.ID, err)
	}
	got, err := e.openRecord(stored)
	if err != nil {
		return fmt.Errorf("verifying record %d: %w", want.ID, err)
	}
	if got != want {
		return fmt.Errorf("verifying record %d: %w: round trip mismatch", want.ID, ErrIntegrity)
	}
	return nil
}
