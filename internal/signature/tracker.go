package signature

import (
	"time"
)

// Reduce collapses a document snapshot into a ConsolidatedStatus.
//
// A canceled document wins over everything. Otherwise a single canceled signer
// cancels the batch, and the document is completed only when every signer is
// COMPLETO. A document with no signers stays in progress.
func Reduce(doc *Document) ConsolidatedStatus {
	if doc == nil {
		return NotStarted
	}
	if doc.Estado == Cancelado {
		return Canceled
	}
	completed := 0
	for _, s := range doc.Signers {
		switch s.Estado {
		case Cancelado:
			return Canceled
		case Completo:
			completed++
		}
	}
	if len(doc.Signers) > 0 && completed == len(doc.Signers) {
		return Completed
	}
	return InProgress
}

// Ingest applies one signer update and returns the resulting document. The
// input document is left untouched.
//
// Updates are matched by signer id; an unknown id is a ProviderSyncError. For
// a known signer the update with the latest UpdatedAt wins, with ties broken by
// status precedence, so replaying the same set of updates in any order yields
// the same document. An update without UpdatedAt cannot be ordered: it is a
// no-op when it repeats the stored status and a ProviderSyncError otherwise.
func Ingest(doc *Document, update SignerStatus) (*Document, error) {
	if doc == nil {
		return nil, &ProviderSyncError{Kind: SyncNoDocument, SignerID: update.ID,
			Message: "signer update received before any document was issued"}
	}
	if !update.Estado.IsValid() {
		return nil, &ProviderSyncError{Kind: SyncUnmappedStatus, DocumentID: doc.ID, SignerID: update.ID,
			Status: string(update.Estado), Message: "signer status " + quote(string(update.Estado)) + " has no mapping"}
	}
	i := doc.signerIndex(update.ID)
	if i < 0 {
		return nil, &ProviderSyncError{Kind: SyncUnknownSigner, DocumentID: doc.ID, SignerID: update.ID,
			Message: "signer " + quote(update.ID) + " is not part of the document"}
	}

	out := doc.Clone()
	current := out.Signers[i]
	if update.UpdatedAt.IsZero() {
		if update.Estado == current.Estado {
			return out, nil
		}
		return nil, &ProviderSyncError{Kind: SyncMissingTimestamp, DocumentID: doc.ID, SignerID: update.ID,
			Status: string(update.Estado), Message: "signer update carries no timestamp"}
	}
	if !supersedes(update.UpdatedAt, update.Estado, current.UpdatedAt, current.Estado) {
		return out, nil
	}
	current.Estado = update.Estado
	current.UpdatedAt = update.UpdatedAt
	if update.Email != "" {
		current.Email = update.Email
	}
	if update.URL != "" {
		current.URL = update.URL
	}
	out.Signers[i] = current
	if update.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = update.UpdatedAt
	}
	return out, nil
}

// IngestAll folds a batch of updates. It stops at the first sync fault.
func IngestAll(doc *Document, updates []SignerStatus) (*Document, error) {
	out := doc
	for _, u := range updates {
		next, err := Ingest(out, u)
		if err != nil {
			return nil, err
		}
		out = next
	}
	if out == doc {
		out = doc.Clone()
	}
	return out, nil
}

// ApplyDocumentStatus sets the document-level status. A cancellation reason is
// only accepted together with CANCELADO, and a canceled document stays canceled.
func ApplyDocumentStatus(doc *Document, estado Estado, motivo string, at time.Time) (*Document, error) {
	if doc == nil {
		return nil, &ProviderSyncError{Kind: SyncNoDocument, Status: string(estado),
			Message: "document status received before any document was issued"}
	}
	if !estado.IsValid() {
		return nil, &ProviderSyncError{Kind: SyncUnmappedStatus, DocumentID: doc.ID, Status: string(estado),
			Message: "document status " + quote(string(estado)) + " has no mapping"}
	}
	if motivo != "" && estado != Cancelado {
		return nil, &ProviderSyncError{Kind: SyncInconsistentStatus, DocumentID: doc.ID, Status: string(estado),
			Message: "cancellation reason reported for a document that is not canceled"}
	}

	out := doc.Clone()
	if out.Estado == Cancelado {
		return out, nil
	}
	out.Estado = estado
	out.MotivoCancelacion = motivo
	if at.After(out.UpdatedAt) {
		out.UpdatedAt = at
	}
	return out, nil
}

// Merge folds a full provider snapshot of the same document into doc: the
// document-level status first, then every signer.
func Merge(doc *Document, snapshot *Document) (*Document, error) {
	if doc == nil {
		return nil, &ProviderSyncError{Kind: SyncNoDocument, Message: "snapshot received before any document was issued"}
	}
	if snapshot == nil {
		return doc.Clone(), nil
	}
	if snapshot.ID != doc.ID {
		return nil, &ProviderSyncError{Kind: SyncDocumentMismatch, DocumentID: doc.ID,
			Message: "snapshot belongs to document " + quote(snapshot.ID)}
	}
	out, err := ApplyDocumentStatus(doc, snapshot.Estado, snapshot.MotivoCancelacion, snapshot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Signers without their own timestamp are as fresh as the snapshot.
	signers := make([]SignerStatus, len(snapshot.Signers))
	for i, signer := range snapshot.Signers {
		if signer.UpdatedAt.IsZero() {
			signer.UpdatedAt = snapshot.UpdatedAt
		}
		signers[i] = signer
	}
	return IngestAll(out, signers)
}

func supersedes(at time.Time, estado Estado, currentAt time.Time, current Estado) bool {
	switch {
	case at.After(currentAt):
		return true
	case at.Before(currentAt):
		return false
	}
	return estado.rank() > current.rank()
}
