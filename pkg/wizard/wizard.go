package wizard

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/models"
)

// State identifies a step of the ingestion wizard.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StatePreviewing   State = "previewing"
	StatePreviewReady State = "preview_ready"
	StateTableChosen  State = "table_chosen"
	StateMapped       State = "mapped"
	StateSubmitting   State = "submitting"
	StateDone         State = "done"
)

// Wizard drives one file-ingestion run: select file, preview, choose a
// destination, map columns, submit. All per-run state (file, preview,
// mapping, result) is owned by the Wizard instance and reset together.
//
// A Wizard is not safe for concurrent use; operations are serialized by
// the caller. The busy guard rejects re-entrant calls issued while a
// network operation is in flight.
type Wizard struct {
	client  *Client
	catalog *TableCatalog
	logger  *zap.Logger

	state State
	busy  bool

	fileName string
	preview  *models.PreviewData
	table    *models.TableDescriptor
	mapping  *MappingBuilder
	newTable *NewTableBuilder
	result   *models.IngestionResult
	lastErr  error
}

// New creates a wizard in the Idle state.
func New(client *Client, logger *zap.Logger) *Wizard {
	return &Wizard{
		client:  client,
		catalog: NewTableCatalog(client, logger),
		logger:  logger,
		state:   StateIdle,
	}
}

// State returns the wizard's current state.
func (w *Wizard) State() State { return w.state }

// Err returns the error recorded by the last failed operation.
func (w *Wizard) Err() error { return w.lastErr }

// Catalog returns the wizard's table catalog.
func (w *Wizard) Catalog() *TableCatalog { return w.catalog }

// Preview returns the preview received for the selected file.
func (w *Wizard) Preview() *models.PreviewData { return w.preview }

// Mapping returns the mapping builder, present after choosing an existing
// table.
func (w *Wizard) Mapping() *MappingBuilder { return w.mapping }

// NewTable returns the new-table builder, present after choosing to create
// a table.
func (w *Wizard) NewTable() *NewTableBuilder { return w.newTable }

// Result returns the ingestion result after a successful submission.
func (w *Wizard) Result() *models.IngestionResult { return w.result }

// RefreshCatalog updates the table catalog. A failure keeps the prior
// catalog and does not disturb the wizard's state.
func (w *Wizard) RefreshCatalog(ctx context.Context) {
	w.catalog.Refresh(ctx)
}

// SelectFile validates the file locally and requests a preview. Selecting
// a file discards all state derived from any previous one. A validation
// failure leaves the wizard Idle without touching the network; a preview
// failure fully resets the wizard, so recovery starts over with a fresh
// file.
func (w *Wizard) SelectFile(ctx context.Context, info FileInfo, file io.Reader) error {
	if w.busy {
		return ErrBusy
	}
	w.reset()

	if err := ValidateFile(info); err != nil {
		w.lastErr = err
		return err
	}
	w.state = StateFileSelected
	w.fileName = info.Name

	w.state = StatePreviewing
	w.busy = true
	preview, err := w.client.Preview(ctx, info.Name, file)
	w.busy = false
	if err != nil {
		w.logger.Warn("Preview failed", zap.String("file", info.Name), zap.Error(err))
		w.reset()
		w.lastErr = err
		return err
	}

	w.preview = preview
	w.state = StatePreviewReady
	return nil
}

// canChooseTable reports whether a destination may be picked or changed:
// only once a preview is ready and before a submission completes. Done in
// particular is final; a finished run is restarted via Clear or a new file.
func (w *Wizard) canChooseTable() bool {
	return w.state == StatePreviewReady || w.state == StateTableChosen || w.state == StateMapped
}

// ChooseExistingTable selects a destination table from the catalog and
// starts an empty column mapping for it.
func (w *Wizard) ChooseExistingTable(key string) error {
	if w.busy {
		return ErrBusy
	}
	if !w.canChooseTable() {
		return ErrInvalidTransition
	}
	desc, ok := w.catalog.Get(key)
	if !ok {
		return ErrUnknownTable
	}

	w.table = &desc
	w.mapping = NewMappingBuilder(desc, w.preview)
	w.newTable = nil
	w.state = StateTableChosen
	return nil
}

// ChooseCreateNew switches to new-table mode, seeding one column
// definition per preview column.
func (w *Wizard) ChooseCreateNew() error {
	if w.busy {
		return ErrBusy
	}
	if !w.canChooseTable() {
		return ErrInvalidTransition
	}

	w.table = nil
	w.mapping = nil
	w.newTable = NewNewTableBuilder(w.preview)
	w.state = StateTableChosen
	return nil
}

// ChooseNone unselects the destination, keeping the preview.
func (w *Wizard) ChooseNone() error {
	if w.busy {
		return ErrBusy
	}
	if !w.canChooseTable() {
		return ErrInvalidTransition
	}

	w.table = nil
	w.mapping = nil
	w.newTable = nil
	w.state = StatePreviewReady
	return nil
}

// ConfirmMapping validates the active mapping or new-table definition.
// On success the wizard is ready to submit; a validation failure keeps
// the wizard at TableChosen and reports every problem at once.
func (w *Wizard) ConfirmMapping() error {
	if w.busy {
		return ErrBusy
	}
	if w.state != StateTableChosen && w.state != StateMapped {
		return ErrInvalidTransition
	}

	var err error
	switch {
	case w.mapping != nil:
		err = w.mapping.Validate()
	case w.newTable != nil:
		err = w.newTable.Validate()
	default:
		return ErrInvalidTransition
	}
	if err != nil {
		w.lastErr = err
		return err
	}

	w.state = StateMapped
	return nil
}

// Submit posts one ingestion request with the given rows. Exactly one of
// the column mapping and the new-table definition is active, fixed by the
// table choice. A failed submission returns the wizard to Mapped with the
// mapping and preview retained, so it can be resubmitted without
// re-uploading; only Clear or selecting a new file discards them.
func (w *Wizard) Submit(ctx context.Context, rows []map[string]string) (*models.IngestionResult, error) {
	if w.busy {
		return nil, ErrBusy
	}
	if w.state != StateMapped {
		return nil, ErrInvalidTransition
	}

	payload := &insertPayload{Data: rows}
	switch {
	case w.mapping != nil:
		payload.TableName = w.table.Name
		payload.ColumnMapping = w.mapping.Mapping()
	case w.newTable != nil:
		payload.TableName = w.newTable.TableName
		payload.ColumnMapping = w.newTable.IdentityMapping()
		payload.CreateNewTable = true
		payload.NewTableInfo = w.newTable.Spec()
	default:
		return nil, ErrInvalidTransition
	}

	w.state = StateSubmitting
	w.busy = true
	result, err := w.client.Insert(ctx, payload)
	w.busy = false
	if err != nil {
		w.logger.Warn("Insertion failed", zap.String("table", payload.TableName), zap.Error(err))
		w.state = StateMapped
		w.lastErr = err
		return nil, err
	}

	w.result = result
	w.state = StateDone
	return result, nil
}

// Clear fully resets the wizard to Idle. Allowed from any state except
// while a network operation is in flight.
func (w *Wizard) Clear() error {
	if w.busy {
		return ErrBusy
	}
	w.reset()
	return nil
}

// reset discards all per-run state. The table catalog survives; it is not
// derived from the selected file.
func (w *Wizard) reset() {
	w.state = StateIdle
	w.fileName = ""
	w.preview = nil
	w.table = nil
	w.mapping = nil
	w.newTable = nil
	w.result = nil
	w.lastErr = nil
}
