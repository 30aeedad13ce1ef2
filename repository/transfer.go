package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/codec"
	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// DefaultBatchSize is the number of rows per insert statement during import.
const DefaultBatchSize = 100

// Snapshot is the content of the six business tables, as written to export files.
type Snapshot struct {
	Version     string             `json:"version"`
	ExportedAt  time.Time          `json:"exportedAt"`
	Properties  []models.Property  `json:"properties"`
	Tenants     []models.Tenant    `json:"tenants"`
	Leases      []models.Lease     `json:"leases"`
	Rents       []models.Rent      `json:"rents"`
	Documents   []DocumentRecord   `json:"documents"`
	Inventories []models.Inventory `json:"inventories"`
}

// DocumentRecord is a document with its payload encoded as a data URL. A nil Data
// stands for a payload that could not be serialized.
type DocumentRecord struct {
	models.Document
	Data *string `json:"data"`
}

func newDocumentRecord(d models.Document) DocumentRecord {
	rec := DocumentRecord{Document: d}
	if d.Data != nil {
		encoded := codec.EncodeDataURL(d.MimeType, d.Data)
		rec.Data = &encoded
	}
	rec.Document.Data = nil
	return rec
}

// decode returns the document with its payload restored.
func (r DocumentRecord) decode() (models.Document, error) {
	doc := r.Document
	doc.Data = nil
	if r.Data == nil {
		return doc, nil
	}
	mimeType, data, err := codec.DecodeDataURL(*r.Data)
	if err != nil {
		return doc, fmt.Errorf("document %d: %w", r.ID, err)
	}
	if doc.MimeType == "" {
		doc.MimeType = mimeType
	}
	doc.Data = data
	doc.Size = int64(len(data))
	return doc, nil
}

// Transfer exports, clears and imports the business tables.
type Transfer struct {
	st        *store.Store
	batchSize int
	log       logrus.FieldLogger
}

func NewTransfer(st *store.Store, batchSize int) *Transfer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Transfer{st: st, batchSize: batchSize, log: st.Logger()}
}

// ExportSnapshot reads the business tables one after the other. The reads do not
// share a transaction, so a write landing between two of them shows in one table and
// not the other.
func (t *Transfer) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	version, err := t.st.Migrations().CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	db := t.st.DB(ctx)

	snap := &Snapshot{Version: strconv.Itoa(version), ExportedAt: time.Now().UTC()}
	if snap.Properties, err = readTable[models.Property](db, "properties"); err != nil {
		return nil, err
	}
	if snap.Tenants, err = readTable[models.Tenant](db, "tenants"); err != nil {
		return nil, err
	}
	if snap.Leases, err = readTable[models.Lease](db, "leases"); err != nil {
		return nil, err
	}
	if snap.Rents, err = readTable[models.Rent](db, "rents"); err != nil {
		return nil, err
	}
	documents, err := readTable[models.Document](db, "documents")
	if err != nil {
		return nil, err
	}
	snap.Documents = make([]DocumentRecord, 0, len(documents))
	for _, d := range documents {
		snap.Documents = append(snap.Documents, newDocumentRecord(d))
	}
	if snap.Inventories, err = readTable[models.Inventory](db, "inventories"); err != nil {
		return nil, err
	}
	return snap, nil
}

func readTable[T any](db *gorm.DB, table string) ([]T, error) {
	rows := make([]T, 0)
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, &errdefs.StorageError{Op: "export", Table: table, Err: err}
	}
	return rows, nil
}

// ClearAll empties the business tables in one transaction.
func (t *Transfer) ClearAll(ctx context.Context) error {
	err := t.st.Transaction(ctx, func(tx *gorm.DB) error {
		return clearTables(tx, "clear")
	})
	if err == nil {
		t.log.Info("business tables cleared")
	}
	return err
}

// clearTables deletes every row of the business tables, dependents first.
func clearTables(tx *gorm.DB, op string) error {
	tables := models.BusinessTables()
	for n := len(tables) - 1; n >= 0; n-- {
		table := tables[n]
		model := reflect.New(reflect.TypeOf(models.ModelTypeRegistry[table])).Interface()
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
		if err != nil {
			return &errdefs.StorageError{Op: op, Table: table, Err: err}
		}
	}
	return nil
}

// ImportSnapshot replaces the business tables with the snapshot content. Rows are
// validated first; then, in one transaction, every table is cleared and the rows are
// inserted with their primary keys. Any failure leaves the store as it was.
// Once the transaction is committing, cancelling ctx no longer undoes it.
func (t *Transfer) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return &errdefs.ImportFormatError{Reason: "empty snapshot"}
	}
	rows, err := prepareSnapshot(snap)
	if err != nil {
		return err
	}

	err = t.st.Transaction(ctx, func(tx *gorm.DB) error {
		if err := clearTables(tx, "import"); err != nil {
			return err
		}
		if err := insertRows(tx, "properties", rows.properties, t.batchSize); err != nil {
			return err
		}
		if err := insertRows(tx, "tenants", rows.tenants, t.batchSize); err != nil {
			return err
		}
		if err := insertRows(tx, "leases", rows.leases, t.batchSize); err != nil {
			return err
		}
		if err := insertRows(tx, "rents", rows.rents, t.batchSize); err != nil {
			return err
		}
		if err := insertRows(tx, "documents", rows.documents, t.batchSize); err != nil {
			return err
		}
		return insertRows(tx, "inventories", rows.inventories, t.batchSize)
	})
	if err != nil {
		t.log.WithError(err).Error("import rolled back")
		return err
	}

	t.log.WithFields(logrus.Fields{
		"version":     snap.Version,
		"properties":  len(rows.properties),
		"tenants":     len(rows.tenants),
		"leases":      len(rows.leases),
		"rents":       len(rows.rents),
		"documents":   len(rows.documents),
		"inventories": len(rows.inventories),
	}).Info("snapshot imported")
	return nil
}

func insertRows[T any](tx *gorm.DB, table string, rows []T, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
		return &errdefs.StorageError{Op: "import", Table: table, Err: err}
	}
	return nil
}

type snapshotRows struct {
	properties  []models.Property
	tenants     []models.Tenant
	leases      []models.Lease
	rents       []models.Rent
	documents   []models.Document
	inventories []models.Inventory
}

// prepareSnapshot validates the row shapes and decodes document payloads into copies
// of the snapshot rows; snap is left as it was. Missing references between rows are
// not checked: a snapshot is restored as it was taken.
func prepareSnapshot(snap *Snapshot) (*snapshotRows, error) {
	rows := &snapshotRows{
		properties:  slices.Clone(snap.Properties),
		tenants:     slices.Clone(snap.Tenants),
		leases:      slices.Clone(snap.Leases),
		rents:       slices.Clone(snap.Rents),
		inventories: slices.Clone(snap.Inventories),
	}

	for n := range rows.properties {
		p := &rows.properties[n]
		if p.Photos == nil {
			p.Photos = []uint{}
		}
		if !p.Status.Valid() {
			return nil, rowError("properties", n, errdefs.Invalid("status", "unknown property status %q", p.Status))
		}
	}
	for n := range rows.tenants {
		if !rows.tenants[n].Status.Valid() {
			return nil, rowError("tenants", n, errdefs.Invalid("status", "unknown tenant status %q", rows.tenants[n].Status))
		}
	}
	for n := range rows.leases {
		l := &rows.leases[n]
		if l.TenantIDs == nil {
			l.TenantIDs = []uint{}
		}
		if err := l.Validate(); err != nil {
			return nil, rowError("leases", n, err)
		}
	}
	for n := range rows.rents {
		if !rows.rents[n].Status.Valid() {
			return nil, rowError("rents", n, errdefs.Invalid("status", "unknown rent status %q", rows.rents[n].Status))
		}
	}
	rows.documents = make([]models.Document, 0, len(snap.Documents))
	for n, rec := range snap.Documents {
		doc, err := rec.decode()
		if err != nil {
			return nil, rowError("documents", n, err)
		}
		rows.documents = append(rows.documents, doc)
	}
	for n := range rows.inventories {
		inv := &rows.inventories[n]
		if inv.Photos == nil {
			inv.Photos = []uint{}
		}
		if !inv.Type.Valid() {
			return nil, rowError("inventories", n, errdefs.Invalid("type", "unknown inventory type %q", inv.Type))
		}
	}
	return rows, nil
}

func rowError(table string, n int, err error) error {
	return fmt.Errorf("%s row %d: %w", table, n, err)
}

// WriteSnapshot writes snap as an indented JSON export file.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses an export file. The version field is required and may be a
// string or a number; unknown fields are ignored and missing arrays read as empty.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &errdefs.ImportFormatError{Reason: "cannot read file", Err: err}
	}

	var header struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, &errdefs.ImportFormatError{Reason: "not a JSON object", Err: err}
	}
	version, err := parseVersion(header.Version)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&struct {
		*Snapshot
		Version json.RawMessage `json:"version"`
	}{Snapshot: &snap}); err != nil {
		return nil, &errdefs.ImportFormatError{Reason: "rows do not match the export format", Err: err}
	}
	snap.Version = version
	return &snap, nil
}

func parseVersion(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", &errdefs.ImportFormatError{Reason: "missing version"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", &errdefs.ImportFormatError{Reason: "missing version"}
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", &errdefs.ImportFormatError{Reason: "version must be a string or a number", Err: err}
	}
	return n.String(), nil
}
