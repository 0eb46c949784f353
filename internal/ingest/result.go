package ingest

// ErrorKind classifies a per-file failure. Each kind maps to a quarantine
// destination; none of them aborts the batch.
type ErrorKind string

const (
	// ErrorKindNoSKUMatch covers filenames that do not parse or candidates
	// that are not canonically shaped.
	ErrorKindNoSKUMatch ErrorKind = "no_sku_match"

	// ErrorKindProductNotFound covers a well-shaped SKU no product resolves to.
	ErrorKindProductNotFound ErrorKind = "product_not_found"

	// ErrorKindTransport covers download and remote-call failures. The file is
	// left in the source folder so the next run can retry it.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindCorruptImage covers files the decoder rejects or that fail the
	// structural checks.
	ErrorKindCorruptImage ErrorKind = "corrupt_image"

	// ErrorKindPersistence covers failures while writing the database rows or
	// blobs for a file. The transaction is rolled back before quarantining.
	ErrorKindPersistence ErrorKind = "persistence"
)

// fileResult is the per-file outcome the orchestrator routes on.
type fileResult struct {
	sku       string
	kind      ErrorKind
	duplicate bool
	message   string
	err       error
}

func (r fileResult) success() bool {
	return r.kind == ""
}

// moveable reports whether the remote file should be reparented after this
// outcome. Transport failures leave the file in place for a retry.
func (r fileResult) moveable() bool {
	return r.kind != ErrorKindTransport
}
