package collab

// DataSource is how a caller tells Open where an Object's bytes come
// from. The core never touches disk or network itself; it only applies
// bytes handed to it.
type DataSource struct {
	// DocState is the encoded doc state to apply as an update before any
	// plugin or observer is attached. Nil/empty means "start empty".
	DocState []byte
}

// RequiredDataValidator is implemented by each typed body (document,
// folder, database, row) to assert its mandatory root keys exist after
// decode. Object.Open calls it once, right after applying DocState.
type RequiredDataValidator interface {
	ValidateRequiredData() error
}

// OpenWithSource decodes a DataSource into a fresh Object, then runs
// validate against it. Body packages call this from their own
// Open<Body> constructors, passing a validator built from the just
// opened typed root.
func OpenWithSource(src DataSource, origin Origin, objectID string, clientID uint64, opts Options, validate func(*Object) RequiredDataValidator) (*Object, error) {
	o, err := Open(src.DocState, origin, objectID, clientID, opts)
	if err != nil {
		return nil, err
	}
	if validate == nil {
		return o, nil
	}
	if v := validate(o); v != nil {
		if err := v.ValidateRequiredData(); err != nil {
			return nil, err
		}
	}
	return o, nil
}
