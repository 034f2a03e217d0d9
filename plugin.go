package collab

// Plugin observes the lifecycle of an Object. Plugins are shared,
// reentrancy-safe collaborators (e.g. a persistence layer writing update
// bytes to disk) rather than part of the CRDT state itself.
type Plugin interface {
	// Init receives the object id and a write transaction. Object does
	// not call Init: AddPlugin only registers the plugin.
	Init(objectID string, txn *WriteTxn)
	// DidInit receives the object id. Object does not call DidInit
	// either.
	DidInit(objectID string)
	// ReceiveUpdate runs after every applied update, local or remote.
	ReceiveUpdate(objectID string, origin Origin, update []byte)
	// ReceiveLocalUpdate runs only when the update's origin is the
	// Object's own local origin.
	ReceiveLocalUpdate(origin Origin, objectID string, update []byte)
	// AfterTransaction runs after every committed transaction,
	// regardless of origin.
	AfterTransaction(objectID string, origin Origin)
}

// NoopPlugin is embeddable by plugins that only care about a subset of
// the lifecycle hooks.
type NoopPlugin struct{}

func (NoopPlugin) Init(string, *WriteTxn)                 {}
func (NoopPlugin) DidInit(string)                          {}
func (NoopPlugin) ReceiveUpdate(string, Origin, []byte)    {}
func (NoopPlugin) ReceiveLocalUpdate(Origin, string, []byte) {}
func (NoopPlugin) AfterTransaction(string, Origin)         {}
