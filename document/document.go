// Package document implements the document body: a block tree rooted at
// a page, a children index keyed by an opaque children_id, and an
// external text index keyed by a block's external_id. It is built
// directly on a *collab.Object's root map.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/crdt"
	"github.com/collabkit/collab/internal/idgen"
	"github.com/collabkit/collab/pkg/schema"
)

const (
	rootKey         = "document"
	pageIDKey       = "page_id"
	blocksKey       = "blocks"
	metaKey         = "meta"
	childrenMapKey  = "children_map"
	textMapKey      = "text_map"
	PageBlockType   = "page"
	defaultTextType = "paragraph"
)

// Block mirrors one entry of the blocks map: {id, ty, parent, children,
// data, external_id?, external_type?}.
type Block struct {
	ID           string         `json:"id"`
	Type         string         `json:"ty"`
	Parent       string         `json:"parent"`
	Children     string         `json:"children"`
	Data         map[string]any `json:"data"`
	ExternalID   string         `json:"external_id,omitempty"`
	ExternalType string         `json:"external_type,omitempty"`
}

// Document is the typed body over a collab.Object's root map.
type Document struct {
	obj         *collab.Object
	root        *schema.MapExt
	blocks      *crdt.Map
	meta        *schema.MapExt
	childrenMap *crdt.Map
	textMap     *crdt.Map
}

// New creates the default document: a single page block with one empty
// paragraph child, matching the fixture every teacher test builds
// before exercising block operations.
func New(obj *collab.Object, clock collab.Clock) (*Document, error) {
	d := &Document{obj: obj}
	pageID := idgen.New()
	pageChildrenID := idgen.New()
	firstTextID := idgen.New()
	firstTextChildrenID := idgen.New()
	firstTextExternalID := idgen.New()

	err := obj.Transact(func(txn *collab.WriteTxn) error {
		root := obj.Root().SetMap(txn.Inner(), rootKey)
		root.Set(txn.Inner(), pageIDKey, pageID)
		blocks := root.SetMap(txn.Inner(), blocksKey)
		meta := root.SetMap(txn.Inner(), metaKey)
		childrenMap := meta.SetMap(txn.Inner(), childrenMapKey)
		textMap := meta.SetMap(txn.Inner(), textMapKey)

		setBlock(txn, blocks, Block{ID: pageID, Type: PageBlockType, Parent: "", Children: pageChildrenID, Data: map[string]any{}})
		setBlock(txn, blocks, Block{ID: firstTextID, Type: defaultTextType, Parent: pageID, Children: firstTextChildrenID, Data: map[string]any{}, ExternalID: firstTextExternalID, ExternalType: "text"})

		setChildren(txn, childrenMap, pageChildrenID, []string{firstTextID})
		setChildren(txn, childrenMap, firstTextChildrenID, []string{})
		textMap.Set(txn.Inner(), firstTextExternalID, "[]")

		d.root = ref(root)
		d.blocks = blocks
		d.meta = ref(meta)
		d.childrenMap = childrenMap
		d.textMap = textMap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Open adapts an already-populated Object (decoded from bytes) as a
// Document, validating its required roots exist.
func Open(obj *collab.Object) (*Document, error) {
	root, ok := obj.Root().GetMap(rootKey)
	if !ok {
		return nil, collab.MissingRequiredData("document")
	}
	blocks, ok := root.GetMap(blocksKey)
	if !ok {
		return nil, collab.MissingRequiredData("document.blocks")
	}
	meta, ok := root.GetMap(metaKey)
	if !ok {
		return nil, collab.MissingRequiredData("document.meta")
	}
	childrenMap, ok := meta.GetMap(childrenMapKey)
	if !ok {
		return nil, collab.MissingRequiredData("document.meta.children_map")
	}
	textMap, ok := meta.GetMap(textMapKey)
	if !ok {
		textMap = nil
	}
	if _, ok := root.Get(pageIDKey); !ok {
		return nil, collab.MissingRequiredData("document.page_id")
	}
	return &Document{
		obj:         obj,
		root:        ref(root),
		blocks:      blocks,
		meta:        ref(meta),
		childrenMap: childrenMap,
		textMap:     textMap,
	}, nil
}

func ref(m *crdt.Map) *schema.MapExt {
	e := schema.Ext(m)
	return &e
}

// PageID returns the root block's id.
func (d *Document) PageID() string {
	return d.root.GetString(pageIDKey)
}

// GetBlock returns the block stored at id.
func (d *Document) GetBlock(id string) (Block, bool) {
	m, ok := d.blocks.GetMap(id)
	if !ok {
		return Block{}, false
	}
	return blockFromMap(m), true
}

// GetChildren returns the ordered block ids listed under childrenID.
func (d *Document) GetChildren(childrenID string) []string {
	arr, ok := d.childrenMap.GetArray(childrenID)
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for _, v := range arr.Values() {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetBlockChildren is a convenience wrapper resolving block.Children to
// the actual child Blocks.
func (d *Document) GetBlockChildren(blockID string) []Block {
	b, ok := d.GetBlock(blockID)
	if !ok {
		return nil
	}
	var out []Block
	for _, id := range d.GetChildren(b.Children) {
		if child, ok := d.GetBlock(id); ok {
			out = append(out, child)
		}
	}
	return out
}

// GetTextDelta returns the delta JSON for externalID. Before any edit
// goes through ApplyTextDelta, the entry is the literal leaf string
// written at block creation time ("[]" for an empty text); once an edit
// has landed, the entry is a live crdt.Text and this serializes its
// current contents as a single-op delta.
func (d *Document) GetTextDelta(externalID string) (string, bool) {
	if d.textMap == nil {
		return "", false
	}
	if s, ok := d.textMap.GetOptString(externalID); ok {
		return s, true
	}
	if text, ok := d.textMap.GetText(externalID); ok {
		return textToDeltaJSON(text.String()), true
	}
	return "", false
}

func textToDeltaJSON(s string) string {
	if s == "" {
		return "[]"
	}
	b, err := json.Marshal([]textOp{{Insert: s}})
	if err != nil {
		return "[]"
	}
	return string(b)
}

func blockFromMap(m *crdt.Map) Block {
	e := schema.Ext(m)
	b := Block{
		ID:       e.GetString("id"),
		Type:     e.GetString("ty"),
		Parent:   e.GetString("parent"),
		Children: e.GetString("children"),
	}
	if v, ok := m.Get("data"); ok {
		if dm, ok := v.(map[string]any); ok {
			b.Data = dm
		}
	}
	if b.Data == nil {
		b.Data = map[string]any{}
	}
	b.ExternalID, _ = e.GetOptString("external_id")
	b.ExternalType, _ = e.GetOptString("external_type")
	return b
}

func setBlock(txn *collab.WriteTxn, blocks *crdt.Map, b Block) {
	child := blocks.SetMap(txn.Inner(), b.ID)
	child.Set(txn.Inner(), "id", b.ID)
	child.Set(txn.Inner(), "ty", b.Type)
	child.Set(txn.Inner(), "parent", b.Parent)
	child.Set(txn.Inner(), "children", b.Children)
	if b.Data == nil {
		b.Data = map[string]any{}
	}
	child.Set(txn.Inner(), "data", b.Data)
	if b.ExternalID != "" {
		child.Set(txn.Inner(), "external_id", b.ExternalID)
	}
	if b.ExternalType != "" {
		child.Set(txn.Inner(), "external_type", b.ExternalType)
	}
}

func setChildren(txn *collab.WriteTxn, childrenMap *crdt.Map, childrenID string, ids []string) {
	arr := childrenMap.SetArray(txn.Inner(), childrenID)
	for i, id := range ids {
		arr.Insert(txn.Inner(), i, id)
	}
}

func (d *Document) indexOf(childrenID, blockID string) int {
	for i, id := range d.GetChildren(childrenID) {
		if id == blockID {
			return i
		}
	}
	return -1
}

var errParentNotFound = fmt.Errorf("%w", collab.ErrParentNotFound)
var errCycleDetected = fmt.Errorf("%w", collab.ErrCycleDetected)
