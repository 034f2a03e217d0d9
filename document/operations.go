package document

import (
	"encoding/json"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/internal/idgen"
)

// InsertBlock attaches block under block.Parent (defaulting to the page
// if Parent is empty): at the head of the parent's children array when
// prevID is empty, right after prevID when it is found there, and at the
// end when it is not. Mints the block's own children id if the caller
// didn't set one.
func (d *Document) InsertBlock(block Block, prevID string) (Block, error) {
	if block.Parent == "" {
		block.Parent = d.PageID()
	}
	if block.ID == "" {
		block.ID = idgen.New()
	}
	if block.Children == "" {
		block.Children = idgen.New()
	}

	parent, ok := d.GetBlock(block.Parent)
	if !ok {
		return Block{}, errParentNotFound
	}

	err := d.obj.Transact(func(txn *collab.WriteTxn) error {
		setBlock(txn, d.blocks, block)
		arr, ok := d.childrenMap.GetArray(parent.Children)
		if !ok {
			arr = d.childrenMap.SetArray(txn.Inner(), parent.Children)
		}
		idx := arr.Len()
		if prevID != "" {
			if pos := indexOfArray(arr, prevID); pos >= 0 {
				idx = pos + 1
			}
		} else {
			idx = 0
		}
		arr.Insert(txn.Inner(), idx, block.ID)

		childArr, ok := d.childrenMap.GetArray(block.Children)
		if !ok {
			d.childrenMap.SetArray(txn.Inner(), block.Children)
		} else {
			_ = childArr
		}
		return nil
	})
	if err != nil {
		return Block{}, err
	}
	return block, nil
}

// UpdateBlockData merges data into the block's data map, preserving ty,
// parent and children.
func (d *Document) UpdateBlockData(blockID string, data map[string]any) error {
	block, ok := d.GetBlock(blockID)
	if !ok {
		return collab.MissingRequiredData("block:" + blockID)
	}
	merged := make(map[string]any, len(block.Data)+len(data))
	for k, v := range block.Data {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	block.Data = merged
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		setBlock(txn, d.blocks, block)
		return nil
	})
}

// DeleteBlock removes block and its subtree in post-order: children
// entries first, then the parent's children array entry, then the
// block itself, then its external text entry if any.
func (d *Document) DeleteBlock(blockID string) error {
	block, ok := d.GetBlock(blockID)
	if !ok {
		return nil
	}
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		d.deleteSubtree(txn, block)
		if parent, ok := d.GetBlock(block.Parent); ok {
			if arr, ok := d.childrenMap.GetArray(parent.Children); ok {
				if pos := indexOfArray(arr, blockID); pos >= 0 {
					arr.Delete(txn.Inner(), pos)
				}
			}
		}
		return nil
	})
}

func (d *Document) deleteSubtree(txn *collab.WriteTxn, block Block) {
	for _, child := range d.GetBlockChildren(block.ID) {
		d.deleteSubtree(txn, child)
		if arr, ok := d.childrenMap.GetArray(block.Children); ok {
			if pos := indexOfArray(arr, child.ID); pos >= 0 {
				arr.Delete(txn.Inner(), pos)
			}
		}
	}
	d.childrenMap.Delete(txn.Inner(), block.Children)
	d.blocks.Delete(txn.Inner(), block.ID)
	if block.ExternalID != "" && d.textMap != nil {
		d.textMap.Delete(txn.Inner(), block.ExternalID)
	}
}

// MoveBlock relocates block to newParentID (or leaves it under its
// current parent if empty) at the position after prevID (head if
// empty). Fails with ErrCycleDetected if newParentID is block itself or
// one of its descendants.
func (d *Document) MoveBlock(blockID, newParentID, prevID string) error {
	block, ok := d.GetBlock(blockID)
	if !ok {
		return collab.MissingRequiredData("block:" + blockID)
	}
	if newParentID == "" {
		newParentID = block.Parent
	}
	if newParentID == blockID || d.isDescendant(blockID, newParentID) {
		return errCycleDetected
	}
	newParent, ok := d.GetBlock(newParentID)
	if !ok {
		return errParentNotFound
	}
	oldParent, hasOldParent := d.GetBlock(block.Parent)

	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		if hasOldParent {
			if arr, ok := d.childrenMap.GetArray(oldParent.Children); ok {
				if pos := indexOfArray(arr, blockID); pos >= 0 {
					arr.Delete(txn.Inner(), pos)
				}
			}
		}
		arr, ok := d.childrenMap.GetArray(newParent.Children)
		if !ok {
			arr = d.childrenMap.SetArray(txn.Inner(), newParent.Children)
		}
		idx := 0
		if prevID != "" {
			if pos := indexOfArray(arr, prevID); pos >= 0 {
				idx = pos + 1
			}
		}
		arr.Insert(txn.Inner(), idx, blockID)
		block.Parent = newParentID
		setBlock(txn, d.blocks, block)
		return nil
	})
}

func (d *Document) isDescendant(ancestorID, candidateID string) bool {
	visited := map[string]bool{}
	id := candidateID
	for {
		if visited[id] {
			return false
		}
		visited[id] = true
		b, ok := d.GetBlock(id)
		if !ok || b.Parent == "" {
			return false
		}
		if b.Parent == ancestorID {
			return true
		}
		id = b.Parent
	}
}

// textOp is one Quill-style delta operation: retain/insert/delete.
type textOp struct {
	Insert string `json:"insert,omitempty"`
	Retain int    `json:"retain,omitempty"`
	Delete int    `json:"delete,omitempty"`
}

// ApplyTextDelta parses deltaJSON and applies its retain/insert/delete
// ops to the text handle keyed by externalID, creating the handle if it
// doesn't exist yet. An empty or unparseable delta is a no-op.
func (d *Document) ApplyTextDelta(externalID, deltaJSON string) error {
	if deltaJSON == "" {
		return nil
	}
	var ops []textOp
	if err := json.Unmarshal([]byte(deltaJSON), &ops); err != nil {
		return nil
	}
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		text, ok := d.textMap.GetText(externalID)
		if !ok {
			text = d.textMap.SetText(txn.Inner(), externalID)
		}
		offset := 0
		for _, op := range ops {
			switch {
			case op.Retain > 0:
				offset += op.Retain
			case op.Insert != "":
				text.Insert(txn.Inner(), offset, op.Insert)
				offset += len([]rune(op.Insert))
			case op.Delete > 0:
				text.Delete(txn.Inner(), offset, op.Delete)
			}
		}
		return nil
	})
}

// ActionType enumerates the batched operations ApplyAction accepts.
type ActionType string

const (
	ActionInsert         ActionType = "insert"
	ActionUpdate         ActionType = "update"
	ActionDelete         ActionType = "delete"
	ActionMove           ActionType = "move"
	ActionInsertText     ActionType = "insert_text"
	ActionApplyTextDelta ActionType = "apply_text_delta"
)

// Action is one entry of a batched ApplyAction call.
type Action struct {
	Type       ActionType
	Block      *Block
	Data       map[string]any
	PrevID     string
	ParentID   string
	BlockID    string
	ExternalID string
	Delta      string
	Position   int
	Text       string
}

// ApplyAction runs a batch of actions inside one transaction. A payload
// missing the fields its action requires is silently skipped; ordering
// within the batch is preserved. If any step returns a structural error
// the whole batch is aborted and no earlier step's effect is kept.
func (d *Document) ApplyAction(actions []Action) error {
	return d.obj.Transact(func(txn *collab.WriteTxn) error {
		for _, a := range actions {
			if err := d.applyOne(txn, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Document) applyOne(txn *collab.WriteTxn, a Action) error {
	switch a.Type {
	case ActionInsert:
		if a.Block == nil {
			return nil
		}
		block := *a.Block
		if block.Parent == "" {
			block.Parent = a.ParentID
		}
		if block.Parent == "" {
			block.Parent = d.PageID()
		}
		if block.ID == "" {
			block.ID = idgen.New()
		}
		if block.Children == "" {
			block.Children = idgen.New()
		}
		parent, ok := d.GetBlock(block.Parent)
		if !ok {
			return errParentNotFound
		}
		setBlock(txn, d.blocks, block)
		arr, ok := d.childrenMap.GetArray(parent.Children)
		if !ok {
			arr = d.childrenMap.SetArray(txn.Inner(), parent.Children)
		}
		idx := arr.Len()
		if a.PrevID != "" {
			if pos := indexOfArray(arr, a.PrevID); pos >= 0 {
				idx = pos + 1
			}
		} else {
			idx = 0
		}
		arr.Insert(txn.Inner(), idx, block.ID)
		if _, ok := d.childrenMap.GetArray(block.Children); !ok {
			d.childrenMap.SetArray(txn.Inner(), block.Children)
		}
		return nil
	case ActionUpdate:
		if a.Block == nil {
			return nil
		}
		existing, ok := d.GetBlock(a.Block.ID)
		if !ok {
			return nil
		}
		merged := make(map[string]any, len(existing.Data)+len(a.Block.Data))
		for k, v := range existing.Data {
			merged[k] = v
		}
		for k, v := range a.Block.Data {
			merged[k] = v
		}
		existing.Data = merged
		setBlock(txn, d.blocks, existing)
		return nil
	case ActionDelete:
		if a.Block == nil && a.BlockID == "" {
			return nil
		}
		id := a.BlockID
		if id == "" {
			id = a.Block.ID
		}
		block, ok := d.GetBlock(id)
		if !ok {
			return nil
		}
		d.deleteSubtree(txn, block)
		if parent, ok := d.GetBlock(block.Parent); ok {
			if arr, ok := d.childrenMap.GetArray(parent.Children); ok {
				if pos := indexOfArray(arr, id); pos >= 0 {
					arr.Delete(txn.Inner(), pos)
				}
			}
		}
		return nil
	case ActionMove:
		id := a.BlockID
		if id == "" && a.Block != nil {
			id = a.Block.ID
		}
		if id == "" {
			return nil
		}
		block, ok := d.GetBlock(id)
		if !ok {
			return nil
		}
		newParentID := a.ParentID
		if newParentID == "" {
			newParentID = block.Parent
		}
		if newParentID == id || d.isDescendant(id, newParentID) {
			return errCycleDetected
		}
		newParent, ok := d.GetBlock(newParentID)
		if !ok {
			return nil
		}
		if oldParent, ok := d.GetBlock(block.Parent); ok {
			if arr, ok := d.childrenMap.GetArray(oldParent.Children); ok {
				if pos := indexOfArray(arr, id); pos >= 0 {
					arr.Delete(txn.Inner(), pos)
				}
			}
		}
		arr, ok := d.childrenMap.GetArray(newParent.Children)
		if !ok {
			arr = d.childrenMap.SetArray(txn.Inner(), newParent.Children)
		}
		idx := 0
		if a.PrevID != "" {
			if pos := indexOfArray(arr, a.PrevID); pos >= 0 {
				idx = pos + 1
			}
		}
		arr.Insert(txn.Inner(), idx, id)
		block.Parent = newParentID
		setBlock(txn, d.blocks, block)
		return nil
	case ActionInsertText:
		if a.ExternalID == "" || a.Text == "" {
			return nil
		}
		text, ok := d.textMap.GetText(a.ExternalID)
		if !ok {
			text = d.textMap.SetText(txn.Inner(), a.ExternalID)
		}
		text.Insert(txn.Inner(), a.Position, a.Text)
		return nil
	case ActionApplyTextDelta:
		if a.ExternalID == "" || a.Delta == "" {
			return nil
		}
		var ops []textOp
		if err := json.Unmarshal([]byte(a.Delta), &ops); err != nil {
			return nil
		}
		text, ok := d.textMap.GetText(a.ExternalID)
		if !ok {
			text = d.textMap.SetText(txn.Inner(), a.ExternalID)
		}
		offset := 0
		for _, op := range ops {
			switch {
			case op.Retain > 0:
				offset += op.Retain
			case op.Insert != "":
				text.Insert(txn.Inner(), offset, op.Insert)
				offset += len([]rune(op.Insert))
			case op.Delete > 0:
				text.Delete(txn.Inner(), offset, op.Delete)
			}
		}
		return nil
	default:
		return nil
	}
}

func indexOfArray(arr interface{ Values() []any }, id string) int {
	for i, v := range arr.Values() {
		if s, ok := v.(string); ok && s == id {
			return i
		}
	}
	return -1
}
